//go:build linux

package autostart

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSetEnabledWritesDesktopEntry(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if err := Set(true); err != nil {
		t.Fatalf("Set(true): %v", err)
	}

	dir, err := autostartDir()
	if err != nil {
		t.Fatalf("autostartDir: %v", err)
	}
	content, err := os.ReadFile(filepath.Join(dir, "brandybox.desktop"))
	if err != nil {
		t.Fatalf("expected desktop entry written: %v", err)
	}
	if string(content) == "" {
		t.Fatal("expected non-empty desktop entry")
	}
}

func TestSetDisabledRemovesDesktopEntry(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if err := Set(true); err != nil {
		t.Fatalf("Set(true): %v", err)
	}
	if err := Set(false); err != nil {
		t.Fatalf("Set(false): %v", err)
	}

	dir, _ := autostartDir()
	if _, err := os.Stat(filepath.Join(dir, "brandybox.desktop")); !os.IsNotExist(err) {
		t.Fatalf("expected desktop entry removed, stat err=%v", err)
	}
}

func TestSetDisabledWithoutExistingEntryIsNoop(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if err := Set(false); err != nil {
		t.Fatalf("expected no error disabling with nothing to remove, got %v", err)
	}
}
