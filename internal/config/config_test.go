package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetReturnsNonNil(t *testing.T) {
	cfg = nil

	c := Get()

	if c == nil {
		t.Fatal("Get() should never return nil")
	}
	if c.BaseURLMode != BaseURLAuto {
		t.Errorf("expected default BaseURLMode %q, got %q", BaseURLAuto, c.BaseURLMode)
	}
}

func TestSetSyncFolder(t *testing.T) {
	cfg = &Config{}

	SetSyncFolder("/home/user/BrandyBox")

	if got := Get().SyncFolder; got != "/home/user/BrandyBox" {
		t.Errorf("expected SyncFolder %q, got %q", "/home/user/BrandyBox", got)
	}
}

func TestIsConfigured(t *testing.T) {
	tests := []struct {
		name       string
		syncFolder string
		expected   bool
	}{
		{"empty folder", "", false},
		{"folder set", "/tmp/sync", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg = &Config{SyncFolder: tt.syncFolder}
			if got := IsConfigured(); got != tt.expected {
				t.Errorf("IsConfigured() = %v, expected %v", got, tt.expected)
			}
			if got := cfg.IsConfigured(); got != tt.expected {
				t.Errorf("(*Config).IsConfigured() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestSetBaseURLSwitchesToManualMode(t *testing.T) {
	cfg = &Config{BaseURLMode: BaseURLAuto}

	SetBaseURL("https://brandybox.example.com")

	c := Get()
	if c.BaseURL != "https://brandybox.example.com" {
		t.Errorf("expected BaseURL to be set, got %q", c.BaseURL)
	}
	if c.BaseURLMode != BaseURLManual {
		t.Errorf("expected mode %q, got %q", BaseURLManual, c.BaseURLMode)
	}
}

func TestSetAPIKeyAndPort(t *testing.T) {
	cfg = &Config{}

	SetAPIKey("secret-api-key")
	SetAPIPort(9000)

	c := Get()
	if c.APIKey != "secret-api-key" {
		t.Errorf("expected APIKey %q, got %q", "secret-api-key", c.APIKey)
	}
	if c.APIPort != 9000 {
		t.Errorf("expected APIPort 9000, got %d", c.APIPort)
	}
}

func TestSetRefreshToken(t *testing.T) {
	cfg = &Config{}

	SetRefreshToken("rtok-123")

	if got := Get().RefreshToken; got != "rtok-123" {
		t.Errorf("expected RefreshToken %q, got %q", "rtok-123", got)
	}
}

func TestDirHonorsTestModeOverride(t *testing.T) {
	t.Setenv("BRANDYBOX_CONFIG_DIR", "/tmp/brandybox-test-config")

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() error: %v", err)
	}
	if dir != "/tmp/brandybox-test-config" {
		t.Errorf("expected override dir, got %q", dir)
	}
	if !IsTestMode() {
		t.Error("expected IsTestMode() true when BRANDYBOX_CONFIG_DIR is set")
	}
}

func TestIsTestModeFalseByDefault(t *testing.T) {
	t.Setenv("BRANDYBOX_CONFIG_DIR", "")
	if IsTestMode() {
		t.Error("expected IsTestMode() false when BRANDYBOX_CONFIG_DIR is unset")
	}
}

func TestSavePersistsAtZeroSixHundred(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BRANDYBOX_CONFIG_DIR", dir)

	if err := Init(); err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	SetSyncFolder("/home/user/BrandyBox")
	SetRefreshToken("rtok-secret")
	if err := Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	path := filepath.Join(dir, "config.json")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat(%q) error: %v", path, err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("config file mode = %v, want 0600", info.Mode().Perm())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "config.json" {
		t.Errorf("config dir contains %v, want only config.json (no leftover temp file)", entries)
	}
}

func TestSaveThenInitRoundTripsRefreshToken(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BRANDYBOX_CONFIG_DIR", dir)

	if err := Init(); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	SetRefreshToken("rtok-roundtrip")
	SetSyncFolder("/home/user/BrandyBox")
	if err := Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	cfg = nil
	if err := Init(); err != nil {
		t.Fatalf("second Init() error: %v", err)
	}

	c := Get()
	if c.RefreshToken != "rtok-roundtrip" {
		t.Errorf("RefreshToken = %q, want %q", c.RefreshToken, "rtok-roundtrip")
	}
	if c.SyncFolder != "/home/user/BrandyBox" {
		t.Errorf("SyncFolder = %q, want %q", c.SyncFolder, "/home/user/BrandyBox")
	}
}
