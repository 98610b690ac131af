//go:build linux

package autostart

import (
	"fmt"
	"os"
	"path/filepath"
)

const desktopEntry = "[Desktop Entry]\nType=Application\nName=Brandy Box\nExec=%s\nX-GNOME-Autostart-enabled=true\n"

func set(enabled bool) error {
	dir, err := autostartDir()
	if err != nil {
		return err
	}
	desktopFile := filepath.Join(dir, "brandybox.desktop")

	if !enabled {
		if err := os.Remove(desktopFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove autostart entry: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create autostart directory: %w", err)
	}

	exe, err := executableCommand()
	if err != nil {
		return err
	}
	content := fmt.Sprintf(desktopEntry, exe)
	if err := os.WriteFile(desktopFile, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write autostart entry: %w", err)
	}
	return nil
}

func autostartDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "autostart"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "autostart"), nil
}

func executableCommand() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable path: %w", err)
	}
	return exe, nil
}
