package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Home returns the engine home directory holding codenav.yaml and the
// session database.
// Priority: $CODENAV_HOME -> $XDG_CACHE_HOME/codenav -> ~/.cache/codenav (Unix) / %LOCALAPPDATA%\codenav (Windows)
func Home() (string, error) {
	if home := os.Getenv("CODENAV_HOME"); home != "" {
		return home, nil
	}

	if runtime.GOOS != "windows" {
		if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
			return filepath.Join(xdgCache, "codenav"), nil
		}
	}

	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(userHome, "AppData", "Local", "codenav"), nil
	default:
		return filepath.Join(userHome, ".cache", "codenav"), nil
	}
}

// ResolveHome returns dir when set, the default home otherwise, and makes
// sure the directory exists.
func ResolveHome(dir string) (string, error) {
	if dir == "" {
		home, err := Home()
		if err != nil {
			return "", err
		}
		dir = home
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return dir, nil
}
