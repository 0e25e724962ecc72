// ABOUTME: XDG Base Directory specification helpers
// ABOUTME: Resolves the config directory with fallback
package config

import (
	"os"
	"path/filepath"
)

// GetConfigHome returns XDG_CONFIG_HOME or fallback to ~/.config
func GetConfigHome() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return xdg
	}
	home := os.Getenv("HOME")
	return filepath.Join(home, ".config")
}
