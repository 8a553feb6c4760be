package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	autostartEntryName = "shelfhost"
	// StartHiddenArg asks the app to start minimized to the tray.
	StartHiddenArg = "--start-hidden"
)

// AutostartConfig describes the desired login-launch registration.
type AutostartConfig struct {
	Enabled bool
	Hidden  bool
}

// AutostartManager registers or unregisters the app for launch at login.
type AutostartManager interface {
	Sync(cfg AutostartConfig) error
}

func NewAutostartManager() AutostartManager {
	return newAutostartManager()
}

func launchArgs(cfg AutostartConfig) []string {
	if cfg.Hidden {
		return []string{StartHiddenArg}
	}

	return nil
}

func buildLaunchCommand(cfg AutostartConfig) (string, []string, error) {
	executable, err := resolveExecutablePath()
	if err != nil {
		return "", nil, err
	}

	return executable, launchArgs(cfg), nil
}

func resolveExecutablePath() (string, error) {
	rawPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable path: %w", err)
	}
	trimmed := strings.TrimSpace(rawPath)
	if trimmed == "" {
		return "", fmt.Errorf("resolve executable path: path is empty")
	}
	if !filepath.IsAbs(trimmed) {
		trimmed, err = filepath.Abs(trimmed)
		if err != nil {
			return "", fmt.Errorf("resolve executable absolute path: %w", err)
		}
	}

	if resolved, err := filepath.EvalSymlinks(trimmed); err == nil {
		trimmed = resolved
	}

	return filepath.Clean(trimmed), nil
}
