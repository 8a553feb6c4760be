package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths stores resolved runtime file locations for user config, the user
// database, logs, and the default shared library directory.
type Paths struct {
	RootDir            string
	ConfigFile         string
	ServerSettingsFile string
	UserDBFile         string
	LogFile            string
	ErrorLogFile       string
	AccessLogFile      string
	DefaultLibraryDir  string
}

func ResolvePaths() (Paths, error) {
	cfgRoot, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("resolve config dir: %w", err)
	}

	root := filepath.Join(cfgRoot, Name)
	if err := os.MkdirAll(root, 0o750); err != nil {
		return Paths{}, fmt.Errorf("create app config dir: %w", err)
	}
	library := filepath.Join(root, LibraryDirName)
	if err := os.MkdirAll(library, 0o750); err != nil {
		return Paths{}, fmt.Errorf("create default library dir: %w", err)
	}

	return Paths{
		RootDir:            root,
		ConfigFile:         filepath.Join(root, ConfigFilename),
		ServerSettingsFile: filepath.Join(root, ServerSettingsFilename),
		UserDBFile:         filepath.Join(root, UserDBFilename),
		LogFile:            filepath.Join(root, LogFilename),
		ErrorLogFile:       filepath.Join(root, ErrorLogFilename),
		AccessLogFile:      filepath.Join(root, AccessLogFilename),
		DefaultLibraryDir:  library,
	}, nil
}
