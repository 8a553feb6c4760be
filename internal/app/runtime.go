package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"shelfhost/internal/bus"
	"shelfhost/internal/config"
	"shelfhost/internal/logging"
	"shelfhost/internal/platform"
	"shelfhost/internal/server"
	"shelfhost/internal/users"
)

// Runtime wires together everything the UI needs: configuration stores,
// the user manager, the message bus, and the server lifecycle controller.
type Runtime struct {
	Paths      Paths
	Config     config.AppConfig
	Settings   *config.SettingsStore
	Users      *users.Manager
	Bus        bus.MessageBus
	Controller *ServerController
	Autostart  platform.AutostartManager

	logManager *logging.Manager
	logger     *slog.Logger
}

func Initialize(ctx context.Context) (*Runtime, error) {
	paths, err := ResolvePaths()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logManager := logging.NewManager()
	if err := logManager.Configure(cfg.Logging.Level, cfg.Logging.LogToFile, paths.LogFile); err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	logger := logManager.Logger("app.runtime")

	userManager, err := users.Open(ctx, paths.UserDBFile, logManager.Logger("users"))
	if err != nil {
		return nil, err
	}

	messageBus := bus.New(logManager.Logger("bus"))
	settingsStore := config.NewSettingsStore(paths.ServerSettingsFile)

	rt := &Runtime{
		Paths:      paths,
		Config:     cfg,
		Settings:   settingsStore,
		Users:      userManager,
		Bus:        messageBus,
		Autostart:  platform.NewAutostartManager(),
		logManager: logManager,
		logger:     logger,
	}
	rt.Controller = NewServerController(rt.buildServer, messageBus, logManager.Logger("app.server_controller"))

	logger.Info("runtime initialized", "version", BuildVersionWithDate(), "root", paths.RootDir)

	return rt, nil
}

// buildServer constructs a fresh content server from the persisted
// settings, so every start picks up the latest committed configuration.
func (rt *Runtime) buildServer() (ServerProcess, error) {
	settings, err := rt.Settings.Load()
	if err != nil {
		return nil, fmt.Errorf("load server settings: %w", err)
	}

	opts := server.OptionsFromSettings(settings, rt.LibraryDir())

	return server.New(opts, rt.Users, rt.Paths.ErrorLogFile, rt.Paths.AccessLogFile), nil
}

// LibraryDir returns the configured library directory, falling back to the
// default under the app config root.
func (rt *Runtime) LibraryDir() string {
	if dir := strings.TrimSpace(rt.Config.Host.LibraryDir); dir != "" {
		return dir
	}

	return rt.Paths.DefaultLibraryDir
}

// ReplaceUsers commits a working copy of the user mapping and announces
// the change on the bus.
func (rt *Runtime) ReplaceUsers(ctx context.Context, records map[string]users.Record) error {
	if err := rt.Users.Replace(ctx, records); err != nil {
		return err
	}
	rt.Bus.Publish(bus.TopicUsersChanged, len(records))

	return nil
}

// SaveAppConfig persists host-app preferences, reconfigures logging, and
// syncs login autostart registration. An *AutostartSyncWarning means the
// config itself was saved.
func (rt *Runtime) SaveAppConfig(cfg config.AppConfig) error {
	if err := config.Save(rt.Paths.ConfigFile, cfg); err != nil {
		return err
	}
	rt.Config = cfg
	if err := rt.logManager.Configure(cfg.Logging.Level, cfg.Logging.LogToFile, rt.Paths.LogFile); err != nil {
		return fmt.Errorf("reconfigure logging: %w", err)
	}
	if err := rt.syncAutostart(cfg); err != nil {
		return &AutostartSyncWarning{Err: err}
	}

	return nil
}

func (rt *Runtime) Close() error {
	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeoutOnClose)
	defer cancel()
	if err := rt.Controller.Stop(stopCtx); err != nil {
		rt.logger.Warn("stop server on close", "error", err)
	}

	rt.Bus.Close()
	if err := rt.Users.Close(); err != nil {
		rt.logger.Warn("close user db", "error", err)
	}

	return rt.logManager.Close()
}
