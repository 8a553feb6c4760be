package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"shelfhost/internal/app"
	"shelfhost/internal/bus"
	"shelfhost/internal/config"
	"shelfhost/internal/logging"
	"shelfhost/internal/notifications"
	"shelfhost/internal/server"
	"shelfhost/internal/users"
)

func main() {
	if err := run(); err != nil {
		slog.Error("run server", "error", err)
		os.Exit(1)
	}
}

func run() error {
	port := flag.Int("port", 0, "override the stored server port (0 keeps the stored setting)")
	library := flag.String("library", "", "override the shared library directory")
	listenFor := flag.Duration("listen-for", 0, "serve duration, e.g. 30s (0 serves until interrupt)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, err := app.ResolvePaths()
	if err != nil {
		return fmt.Errorf("resolve paths: %w", err)
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logMgr := logging.NewManager()
	if err := logMgr.Configure(cfg.Logging.Level, false, paths.LogFile); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer func() {
		if closeErr := logMgr.Close(); closeErr != nil {
			slog.Warn("close log manager", "error", closeErr)
		}
	}()
	logger := logMgr.Logger("cli")
	logger.Info("starting shelfhost server", "version", app.BuildVersionWithDate())

	userManager, err := users.Open(ctx, paths.UserDBFile, logMgr.Logger("users"))
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := userManager.Close(); closeErr != nil {
			logger.Warn("close user db", "error", closeErr)
		}
	}()

	settingsStore := config.NewSettingsStore(paths.ServerSettingsFile)
	settings, err := settingsStore.Load()
	if err != nil {
		return fmt.Errorf("load server settings: %w", err)
	}
	if *port > 0 {
		settings["port"] = config.IntValue(*port)
	}

	// The desktop app refuses to commit auth without accounts; a stale or
	// hand-edited settings file can still combine the two and would lock
	// every client out.
	if settings["auth"].Bool() {
		count, countErr := userManager.Count(ctx)
		if countErr != nil {
			return fmt.Errorf("count user accounts: %w", countErr)
		}
		if count == 0 {
			return fmt.Errorf("authentication is enabled but no user accounts exist; " +
				"add accounts in the desktop app or disable authentication")
		}
	}

	libraryDir := strings.TrimSpace(*library)
	if libraryDir == "" {
		libraryDir = strings.TrimSpace(cfg.Host.LibraryDir)
	}
	if libraryDir == "" {
		libraryDir = paths.DefaultLibraryDir
	}

	b := bus.New(logMgr.Logger("bus"))
	defer b.Close()

	notifier := app.NewNotifier(b, notifications.NewBeeepSender(app.Name, logMgr.Logger("notifications")), logMgr.Logger("app.notifier"))
	notifier.Start(ctx)

	factory := func() (app.ServerProcess, error) {
		opts := server.OptionsFromSettings(settings, libraryDir)

		return server.New(opts, userManager, paths.ErrorLogFile, paths.AccessLogFile), nil
	}
	controller := app.NewServerController(factory, b, logMgr.Logger("app.server_controller"))

	if err := controller.Start(ctx); err != nil {
		return fmt.Errorf("start content server: %w", err)
	}
	logger.Info("content server running", "port", settings["port"].Int(), "library", libraryDir)
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if stopErr := controller.Stop(stopCtx); stopErr != nil {
			logger.Warn("stop content server", "error", stopErr)
		}
	}()

	if *listenFor > 0 {
		logger.Info("serving for a fixed duration", "duration", *listenFor)
		select {
		case <-ctx.Done():
		case <-time.After(*listenFor):
		}

		return nil
	}

	logger.Info("serving until interrupt")
	<-ctx.Done()

	return nil
}
