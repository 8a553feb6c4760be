package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"shelfhost/internal/app"
	"shelfhost/internal/notifications"
	"shelfhost/internal/platform"
	"shelfhost/internal/ui"
)

type launchOptions struct {
	StartHidden bool
}

func parseLaunchOptions(args []string) (launchOptions, error) {
	var opts launchOptions
	fs := flag.NewFlagSet("shelfhost", flag.ContinueOnError)
	fs.BoolVar(&opts.StartHidden, "start-hidden", false, "start minimized to the system tray")
	if err := fs.Parse(args); err != nil {
		return launchOptions{}, err
	}
	if fs.NArg() > 0 {
		return launchOptions{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	return opts, nil
}

func main() {
	opts, err := parseLaunchOptions(os.Args[1:])
	if err != nil {
		slog.Error("parse launch options", "error", err)
		os.Exit(2)
	}

	lock, err := platform.AcquireInstanceLock(app.Name)
	if err != nil {
		if errors.Is(err, platform.ErrInstanceAlreadyRunning) {
			slog.Error("another shelfhost instance is already running")
			os.Exit(1)
		}
		if !errors.Is(err, platform.ErrInstanceLockUnsupported) {
			slog.Error("acquire instance lock", "error", err)
			os.Exit(1)
		}
		slog.Warn("single-instance lock unavailable", "error", err)
	}
	if lock != nil {
		defer func() {
			_ = lock.Release()
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Initialize(ctx)
	if err != nil {
		slog.Error("initialize app runtime", "error", err)
		os.Exit(1)
	}

	var closeOnce sync.Once
	closeRuntime := func() {
		closeOnce.Do(func() {
			_ = rt.Close()
		})
	}
	defer closeRuntime()

	err = ui.Run(ui.Dependencies{
		Data: ui.DataDependencies{
			Config:        rt.Config,
			Bus:           rt.Bus,
			ServerState:   rt.Controller.State,
			LoadSettings:  rt.Settings.Load,
			LoadUsers:     rt.Users.Load,
			ErrorLogPath:  rt.Paths.ErrorLogFile,
			AccessLogPath: rt.Paths.AccessLogFile,
		},
		Actions: ui.ActionDependencies{
			StartServer:   rt.Controller.Start,
			StopServer:    rt.Controller.Stop,
			SaveSettings:  rt.Settings.Save,
			ReplaceUsers:  rt.ReplaceUsers,
			SaveAppConfig: rt.SaveAppConfig,
			StartNotifier: func(sender notifications.Sender) {
				app.NewNotifier(rt.Bus, sender, nil).Start(ctx)
			},
			OnQuit: func() {
				stop()
				closeRuntime()
			},
		},
		Launch: ui.LaunchOptions{StartHidden: opts.StartHidden},
	})
	if err != nil {
		slog.Error("run ui", "error", err)
		os.Exit(1)
	}
}
