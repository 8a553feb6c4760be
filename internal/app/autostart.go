package app

import (
	"fmt"

	"shelfhost/internal/config"
	"shelfhost/internal/platform"
)

// AutostartSyncWarning signals that the config save succeeded but login
// autostart registration failed.
type AutostartSyncWarning struct {
	Err error
}

func (w *AutostartSyncWarning) Error() string {
	if w == nil || w.Err == nil {
		return "autostart sync failed"
	}

	return fmt.Sprintf("autostart sync failed: %v", w.Err)
}

func (w *AutostartSyncWarning) Unwrap() error {
	if w == nil {
		return nil
	}

	return w.Err
}

func (rt *Runtime) syncAutostart(cfg config.AppConfig) error {
	if rt.Autostart == nil {
		return nil
	}

	rt.logger.Info("syncing autostart registration", "enabled", cfg.Host.StartAtLogin)

	// Launch hidden: the app lives in the tray and the server starts on
	// its own when autolaunch is on.
	return rt.Autostart.Sync(platform.AutostartConfig{
		Enabled: cfg.Host.StartAtLogin,
		Hidden:  true,
	})
}
