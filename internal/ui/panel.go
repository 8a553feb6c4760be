package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"shelfhost/internal/app"
	"shelfhost/internal/bus"
	"shelfhost/internal/config"
)

const serverOpTimeout = 2 * time.Minute

var panelLogger = slog.With("component", "ui.server_panel")

// errNoAccounts aborts a commit when auth is enabled without any user
// accounts.
var errNoAccounts = errors.New("you have turned on the setting to require passwords to access " +
	"the content server, but you have not created any user accounts; create at least one " +
	"user account in the \"User accounts\" tab to proceed")

// serverPanel composes the three preference tabs and owns commit,
// lifecycle and log-viewing actions.
type serverPanel struct {
	dep Dependencies

	tabs        *container.AppTabs
	mainTab     *mainTab
	usersTab    *usersTab
	advancedTab *advancedTab

	usersTabItem *container.TabItem

	changed bool
}

func newServerPanel(dep Dependencies) (*serverPanel, error) {
	applyDefaultHooks(&dep)

	settings, err := dep.Data.LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("load server settings: %w", err)
	}

	panel := &serverPanel{dep: dep}
	panel.mainTab = newMainTab(settings, dep.Data.Config, panel.markChanged)
	panel.usersTab = newUsersTab(dep, panel.markChanged)
	panel.advancedTab = newAdvancedTab(settings, panel.markChanged)

	if err := panel.usersTab.Genesis(context.Background()); err != nil {
		return nil, err
	}

	panel.usersTabItem = container.NewTabItem("User accounts", panel.usersTab.CanvasObject())
	panel.tabs = container.NewAppTabs(
		container.NewTabItem("Main", panel.mainTab.CanvasObject()),
		panel.usersTabItem,
		container.NewTabItem("Advanced", panel.advancedTab.CanvasObject()),
	)

	panel.mainTab.startButton.OnTapped = panel.startServer
	panel.mainTab.stopButton.OnTapped = panel.stopServer
	panel.mainTab.testButton.OnTapped = panel.testServer
	panel.mainTab.logsButton.OnTapped = panel.showLogs

	panel.updateButtonState()
	panel.subscribeServerState()

	return panel, nil
}

func applyDefaultHooks(dep *Dependencies) {
	if dep.UIHooks.RunOnUI == nil {
		dep.UIHooks.RunOnUI = fyne.Do
	}
	if dep.UIHooks.RunAsync == nil {
		dep.UIHooks.RunAsync = func(fn func()) { go fn() }
	}
	if dep.UIHooks.ShowErrorDialog == nil {
		dep.UIHooks.ShowErrorDialog = dialog.ShowError
	}
	if dep.UIHooks.ShowInfoDialog == nil {
		dep.UIHooks.ShowInfoDialog = dialog.ShowInformation
	}
	if dep.UIHooks.CurrentWindow == nil {
		dep.UIHooks.CurrentWindow = func() fyne.Window { return nil }
	}
	if dep.UIHooks.OpenURL == nil {
		dep.UIHooks.OpenURL = func(u *url.URL) error {
			currentApp := fyne.CurrentApp()
			if currentApp == nil {
				return fmt.Errorf("application is not running")
			}

			return currentApp.OpenURL(u)
		}
	}
}

func (p *serverPanel) markChanged() {
	p.changed = true
}

// Settings gathers the snapshot from every tab.
func (p *serverPanel) Settings() config.Settings {
	settings := p.advancedTab.Settings()
	for name, value := range p.mainTab.Settings() {
		settings[name] = value
	}

	return settings
}

// SaveChanges validates and persists the settings snapshot, the user
// working copy, and host-app preferences. On a validation failure nothing
// is persisted and the offending tab is brought to the front.
func (p *serverPanel) SaveChanges() error {
	settings := p.Settings()

	if settings["auth"].Bool() && len(p.usersTab.WorkingCopy()) == 0 {
		p.tabs.Select(p.usersTabItem)
		panelLogger.Warn("commit rejected: auth enabled with no user accounts")

		return errNoAccounts
	}

	if err := p.dep.Actions.SaveSettings(settings); err != nil {
		return fmt.Errorf("save server settings: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), serverOpTimeout)
	defer cancel()
	if err := p.dep.Actions.ReplaceUsers(ctx, p.usersTab.WorkingCopy()); err != nil {
		return fmt.Errorf("save user accounts: %w", err)
	}

	if p.dep.Actions.SaveAppConfig != nil {
		cfg := p.dep.Data.Config
		cfg.Host.Autolaunch = p.mainTab.Autolaunch()
		cfg.Host.StartAtLogin = p.mainTab.StartAtLogin()
		if err := p.dep.Actions.SaveAppConfig(cfg); err != nil {
			var warning *app.AutostartSyncWarning
			if !errors.As(err, &warning) {
				return fmt.Errorf("save app config: %w", err)
			}
			// The config itself was saved; only autostart registration failed.
			panelLogger.Warn("saved with warning", "error", warning)
			p.dep.UIHooks.ShowInfoDialog("Saved with warning", warning.Error(), p.dep.UIHooks.CurrentWindow())
		}
		p.dep.Data.Config = cfg
	}

	p.changed = false
	panelLogger.Info("server preferences committed")

	return nil
}

// Commit persists all changes and reminds the user that a server restart
// is needed before they take effect.
func (p *serverPanel) Commit() error {
	if err := p.SaveChanges(); err != nil {
		p.dep.UIHooks.ShowErrorDialog(err, p.dep.UIHooks.CurrentWindow())

		return err
	}
	p.dep.UIHooks.ShowInfoDialog(
		"Restart needed",
		"You need to restart the server for the changes to take effect.",
		p.dep.UIHooks.CurrentWindow(),
	)

	return nil
}

// RestoreDefaults resets every tab to registry defaults.
func (p *serverPanel) RestoreDefaults() {
	p.mainTab.RestoreDefaults()
	p.advancedTab.RestoreDefaults()
	p.markChanged()
}

func (p *serverPanel) startServer() {
	if err := p.SaveChanges(); err != nil {
		p.dep.UIHooks.ShowErrorDialog(err, p.dep.UIHooks.CurrentWindow())

		return
	}

	panelLogger.Info("starting content server")
	p.mainTab.startButton.Disable()
	p.dep.UIHooks.RunAsync(func() {
		ctx, cancel := context.WithTimeout(context.Background(), serverOpTimeout)
		defer cancel()
		err := p.dep.Actions.StartServer(ctx)
		p.dep.UIHooks.RunOnUI(func() {
			p.updateButtonState()
			if err != nil {
				panelLogger.Warn("content server failed to start", "error", err)
				p.dep.UIHooks.ShowErrorDialog(
					fmt.Errorf("failed to start content server: %w", err),
					p.dep.UIHooks.CurrentWindow(),
				)
			}
		})
	})
}

func (p *serverPanel) stopServer() {
	window := p.dep.UIHooks.CurrentWindow()
	stoppingBar := widget.NewProgressBarInfinite()
	stoppingBar.Start()
	var stopping *dialog.CustomDialog
	if window != nil {
		stopping = dialog.NewCustomWithoutButtons(
			"Stopping",
			container.NewVBox(
				widget.NewLabel("Stopping server, this could take up to a minute, please wait..."),
				stoppingBar,
			),
			window,
		)
		stopping.Show()
	}

	panelLogger.Info("stopping content server")
	p.mainTab.stopButton.Disable()
	p.dep.UIHooks.RunAsync(func() {
		ctx, cancel := context.WithTimeout(context.Background(), serverOpTimeout)
		defer cancel()
		err := p.dep.Actions.StopServer(ctx)
		p.dep.UIHooks.RunOnUI(func() {
			stoppingBar.Stop()
			if stopping != nil {
				stopping.Hide()
			}
			p.updateButtonState()
			if err != nil {
				panelLogger.Warn("content server failed to stop", "error", err)
				p.dep.UIHooks.ShowErrorDialog(err, p.dep.UIHooks.CurrentWindow())
			}
		})
	})
}

func (p *serverPanel) testServer() {
	prefix := ""
	if value, ok := p.advancedTab.Value("url_prefix"); ok {
		prefix = value.Text()
	}
	target := app.TestURL(p.mainTab.Port(), prefix)
	panelLogger.Info("opening test url", "url", target.String())
	if err := p.dep.UIHooks.OpenURL(target); err != nil {
		p.dep.UIHooks.ShowErrorDialog(err, p.dep.UIHooks.CurrentWindow())
	}
}

func (p *serverPanel) showLogs() {
	showServerLogs(p.dep.UIHooks.CurrentWindow(), p.dep.Data.ErrorLogPath, p.dep.Data.AccessLogPath)
}

func (p *serverPanel) serverState() app.ServerState {
	if p.dep.Data.ServerState == nil {
		return app.ServerStopped
	}

	return p.dep.Data.ServerState()
}

func (p *serverPanel) updateButtonState() {
	p.mainTab.UpdateButtonState(p.serverState())
}

// subscribeServerState keeps button enablement in step with lifecycle
// transitions published on the bus.
func (p *serverPanel) subscribeServerState() {
	if p.dep.Data.Bus == nil {
		return
	}
	sub := p.dep.Data.Bus.Subscribe(bus.TopicServerState)
	go func() {
		for range sub {
			p.dep.UIHooks.RunOnUI(p.updateButtonState)
		}
	}()
}

func (p *serverPanel) CanvasObject() fyne.CanvasObject {
	return p.tabs
}
