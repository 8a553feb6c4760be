package ui

import (
	"context"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"shelfhost/internal/resources"
)

// Run builds the main window around the server preferences panel and
// blocks until the application quits.
func Run(dep Dependencies) error {
	fyApp := fyneapp.NewWithID("shelfhost")
	icon := resources.AppIconResource()
	fyApp.SetIcon(icon)

	if dep.Actions.StartNotifier != nil {
		dep.Actions.StartNotifier(NewFyneNotificationSender(fyApp))
	}

	window := fyApp.NewWindow("shelfhost")
	window.Resize(fyne.NewSize(760, 560))

	if dep.UIHooks.CurrentWindow == nil {
		dep.UIHooks.CurrentWindow = func() fyne.Window { return window }
	}

	panel, err := newServerPanel(dep)
	if err != nil {
		return err
	}

	applyButton := widget.NewButton("Apply", func() {
		_ = panel.Commit()
	})
	applyButton.Importance = widget.HighImportance
	restoreButton := widget.NewButton("Restore defaults", func() {
		panel.RestoreDefaults()
	})
	bottom := container.NewHBox(restoreButton, layout.NewSpacer(), applyButton)

	window.SetContent(container.NewBorder(nil, bottom, nil, nil, panel.CanvasObject()))

	var shutdownOnce sync.Once
	quit := func() {
		shutdownOnce.Do(func() {
			if dep.Actions.OnQuit != nil {
				dep.Actions.OnQuit()
			}
			fyApp.Quit()
		})
	}

	window.SetCloseIntercept(func() {
		window.Hide()
	})

	if desk, ok := fyApp.(desktop.App); ok {
		desk.SetSystemTrayIcon(resources.TrayIconResource())
		desk.SetSystemTrayMenu(fyne.NewMenu("shelfhost",
			fyne.NewMenuItem("Show", func() {
				window.Show()
				window.RequestFocus()
			}),
			fyne.NewMenuItem("Quit", func() {
				quit()
			}),
		))
	}

	if dep.Data.Config.Host.Autolaunch && dep.Actions.StartServer != nil {
		go func() {
			if err := dep.Actions.StartServer(context.Background()); err != nil {
				slog.Warn("autolaunch failed", "component", "ui.app", "error", err)

				return
			}
			fyne.Do(panel.updateButtonState)
		}()
	}

	if dep.Launch.StartHidden {
		// Tray-only start; the window shows on demand from the tray menu.
		window.Hide()
	} else {
		window.Show()
	}
	fyApp.Run()
	shutdownOnce.Do(func() {
		if dep.Actions.OnQuit != nil {
			dep.Actions.OnQuit()
		}
	})

	return nil
}
