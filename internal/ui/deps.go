package ui

import (
	"context"
	"net/url"

	"fyne.io/fyne/v2"

	"shelfhost/internal/app"
	"shelfhost/internal/bus"
	"shelfhost/internal/config"
	"shelfhost/internal/notifications"
	"shelfhost/internal/users"
)

type DataDependencies struct {
	Config        config.AppConfig
	Bus           bus.MessageBus
	ServerState   func() app.ServerState
	LoadSettings  func() (config.Settings, error)
	LoadUsers     func(ctx context.Context) (map[string]users.Record, error)
	ErrorLogPath  string
	AccessLogPath string
}

type ActionDependencies struct {
	StartServer   func(ctx context.Context) error
	StopServer    func(ctx context.Context) error
	SaveSettings  func(settings config.Settings) error
	ReplaceUsers  func(ctx context.Context, records map[string]users.Record) error
	SaveAppConfig func(cfg config.AppConfig) error
	// StartNotifier receives the GUI-backed notification sender once the
	// Fyne app exists, so lifecycle notifications go through the desktop
	// environment of the running session.
	StartNotifier func(sender notifications.Sender)
	OnQuit        func()
}

type UIHooks struct {
	CurrentWindow   func() fyne.Window
	RunOnUI         func(func())
	RunAsync        func(func())
	ShowErrorDialog func(err error, window fyne.Window)
	ShowInfoDialog  func(title, message string, window fyne.Window)
	OpenURL         func(u *url.URL) error
}

// LaunchOptions captures command-line launch behavior.
type LaunchOptions struct {
	StartHidden bool
}

type Dependencies struct {
	Data    DataDependencies
	Actions ActionDependencies
	UIHooks UIHooks
	Launch  LaunchOptions
}
