package ui

import (
	"strings"

	"fyne.io/fyne/v2"

	"shelfhost/internal/notifications"
)

type notificationPoster interface {
	SendNotification(*fyne.Notification)
}

// FyneNotificationSender bridges app notifications to native Fyne
// notifications while the GUI event loop is running.
type FyneNotificationSender struct {
	app notificationPoster
}

func NewFyneNotificationSender(app fyne.App) *FyneNotificationSender {
	return &FyneNotificationSender{app: app}
}

func (s *FyneNotificationSender) Send(payload notifications.Payload) {
	if s == nil || s.app == nil {
		return
	}

	title := strings.TrimSpace(payload.Title)
	content := strings.TrimSpace(payload.Content)
	if title == "" && content == "" {
		return
	}

	fyne.Do(func() {
		s.app.SendNotification(fyne.NewNotification(title, content))
	})
}
