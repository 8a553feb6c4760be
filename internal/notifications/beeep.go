package notifications

import (
	"log/slog"
	"strings"

	"github.com/gen2brain/beeep"
)

// BeeepSender delivers notifications through the OS notification daemon.
// It works without a running Fyne event loop, which matters for the
// headless server command.
type BeeepSender struct {
	appName string
	logger  *slog.Logger
}

func NewBeeepSender(appName string, logger *slog.Logger) *BeeepSender {
	if logger == nil {
		logger = slog.Default().With("component", "notifications.beeep")
	}

	return &BeeepSender{appName: appName, logger: logger}
}

func (s *BeeepSender) Send(payload Payload) {
	if s == nil {
		return
	}

	title := strings.TrimSpace(payload.Title)
	content := strings.TrimSpace(payload.Content)
	if title == "" && content == "" {
		return
	}
	if title == "" {
		title = s.appName
	}

	beeep.AppName = s.appName
	if err := beeep.Notify(title, content, ""); err != nil {
		s.logger.Warn("failed to deliver notification", "title", title, "error", err)
	}
}
