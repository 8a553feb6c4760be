package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"shelfhost/internal/bus"
	"shelfhost/internal/notifications"
)

// Notifier listens to bus events and emits user-facing notifications for
// server lifecycle transitions and user database commits.
type Notifier struct {
	bus    bus.MessageBus
	sender notifications.Sender
	logger *slog.Logger

	stateMu      sync.Mutex
	lastState    ServerState
	lastStateSet bool
}

func NewNotifier(messageBus bus.MessageBus, sender notifications.Sender, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default().With("component", "app.notifier")
	}

	return &Notifier{
		bus:    messageBus,
		sender: sender,
		logger: logger,
	}
}

func (n *Notifier) Start(ctx context.Context) {
	if n == nil || n.bus == nil || n.sender == nil {
		return
	}

	stateSub := n.bus.Subscribe(bus.TopicServerState)
	usersSub := n.bus.Subscribe(bus.TopicUsersChanged)

	go func() {
		defer n.bus.Unsubscribe(stateSub, bus.TopicServerState)
		defer n.bus.Unsubscribe(usersSub, bus.TopicUsersChanged)

		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-stateSub:
				if !ok {
					return
				}
				event, ok := raw.(ServerStateEvent)
				if !ok {
					continue
				}
				n.handleServerState(event)
			case raw, ok := <-usersSub:
				if !ok {
					return
				}
				count, ok := raw.(int)
				if !ok {
					continue
				}
				n.handleUsersChanged(count)
			}
		}
	}()
}

func (n *Notifier) handleServerState(event ServerStateEvent) {
	n.stateMu.Lock()
	if n.lastStateSet && n.lastState == event.State {
		n.stateMu.Unlock()

		return
	}
	n.lastState = event.State
	n.lastStateSet = true
	n.stateMu.Unlock()

	switch event.State {
	case ServerRunning:
		n.send(notifications.Payload{
			Title:   "Content server",
			Content: "Server is running",
		})
	case ServerStopped:
		n.send(notifications.Payload{
			Title:   "Content server",
			Content: "Server stopped",
		})
	case ServerFailed:
		content := "Server failed to start"
		if event.Err != nil {
			content = fmt.Sprintf("Server failed: %s", event.Err)
		}
		n.send(notifications.Payload{
			Title:   "Content server",
			Content: content,
		})
	case ServerStarting, ServerStopping:
		// Transitional, not worth a notification.
	}
}

func (n *Notifier) handleUsersChanged(count int) {
	n.logger.Debug("user database committed", "count", count)
}

func (n *Notifier) send(payload notifications.Payload) {
	n.logger.Debug("sending notification", "title", payload.Title)
	n.sender.Send(payload)
}
