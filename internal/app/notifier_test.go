package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"shelfhost/internal/bus"
	"shelfhost/internal/notifications"
)

type recordingSender struct {
	payloads chan notifications.Payload
}

func newRecordingSender() *recordingSender {
	return &recordingSender{payloads: make(chan notifications.Payload, 16)}
}

func (s *recordingSender) Send(payload notifications.Payload) {
	s.payloads <- payload
}

func (s *recordingSender) next(t *testing.T) notifications.Payload {
	t.Helper()
	select {
	case payload := <-s.payloads:
		return payload
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for a notification")

		return notifications.Payload{}
	}
}

func (s *recordingSender) expectNone(t *testing.T) {
	t.Helper()
	select {
	case payload := <-s.payloads:
		t.Fatalf("unexpected notification: %+v", payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNotifierAnnouncesLifecycleTransitions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messageBus := bus.New(slog.Default())
	defer messageBus.Close()

	sender := newRecordingSender()
	NewNotifier(messageBus, sender, nil).Start(ctx)

	messageBus.Publish(bus.TopicServerState, ServerStateEvent{State: ServerRunning})
	payload := sender.next(t)
	if payload.Content != "Server is running" {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	messageBus.Publish(bus.TopicServerState, ServerStateEvent{State: ServerStopped})
	payload = sender.next(t)
	if payload.Content != "Server stopped" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestNotifierSkipsRepeatedAndTransitionalStates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messageBus := bus.New(slog.Default())
	defer messageBus.Close()

	sender := newRecordingSender()
	NewNotifier(messageBus, sender, nil).Start(ctx)

	messageBus.Publish(bus.TopicServerState, ServerStateEvent{State: ServerStarting})
	messageBus.Publish(bus.TopicServerState, ServerStateEvent{State: ServerRunning})
	sender.next(t)

	messageBus.Publish(bus.TopicServerState, ServerStateEvent{State: ServerRunning})
	sender.expectNone(t)
}

func TestNotifierReportsStartupFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messageBus := bus.New(slog.Default())
	defer messageBus.Close()

	sender := newRecordingSender()
	NewNotifier(messageBus, sender, nil).Start(ctx)

	messageBus.Publish(bus.TopicServerState, ServerStateEvent{
		State: ServerFailed,
		Err:   errors.New("bind: address in use"),
	})

	payload := sender.next(t)
	if !strings.Contains(payload.Content, "bind: address in use") {
		t.Fatalf("expected failure reason in payload, got %+v", payload)
	}
}
