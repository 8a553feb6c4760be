package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	"shelfhost/internal/bus"
)

// ServerState tracks the embedded content server through its lifecycle.
type ServerState int

const (
	ServerStopped ServerState = iota
	ServerStarting
	ServerRunning
	ServerStopping
	ServerFailed
)

func (s ServerState) String() string {
	switch s {
	case ServerStopped:
		return "stopped"
	case ServerStarting:
		return "starting"
	case ServerRunning:
		return "running"
	case ServerStopping:
		return "stopping"
	case ServerFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// CanStart reports whether a start request is allowed in this state.
func (s ServerState) CanStart() bool {
	return s == ServerStopped || s == ServerFailed
}

// CanStop reports whether a stop request is allowed in this state.
func (s ServerState) CanStop() bool {
	return s == ServerRunning
}

// CanTest reports whether opening the server in a browser is meaningful.
func (s ServerState) CanTest() bool {
	return s == ServerRunning
}

// ServerProcess is the lifecycle surface the controller drives. Start and
// Stop are non-blocking; progress is observed through IsRunning and Err.
type ServerProcess interface {
	IsRunning() bool
	Err() error
	Start(checkStarted bool)
	Stop()
}

// ServerFactory builds a fresh server process from the currently persisted
// settings. A new process is built for every start so settings changes
// take effect on restart.
type ServerFactory func() (ServerProcess, error)

// ServerStateEvent is published on bus.TopicServerState on every
// transition.
type ServerStateEvent struct {
	State ServerState
	Err   error
}

const (
	startPollInterval    = 100 * time.Millisecond
	stopPollInitialDelay = 500 * time.Millisecond
	stopPollInterval     = 20 * time.Millisecond
	stopTimeoutOnClose   = 45 * time.Second
)

var errStartRefused = errors.New("server is already running or busy")

// ServerController serializes start/stop requests for the single embedded
// server and publishes state transitions for the UI to subscribe to.
type ServerController struct {
	factory ServerFactory
	bus     bus.MessageBus
	logger  *slog.Logger

	mu     sync.Mutex
	state  ServerState
	server ServerProcess

	startPoll   time.Duration
	stopInitial time.Duration
	stopPoll    time.Duration
}

func NewServerController(factory ServerFactory, messageBus bus.MessageBus, logger *slog.Logger) *ServerController {
	if logger == nil {
		logger = slog.With("component", "app.server_controller")
	}

	return &ServerController{
		factory:     factory,
		bus:         messageBus,
		logger:      logger,
		state:       ServerStopped,
		startPoll:   startPollInterval,
		stopInitial: stopPollInitialDelay,
		stopPoll:    stopPollInterval,
	}
}

func (c *ServerController) State() ServerState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

func (c *ServerController) setState(state ServerState, err error) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
	c.publish(state, err)
}

func (c *ServerController) publish(state ServerState, err error) {
	c.logger.Info("server state changed", "state", state.String(), "error", err)
	if c.bus != nil {
		c.bus.Publish(bus.TopicServerState, ServerStateEvent{State: state, Err: err})
	}
}

// Start builds a server from persisted settings, issues a non-blocking
// start request, and polls until the server reports running or a startup
// error. It blocks its caller, so the UI runs it off the event thread.
func (c *ServerController) Start(ctx context.Context) error {
	c.mu.Lock()
	if !c.state.CanStart() {
		state := c.state
		c.mu.Unlock()
		c.logger.Warn("start refused", "state", state.String())

		return errStartRefused
	}
	c.state = ServerStarting
	c.mu.Unlock()
	c.publish(ServerStarting, nil)

	server, err := c.factory()
	if err != nil {
		err = fmt.Errorf("build server: %w", err)
		c.setState(ServerFailed, err)

		return err
	}

	server.Start(false)
	for {
		if server.IsRunning() {
			break
		}
		if startErr := server.Err(); startErr != nil {
			c.setState(ServerFailed, startErr)

			return startErr
		}
		select {
		case <-ctx.Done():
			server.Stop()
			c.setState(ServerFailed, ctx.Err())

			return ctx.Err()
		case <-time.After(c.startPoll):
		}
	}

	c.mu.Lock()
	c.server = server
	c.mu.Unlock()
	c.setState(ServerRunning, nil)

	return nil
}

// Stop issues a stop request and polls until the server reports
// not-running, then clears the server reference.
func (c *ServerController) Stop(ctx context.Context) error {
	c.mu.Lock()
	server := c.server
	if server == nil || !c.state.CanStop() {
		c.mu.Unlock()

		return nil
	}
	c.state = ServerStopping
	c.mu.Unlock()
	c.publish(ServerStopping, nil)

	server.Stop()

	// The first recheck is generous, shutdown usually needs a moment;
	// after that the poll tightens so the UI is not left waiting.
	wait := c.stopInitial
	for server.IsRunning() {
		select {
		case <-ctx.Done():
			c.setState(ServerFailed, ctx.Err())

			return ctx.Err()
		case <-time.After(wait):
		}
		wait = c.stopPoll
	}

	c.mu.Lock()
	c.server = nil
	c.mu.Unlock()
	c.setState(ServerStopped, nil)

	return nil
}

// TestURL is the address a browser should open to exercise the running
// server.
func TestURL(port int, urlPrefix string) *url.URL {
	return &url.URL{
		Scheme: "http",
		Host:   TestServerHost + ":" + strconv.Itoa(port),
		Path:   urlPrefix,
	}
}
