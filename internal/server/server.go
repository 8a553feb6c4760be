// Package server implements the embedded HTTP content server controlled
// by the preferences panel. The panel only sees its lifecycle surface:
// Start, Stop, IsRunning and Err.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"shelfhost/internal/config"
)

const stopTimeout = 30 * time.Second

// Authenticator checks credentials supplied over HTTP basic auth.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (bool, error)
}

// Options carries the subset of server settings the HTTP layer consumes.
type Options struct {
	Port            int
	ListenOn        string
	Auth            bool
	AuthMode        string
	URLPrefix       string
	Timeout         time.Duration
	CompressMinSize int
	MaxHeaderKB     int
	LogNotFound     bool
	BanAfter        int
	BanFor          time.Duration
	LibraryDir      string
}

// OptionsFromSettings maps a settings snapshot onto runtime options.
func OptionsFromSettings(settings config.Settings, libraryDir string) Options {
	return Options{
		Port:            settings["port"].Int(),
		ListenOn:        settings["listen_on"].Text(),
		Auth:            settings["auth"].Bool(),
		AuthMode:        settings["auth_mode"].Text(),
		URLPrefix:       normalizeURLPrefix(settings["url_prefix"].Text()),
		Timeout:         time.Duration(settings["timeout"].Float() * float64(time.Second)),
		CompressMinSize: settings["compress_min_size"].Int(),
		MaxHeaderKB:     settings["max_header_line_size"].Int(),
		LogNotFound:     settings["log_not_found"].Bool(),
		BanAfter:        settings["ban_after"].Int(),
		BanFor:          time.Duration(settings["ban_for"].Int()) * time.Minute,
		LibraryDir:      libraryDir,
	}
}

func normalizeURLPrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}

	return strings.TrimSuffix(prefix, "/")
}

// ContentServer serves the library directory over HTTP. Start and Stop are
// non-blocking; callers observe progress through IsRunning and Err, which
// is how the panel's lifecycle controller polls it.
type ContentServer struct {
	opts   Options
	auth   Authenticator
	bans   *banList
	logger *slog.Logger

	accessLogPath string
	errorLogPath  string

	mu         sync.Mutex
	httpServer *http.Server
	accessFile *os.File
	errorFile  *os.File
	startErr   error

	running atomic.Bool
}

func New(opts Options, auth Authenticator, errorLogPath, accessLogPath string) *ContentServer {
	s := &ContentServer{
		opts:          opts,
		auth:          auth,
		logger:        slog.With("component", "server"),
		accessLogPath: accessLogPath,
		errorLogPath:  errorLogPath,
	}
	if opts.Auth && opts.BanAfter > 0 && opts.BanFor > 0 {
		s.bans = newBanList(opts.BanAfter, opts.BanFor)
	}

	return s
}

// IsRunning reports whether the server is accepting connections.
func (s *ContentServer) IsRunning() bool {
	return s.running.Load()
}

// Err returns the startup error, if the last Start failed.
func (s *ContentServer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.startErr
}

// Start brings the server up in the background. When checkStarted is true
// it blocks until the listener is bound or startup failed.
func (s *ContentServer) Start(checkStarted bool) {
	started := make(chan struct{})
	go s.run(started)
	if checkStarted {
		<-started
	}
}

func (s *ContentServer) run(started chan<- struct{}) {
	defer close(started)

	s.mu.Lock()
	s.startErr = nil
	if s.running.Load() {
		s.mu.Unlock()
		s.logger.Warn("start requested while already running")

		return
	}

	if err := s.openLogs(); err != nil {
		s.startErr = err
		s.mu.Unlock()

		return
	}

	addr := net.JoinHostPort(s.opts.ListenOn, fmt.Sprintf("%d", s.opts.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.startErr = fmt.Errorf("listen on %s: %w", addr, err)
		s.closeLogsLocked()
		s.mu.Unlock()
		s.logger.Error("content server failed to start", "addr", addr, "error", err)

		return
	}

	httpServer := &http.Server{
		Handler:           s.buildHandler(),
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    s.opts.MaxHeaderKB * 1024,
	}
	if s.opts.Timeout > 0 {
		httpServer.IdleTimeout = s.opts.Timeout
	}
	s.httpServer = httpServer
	s.running.Store(true)
	s.mu.Unlock()

	s.logger.Info("content server started", "addr", addr, "url_prefix", s.opts.URLPrefix, "auth", s.opts.Auth)

	serveErr := httpServer.Serve(listener)
	s.running.Store(false)

	s.mu.Lock()
	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		s.startErr = serveErr
		s.logger.Error("content server exited", "error", serveErr)
	} else {
		s.logger.Info("content server stopped")
	}
	s.httpServer = nil
	s.closeLogsLocked()
	s.mu.Unlock()
}

// Stop shuts the server down in the background. Callers poll IsRunning to
// observe completion.
func (s *ContentServer) Stop() {
	s.mu.Lock()
	httpServer := s.httpServer
	s.mu.Unlock()
	if httpServer == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			s.logger.Warn("graceful shutdown failed, closing", "error", err)
			_ = httpServer.Close()
		}
	}()
}

func (s *ContentServer) openLogs() error {
	for _, target := range []struct {
		path string
		dst  **os.File
	}{
		{s.errorLogPath, &s.errorFile},
		{s.accessLogPath, &s.accessFile},
	} {
		if strings.TrimSpace(target.path) == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target.path), 0o750); err != nil {
			return fmt.Errorf("create log dir: %w", err)
		}
		cleanPath := filepath.Clean(target.path)
		// #nosec G304 -- log paths are resolved by app runtime under the user config dir.
		file, err := os.OpenFile(cleanPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		*target.dst = file
	}

	return nil
}

func (s *ContentServer) closeLogsLocked() {
	if s.accessFile != nil {
		_ = s.accessFile.Close()
		s.accessFile = nil
	}
	if s.errorFile != nil {
		_ = s.errorFile.Close()
		s.errorFile = nil
	}
}
