package server

import (
	"encoding/json"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type libraryEntry struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

func (s *ContentServer) buildHandler() http.Handler {
	accessLogger := s.fileLogger(s.accessFile)
	errorLogger := s.fileLogger(s.errorFile)

	r := chi.NewRouter()
	r.Use(s.accessLogMiddleware(accessLogger, errorLogger))
	r.Use(middleware.Recoverer)
	r.Use(compressResponses(s.opts.CompressMinSize))
	if s.opts.Timeout > 0 {
		r.Use(middleware.Timeout(s.opts.Timeout))
	}

	var routes http.Handler = s.routes(errorLogger)
	if s.opts.Auth {
		routes = s.basicAuthMiddleware(errorLogger)(routes)
	}

	prefix := s.opts.URLPrefix
	if prefix == "" {
		r.Mount("/", routes)
	} else {
		r.Mount(prefix, http.StripPrefix(prefix, routes))
	}

	return r
}

func (s *ContentServer) routes(errorLogger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	r.Get("/", s.handleIndex(errorLogger))
	r.Get("/files/*", s.handleFile(errorLogger))

	return r
}

func (s *ContentServer) handleIndex(errorLogger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := listLibrary(s.opts.LibraryDir)
		if err != nil {
			errorLogger.Error("list library", "dir", s.opts.LibraryDir, "error", err)
			http.Error(w, "library is unavailable", http.StatusInternalServerError)

			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(entries)
	}
}

func (s *ContentServer) handleFile(errorLogger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "*")
		path, ok := resolveLibraryPath(s.opts.LibraryDir, name)
		if !ok {
			http.NotFound(w, r)

			return
		}
		file, err := os.Open(path) // #nosec G304 -- path is confined to the library dir above.
		if err != nil {
			if os.IsNotExist(err) {
				http.NotFound(w, r)
			} else {
				errorLogger.Error("open library file", "path", path, "error", err)
				http.Error(w, "file is unavailable", http.StatusInternalServerError)
			}

			return
		}
		defer file.Close()

		info, err := file.Stat()
		if err != nil || info.IsDir() {
			http.NotFound(w, r)

			return
		}
		http.ServeContent(w, r, filepath.Base(path), info.ModTime(), file)
	}
}

func listLibrary(dir string) ([]libraryEntry, error) {
	entries := make([]libraryEntry, 0)
	if strings.TrimSpace(dir) == "" {
		return entries, nil
	}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		entries = append(entries, libraryEntry{Name: filepath.ToSlash(rel), Size: info.Size()})

		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return []libraryEntry{}, nil
		}

		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	return entries, nil
}

// resolveLibraryPath confines requested names to the library directory.
func resolveLibraryPath(dir, name string) (string, bool) {
	if strings.TrimSpace(dir) == "" || strings.TrimSpace(name) == "" {
		return "", false
	}
	path := filepath.Join(dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}

	return path, true
}

func (s *ContentServer) basicAuthMiddleware(errorLogger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.bans != nil && s.bans.Banned(r.RemoteAddr) {
				errorLogger.Warn("request from banned address", "remote", r.RemoteAddr)
				http.Error(w, "too many failed login attempts", http.StatusForbidden)

				return
			}
			username, password, ok := r.BasicAuth()
			if ok && s.auth != nil {
				authed, err := s.auth.Authenticate(r.Context(), username, password)
				if err != nil {
					errorLogger.Error("authenticate request", "user", username, "error", err)
					http.Error(w, "authentication is unavailable", http.StatusInternalServerError)

					return
				}
				if authed {
					if s.bans != nil {
						s.bans.RecordSuccess(r.RemoteAddr)
					}
					next.ServeHTTP(w, r)

					return
				}
				errorLogger.Warn("failed login attempt", "user", username, "remote", r.RemoteAddr)
				if s.bans != nil {
					s.bans.RecordFailure(r.RemoteAddr)
				}
			}
			w.Header().Set("WWW-Authenticate", `Basic realm="shelfhost"`)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		})
	}
}

func (s *ContentServer) accessLogMiddleware(accessLogger, errorLogger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == http.StatusNotFound && !s.opts.LogNotFound {
				return
			}
			logger := accessLogger
			if status == http.StatusNotFound {
				logger = errorLogger
			}
			logger.Info("request",
				"remote", r.RemoteAddr,
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
			)
		})
	}
}

func (s *ContentServer) fileLogger(file *os.File) *slog.Logger {
	var w io.Writer = file
	if file == nil {
		return s.logger
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
