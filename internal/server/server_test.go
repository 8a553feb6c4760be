package server

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shelfhost/internal/config"
)

type authenticatorFunc func(ctx context.Context, username, password string) (bool, error)

func (f authenticatorFunc) Authenticate(ctx context.Context, username, password string) (bool, error) {
	return f(ctx, username, password)
}

func allowOnly(username, password string) Authenticator {
	return authenticatorFunc(func(_ context.Context, u, p string) (bool, error) {
		return u == username && p == password, nil
	})
}

func testLibrary(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "moby-dick.epub"), []byte("call me ishmael"), 0o600); err != nil {
		t.Fatalf("write library file: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "shelf"), 0o750); err != nil {
		t.Fatalf("create library subdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "shelf", "walden.txt"), []byte("simplify"), 0o600); err != nil {
		t.Fatalf("write nested library file: %v", err)
	}

	return dir
}

func testServer(opts Options, auth Authenticator) *ContentServer {
	return New(opts, auth, "", "")
}

func TestIndexListsLibraryFiles(t *testing.T) {
	srv := testServer(Options{LibraryDir: testLibrary(t)}, nil)
	handler := srv.buildHandler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var entries []libraryEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode index: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Name != "moby-dick.epub" || entries[1].Name != "shelf/walden.txt" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestFileDownload(t *testing.T) {
	srv := testServer(Options{LibraryDir: testLibrary(t)}, nil)
	handler := srv.buildHandler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/shelf/walden.txt", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if rec.Body.String() != "simplify" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

func TestFileDownloadRejectsTraversal(t *testing.T) {
	srv := testServer(Options{LibraryDir: testLibrary(t)}, nil)
	handler := srv.buildHandler()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/files/%2e%2e%2fsecrets", nil)
	handler.ServeHTTP(rec, req)

	if rec.Code == http.StatusOK {
		t.Fatalf("traversal request must not succeed")
	}
}

func TestBasicAuthRequiredWhenEnabled(t *testing.T) {
	srv := testServer(Options{Auth: true, LibraryDir: testLibrary(t)}, allowOnly("alice", "wonderland"))
	handler := srv.buildHandler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("request without credentials should be unauthorized, got %d", rec.Code)
	}
	if got := rec.Header().Get("WWW-Authenticate"); got == "" {
		t.Fatalf("expected a WWW-Authenticate challenge")
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("alice", "wrong")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password should be unauthorized, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("alice", "wonderland")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("correct credentials should be accepted, got %d", rec.Code)
	}
}

func TestRepeatedLoginFailuresBanTheAddress(t *testing.T) {
	opts := Options{
		Auth:       true,
		BanAfter:   2,
		BanFor:     time.Minute,
		LibraryDir: testLibrary(t),
	}
	srv := testServer(opts, allowOnly("alice", "wonderland"))
	handler := srv.buildHandler()

	// httptest requests share one RemoteAddr, so each failure counts
	// against the same address.
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth("alice", "wrong")
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("failure %d should be unauthorized, got %d", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("alice", "wonderland")
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("a banned address must be refused even with correct credentials, got %d", rec.Code)
	}
}

func TestSuccessfulLoginResetsFailureCount(t *testing.T) {
	opts := Options{
		Auth:       true,
		BanAfter:   2,
		BanFor:     time.Minute,
		LibraryDir: testLibrary(t),
	}
	srv := testServer(opts, allowOnly("alice", "wonderland"))
	handler := srv.buildHandler()

	send := func(password string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetBasicAuth("alice", password)
		handler.ServeHTTP(rec, req)

		return rec.Code
	}

	if got := send("wrong"); got != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized, got %d", got)
	}
	if got := send("wonderland"); got != http.StatusOK {
		t.Fatalf("expected success, got %d", got)
	}
	if got := send("wrong"); got != http.StatusUnauthorized {
		t.Fatalf("one failure after a success must not ban, got %d", got)
	}
	if got := send("wonderland"); got != http.StatusOK {
		t.Fatalf("expected success after reset, got %d", got)
	}
}

func TestURLPrefixMountsRoutesUnderPrefix(t *testing.T) {
	srv := testServer(Options{URLPrefix: "/books", LibraryDir: testLibrary(t)}, nil)
	handler := srv.buildHandler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("prefixed route should resolve, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unprefixed route should 404, got %d", rec.Code)
	}
}

func TestCompressionHonorsMinimumSize(t *testing.T) {
	dir := t.TempDir()
	big := bytes.Repeat([]byte("shelfhost "), 500)
	if err := os.WriteFile(filepath.Join(dir, "big.txt"), big, 0o600); err != nil {
		t.Fatalf("write big file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "small.txt"), []byte("tiny"), 0o600); err != nil {
		t.Fatalf("write small file: %v", err)
	}

	srv := testServer(Options{LibraryDir: dir, CompressMinSize: 1024}, nil)
	handler := srv.buildHandler()

	req := httptest.NewRequest(http.MethodGet, "/files/small.txt", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Content-Encoding"); got != "" {
		t.Fatalf("a body under the minimum size must not be compressed, got encoding %q", got)
	}
	if rec.Body.String() != "tiny" {
		t.Fatalf("unexpected small body: %q", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/files/big.txt", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Content-Encoding"); got != "gzip" {
		t.Fatalf("a body over the minimum size should be gzipped, got encoding %q", got)
	}
	gz, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("open gzip body: %v", err)
	}
	decoded, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("read gzip body: %v", err)
	}
	if !bytes.Equal(decoded, big) {
		t.Fatalf("gzip body does not round-trip, got %d bytes", len(decoded))
	}

	req = httptest.NewRequest(http.MethodGet, "/files/big.txt", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("Content-Encoding"); got != "" {
		t.Fatalf("a client without gzip support must get a plain body, got encoding %q", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), big) {
		t.Fatalf("plain body does not match, got %d bytes", rec.Body.Len())
	}
}

func TestStartStopLifecycle(t *testing.T) {
	srv := testServer(Options{ListenOn: "127.0.0.1", Port: 0, LibraryDir: testLibrary(t)}, nil)

	srv.Start(true)
	if err := srv.Err(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if !srv.IsRunning() {
		t.Fatalf("server should report running after checked start")
	}

	srv.Stop()
	deadline := time.Now().Add(5 * time.Second)
	for srv.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatalf("server did not stop in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStartSurfacesBindError(t *testing.T) {
	srv := testServer(Options{ListenOn: "256.256.256.256", Port: 80, LibraryDir: testLibrary(t)}, nil)

	srv.Start(true)
	if srv.Err() == nil {
		t.Fatalf("expected bind error for invalid address")
	}
	if srv.IsRunning() {
		t.Fatalf("failed start must not report running")
	}
}

func TestOptionsFromSettings(t *testing.T) {
	settings := config.DefaultSettings()
	settings["port"] = config.IntValue(9000)
	settings["auth"] = config.BoolValue(true)
	settings["url_prefix"] = config.TextValue("books/")
	settings["timeout"] = config.FloatValue(1.5)
	settings["ban_for"] = config.IntValue(2)

	opts := OptionsFromSettings(settings, "/srv/library")

	if opts.Port != 9000 || !opts.Auth {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if opts.URLPrefix != "/books" {
		t.Fatalf("url prefix should be normalized, got %q", opts.URLPrefix)
	}
	if opts.Timeout != 1500*time.Millisecond {
		t.Fatalf("unexpected timeout: %v", opts.Timeout)
	}
	if opts.BanFor != 2*time.Minute {
		t.Fatalf("unexpected ban duration: %v", opts.BanFor)
	}
	if opts.LibraryDir != "/srv/library" {
		t.Fatalf("unexpected library dir: %q", opts.LibraryDir)
	}
}

func TestNormalizeURLPrefix(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  ", ""},
		{"books", "/books"},
		{"/books", "/books"},
		{"/books/", "/books"},
	}
	for _, tc := range cases {
		if got := normalizeURLPrefix(tc.in); got != tc.want {
			t.Fatalf("normalizeURLPrefix(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
