//go:build linux

package platform

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDesktopExecLineQuotesArgs(t *testing.T) {
	line := desktopExecLine(`/opt/shelf host/shelfhost`, []string{StartHiddenArg})
	want := `"/opt/shelf host/shelfhost" "--start-hidden"`
	if line != want {
		t.Fatalf("desktopExecLine = %q, want %q", line, want)
	}
}

func TestRenderDesktopEntry(t *testing.T) {
	entry := renderDesktopEntry(`"/usr/bin/shelfhost"`)
	for _, fragment := range []string{"[Desktop Entry]", "Name=shelfhost", `Exec="/usr/bin/shelfhost"`, "Terminal=false"} {
		if !strings.Contains(entry, fragment) {
			t.Fatalf("desktop entry missing %q:\n%s", fragment, entry)
		}
	}
}

func TestSyncRemovesEntryWhenDisabled(t *testing.T) {
	cfgHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgHome)

	entryPath := filepath.Join(cfgHome, "autostart", autostartEntryName+".desktop")
	if err := os.MkdirAll(filepath.Dir(entryPath), 0o750); err != nil {
		t.Fatalf("create autostart dir: %v", err)
	}
	if err := os.WriteFile(entryPath, []byte("[Desktop Entry]\n"), 0o644); err != nil {
		t.Fatalf("seed desktop entry: %v", err)
	}

	if err := (linuxAutostartManager{}).Sync(AutostartConfig{Enabled: false}); err != nil {
		t.Fatalf("sync disabled: %v", err)
	}
	if _, err := os.Stat(entryPath); !os.IsNotExist(err) {
		t.Fatalf("expected desktop entry to be removed, stat err = %v", err)
	}
}

func TestSyncWritesEntryWhenEnabled(t *testing.T) {
	cfgHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", cfgHome)

	if err := (linuxAutostartManager{}).Sync(AutostartConfig{Enabled: true, Hidden: true}); err != nil {
		t.Fatalf("sync enabled: %v", err)
	}

	entryPath := filepath.Join(cfgHome, "autostart", autostartEntryName+".desktop")
	raw, err := os.ReadFile(entryPath)
	if err != nil {
		t.Fatalf("read desktop entry: %v", err)
	}
	if !strings.Contains(string(raw), StartHiddenArg) {
		t.Fatalf("expected hidden launch arg in entry:\n%s", raw)
	}
}
