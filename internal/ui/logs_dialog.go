package ui

import (
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

const (
	missingErrorLogText  = "No error log found"
	missingAccessLogText = "No access log found"
)

// showServerLogs displays the server's error and access logs. Missing
// files are not an error; each stream independently falls back to a
// placeholder.
func showServerLogs(window fyne.Window, errorLogPath, accessLogPath string) {
	errorText := newLogView(readLogOrPlaceholder(errorLogPath, missingErrorLogText))
	accessText := newLogView(readLogOrPlaceholder(accessLogPath, missingAccessLogText))

	content := container.NewGridWithRows(2,
		container.NewBorder(widget.NewLabel("Error log:"), nil, nil, nil, container.NewScroll(errorText)),
		container.NewBorder(widget.NewLabel("Access log:"), nil, nil, nil, container.NewScroll(accessText)),
	)

	d := dialog.NewCustom("Server logs", "Close", content, window)
	d.Resize(fyne.NewSize(800, 600))
	d.Show()
}

func newLogView(text string) *widget.Entry {
	view := widget.NewMultiLineEntry()
	view.SetText(text)
	view.Wrapping = fyne.TextWrapOff
	view.TextStyle = fyne.TextStyle{Monospace: true}
	view.Disable()

	return view
}

// readLogOrPlaceholder reads a log file as UTF-8 text, substituting the
// placeholder when the file cannot be read.
func readLogOrPlaceholder(path, placeholder string) string {
	if path == "" {
		return placeholder
	}
	cleanPath := filepath.Clean(path)
	// #nosec G304 -- log paths are resolved by app runtime under the user config dir.
	raw, err := os.ReadFile(cleanPath)
	if err != nil {
		return placeholder
	}

	return string(raw)
}
