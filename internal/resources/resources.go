package resources

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// AppIconResource is the window icon.
func AppIconResource() fyne.Resource {
	return theme.ComputerIcon()
}

// TrayIconResource is the system tray icon.
func TrayIconResource() fyne.Resource {
	return theme.ComputerIcon()
}
