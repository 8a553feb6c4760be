package ui

import (
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// showUserDialog prompts for credentials. With a fixed username it acts
// as a change-password dialog. The dialog stays open while onSubmit keeps
// rejecting the input, mirroring how validation errors block acceptance.
func showUserDialog(
	window fyne.Window,
	title, fixedUsername string,
	onSubmit func(username, password, repeat string) error,
	showError func(err error, window fyne.Window),
) {
	usernameEntry := widget.NewEntry()
	passwordEntry := widget.NewPasswordEntry()
	repeatEntry := widget.NewPasswordEntry()
	if fixedUsername != "" {
		usernameEntry.SetText(fixedUsername)
		usernameEntry.Disable()
	}

	form := widget.NewForm(
		widget.NewFormItem("Username", usernameEntry),
		widget.NewFormItem("Password", passwordEntry),
		widget.NewFormItem("Repeat password", repeatEntry),
	)
	content := container.NewVBox(
		widget.NewLabel("Set the password for this user"),
		form,
	)

	var d *dialog.CustomDialog
	okButton := widget.NewButton("OK", func() {
		username := strings.TrimSpace(usernameEntry.Text)
		if fixedUsername != "" {
			username = fixedUsername
		}
		if err := onSubmit(username, passwordEntry.Text, repeatEntry.Text); err != nil {
			if showError != nil {
				showError(err, window)
			}

			return
		}
		d.Hide()
	})
	okButton.Importance = widget.HighImportance
	cancelButton := widget.NewButton("Cancel", func() {
		d.Hide()
	})

	d = dialog.NewCustomWithoutButtons(title, content, window)
	d.SetButtons([]fyne.CanvasObject{cancelButton, okButton})
	d.Show()
}
