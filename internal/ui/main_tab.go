package ui

import (
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"shelfhost/internal/app"
	"shelfhost/internal/config"
)

const (
	portMin = 1
	portMax = 65535
)

const (
	authOnDescription  = "Remember to create some user accounts in the \"User accounts\" tab."
	authOffDescription = "Requiring a username and password prevents unauthorized people from " +
		"browsing your shared library. It is also needed before any account-specific " +
		"features can work."
)

// mainTab holds the always-visible server settings (port, auth,
// autolaunch) and the lifecycle buttons.
type mainTab struct {
	portEntry         *widget.Entry
	authCheck         *widget.Check
	authDesc          *widget.Label
	autolaunchCheck   *widget.Check
	startAtLoginCheck *widget.Check

	startButton *widget.Button
	stopButton  *widget.Button
	testButton  *widget.Button
	logsButton  *widget.Button

	defaultPort int
	root        fyne.CanvasObject
}

func newMainTab(settings config.Settings, cfg config.AppConfig, onChanged func()) *mainTab {
	tab := &mainTab{}

	portOpt, _ := config.OptionByName("port")
	tab.defaultPort = portOpt.Default.Int()

	intro := widget.NewLabel("shelfhost contains a content server that lets you browse your " +
		"shared library from any device with a web browser. Any changes to these settings " +
		"take effect only after a server restart.")
	intro.Wrapping = fyne.TextWrapWord

	tab.portEntry = widget.NewEntry()
	tab.portEntry.SetText(strconv.Itoa(settings["port"].Int()))
	tab.portEntry.Validator = func(raw string) error {
		_, err := parsePort(raw)

		return err
	}
	tab.portEntry.OnChanged = func(_ string) { onChanged() }

	tab.authDesc = widget.NewLabel("")
	tab.authDesc.Wrapping = fyne.TextWrapWord
	tab.authDesc.TextStyle = fyne.TextStyle{Italic: true}

	tab.authCheck = widget.NewCheck("Require username and password to access the content server", nil)
	tab.authCheck.SetChecked(settings["auth"].Bool())
	tab.authCheck.OnChanged = func(_ bool) {
		tab.refreshAuthDescription()
		onChanged()
	}
	tab.refreshAuthDescription()

	tab.autolaunchCheck = widget.NewCheck("Run server automatically when shelfhost starts", nil)
	tab.autolaunchCheck.SetChecked(cfg.Host.Autolaunch)
	tab.autolaunchCheck.OnChanged = func(_ bool) { onChanged() }

	tab.startAtLoginCheck = widget.NewCheck("Start shelfhost when you log in", nil)
	tab.startAtLoginCheck.SetChecked(cfg.Host.StartAtLogin)
	tab.startAtLoginCheck.OnChanged = func(_ bool) { onChanged() }

	tab.startButton = widget.NewButton("Start server", nil)
	tab.stopButton = widget.NewButton("Stop server", nil)
	tab.testButton = widget.NewButton("Test server", nil)
	tab.logsButton = widget.NewButton("Show server logs", nil)
	buttons := container.NewHBox(
		tab.startButton,
		tab.stopButton,
		tab.testButton,
		layout.NewSpacer(),
		tab.logsButton,
	)

	form := widget.NewForm(
		widget.NewFormItem(portOpt.Shortdoc, tab.portEntry),
	)
	if portOpt.Longdoc != "" {
		form.Items[0].HintText = portOpt.Longdoc
	}

	tab.root = container.NewVBox(
		intro,
		form,
		tab.authCheck,
		tab.authDesc,
		tab.autolaunchCheck,
		tab.startAtLoginCheck,
		buttons,
	)

	return tab
}

func (t *mainTab) refreshAuthDescription() {
	if t.authCheck.Checked {
		t.authDesc.SetText(authOnDescription)
	} else {
		t.authDesc.SetText(authOffDescription)
	}
}

// Settings contributes the main tab's two registry-backed values.
func (t *mainTab) Settings() config.Settings {
	return config.Settings{
		"auth": config.BoolValue(t.authCheck.Checked),
		"port": config.IntValue(t.Port()),
	}
}

// Port returns the entered port clamped to the valid range; garbage falls
// back to the registry default.
func (t *mainTab) Port() int {
	port, err := parsePort(t.portEntry.Text)
	if err != nil {
		return t.defaultPort
	}

	return port
}

func (t *mainTab) RestoreDefaults() {
	portOpt, _ := config.OptionByName("port")
	authOpt, _ := config.OptionByName("auth")
	t.portEntry.SetText(strconv.Itoa(portOpt.Default.Int()))
	t.authCheck.SetChecked(authOpt.Default.Bool())
}

func (t *mainTab) Autolaunch() bool {
	return t.autolaunchCheck.Checked
}

func (t *mainTab) StartAtLogin() bool {
	return t.startAtLoginCheck.Checked
}

// UpdateButtonState derives button enablement purely from the server
// state.
func (t *mainTab) UpdateButtonState(state app.ServerState) {
	setEnabled(t.startButton, state.CanStart())
	setEnabled(t.stopButton, state.CanStop())
	setEnabled(t.testButton, state.CanTest())
}

func (t *mainTab) CanvasObject() fyne.CanvasObject {
	return t.root
}

func setEnabled(button *widget.Button, enabled bool) {
	if enabled {
		button.Enable()
	} else {
		button.Disable()
	}
}

func parsePort(raw string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if port < portMin {
		return portMin, nil
	}
	if port > portMax {
		return portMax, nil
	}

	return port, nil
}
