package ui

import (
	"sort"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"shelfhost/internal/config"
)

// Options rendered elsewhere in the panel or not meant for direct editing.
var advancedTabExclusions = map[string]struct{}{
	"auth":        {},
	"port":        {},
	"preallocate": {},
	"userdb":      {},
}

// advancedTab renders one generated control per registry option, ordered
// by case-insensitive label.
type advancedTab struct {
	controls []optionControl
	root     fyne.CanvasObject
}

func newAdvancedTab(settings config.Settings, onChanged func()) *advancedTab {
	return newAdvancedTabFromOptions(config.Options(), settings, onChanged)
}

func newAdvancedTabFromOptions(registry []config.Option, settings config.Settings, onChanged func()) *advancedTab {
	options := make([]config.Option, 0, len(registry))
	for _, opt := range registry {
		if _, excluded := advancedTabExclusions[opt.Name]; excluded {
			continue
		}
		options = append(options, opt)
	}
	sort.SliceStable(options, func(i, j int) bool {
		return strings.ToLower(options[i].Shortdoc) < strings.ToLower(options[j].Shortdoc)
	})

	tab := &advancedTab{}
	form := widget.NewForm()
	for _, opt := range options {
		control := newOptionControl(opt)
		if value, ok := settings[opt.Name]; ok {
			control.SetValue(value)
		} else {
			control.SetValue(opt.Default)
		}
		control.SetOnChanged(onChanged)

		item := widget.NewFormItem(opt.Shortdoc, control.CanvasObject())
		item.HintText = opt.Longdoc
		form.AppendItem(item)
		tab.controls = append(tab.controls, control)
	}
	tab.root = container.NewVScroll(form)

	return tab
}

// Settings gathers the snapshot of every generated control.
func (t *advancedTab) Settings() config.Settings {
	out := make(config.Settings, len(t.controls))
	for _, control := range t.controls {
		out[control.Option().Name] = control.Value()
	}

	return out
}

// RestoreDefaults resets every control to its descriptor's default.
func (t *advancedTab) RestoreDefaults() {
	for _, control := range t.controls {
		control.SetValue(control.Option().Default)
	}
}

// Value returns the current value of a single named control.
func (t *advancedTab) Value(name string) (config.Value, bool) {
	for _, control := range t.controls {
		if control.Option().Name == name {
			return control.Value(), true
		}
	}

	return config.Value{}, false
}

func (t *advancedTab) CanvasObject() fyne.CanvasObject {
	return t.root
}
