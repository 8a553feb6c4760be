package ui

import (
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	"shelfhost/internal/config"
)

const (
	numericOptionMin = 0
	numericOptionMax = 10000
)

// optionControl is one generated form control bound to an option
// descriptor. Value and SetValue round-trip through the descriptor's
// tagged kind; every edit fires the registered change callback.
type optionControl interface {
	Option() config.Option
	Value() config.Value
	SetValue(value config.Value)
	SetOnChanged(fn func())
	CanvasObject() fyne.CanvasObject
}

// newOptionControl selects the widget for a descriptor from its kind.
func newOptionControl(opt config.Option) optionControl {
	switch opt.Kind {
	case config.KindChoice:
		return newChoiceControl(opt)
	case config.KindBool:
		return newBoolControl(opt)
	case config.KindInt:
		return newIntControl(opt)
	case config.KindFloat:
		return newFloatControl(opt)
	default:
		return newTextControl(opt)
	}
}

type boolControl struct {
	opt   config.Option
	check *widget.Check
}

func newBoolControl(opt config.Option) *boolControl {
	return &boolControl{opt: opt, check: widget.NewCheck("", nil)}
}

func (c *boolControl) Option() config.Option { return c.opt }

func (c *boolControl) Value() config.Value {
	return config.BoolValue(c.check.Checked)
}

func (c *boolControl) SetValue(value config.Value) {
	c.check.SetChecked(value.Bool())
}

func (c *boolControl) SetOnChanged(fn func()) {
	c.check.OnChanged = func(_ bool) { fn() }
}

func (c *boolControl) CanvasObject() fyne.CanvasObject { return c.check }

type choiceControl struct {
	opt    config.Option
	choice *widget.Select
}

func newChoiceControl(opt config.Option) *choiceControl {
	return &choiceControl{opt: opt, choice: widget.NewSelect(opt.Choices, nil)}
}

func (c *choiceControl) Option() config.Option { return c.opt }

func (c *choiceControl) Value() config.Value {
	return config.ChoiceValue(c.choice.Selected)
}

// SetValue falls back to the first listed choice when asked for a value
// outside the descriptor's choices.
func (c *choiceControl) SetValue(value config.Value) {
	wanted := value.Text()
	for _, choice := range c.opt.Choices {
		if choice == wanted {
			c.choice.SetSelected(wanted)

			return
		}
	}
	if len(c.opt.Choices) > 0 {
		c.choice.SetSelected(c.opt.Choices[0])
	}
}

func (c *choiceControl) SetOnChanged(fn func()) {
	c.choice.OnChanged = func(_ string) { fn() }
}

func (c *choiceControl) CanvasObject() fyne.CanvasObject { return c.choice }

type intControl struct {
	opt   config.Option
	entry *widget.Entry
}

func newIntControl(opt config.Option) *intControl {
	entry := widget.NewEntry()
	entry.Validator = func(raw string) error {
		_, err := parseBoundedInt(raw)

		return err
	}

	return &intControl{opt: opt, entry: entry}
}

func (c *intControl) Option() config.Option { return c.opt }

// Value clamps to the control's range; unparseable text yields the
// descriptor default, matching spin-box behavior.
func (c *intControl) Value() config.Value {
	parsed, err := parseBoundedInt(c.entry.Text)
	if err != nil {
		return c.opt.Default
	}

	return config.IntValue(parsed)
}

func (c *intControl) SetValue(value config.Value) {
	c.entry.SetText(strconv.Itoa(clampInt(value.Int())))
}

func (c *intControl) SetOnChanged(fn func()) {
	c.entry.OnChanged = func(_ string) { fn() }
}

func (c *intControl) CanvasObject() fyne.CanvasObject { return c.entry }

type floatControl struct {
	opt   config.Option
	entry *widget.Entry
}

func newFloatControl(opt config.Option) *floatControl {
	entry := widget.NewEntry()
	entry.Validator = func(raw string) error {
		_, err := parseBoundedFloat(raw)

		return err
	}

	return &floatControl{opt: opt, entry: entry}
}

func (c *floatControl) Option() config.Option { return c.opt }

func (c *floatControl) Value() config.Value {
	parsed, err := parseBoundedFloat(c.entry.Text)
	if err != nil {
		return c.opt.Default
	}

	return config.FloatValue(parsed)
}

// SetValue renders with one decimal place, like the original spin box.
func (c *floatControl) SetValue(value config.Value) {
	c.entry.SetText(strconv.FormatFloat(clampFloat(value.Float()), 'f', 1, 64))
}

func (c *floatControl) SetOnChanged(fn func()) {
	c.entry.OnChanged = func(_ string) { fn() }
}

func (c *floatControl) CanvasObject() fyne.CanvasObject { return c.entry }

type textControl struct {
	opt   config.Option
	entry *widget.Entry
}

func newTextControl(opt config.Option) *textControl {
	return &textControl{opt: opt, entry: widget.NewEntry()}
}

func (c *textControl) Option() config.Option { return c.opt }

// Value normalizes empty or whitespace-only text to "no value".
func (c *textControl) Value() config.Value {
	return config.TextValue(c.entry.Text)
}

func (c *textControl) SetValue(value config.Value) {
	c.entry.SetText(value.Text())
}

func (c *textControl) SetOnChanged(fn func()) {
	c.entry.OnChanged = func(_ string) { fn() }
}

func (c *textControl) CanvasObject() fyne.CanvasObject { return c.entry }

func parseBoundedInt(raw string) (int, error) {
	parsed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}

	return clampInt(parsed), nil
}

func parseBoundedFloat(raw string) (float64, error) {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}

	return clampFloat(parsed), nil
}

func clampInt(v int) int {
	if v < numericOptionMin {
		return numericOptionMin
	}
	if v > numericOptionMax {
		return numericOptionMax
	}

	return v
}

func clampFloat(v float64) float64 {
	if v < numericOptionMin {
		return numericOptionMin
	}
	if v > numericOptionMax {
		return numericOptionMax
	}

	return v
}
