package ui

import (
	"context"
	"fmt"
	"sort"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"shelfhost/internal/users"
)

// usersTab is the two-pane account editor: a username list on the left
// and the detail pane for the selected account on the right. It edits a
// working copy of the user mapping; nothing is persisted until the panel
// commits.
type usersTab struct {
	dep Dependencies

	working   map[string]users.Record
	usernames []string
	selected  int

	list                 *widget.List
	detailName           *widget.Label
	changePasswordButton *widget.Button
	addButton            *widget.Button
	removeButton         *widget.Button

	collator  *collate.Collator
	onChanged func()
	root      fyne.CanvasObject
}

func newUsersTab(dep Dependencies, onChanged func()) *usersTab {
	tab := &usersTab{
		dep:       dep,
		working:   make(map[string]users.Record),
		selected:  -1,
		collator:  collate.New(language.Und, collate.IgnoreCase),
		onChanged: onChanged,
	}

	tab.list = widget.NewList(
		func() int { return len(tab.usernames) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, item fyne.CanvasObject) {
			if id < 0 || id >= len(tab.usernames) {
				return
			}
			item.(*widget.Label).SetText(tab.usernames[id])
		},
	)
	tab.list.OnSelected = func(id widget.ListItemID) {
		tab.selected = id
		tab.refreshDetail()
	}
	tab.list.OnUnselected = func(_ widget.ListItemID) {
		tab.selected = -1
		tab.refreshDetail()
	}

	tab.detailName = widget.NewLabel("")
	tab.detailName.TextStyle = fyne.TextStyle{Bold: true}

	tab.changePasswordButton = widget.NewButton("Change password", func() {
		tab.promptChangePassword()
	})
	tab.addButton = widget.NewButton("Add user", func() {
		tab.promptAddUser()
	})
	tab.removeButton = widget.NewButton("Remove user", func() {
		tab.RemoveSelected()
	})

	tab.refreshDetail()

	listPane := container.NewBorder(
		container.NewHBox(tab.addButton, layout.NewSpacer(), tab.removeButton),
		nil, nil, nil,
		tab.list,
	)
	detailPane := container.NewVBox(tab.detailName, tab.changePasswordButton)
	tab.root = container.NewHSplit(listPane, detailPane)

	return tab
}

// Genesis loads the working copy from the user manager.
func (t *usersTab) Genesis(ctx context.Context) error {
	if t.dep.Data.LoadUsers == nil {
		return nil
	}
	working, err := t.dep.Data.LoadUsers(ctx)
	if err != nil {
		return fmt.Errorf("load user accounts: %w", err)
	}
	t.working = working
	t.resort()
	t.list.Refresh()
	if len(t.usernames) > 0 {
		t.list.Select(0)
	} else {
		t.refreshDetail()
	}

	return nil
}

// WorkingCopy exposes the in-session user mapping for commit.
func (t *usersTab) WorkingCopy() map[string]users.Record {
	return t.working
}

// SelectedUsername returns the username shown in the detail pane, if any.
func (t *usersTab) SelectedUsername() (string, bool) {
	if t.selected < 0 || t.selected >= len(t.usernames) {
		return "", false
	}

	return t.usernames[t.selected], true
}

// AddUser validates and inserts a new account into the working copy,
// selecting it on success.
func (t *usersTab) AddUser(username, password, repeat string) error {
	if username == "" {
		return &users.ValidationError{Field: "username", Message: "you must enter a username"}
	}
	if _, exists := t.working[username]; exists {
		return &users.ValidationError{
			Field:   "username",
			Message: fmt.Sprintf("a user with the username %q already exists, choose a different username", username),
		}
	}
	if err := users.ValidateUsername(username); err != nil {
		return err
	}
	if err := validatePasswordPair(password, repeat); err != nil {
		return err
	}

	record, err := users.CreateUserData(password)
	if err != nil {
		return err
	}
	t.working[username] = record
	t.resort()
	t.list.Refresh()
	t.selectUsername(username)
	t.onChanged()

	return nil
}

// RemoveSelected drops the currently selected account; no-op when nothing
// is selected.
func (t *usersTab) RemoveSelected() {
	username, ok := t.SelectedUsername()
	if !ok {
		return
	}
	delete(t.working, username)
	t.selected = -1
	t.resort()
	t.list.UnselectAll()
	t.list.Refresh()
	t.refreshDetail()
	t.onChanged()
}

// ChangePassword validates and updates the selected account's record in
// place.
func (t *usersTab) ChangePassword(password, repeat string) error {
	username, ok := t.SelectedUsername()
	if !ok {
		return &users.ValidationError{Field: "username", Message: "no user is selected"}
	}
	if err := validatePasswordPair(password, repeat); err != nil {
		return err
	}

	record, err := users.CreateUserData(password)
	if err != nil {
		return err
	}
	existing := t.working[username]
	existing.PasswordHash = record.PasswordHash
	t.working[username] = existing
	t.onChanged()

	return nil
}

func validatePasswordPair(password, repeat string) error {
	if password != repeat {
		return &users.ValidationError{Field: "password", Message: "the two passwords you entered do not match"}
	}
	if password == "" {
		return &users.ValidationError{Field: "password", Message: "you must enter a password for this user"}
	}

	return users.ValidatePassword(password)
}

// resort rebuilds the displayed username list in collation order.
func (t *usersTab) resort() {
	selected, hadSelection := t.SelectedUsername()

	t.usernames = t.usernames[:0]
	for username := range t.working {
		t.usernames = append(t.usernames, username)
	}
	sort.SliceStable(t.usernames, func(i, j int) bool {
		return t.collator.CompareString(t.usernames[i], t.usernames[j]) < 0
	})

	if hadSelection {
		t.selected = indexOf(t.usernames, selected)
	}
}

func indexOf(list []string, wanted string) int {
	for i, v := range list {
		if v == wanted {
			return i
		}
	}

	return -1
}

func (t *usersTab) selectUsername(username string) {
	idx := indexOf(t.usernames, username)
	if idx < 0 {
		return
	}
	t.selected = idx
	t.list.Select(idx)
	t.refreshDetail()
}

// refreshDetail shows the selected account in the detail pane, or a blank
// disabled state when nothing is selected.
func (t *usersTab) refreshDetail() {
	username, ok := t.SelectedUsername()
	if !ok {
		t.detailName.SetText("")
		t.changePasswordButton.Disable()

		return
	}
	t.detailName.SetText(username)
	t.changePasswordButton.Enable()
}

func (t *usersTab) promptAddUser() {
	window := t.currentWindow()
	showUserDialog(window, "Add new user", "", func(username, password, repeat string) error {
		return t.AddUser(username, password, repeat)
	}, t.dep.UIHooks.ShowErrorDialog)
}

func (t *usersTab) promptChangePassword() {
	username, ok := t.SelectedUsername()
	if !ok {
		return
	}
	window := t.currentWindow()
	showUserDialog(window, fmt.Sprintf("Change password for %s", username), username, func(_, password, repeat string) error {
		return t.ChangePassword(password, repeat)
	}, t.dep.UIHooks.ShowErrorDialog)
}

func (t *usersTab) currentWindow() fyne.Window {
	if t.dep.UIHooks.CurrentWindow != nil {
		return t.dep.UIHooks.CurrentWindow()
	}

	return nil
}

func (t *usersTab) CanvasObject() fyne.CanvasObject {
	return t.root
}
