package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	fynetest "fyne.io/fyne/v2/test"

	"shelfhost/internal/users"
)

func newTestUsersTab(t *testing.T, seed map[string]users.Record, onChanged func()) *usersTab {
	t.Helper()

	if onChanged == nil {
		onChanged = func() {}
	}
	dep := Dependencies{
		Data: DataDependencies{
			LoadUsers: func(_ context.Context) (map[string]users.Record, error) {
				return seed, nil
			},
		},
	}
	tab := newUsersTab(dep, onChanged)
	fynetest.NewTempWindow(t, tab.CanvasObject())
	if err := tab.Genesis(context.Background()); err != nil {
		t.Fatalf("genesis: %v", err)
	}

	return tab
}

func seedRecord(t *testing.T) users.Record {
	t.Helper()
	record, err := users.CreateUserData("secret")
	if err != nil {
		t.Fatalf("create user data: %v", err)
	}
	record.CreatedAt = time.Now()

	return record
}

func TestUsersTabGenesisSelectsFirstAccount(t *testing.T) {
	record := seedRecord(t)
	tab := newTestUsersTab(t, map[string]users.Record{"bob": record, "alice": record}, nil)

	selected, ok := tab.SelectedUsername()
	if !ok {
		t.Fatalf("expected a selection after genesis")
	}
	if selected != "alice" {
		t.Fatalf("expected first account in order, got %q", selected)
	}
}

func TestUsersTabAddUser(t *testing.T) {
	changed := 0
	tab := newTestUsersTab(t, map[string]users.Record{}, func() { changed++ })

	if err := tab.AddUser("carol", "pw", "pw"); err != nil {
		t.Fatalf("add user: %v", err)
	}

	record, ok := tab.WorkingCopy()["carol"]
	if !ok {
		t.Fatalf("expected carol in working copy")
	}
	if !record.VerifyPassword("pw") {
		t.Fatalf("stored hash does not verify the password")
	}
	if selected, _ := tab.SelectedUsername(); selected != "carol" {
		t.Fatalf("expected new account selected, got %q", selected)
	}
	if changed == 0 {
		t.Fatalf("expected change callback after add")
	}
}

func TestUsersTabAddDuplicateLeavesWorkingCopyUntouched(t *testing.T) {
	record := seedRecord(t)
	tab := newTestUsersTab(t, map[string]users.Record{"alice": record}, nil)

	err := tab.AddUser("alice", "pw", "pw")
	var validationErr *users.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := tab.WorkingCopy()["alice"].PasswordHash; got != record.PasswordHash {
		t.Fatalf("duplicate add must not mutate the existing record")
	}
	if len(tab.WorkingCopy()) != 1 {
		t.Fatalf("expected working copy unchanged, got %d records", len(tab.WorkingCopy()))
	}
}

func TestUsersTabAddRejectsMismatchedPasswords(t *testing.T) {
	tab := newTestUsersTab(t, map[string]users.Record{}, nil)

	err := tab.AddUser("dave", "one", "two")
	if err == nil {
		t.Fatalf("expected error for mismatched passwords")
	}
	if len(tab.WorkingCopy()) != 0 {
		t.Fatalf("no record should be created on validation failure")
	}
}

func TestUsersTabAddValidatesUsername(t *testing.T) {
	tab := newTestUsersTab(t, map[string]users.Record{}, nil)

	for _, username := range []string{"", " padded", "with:colon"} {
		if err := tab.AddUser(username, "pw", "pw"); err == nil {
			t.Fatalf("expected username %q to be rejected", username)
		}
	}
}

func TestUsersTabRemoveSelected(t *testing.T) {
	record := seedRecord(t)
	changed := 0
	tab := newTestUsersTab(t, map[string]users.Record{"alice": record, "bob": record}, func() { changed++ })

	tab.RemoveSelected()

	if _, ok := tab.WorkingCopy()["alice"]; ok {
		t.Fatalf("expected selected account removed")
	}
	if _, ok := tab.SelectedUsername(); ok {
		t.Fatalf("expected no selection after removal")
	}
	if changed == 0 {
		t.Fatalf("expected change callback after removal")
	}
}

func TestUsersTabRemoveWithoutSelectionIsNoop(t *testing.T) {
	changed := 0
	tab := newTestUsersTab(t, map[string]users.Record{}, func() { changed++ })

	tab.RemoveSelected()

	if changed != 0 {
		t.Fatalf("remove without selection must not report changes")
	}
}

func TestUsersTabChangePassword(t *testing.T) {
	record := seedRecord(t)
	tab := newTestUsersTab(t, map[string]users.Record{"alice": record}, nil)

	if err := tab.ChangePassword("newpw", "newpw"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	updated := tab.WorkingCopy()["alice"]
	if !updated.VerifyPassword("newpw") {
		t.Fatalf("expected new password to verify")
	}
	if updated.VerifyPassword("secret") {
		t.Fatalf("old password must no longer verify")
	}
}

func TestUsersTabOrdersCaseInsensitively(t *testing.T) {
	record := seedRecord(t)
	tab := newTestUsersTab(t, map[string]users.Record{
		"Zed":   record,
		"alice": record,
		"Bob":   record,
	}, nil)

	want := []string{"alice", "Bob", "Zed"}
	if len(tab.usernames) != len(want) {
		t.Fatalf("expected %d usernames, got %v", len(want), tab.usernames)
	}
	for i, username := range want {
		if tab.usernames[i] != username {
			t.Fatalf("expected order %v, got %v", want, tab.usernames)
		}
	}
}
