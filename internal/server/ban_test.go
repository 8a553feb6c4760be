package server

import (
	"testing"
	"time"
)

func TestBanListBansAfterLimit(t *testing.T) {
	bans := newBanList(3, time.Minute)

	bans.RecordFailure("192.0.2.1:40001")
	bans.RecordFailure("192.0.2.1:40002")
	if bans.Banned("192.0.2.1:40003") {
		t.Fatalf("address must not be banned below the failure limit")
	}

	bans.RecordFailure("192.0.2.1:40003")
	if !bans.Banned("192.0.2.1:40004") {
		t.Fatalf("address should be banned at the failure limit, on any port")
	}
	if bans.Banned("198.51.100.7:40001") {
		t.Fatalf("other addresses must not be affected")
	}
}

func TestBanListExpiresAndResets(t *testing.T) {
	clock := time.Now()
	bans := newBanList(2, time.Minute)
	bans.now = func() time.Time { return clock }

	bans.RecordFailure("192.0.2.1:1")
	bans.RecordFailure("192.0.2.1:1")
	if !bans.Banned("192.0.2.1:1") {
		t.Fatalf("expected a ban after two failures")
	}

	clock = clock.Add(2 * time.Minute)
	if bans.Banned("192.0.2.1:1") {
		t.Fatalf("ban should expire after its duration")
	}

	// Expiry also clears the failure count, so a single new failure does
	// not re-ban immediately.
	bans.RecordFailure("192.0.2.1:1")
	if bans.Banned("192.0.2.1:1") {
		t.Fatalf("one failure after expiry must not re-ban")
	}
}

func TestBanListSuccessClearsFailures(t *testing.T) {
	bans := newBanList(2, time.Minute)

	bans.RecordFailure("192.0.2.1:1")
	bans.RecordSuccess("192.0.2.1:1")
	bans.RecordFailure("192.0.2.1:1")
	if bans.Banned("192.0.2.1:1") {
		t.Fatalf("a successful login should reset the failure count")
	}
}
