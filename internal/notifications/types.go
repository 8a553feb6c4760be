// Package notifications carries server lifecycle announcements to the
// desktop environment. Senders are interchangeable: the GUI posts through
// its own toolkit, headless runs go straight to the OS notification daemon.
package notifications

// Payload is one user-facing notification.
type Payload struct {
	Title   string
	Content string
}

// Sender delivers a payload through one notification backend. Delivery is
// best effort; a sender must not block its caller on daemon failures.
type Sender interface {
	Send(payload Payload)
}
