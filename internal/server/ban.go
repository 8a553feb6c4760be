package server

import (
	"net"
	"sync"
	"time"
)

// banList tracks failed login attempts per client address and bans an
// address for a fixed duration once the failure limit is reached.
type banList struct {
	limit    int
	duration time.Duration
	now      func() time.Time

	mu       sync.Mutex
	failures map[string]int
	banned   map[string]time.Time
}

func newBanList(limit int, duration time.Duration) *banList {
	return &banList{
		limit:    limit,
		duration: duration,
		now:      time.Now,
		failures: make(map[string]int),
		banned:   make(map[string]time.Time),
	}
}

// Banned reports whether the address is currently banned. Expired bans are
// cleared together with the address's failure count.
func (b *banList) Banned(remote string) bool {
	host := banKey(remote)

	b.mu.Lock()
	defer b.mu.Unlock()

	until, ok := b.banned[host]
	if !ok {
		return false
	}
	if b.now().After(until) {
		delete(b.banned, host)
		delete(b.failures, host)

		return false
	}

	return true
}

// RecordFailure counts a failed login and bans the address once the limit
// is reached.
func (b *banList) RecordFailure(remote string) {
	host := banKey(remote)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures[host]++
	if b.failures[host] >= b.limit {
		b.banned[host] = b.now().Add(b.duration)
		delete(b.failures, host)
	}
}

// RecordSuccess clears the failure count for the address.
func (b *banList) RecordSuccess(remote string) {
	host := banKey(remote)

	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.failures, host)
}

func banKey(remote string) string {
	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host
	}

	return remote
}
