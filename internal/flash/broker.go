// Package flash is the one-time message broker. Messages survive a redirect
// boundary, expire after a short TTL, and are deleted on first read.
package flash

import (
	"crypto/md5"
	"encoding/hex"
	"sync"
	"time"
)

// Severities.
const (
	SeveritySuccess = "success"
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// DefaultTTL is how long an unread message survives.
const DefaultTTL = 60 * time.Second

// Message is an ephemeral status record for one actor.
type Message struct {
	Text     string `json:"text"`
	Severity string `json:"severity"`
}

type entry struct {
	msg       Message
	expiresAt time.Time
}

// Broker stores at most one pending message per actor key. It is safe for
// concurrent use; Get is an atomic check-and-delete so exactly one reader
// observes a message.
type Broker struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
	done    chan struct{}
}

// NewBroker creates a Broker with the given TTL (DefaultTTL if zero) and
// starts a janitor goroutine that garbage-collects expired entries.
func NewBroker(ttl time.Duration) *Broker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	b := &Broker{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go b.janitor()
	return b
}

// Set stores a message for the actor, overwriting any existing one and
// resetting its TTL.
func (b *Broker) Set(actorKey, text, severity string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[actorKey] = entry{
		msg:       Message{Text: text, Severity: severity},
		expiresAt: b.now().Add(b.ttl),
	}
}

// Success stores a success message for the actor.
func (b *Broker) Success(actorKey, text string) { b.Set(actorKey, text, SeveritySuccess) }

// Error stores an error message for the actor.
func (b *Broker) Error(actorKey, text string) { b.Set(actorKey, text, SeverityError) }

// Warning stores a warning message for the actor.
func (b *Broker) Warning(actorKey, text string) { b.Set(actorKey, text, SeverityWarning) }

// Get returns the actor's pending message and deletes it. The second return
// is false when there is nothing to read, including when a message existed
// but has already been read or expired.
func (b *Broker) Get(actorKey string) (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[actorKey]
	if !ok {
		return Message{}, false
	}
	delete(b.entries, actorKey)
	if b.now().After(e.expiresAt) {
		return Message{}, false
	}
	return e.msg, true
}

// Has reports whether a live message is pending for the actor without
// consuming it. It may race with a concurrent Get.
func (b *Broker) Has(actorKey string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[actorKey]
	return ok && !b.now().After(e.expiresAt)
}

// Close stops the janitor goroutine.
func (b *Broker) Close() {
	close(b.done)
}

func (b *Broker) janitor() {
	ticker := time.NewTicker(b.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.mu.Lock()
			now := b.now()
			for k, e := range b.entries {
				if now.After(e.expiresAt) {
					delete(b.entries, k)
				}
			}
			b.mu.Unlock()
		}
	}
}

// VisitorKey derives a stable actor key for an anonymous visitor from request
// origin signals. Visitors sharing an IP and user agent collide; that is an
// accepted limitation.
func VisitorKey(ip, userAgent string) string {
	sum := md5.Sum([]byte(ip + userAgent))
	return hex.EncodeToString(sum[:])
}
