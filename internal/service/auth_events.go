package service

import (
	"sync"
	"time"
)

// AuthEventType names an identity state change
type AuthEventType string

const (
	EventSignedIn         AuthEventType = "SIGNED_IN"
	EventSignedOut        AuthEventType = "SIGNED_OUT"
	EventPasswordRecovery AuthEventType = "PASSWORD_RECOVERY"
	EventUserUpdated      AuthEventType = "USER_UPDATED"
)

// AuthEvent is delivered to subscribers on every identity state change
type AuthEvent struct {
	Type      AuthEventType
	UserID    int64
	SessionID string
	At        time.Time
}

// authHub fans events out to subscribers. Listeners run synchronously
// on the emitting goroutine and must not block.
type authHub struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]func(AuthEvent)
}

func newAuthHub() *authHub {
	return &authHub{listeners: make(map[int]func(AuthEvent))}
}

func (h *authHub) subscribe(fn func(AuthEvent)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			h.mu.Unlock()
		})
	}
}

func (h *authHub) emit(ev AuthEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	h.mu.RLock()
	listeners := make([]func(AuthEvent), 0, len(h.listeners))
	for _, fn := range h.listeners {
		listeners = append(listeners, fn)
	}
	h.mu.RUnlock()

	for _, fn := range listeners {
		fn(ev)
	}
}
