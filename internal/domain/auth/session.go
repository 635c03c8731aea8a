package auth

import (
	"context"
	"sync"
)

// SessionState holds the process-wide "an administrator is signed in" flag.
// It is created once at start-up, shared by injection and never torn down.
type SessionState struct {
	mu          sync.Mutex
	loggedIn    bool
	subscribers map[chan bool]struct{}
}

// NewSessionState creates a holder with the given initial value.
func NewSessionState(loggedIn bool) *SessionState {
	return &SessionState{
		loggedIn:    loggedIn,
		subscribers: make(map[chan bool]struct{}),
	}
}

// LoggedIn returns the current value.
func (s *SessionState) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

// Set updates the flag and notifies subscribers when it changes.
func (s *SessionState) Set(loggedIn bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loggedIn == loggedIn {
		return
	}
	s.loggedIn = loggedIn
	for ch := range s.subscribers {
		offer(ch, loggedIn)
	}
}

// Subscribe returns a channel that yields the current value, then every
// change. A slow reader only sees the latest value. The channel is closed
// when ctx is done.
func (s *SessionState) Subscribe(ctx context.Context) <-chan bool {
	ch := make(chan bool, 1)

	s.mu.Lock()
	ch <- s.loggedIn
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subscribers, ch)
		close(ch)
		s.mu.Unlock()
	}()

	return ch
}

// offer replaces any unread value with v. Callers hold the lock.
func offer(ch chan bool, v bool) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}
