package auth

import (
	"sync"
	"time"
)

// pendingTTL bounds how long an authorization may sit unexchanged.
const pendingTTL = 10 * time.Minute

type pendingAuth struct {
	verifier  string
	createdAt time.Time
}

// pendingStore holds PKCE verifiers keyed by state until the code exchange.
type pendingStore struct {
	mu      sync.Mutex
	pending map[string]pendingAuth
}

func newPendingStore() *pendingStore {
	return &pendingStore{pending: make(map[string]pendingAuth)}
}

func (s *pendingStore) put(state, verifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Expired entries are collected on write; the map stays small.
	for k, v := range s.pending {
		if time.Since(v.createdAt) > pendingTTL {
			delete(s.pending, k)
		}
	}
	s.pending[state] = pendingAuth{verifier: verifier, createdAt: time.Now()}
}

// take removes and returns the verifier for a state. A state can be
// exchanged only once.
func (s *pendingStore) take(state string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pending[state]
	if !ok {
		return "", false
	}
	delete(s.pending, state)

	if time.Since(entry.createdAt) > pendingTTL {
		return "", false
	}
	return entry.verifier, true
}
