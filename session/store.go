// Package session manages the lifetime of the signed-in user's session: it holds the current
// identity, renews the access credential in the background, and tears the session down exactly
// once when it becomes unusable.
package session

import (
	"sync"

	"github.com/divvyapp/divvy/api"
	"github.com/divvyapp/divvy/events"
)

// State is a snapshot of the session as seen by callers. A nil User means no one is signed in.
type State struct {
	User    *api.User
	Loading bool
}

// IsAuthenticated reports whether the snapshot carries a signed-in user.
func (s State) IsAuthenticated() bool {
	return s.User != nil
}

// ChangeEvent is broadcast whenever the stored state changes.
type ChangeEvent struct {
	Authenticated bool
	Loading       bool
}

// Store holds the session state and fans out changes to subscribers. Subscribers are notified
// synchronously, in the goroutine that performed the mutation, so a caller that updates the
// store observes every listener's reaction before its own call returns.
type Store struct {
	mu        sync.RWMutex
	state     State
	listeners map[int]func(State)
	nextID    int
}

func NewStore() *Store {
	return &Store{listeners: make(map[int]func(State))}
}

// Get returns the current state snapshot.
func (s *Store) Get() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the signed-in user, or nil.
func (s *Store) User() *api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User
}

// SetUser replaces the stored identity. Passing nil clears the session.
func (s *Store) SetUser(user *api.User) {
	s.mu.Lock()
	s.state.User = user
	s.mu.Unlock()
	s.notify()
}

// SetLoading flips the loading flag, which the UI uses to gate on startup hydration and
// explicit renewals.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	if s.state.Loading == loading {
		s.mu.Unlock()
		return
	}
	s.state.Loading = loading
	s.mu.Unlock()
	s.notify()
}

// Subscribe registers cb for state changes and returns an unsubscribe function. The callback
// runs synchronously on every change; it must not call back into the store's mutators.
func (s *Store) Subscribe(cb func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = cb
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// notify calls every listener with the current snapshot, outside the write lock so listeners
// can read the store.
func (s *Store) notify() {
	s.mu.RLock()
	state := s.state
	cbs := make([]func(State), 0, len(s.listeners))
	for _, cb := range s.listeners {
		cbs = append(cbs, cb)
	}
	s.mu.RUnlock()
	for _, cb := range cbs {
		cb(state)
	}
	events.Emit(ChangeEvent{Authenticated: state.User != nil, Loading: state.Loading})
}
