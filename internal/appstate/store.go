// Package appstate holds cross-screen ephemeral state. A single Store
// is constructed at startup and handed to the screens that need it; no
// package-level singleton.
package appstate

import (
	"sync"

	"github.com/quickwish/quickwish/internal/wish"
)

// Store is the session-lifetime shared state: the last known user
// location and a refresh counter consumed by list screens. Writes are
// last-write-wins; the mutex exists because bubbletea commands run off
// the update loop.
type Store struct {
	mu             sync.RWMutex
	userLocation   *wish.Location
	refreshTrigger uint64
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// UserLocation returns the most recently published location, or nil if
// none has been resolved this session.
func (s *Store) UserLocation() *wish.Location {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.userLocation == nil {
		return nil
	}

	loc := *s.userLocation

	return &loc
}

// SetUserLocation overwrites the shared location with the most recent
// resolution, whether from GPS or a manual pick.
func (s *Store) SetUserLocation(loc wish.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userLocation = &loc
}

// RefreshTrigger returns the current refresh counter value.
func (s *Store) RefreshTrigger() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.refreshTrigger
}

// TriggerRefresh bumps the refresh counter. Called once per successful
// wish mutation; never decremented.
func (s *Store) TriggerRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.refreshTrigger++
}
