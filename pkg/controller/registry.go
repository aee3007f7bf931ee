package controller

import (
	"errors"
	"sort"
	"sync"

	"github.com/Ramsey-B/fern/pkg/metrics"
)

var ErrSessionNotFound = errors.New("session not found")

// Registry tracks the live sessions by id
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Controller
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Controller)}
}

// Add registers c and returns a func that removes it
func (r *Registry) Add(c *Controller) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[c.ID()] = c
	metrics.ActiveSessions.Set(float64(len(r.sessions)))

	return func() { r.Remove(c.ID()) }
}

// Remove drops the session with id
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
}

// Get returns the session with id
func (r *Registry) Get(id string) (*Controller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return c, nil
}

// IDs returns the live session ids, sorted
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
