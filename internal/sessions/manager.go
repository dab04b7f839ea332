// Package sessions manages independent graph sessions so several viewers
// (or tests) can drive the engine side by side without sharing state.
package sessions

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/scrypster/lineage/internal/expand"
	"github.com/scrypster/lineage/internal/graph"
)

// DefaultID names the session created at startup. It cannot be deleted.
const DefaultID = "default"

// ErrNotFound is returned when no session exists for an id.
var ErrNotFound = errors.New("sessions: not found")

// Entry pairs a session with the orchestrator that mutates it.
type Entry struct {
	ID           string
	Session      *graph.Session
	Orchestrator *expand.Orchestrator
}

// Manager creates and resolves sessions. Every session shares one API
// fetcher (and thus one circuit breaker) but owns its own graph state.
type Manager struct {
	mu       sync.RWMutex
	entries  map[string]*Entry
	fetcher  expand.Fetcher
	config   expand.Config
	onCreate func(*Entry)
}

// NewManager creates a manager holding the default session.
func NewManager(fetcher expand.Fetcher, config expand.Config) *Manager {
	m := &Manager{
		entries: make(map[string]*Entry),
		fetcher: fetcher,
		config:  config,
	}
	m.create(DefaultID)
	return m
}

// SetOnCreate registers fn to run for every session, including ones that
// already exist. The server uses this to attach event broadcasting.
func (m *Manager) SetOnCreate(fn func(*Entry)) {
	m.mu.Lock()
	m.onCreate = fn
	existing := make([]*Entry, 0, len(m.entries))
	for _, entry := range m.entries {
		existing = append(existing, entry)
	}
	m.mu.Unlock()
	for _, entry := range existing {
		fn(entry)
	}
}

// Create adds a new session under a generated id.
func (m *Manager) Create() *Entry {
	return m.create(uuid.NewString())
}

func (m *Manager) create(id string) *Entry {
	session := graph.NewSession()
	entry := &Entry{
		ID:           id,
		Session:      session,
		Orchestrator: expand.New(session, m.fetcher, m.config),
	}
	m.mu.Lock()
	m.entries[id] = entry
	onCreate := m.onCreate
	m.mu.Unlock()
	if onCreate != nil {
		onCreate(entry)
	}
	return entry
}

// Get resolves a session by id. An empty id resolves the default session.
func (m *Manager) Get(id string) (*Entry, error) {
	if id == "" {
		id = DefaultID
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return entry, nil
}

// Delete removes a session. The default session cannot be removed.
func (m *Manager) Delete(id string) error {
	if id == DefaultID {
		return errors.New("sessions: cannot delete the default session")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

// IDs lists all session ids.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	return ids
}
