// Package session keeps the explorer sessions of the HTTP server and expires
// idle ones on a schedule.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/repoexplorer/internal/explorer"
	"git.home.luguber.info/inful/repoexplorer/internal/logfields"
)

// Factory builds a session for a freshly allocated id.
type Factory func(id string) (*explorer.Session, error)

// Gauge receives the number of live sessions.
type Gauge interface {
	SetActiveSessions(n int)
}

type entry struct {
	session    *explorer.Session
	lastAccess time.Time
}

// Manager is a registry of explorer sessions keyed by uuid.
type Manager struct {
	factory  Factory
	ttl      time.Duration
	interval time.Duration
	gauge    Gauge
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry

	scheduler gocron.Scheduler
}

// NewManager creates a manager. Sessions idle for longer than ttl are
// removed by a sweep that runs every interval once Start is called.
func NewManager(factory Factory, ttl, interval time.Duration, gauge Gauge) *Manager {
	return &Manager{
		factory:  factory,
		ttl:      ttl,
		interval: interval,
		gauge:    gauge,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Create allocates a new session.
func (m *Manager) Create() (*explorer.Session, error) {
	id := uuid.NewString()
	s, err := m.factory(id)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	m.mu.Lock()
	m.sessions[id] = &entry{session: s, lastAccess: m.now()}
	n := len(m.sessions)
	m.mu.Unlock()

	m.report(n)
	slog.Debug("Session created", logfields.SessionID(id))
	return s, nil
}

// Get returns the session with id and marks it as used.
func (m *Manager) Get(id string) (*explorer.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastAccess = m.now()
	return e.session, true
}

// Delete closes and removes the session with id.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	e, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return false
	}
	e.session.Close()
	m.report(n)
	slog.Debug("Session deleted", logfields.SessionID(id))
	return true
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep removes sessions not used since now minus the ttl and returns how many were removed.
func (m *Manager) Sweep(now time.Time) int {
	var expired []*entry
	var ids []string

	m.mu.Lock()
	for id, e := range m.sessions {
		if now.Sub(e.lastAccess) > m.ttl {
			expired = append(expired, e)
			ids = append(ids, id)
			delete(m.sessions, id)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	for i, e := range expired {
		e.session.Close()
		slog.Info("Session expired", logfields.SessionID(ids[i]))
	}
	if len(expired) > 0 {
		m.report(n)
	}
	return len(expired)
}

// Start schedules the idle sweep.
func (m *Manager) Start(_ context.Context) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(m.interval),
		gocron.NewTask(func() { m.Sweep(m.now()) }),
		gocron.WithName("session-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("failed to create session sweep job: %w", err)
	}

	slog.Info("Starting session sweeper",
		slog.Duration("ttl", m.ttl),
		slog.Duration("interval", m.interval))
	s.Start()

	m.mu.Lock()
	m.scheduler = s
	m.mu.Unlock()
	return nil
}

// Stop shuts the sweeper down and closes every session.
func (m *Manager) Stop() error {
	m.mu.Lock()
	s := m.scheduler
	m.scheduler = nil
	all := m.sessions
	m.sessions = make(map[string]*entry)
	m.mu.Unlock()

	var err error
	if s != nil {
		slog.Info("Stopping session sweeper")
		err = s.Shutdown()
	}
	for _, e := range all {
		e.session.Close()
	}
	m.report(0)
	return err
}

func (m *Manager) report(n int) {
	if m.gauge != nil {
		m.gauge.SetActiveSessions(n)
	}
}
