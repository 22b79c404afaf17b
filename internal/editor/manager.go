package editor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/locvowork/pawsheets/internal/logger"
	"github.com/locvowork/pawsheets/internal/realtime"
	"github.com/locvowork/pawsheets/pkg/sheet"
)

// Store loads and saves worksheets for the sessions of a Manager.
type Store interface {
	Load(ctx context.Context, id string) (sheet.Worksheet, error)
	Save(ctx context.Context, ws sheet.Worksheet) error
}

// Manager keeps at most one Session per worksheet. Saved snapshots are
// published on the hub; updates published by other writers replace the
// session state.
type Manager struct {
	store Store
	hub   *realtime.Hub
	delay time.Duration

	mu       sync.Mutex
	sessions map[string]*managed
	now      func() time.Time
}

type managed struct {
	session     *Session
	unsubscribe func()
	lastUsed    time.Time
}

func NewManager(store Store, hub *realtime.Hub, delay time.Duration) *Manager {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Manager{
		store:    store,
		hub:      hub,
		delay:    delay,
		sessions: make(map[string]*managed),
		now:      time.Now,
	}
}

// Open returns the session for a worksheet, loading it on first use.
func (m *Manager) Open(ctx context.Context, id string) (*Session, error) {
	if s, ok := m.Get(id); ok {
		return s, nil
	}

	ws, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[id]; ok {
		return existing.session, nil
	}

	origin := uuid.NewString()
	saver := SaverFunc(func(ctx context.Context, snap sheet.Worksheet) error {
		if err := m.store.Save(ctx, snap); err != nil {
			return err
		}
		m.hub.Publish(ctx, realtime.Event{WorksheetID: id, Origin: origin, Worksheet: snap})
		return nil
	})
	s := NewSession(origin, ws, saver,
		WithDelay(m.delay),
		WithSaveErrorHandler(func(err error) {
			logger.ErrorLog(context.Background(), "autosave of worksheet %s failed: %v", id, err)
		}),
	)

	events, unsubscribe := m.hub.Subscribe(id)
	m.sessions[id] = &managed{session: s, unsubscribe: unsubscribe, lastUsed: m.now()}
	go m.follow(id, s, events)

	logger.DebugLog(ctx, "opened editing session %s for worksheet %s", origin, id)
	return s, nil
}

func (m *Manager) follow(id string, s *Session, events <-chan realtime.Event) {
	for ev := range events {
		if ev.Origin == s.Origin() {
			continue
		}
		if ev.Deleted {
			m.discard(id, s)
			continue
		}
		s.ReplaceFromRemote(ev.Worksheet)
	}
}

// Get returns an open session and marks it as used.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	ms.lastUsed = m.now()
	return ms.session, true
}

// EvictIdle writes and closes sessions that have not been used for idle.
// A session whose final save fails stays open so its edits are not lost.
func (m *Manager) EvictIdle(ctx context.Context, idle time.Duration) int {
	cutoff := m.now().Add(-idle)
	m.mu.Lock()
	type candidate struct {
		ms   *managed
		used time.Time
	}
	candidates := make(map[string]candidate)
	for id, ms := range m.sessions {
		if !ms.lastUsed.After(cutoff) {
			candidates[id] = candidate{ms: ms, used: ms.lastUsed}
		}
	}
	m.mu.Unlock()

	evicted := 0
	for id, c := range candidates {
		ms, used := c.ms, c.used
		if ms.session.Pending() || ms.session.LastError() != nil {
			if err := ms.session.Flush(ctx); err != nil {
				logger.ErrorLog(ctx, "save of idle worksheet %s failed, keeping session: %v", id, err)
				continue
			}
		}

		m.mu.Lock()
		cur, ok := m.sessions[id]
		// Skip sessions that were picked up again while saving.
		if !ok || cur != ms || !ms.lastUsed.Equal(used) || ms.session.Pending() {
			m.mu.Unlock()
			continue
		}
		delete(m.sessions, id)
		m.mu.Unlock()

		ms.session.Close()
		ms.unsubscribe()
		evicted++
		logger.DebugLog(ctx, "evicted idle session of worksheet %s", id)
	}
	return evicted
}

// StartEviction runs EvictIdle every interval until ctx is done.
func (m *Manager) StartEviction(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.EvictIdle(ctx, idle); n > 0 {
					logger.InfoLog(ctx, "evicted %d idle editing sessions", n)
				}
			}
		}
	}()
}

// Close ends the session for a worksheet, cancelling its pending autosave.
func (m *Manager) Close(ctx context.Context, id string) bool {
	m.mu.Lock()
	ms, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}

	if ms.session.Close() {
		logger.InfoLog(ctx, "discarded pending autosave of worksheet %s", id)
	}
	ms.unsubscribe()
	return true
}

func (m *Manager) discard(id string, s *Session) {
	m.mu.Lock()
	ms, ok := m.sessions[id]
	if ok && ms.session == s {
		delete(m.sessions, id)
	} else {
		ok = false
	}
	m.mu.Unlock()

	s.Close()
	if ok {
		ms.unsubscribe()
	}
}

// Shutdown flushes sessions with pending saves and closes all of them.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*managed)
	m.mu.Unlock()

	for id, ms := range all {
		if ms.session.Pending() {
			if err := ms.session.Flush(ctx); err != nil {
				logger.ErrorLog(ctx, "final save of worksheet %s failed: %v", id, err)
			}
		}
		ms.session.Close()
		ms.unsubscribe()
	}
}

// Len is the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
