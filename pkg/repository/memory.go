package repository

import (
	"context"
	"sync"
	"time"

	"github.com/fitlens-dev/fitlens/pkg/domain/interfaces"
	"github.com/fitlens-dev/fitlens/pkg/domain/model/errs"
	"github.com/fitlens-dev/fitlens/pkg/domain/model/session"
	"github.com/fitlens-dev/fitlens/pkg/domain/types"
	"github.com/fitlens-dev/fitlens/pkg/utils/clock"
	"github.com/fitlens-dev/fitlens/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

const DefaultTTL = 30 * time.Minute

// entry pairs a session with its own mutex. All mutation goes through this
// mutex, so two concurrent messages for the same session ID serialize
// instead of racing on the turn counter.
type entry struct {
	mu   sync.Mutex
	sess *session.Session
}

// Memory is a process-lifetime session store. Nothing is persisted: a
// restart loses all sessions, which is the product's stated privacy model.
type Memory struct {
	mu       sync.RWMutex
	sessions map[types.SessionID]*entry
	ttl      time.Duration
}

var _ interfaces.Repository = &Memory{}

type Option func(*Memory)

func WithTTL(ttl time.Duration) Option {
	return func(m *Memory) {
		m.ttl = ttl
	}
}

func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		sessions: make(map[types.SessionID]*entry),
		ttl:      DefaultTTL,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) CreateSession(ctx context.Context, sess *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sess.ID]; ok {
		return goerr.New("session already exists", goerr.V("session_id", sess.ID))
	}
	m.sessions[sess.ID] = &entry{sess: sess}
	return nil
}

func (m *Memory) lookup(id types.SessionID) (*entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.sessions[id]
	if !ok {
		return nil, goerr.New("session not found, please restart",
			goerr.V("session_id", id), goerr.T(errs.TagNotFound))
	}
	return e, nil
}

// GetSession returns a snapshot of the session and refreshes its activity
// deadline.
func (m *Memory) GetSession(ctx context.Context, id types.SessionID) (*session.Session, error) {
	e, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.sess.Touch(ctx)
	return e.sess.Clone(), nil
}

// WithSession runs fn under the session's write lock. The activity deadline
// is refreshed before fn runs so a slow LLM call cannot expire its own
// session mid-flight.
func (m *Memory) WithSession(ctx context.Context, id types.SessionID, fn func(ctx context.Context, sess *session.Session) error) error {
	e, err := m.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.sess.Touch(ctx)
	return fn(ctx, e.sess)
}

// Sweep evicts idle sessions. It snapshots IDs first and deletes by key, so
// it never mutates the map while ranging over it.
func (m *Memory) Sweep(ctx context.Context) int {
	now := clock.Now(ctx)

	m.mu.RLock()
	ids := make([]types.SessionID, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	var evicted int
	for _, id := range ids {
		m.mu.Lock()
		if e, ok := m.sessions[id]; ok && e.sess.IdleSince(now, m.ttl) {
			delete(m.sessions, id)
			evicted++
		}
		m.mu.Unlock()
	}

	if evicted > 0 {
		logging.From(ctx).Info("swept idle sessions", "evicted", evicted, "ttl", m.ttl)
	}
	return evicted
}

// Len returns the number of live sessions.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
