package escape

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// SessionManager holds in-memory run state and the per-user start lock that
// keeps a double-tapped start button from consuming two escape units.
type SessionManager struct {
	runs        *xsync.MapOf[string, *runSession]
	startLocks  *xsync.MapOf[string, time.Time]
	lockTimeout time.Duration
	sessionTTL  time.Duration
}

type runSession struct {
	mu       sync.Mutex
	run      *Run
	lastSeen time.Time
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		runs:        xsync.NewMapOf[string, *runSession](),
		startLocks:  xsync.NewMapOf[string, time.Time](),
		lockTimeout: 30 * time.Second,
		sessionTTL:  12 * time.Hour,
	}
}

// TryLockStart claims the start lock for a user. Returns false while another
// start for the same user is still in flight.
func (m *SessionManager) TryLockStart(userID string) bool {
	now := time.Now()
	locked := false
	m.startLocks.Compute(userID, func(expiry time.Time, loaded bool) (time.Time, bool) {
		if loaded && now.Before(expiry) {
			return expiry, false
		}
		locked = true
		return now.Add(m.lockTimeout), false
	})
	return locked
}

func (m *SessionManager) ReleaseStart(userID string) {
	m.startLocks.Delete(userID)
}

// PutRun installs the user's active run, replacing any previous one.
func (m *SessionManager) PutRun(run *Run) {
	m.runs.Store(run.UserID, &runSession{run: run, lastSeen: time.Now()})
}

// WithRun runs fn with the user's active run under its session lock. Returns
// false when the user has no active run.
func (m *SessionManager) WithRun(userID string, fn func(*Run) error) (bool, error) {
	session, ok := m.runs.Load(userID)
	if !ok {
		return false, nil
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	session.lastSeen = time.Now()
	return true, fn(session.run)
}

// GetRun returns the user's active run, or nil.
func (m *SessionManager) GetRun(userID string) *Run {
	session, ok := m.runs.Load(userID)
	if !ok {
		return nil
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.run
}

func (m *SessionManager) DropRun(userID string) {
	m.runs.Delete(userID)
}

// ActiveRuns reports how many run sessions are held in memory.
func (m *SessionManager) ActiveRuns() int {
	return m.runs.Size()
}

// StartCleanupRoutine evicts abandoned sessions and stale start locks.
func (m *SessionManager) StartCleanupRoutine(ctx context.Context) {
	ticker := time.NewTicker(15 * time.Minute)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.cleanup(time.Now())
			}
		}
	}()
}

func (m *SessionManager) cleanup(now time.Time) {
	evicted := 0
	m.runs.Range(func(userID string, session *runSession) bool {
		session.mu.Lock()
		stale := now.Sub(session.lastSeen) > m.sessionTTL
		session.mu.Unlock()
		if stale {
			m.runs.Delete(userID)
			evicted++
		}
		return true
	})

	m.startLocks.Range(func(userID string, expiry time.Time) bool {
		if now.After(expiry) {
			m.startLocks.Delete(userID)
		}
		return true
	})

	if evicted > 0 {
		slog.Info("Evicted abandoned run sessions",
			slog.String("type", "system"),
			slog.Int("count", evicted))
	}
}
