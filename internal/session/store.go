package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store keeps sessions in memory and evicts the ones idle for too long.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	idle     time.Duration
	now      func() time.Time
	log      *zap.Logger
}

func NewStore(idle time.Duration, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		sessions: make(map[int64]*Session),
		idle:     idle,
		now:      time.Now,
		log:      log.Named("sessions"),
	}
}

// Get returns session of the user and marks it as touched.
func (st *Store) Get(userID int64) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[userID]
	if ok {
		s.Touched = st.now()
	}
	return s, ok
}

func (st *Store) Put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s.Touched = st.now()
	st.sessions[s.UserID] = s
}

func (st *Store) Delete(userID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()

	delete(st.sessions, userID)
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	return len(st.sessions)
}

// Sweep evicts sessions idle longer than the configured timeout and returns
// how many were removed.
func (st *Store) Sweep() int {
	if st.idle <= 0 {
		return 0
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	cutoff := st.now().Add(-st.idle)
	evicted := 0
	for id, s := range st.sessions {
		if s.Touched.Before(cutoff) {
			delete(st.sessions, id)
			evicted++
			st.log.Debug("Session evicted", zap.Int64("user_id", id), zap.String("step", string(s.Step)))
		}
	}
	return evicted
}

// Run sweeps the store every interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 || st.idle <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(); n > 0 {
				st.log.Info("Idle sessions evicted", zap.Int("count", n), zap.Int("active", st.Len()))
			}
		}
	}
}
