package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SweepEvictsIdleSessions(t *testing.T) {
	st := NewStore(30*time.Minute, nil)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }

	st.Put(newSession(1))
	st.Put(newSession(2))

	now = now.Add(20 * time.Minute)
	_, ok := st.Get(2)
	require.True(t, ok)

	now = now.Add(15 * time.Minute)
	assert.Equal(t, 1, st.Sweep())

	_, ok = st.Get(1)
	assert.False(t, ok)
	_, ok = st.Get(2)
	assert.True(t, ok)
}

func TestStore_ZeroIdleNeverEvicts(t *testing.T) {
	st := NewStore(0, nil)
	st.now = func() time.Time { return time.Unix(0, 0) }
	st.Put(newSession(1))
	st.now = time.Now

	assert.Zero(t, st.Sweep())
	assert.Equal(t, 1, st.Len())
}

func TestStore_RunStopsWithContext(t *testing.T) {
	st := NewStore(time.Millisecond, nil)
	st.Put(newSession(1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		st.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return st.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
