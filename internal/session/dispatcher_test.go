package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu       sync.Mutex
	seen     map[int64][]string
	inFlight map[int64]*int32
	overlap  atomic.Bool
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{seen: make(map[int64][]string), inFlight: make(map[int64]*int32)}
}

func (h *recordingHandler) Handle(_ context.Context, userID int64, in Input) Effect {
	h.mu.Lock()
	counter, ok := h.inFlight[userID]
	if !ok {
		counter = new(int32)
		h.inFlight[userID] = counter
	}
	h.mu.Unlock()

	if atomic.AddInt32(counter, 1) > 1 {
		h.overlap.Store(true)
	}
	defer atomic.AddInt32(counter, -1)

	if in.Text == "boom" {
		panic("handler exploded")
	}
	time.Sleep(time.Millisecond)

	h.mu.Lock()
	h.seen[userID] = append(h.seen[userID], in.Text)
	h.mu.Unlock()

	var eff Effect
	eff.say(in.Text, nil)
	return eff
}

func TestDispatcher_SerializesPerUser(t *testing.T) {
	h := newRecordingHandler()
	var delivered atomic.Int32
	d := NewDispatcher(h, func(context.Context, int64, Effect) { delivered.Add(1) }, nil)

	ctx := context.Background()
	want := []string{"a", "b", "c", "d", "e"}
	for _, s := range want {
		for _, u := range []int64{1, 2, 3} {
			d.Dispatch(ctx, u, text(s))
		}
	}
	d.Wait()

	assert.False(t, h.overlap.Load(), "inputs of one user must not overlap")
	for _, u := range []int64{1, 2, 3} {
		assert.Equal(t, want, h.seen[u])
	}
	assert.Equal(t, int32(15), delivered.Load())
	assert.Zero(t, d.Active())
}

func TestDispatcher_RecoversFromPanic(t *testing.T) {
	h := newRecordingHandler()
	d := NewDispatcher(h, func(context.Context, int64, Effect) {}, nil)

	ctx := context.Background()
	d.Dispatch(ctx, 1, text("boom"))
	d.Dispatch(ctx, 1, text("after"))
	d.Wait()

	require.Len(t, h.seen[1], 1)
	assert.Equal(t, "after", h.seen[1][0])
}

func TestDispatcher_RestartsWorkerAfterDrain(t *testing.T) {
	h := newRecordingHandler()
	d := NewDispatcher(h, func(context.Context, int64, Effect) {}, nil)

	ctx := context.Background()
	d.Dispatch(ctx, 1, text("first"))
	d.Wait()
	d.Dispatch(ctx, 1, text("second"))
	d.Wait()

	assert.Equal(t, []string{"first", "second"}, h.seen[1])
}
