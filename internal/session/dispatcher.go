package session

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/zap"
)

// Handler processes inputs of a single user.
type Handler interface {
	Handle(ctx context.Context, userID int64, in Input) Effect
}

// DeliverFunc sends an effect produced for userID.
type DeliverFunc func(ctx context.Context, userID int64, eff Effect)

// Dispatcher runs one worker per active user. Inputs of a user are handled
// in arrival order one at a time, different users proceed concurrently. A
// worker exits once its queue is drained.
type Dispatcher struct {
	handler Handler
	deliver DeliverFunc
	log     *zap.Logger

	mu     sync.Mutex
	queues map[int64][]Input
	wg     sync.WaitGroup
}

func NewDispatcher(handler Handler, deliver DeliverFunc, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		handler: handler,
		deliver: deliver,
		log:     log.Named("dispatcher"),
		queues:  make(map[int64][]Input),
	}
}

// Dispatch queues input for userID and returns immediately.
func (d *Dispatcher) Dispatch(ctx context.Context, userID int64, in Input) {
	d.mu.Lock()
	defer d.mu.Unlock()

	q, active := d.queues[userID]
	d.queues[userID] = append(q, in)
	if !active {
		d.wg.Add(1)
		go d.worker(ctx, userID)
	}
}

// Active returns number of users with a running worker.
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.queues)
}

// Wait blocks until all workers have drained their queues.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) worker(ctx context.Context, userID int64) {
	defer d.wg.Done()

	for {
		in, ok := d.next(userID)
		if !ok {
			return
		}
		if ctx.Err() != nil {
			continue
		}
		eff, err := d.handle(ctx, userID, in)
		if err != nil {
			d.log.Error("Input handling failed", zap.Int64("user_id", userID), zap.Stringer("kind", in.Kind), zap.Error(err))
			continue
		}
		if !eff.Empty() {
			d.deliver(ctx, userID, eff)
		}
	}
}

// next pops the oldest input of the user or, when there is none, retires the
// queue so the following Dispatch starts a new worker.
func (d *Dispatcher) next(userID int64) (Input, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	q := d.queues[userID]
	if len(q) == 0 {
		delete(d.queues, userID)
		return Input{}, false
	}
	in := q[0]
	d.queues[userID] = q[1:]
	return in, true
}

func (d *Dispatcher) handle(ctx context.Context, userID int64, in Input) (eff Effect, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return d.handler.Handle(ctx, userID, in), nil
}
