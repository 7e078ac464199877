package watch

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
)

var (
	// ErrStopped is returned by Next once the watch has been stopped.
	ErrStopped = errors.New("watch stopped")
	// ErrBusy is returned when Next is called while another Next is parked.
	ErrBusy = errors.New("watch already has a pending request")
)

// State is the position of a Watch in its state machine.
type State int

const (
	// Idle means no Next call is pending.
	Idle State = iota
	// Awaiting means a Next call is parked waiting for a value.
	Awaiting
	// Cancelled means the watch was stopped. It is terminal.
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Awaiting:
		return "awaiting"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Delivery is a value handed to a watch together with the version of the
// write that produced it. Version is 0 for unversioned publishes.
type Delivery struct {
	Value   any
	Version uint64
}

// Watch is a restartable, non-rewindable sequence of future values.
type Watch struct {
	hub *Hub
	id  uint64

	mu     sync.Mutex
	state  State
	latest Delivery
	has    bool
	// newest is the highest version accepted so far.
	newest uint64

	wake chan struct{}
	done chan struct{}
}

func newWatch(hub *Hub, id uint64) *Watch {
	return &Watch{
		hub:  hub,
		id:   id,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// State returns the current state of the watch.
func (w *Watch) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Next blocks until the watched node receives a new value and returns it. A
// value that arrived since the previous Next is returned immediately.
// Cancelling ctx abandons the request and leaves the watch Idle.
func (w *Watch) Next(ctx context.Context) (any, error) {
	d, err := w.Receive(ctx)
	return d.Value, err
}

// Receive is Next with the version of the delivered value.
func (w *Watch) Receive(ctx context.Context) (Delivery, error) {
	w.mu.Lock()
	switch w.state {
	case Cancelled:
		w.mu.Unlock()
		return Delivery{}, ErrStopped
	case Awaiting:
		w.mu.Unlock()
		return Delivery{}, ErrBusy
	}
	w.state = Awaiting
	w.mu.Unlock()

	for {
		w.mu.Lock()
		if w.state == Cancelled {
			w.mu.Unlock()
			return Delivery{}, ErrStopped
		}
		if w.has {
			d := w.latest
			w.latest, w.has = Delivery{}, false
			w.state = Idle
			w.mu.Unlock()
			return d, nil
		}
		w.mu.Unlock()

		select {
		case <-w.wake:
		case <-w.done:
		case <-ctx.Done():
			w.mu.Lock()
			if w.state == Awaiting {
				w.state = Idle
			}
			w.mu.Unlock()
			return Delivery{}, ctx.Err()
		}
	}
}

// Stop cancels the watch and detaches it from its hub. A parked Next returns
// ErrStopped. Stop is idempotent.
func (w *Watch) Stop() {
	w.mu.Lock()
	if w.state == Cancelled {
		w.mu.Unlock()
		return
	}
	w.state = Cancelled
	w.latest, w.has = Delivery{}, false
	close(w.done)
	w.mu.Unlock()

	if w.hub != nil {
		w.hub.remove(w.id)
	}
}

// All returns the watch as a range-over-func sequence. The sequence ends
// when the watch is stopped; any other error (e.g. ctx cancellation) is
// yielded once before it ends. Leaving the loop early stops the watch.
func (w *Watch) All(ctx context.Context) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for d, err := range w.Deliveries(ctx) {
			if !yield(d.Value, err) {
				return
			}
		}
	}
}

// Deliveries is All with the version of every value.
func (w *Watch) Deliveries(ctx context.Context) iter.Seq2[Delivery, error] {
	return func(yield func(Delivery, error) bool) {
		defer w.Stop()
		for {
			d, err := w.Receive(ctx)
			if err != nil {
				if !errors.Is(err, ErrStopped) {
					yield(Delivery{}, err)
				}
				return
			}
			if !yield(d, nil) {
				return
			}
		}
	}
}

// deliver stores d for the current or next Next call, replacing any value
// that was not picked up yet. A versioned delivery older than one already
// accepted is dropped.
func (w *Watch) deliver(d Delivery) {
	w.mu.Lock()
	if w.state == Cancelled || (d.Version != 0 && d.Version <= w.newest) {
		w.mu.Unlock()
		return
	}
	if d.Version != 0 {
		w.newest = d.Version
	}
	w.latest, w.has = d, true
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Values adapts a watch to a typed sequence. A value of the wrong type is
// yielded as an error and ends the sequence.
func Values[T any](ctx context.Context, w *Watch) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for v, err := range w.All(ctx) {
			var zero T
			if err != nil {
				yield(zero, err)
				return
			}
			typed, ok := v.(T)
			if !ok {
				yield(zero, fmt.Errorf("watch delivered %T, want %T", v, zero))
				return
			}
			if !yield(typed, nil) {
				return
			}
		}
	}
}
