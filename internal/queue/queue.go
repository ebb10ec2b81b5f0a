package queue

import (
	"context"
	"sync"
)

// Queue is an unbounded FIFO handoff between any number of producers and a
// single consumer. Push never blocks on the consumer; Pop parks until an item
// is available, the queue is closed and drained, or the context is done.
type Queue[T any] struct {
	mu     sync.Mutex
	in     chan T
	out    chan T
	closed bool
}

// New creates a queue and starts its pump goroutine.
func New[T any]() *Queue[T] {
	q := &Queue[T]{
		in:  make(chan T),
		out: make(chan T),
	}
	go q.pump()
	return q
}

// Push appends v. It reports false if the queue is already closed.
func (q *Queue[T]) Push(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.in <- v
	return true
}

// Close stops accepting items. Items already pushed are still delivered.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.in)
}

// Out exposes the receive side for use in select statements.
// It is closed once the queue is closed and drained.
func (q *Queue[T]) Out() <-chan T {
	return q.out
}

// Pop blocks until the next item. ok is false when the queue is closed and
// drained or ctx is done.
func (q *Queue[T]) Pop(ctx context.Context) (v T, ok bool) {
	select {
	case v, ok = <-q.out:
		return v, ok
	case <-ctx.Done():
		return v, false
	}
}

func (q *Queue[T]) pump() {
	var pending []T
	in := q.in

	for in != nil || len(pending) > 0 {
		if len(pending) == 0 {
			v, ok := <-in
			if !ok {
				in = nil
				continue
			}
			pending = append(pending, v)
			continue
		}

		select {
		case v, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			pending = append(pending, v)
		case q.out <- pending[0]:
			var zero T
			pending[0] = zero
			pending = pending[1:]
		}
	}
	close(q.out)
}
