// Package queue provides the unbounded FIFO that carries units from capture to the worker.
package queue

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Pop once the shutdown sentinel reaches the head of
// the queue, and by Push after Shutdown.
var ErrClosed = errors.New("queue closed")

type entry[T any] struct {
	value    T
	sentinel bool
}

// Queue is an unbounded FIFO. Push never blocks; Pop blocks while empty.
// Shutdown enqueues a sentinel behind everything already pushed, so consumers
// drain earlier items before they observe ErrClosed.
//
// All methods are safe for concurrent use.
type Queue[T any] struct {
	mu       sync.Mutex
	items    []entry[T]
	shutdown bool

	notify chan struct{}
}

// New returns an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{notify: make(chan struct{}, 1)}
}

// Push appends v. It returns ErrClosed after Shutdown; the item is dropped.
func (q *Queue[T]) Push(v T) error {
	q.mu.Lock()
	if q.shutdown {
		q.mu.Unlock()
		return ErrClosed
	}
	q.items = append(q.items, entry[T]{value: v})
	q.mu.Unlock()

	q.signal()
	return nil
}

// Shutdown enqueues the sentinel. Calling it more than once is a no-op.
func (q *Queue[T]) Shutdown() {
	q.mu.Lock()
	if q.shutdown {
		q.mu.Unlock()
		return
	}
	q.shutdown = true
	q.items = append(q.items, entry[T]{sentinel: true})
	q.mu.Unlock()

	q.signal()
}

// Pop removes and returns the head item, waiting until one is available or
// ctx is done. The sentinel is never removed, so every consumer sees ErrClosed.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	var zero T
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			head := q.items[0]
			if head.sentinel {
				q.mu.Unlock()
				q.signal()
				return zero, ErrClosed
			}
			q.items[0] = entry[T]{}
			q.items = q.items[1:]
			more := len(q.items) > 0
			q.mu.Unlock()
			if more {
				q.signal()
			}
			return head.value, nil
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Len reports the number of items waiting ahead of the sentinel.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	if q.shutdown {
		n--
	}
	return n
}

func (q *Queue[T]) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
