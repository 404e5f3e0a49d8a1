// Package framequeue implements the bounded hand-off between the decoding
// goroutine and the render tick.
//
// A [Queue] owns every handle it holds. Popping a handle transfers ownership
// to the caller, who must release it exactly once. Handles still queued when
// the queue is drained are released by the queue itself.
package framequeue

import (
	"errors"
	"sync"
)

// DefaultCapacity is the capacity used when New receives a non-positive one.
const DefaultCapacity = 30

var (
	// ErrClosed is returned by blocking operations once [Queue.Close] has been called.
	ErrClosed = errors.New("framequeue: queue closed")

	// ErrInterrupted is returned by blocking operations woken by [Queue.Interrupt].
	ErrInterrupted = errors.New("framequeue: wait interrupted")
)

// Releaser is anything holding a resource that must be freed exactly once.
type Releaser interface {
	Release()
}

// Queue is a bounded FIFO of owned handles. The zero value is not usable,
// use [New].
type Queue[T Releaser] struct {
	mu          sync.Mutex
	notFull     *sync.Cond // also broadcast on drain, interrupt and close
	items       []T
	head        int
	size        int
	closed      bool
	interrupted bool
}

// New creates a queue with the given capacity.
func New[T Releaser](capacity int) *Queue[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	q := &Queue[T]{items: make([]T, capacity)}
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Cap returns the fixed capacity of the queue.
func (q *Queue[T]) Cap() int { return len(q.items) }

// Len returns the number of queued handles.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// WaitNotFull blocks until there's room for at least one more handle. It
// returns [ErrClosed] or [ErrInterrupted] if the wait ended for any other
// reason. An interrupt is consumed by the waiter it wakes.
func (q *Queue[T]) WaitNotFull() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.noLockWaitNotFull()
}

// Push appends a handle, blocking while the queue is full. On error the
// handle was not queued and the caller still owns it.
func (q *Queue[T]) Push(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.noLockWaitNotFull(); err != nil {
		return err
	}
	q.items[(q.head+q.size)%len(q.items)] = item
	q.size++
	return nil
}

func (q *Queue[T]) noLockWaitNotFull() error {
	for {
		switch {
		case q.closed:
			return ErrClosed
		case q.interrupted:
			q.interrupted = false
			return ErrInterrupted
		case q.size < len(q.items):
			return nil
		}
		q.notFull.Wait()
	}
}

// TryPop removes the head of the queue without blocking. The returned
// handle is owned by the caller.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if q.size == 0 {
		return zero, false
	}
	item := q.items[q.head]
	q.items[q.head] = zero
	q.head = (q.head + 1) % len(q.items)
	q.size--
	q.notFull.Broadcast()
	return item, true
}

// Drain releases every queued handle and returns how many there were.
// A pending interrupt is cleared as well, since whoever requested it has
// now been served.
func (q *Queue[T]) Drain() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	n := q.size
	for ; q.size > 0; q.size-- {
		q.items[q.head].Release()
		q.items[q.head] = zero
		q.head = (q.head + 1) % len(q.items)
	}
	q.head = 0
	q.interrupted = false
	q.notFull.Broadcast()
	return n
}

// Interrupt wakes a goroutine blocked in [Queue.Push] or [Queue.WaitNotFull]
// even if the queue is still full. If nobody is waiting, the next wait
// returns immediately instead.
func (q *Queue[T]) Interrupt() {
	q.mu.Lock()
	q.interrupted = true
	q.notFull.Broadcast()
	q.mu.Unlock()
}

// Close makes every current and future blocking call return [ErrClosed].
// Queued handles are kept until [Queue.Drain].
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.notFull.Broadcast()
	q.mu.Unlock()
}
