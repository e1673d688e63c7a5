// Package notifier broadcasts values to in-process subscribers, such as
// the SSE streams of the HTTP API.
package notifier

import "sync"

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 16

// Notifier fans each broadcast value out to every subscriber.
type Notifier[T any] struct {
	mu        sync.RWMutex
	listeners map[chan T]struct{}
	buffer    int
}

// New creates a Notifier with DefaultBuffer.
func New[T any]() *Notifier[T] {
	return NewWithBuffer[T](DefaultBuffer)
}

// NewWithBuffer creates a Notifier whose subscriber channels hold up to
// buffer pending values.
func NewWithBuffer[T any](buffer int) *Notifier[T] {
	if buffer < 1 {
		buffer = 1
	}
	return &Notifier[T]{
		listeners: make(map[chan T]struct{}),
		buffer:    buffer,
	}
}

// Subscribe returns a channel that receives broadcast values.
// The caller must call Unsubscribe when done to prevent goroutine leaks.
func (n *Notifier[T]) Subscribe() chan T {
	ch := make(chan T, n.buffer)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier[T]) Unsubscribe(ch chan T) {
	n.mu.Lock()
	delete(n.listeners, ch)
	n.mu.Unlock()
	close(ch)
}

// Broadcast sends v to all listeners and returns how many received it.
// Non-blocking: a listener whose channel is full misses v.
func (n *Notifier[T]) Broadcast(v T) int {
	n.mu.RLock()
	defer n.mu.RUnlock()

	delivered := 0
	for ch := range n.listeners {
		select {
		case ch <- v:
			delivered++
		default:
		}
	}
	return delivered
}

// Len returns the number of subscribers.
func (n *Notifier[T]) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}
