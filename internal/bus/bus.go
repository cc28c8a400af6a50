// Package bus is a typed publish/subscribe channel between UI regions that
// do not know about each other.
package bus

import "sync"

// Bus delivers every published value to all current subscribers.
// Handlers run synchronously on the publishing goroutine, in the order
// they subscribed.
type Bus[T any] struct {
	mu       sync.Mutex
	nextID   int
	handlers []subscription[T]
}

type subscription[T any] struct {
	id int
	fn func(T)
}

func New[T any]() *Bus[T] {
	return &Bus[T]{}
}

// Subscribe registers fn and returns a func that removes it.
func (b *Bus[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers = append(b.handlers, subscription[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus[T]) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.handlers {
		if s.id == id {
			b.handlers = append(b.handlers[:i:i], b.handlers[i+1:]...)
			return
		}
	}
}

// Publish hands v to the subscribers registered at the time of the call.
func (b *Bus[T]) Publish(v T) {
	b.mu.Lock()
	handlers := b.handlers
	b.mu.Unlock()

	for _, s := range handlers {
		s.fn(v)
	}
}
