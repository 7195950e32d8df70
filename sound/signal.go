package sound

// Signal is an observer list for one event kind. Delivery is
// synchronous on the calling goroutine, in registration order.
// The zero value is ready to use.
type Signal[T any] struct {
	nextID   int
	handlers []signalHandler[T]
}

type signalHandler[T any] struct {
	id int
	fn func(T)
}

// Subscribe registers a handler and returns a function that removes it.
// Unsubscribing during an Emit takes effect on the next Emit.
func (s *Signal[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.nextID++
	id := s.nextID
	s.handlers = append(s.handlers, signalHandler[T]{id: id, fn: fn})
	return func() {
		for i, h := range s.handlers {
			if h.id == id {
				s.handlers = append(s.handlers[:i], s.handlers[i+1:]...)
				return
			}
		}
	}
}

// Emit invokes every registered handler with v.
func (s *Signal[T]) Emit(v T) {
	// Snapshot so handlers can subscribe/unsubscribe mid-dispatch.
	snapshot := make([]signalHandler[T], len(s.handlers))
	copy(snapshot, s.handlers)
	for _, h := range snapshot {
		h.fn(v)
	}
}

// Len returns the number of registered handlers.
func (s *Signal[T]) Len() int {
	return len(s.handlers)
}

// Clear drops every registered handler.
func (s *Signal[T]) Clear() {
	s.handlers = nil
}
