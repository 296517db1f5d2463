package kv

import (
	"fmt"
	"log/slog"
	"sync"
)

// Subscribers is a set of change handlers with isolated delivery.
//
// Publish calls every handler even if an earlier one panics; the panic is
// logged and swallowed. The zero value is ready to use.
type Subscribers struct {
	mu       sync.RWMutex
	next     uint64
	handlers map[uint64]Handler
}

// Add registers h and returns its unsubscribe function. Calling the returned
// function more than once is harmless.
func (s *Subscribers) Add(h Handler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handlers == nil {
		s.handlers = make(map[uint64]Handler)
	}
	id := s.next
	s.next++
	s.handlers[id] = h

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.handlers, id)
	}
}

// Len returns the number of registered handlers.
func (s *Subscribers) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.handlers)
}

// Publish delivers changes to every registered handler. Empty change sets
// are not delivered.
func (s *Subscribers) Publish(changes Changes, area string) {
	if len(changes) == 0 {
		return
	}

	s.mu.RLock()
	handlers := make([]Handler, 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.mu.RUnlock()

	for _, h := range handlers {
		deliver(h, changes, area)
	}
}

func deliver(h Handler, changes Changes, area string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("change subscriber panicked",
				"area", area,
				"keys", changes.Keys(),
				"panic", fmt.Sprint(r),
			)
		}
	}()
	h(changes, area)
}
