// Package debounce coalesces rapid updates per key into a single save.
package debounce

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Sink holds the latest value per key and hands it to a save function once
// the key has been quiet for the configured delay. Every Put cancels and
// reschedules that key's timer.
type Sink[K comparable, V any] struct {
	delay time.Duration
	save  func(K, V) error

	mu      sync.Mutex
	pending map[K]*entry[V]
	gen     uint64 // never reused, so a stale timer cannot match a later Put
	stopped bool
}

type entry[V any] struct {
	value V
	timer *time.Timer
	gen   uint64
}

// New returns a sink that calls save after delay of quiet per key.
func New[K comparable, V any](delay time.Duration, save func(K, V) error) *Sink[K, V] {
	return &Sink[K, V]{
		delay:   delay,
		save:    save,
		pending: make(map[K]*entry[V]),
	}
}

// Put records value for key and restarts its quiet period.
func (s *Sink[K, V]) Put(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}

	e, ok := s.pending[key]
	if !ok {
		e = &entry[V]{}
		s.pending[key] = e
	} else if e.timer != nil {
		e.timer.Stop()
	}

	s.gen++
	gen := s.gen
	e.value = value
	e.gen = gen
	e.timer = time.AfterFunc(s.delay, func() { s.fire(key, gen) })
}

// fire saves key if no newer Put arrived since the timer was armed.
func (s *Sink[K, V]) fire(key K, gen uint64) {
	s.mu.Lock()
	e, ok := s.pending[key]
	if !ok || e.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.pending, key)
	value := e.value
	s.mu.Unlock()

	if err := s.save(key, value); err != nil {
		log.Error("debounced save failed", "key", key, "error", err)
	}
}

// Pending reports how many keys are waiting to be saved.
func (s *Sink[K, V]) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush saves every pending value now and returns the first error.
func (s *Sink[K, V]) Flush() error {
	s.mu.Lock()
	drained := s.pending
	s.pending = make(map[K]*entry[V])
	s.mu.Unlock()

	var first error
	for key, e := range drained {
		if e.timer != nil {
			e.timer.Stop()
		}
		if err := s.save(key, e.value); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Stop flushes pending values and rejects further Puts.
func (s *Sink[K, V]) Stop() error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	return s.Flush()
}
