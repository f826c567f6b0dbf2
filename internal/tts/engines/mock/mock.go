// Package mock provides a deterministic speech engine for tests and dry runs.
package mock

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgnsrekt/speakblock/internal/ttypes"
)

// ErrInjected is the default failure produced by Fail.
var ErrInjected = errors.New("mock synthesis failure")

type utterance struct {
	req    ttypes.Request
	events chan ttypes.Event
	timer  *time.Timer
	done   bool
}

// MockEngine implements ttypes.Synthesizer without producing audio.
//
// With a zero delay utterances stay in flight until the test calls Complete
// or Fail. With a positive delay each utterance ends on its own.
type MockEngine struct {
	mu sync.Mutex

	voices []ttypes.Voice
	delay  time.Duration

	active      *utterance
	requests    []ttypes.Request
	cancelCalls int
	voiceCalls  int
	speakErr    error
}

// New creates a manual mock engine reporting the given voices.
func New(voices ...ttypes.Voice) *MockEngine {
	return &MockEngine{voices: voices}
}

// NewTimed creates a mock engine whose utterances end after delay.
func NewTimed(delay time.Duration, voices ...ttypes.Voice) *MockEngine {
	return &MockEngine{voices: voices, delay: delay}
}

// Voices returns a copy of the configured roster.
func (e *MockEngine) Voices() []ttypes.Voice {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.voiceCalls++
	return append([]ttypes.Voice(nil), e.voices...)
}

// SetVoices replaces the roster, as a platform refresh would.
func (e *MockEngine) SetVoices(voices []ttypes.Voice) {
	e.mu.Lock()
	e.voices = voices
	e.mu.Unlock()
}

// FailNextSpeak makes the next Speak call return err synchronously.
func (e *MockEngine) FailNextSpeak(err error) {
	e.mu.Lock()
	e.speakErr = err
	e.mu.Unlock()
}

// Speak records the request and starts a simulated utterance.
func (e *MockEngine) Speak(req ttypes.Request) (<-chan ttypes.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.speakErr; err != nil {
		e.speakErr = nil
		return nil, err
	}

	e.requests = append(e.requests, req)

	u := &utterance{req: req, events: make(chan ttypes.Event, 4)}
	u.events <- ttypes.Event{Kind: ttypes.EventStarted}
	e.active = u

	if e.delay > 0 {
		u.timer = time.AfterFunc(e.delay, func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.finishLocked(u, ttypes.Event{Kind: ttypes.EventEnded})
		})
	}

	return u.events, nil
}

// CancelAll interrupts the active utterance, which reports a cancellation
// error. It is a no-op when nothing is speaking.
func (e *MockEngine) CancelAll() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelCalls++
	if e.active != nil {
		e.finishLocked(e.active, ttypes.Event{
			Kind: ttypes.EventError,
			Err:  fmt.Errorf("mock: %w", ttypes.ErrUtteranceCanceled),
		})
	}
	return nil
}

// Complete ends the active utterance normally. It reports false when
// nothing is speaking.
func (e *MockEngine) Complete() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return false
	}
	e.finishLocked(e.active, ttypes.Event{Kind: ttypes.EventEnded})
	return true
}

// Fail ends the active utterance with err, or ErrInjected when err is nil.
func (e *MockEngine) Fail(err error) bool {
	if err == nil {
		err = ErrInjected
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return false
	}
	e.finishLocked(e.active, ttypes.Event{Kind: ttypes.EventError, Err: err})
	return true
}

// Pause emits a pause event for the active utterance.
func (e *MockEngine) Pause() {
	e.emit(ttypes.EventPaused)
}

// Resume emits a resume event for the active utterance.
func (e *MockEngine) Resume() {
	e.emit(ttypes.EventResumed)
}

func (e *MockEngine) emit(kind ttypes.EventKind) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return
	}
	select {
	case e.active.events <- ttypes.Event{Kind: kind}:
	default:
	}
}

// Requests returns every request handed to Speak, in order.
func (e *MockEngine) Requests() []ttypes.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ttypes.Request(nil), e.requests...)
}

// CancelCalls returns how many times CancelAll was called.
func (e *MockEngine) CancelCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelCalls
}

// VoiceCalls returns how many times the roster was read.
func (e *MockEngine) VoiceCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.voiceCalls
}

// Active returns the request currently in flight.
func (e *MockEngine) Active() (ttypes.Request, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return ttypes.Request{}, false
	}
	return e.active.req, true
}

func (e *MockEngine) finishLocked(u *utterance, ev ttypes.Event) {
	if u.done {
		return
	}
	u.done = true
	if u.timer != nil {
		u.timer.Stop()
	}

	// Terminal events must not be lost to a full buffer.
	select {
	case u.events <- ev:
	default:
		go func(ch chan ttypes.Event) {
			ch <- ev
			close(ch)
		}(u.events)
		if e.active == u {
			e.active = nil
		}
		return
	}
	close(u.events)

	if e.active == u {
		e.active = nil
	}
}
