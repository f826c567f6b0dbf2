// Package ttypes contains shared types and interfaces for the speech engine.
// This package is used to break import cycles between tts, engines, audio, and queue packages.
package ttypes

import (
	"errors"
	"strings"
)

// ErrUtteranceCanceled is the error a Synthesizer reports for an utterance
// that was interrupted by CancelAll.
var ErrUtteranceCanceled = errors.New("utterance canceled")

// LanguageTag is a locale identifier such as "ja-JP" or "en-US".
type LanguageTag string

const (
	// LanguageJapanese is the Japanese tag and the classifier default.
	LanguageJapanese LanguageTag = "ja-JP"

	// LanguageEnglishUS is the English (US) tag.
	LanguageEnglishUS LanguageTag = "en-US"

	// LanguageAuto is the caller-facing automatic detection mode.
	// It is never stored inside a SpeechUnit.
	LanguageAuto LanguageTag = "auto"
)

// IsAuto reports whether the tag selects automatic language detection.
func (l LanguageTag) IsAuto() bool {
	return strings.EqualFold(string(l), string(LanguageAuto))
}

// Prefix returns the lower-cased two-letter primary language of the tag.
func (l LanguageTag) Prefix() string {
	s := strings.ToLower(string(l))
	if len(s) < 2 {
		return s
	}
	return s[:2]
}

// String returns the tag as a string.
func (l LanguageTag) String() string {
	return string(l)
}

// SpeechUnit is one atomic, single-language, single-rate chunk of text
// queued for synthesis. Units are immutable once enqueued.
type SpeechUnit struct {
	// Text is the non-empty text to speak
	Text string

	// Language is the concrete language of the text
	Language LanguageTag

	// Rate is the caller-supplied rate; it is clamped at playback time
	Rate float64
}

// Voice describes a synthetic voice reported by the platform.
type Voice struct {
	Name     string      // Human-readable voice name
	Language LanguageTag // Language of the voice
	IsLocal  bool        // Voice is rendered on-device
	ID       string      // Engine-specific identifier, may be empty
}

// Request is a single utterance handed to a Synthesizer.
type Request struct {
	Text     string
	Language LanguageTag
	Rate     float64 // Already clamped to the safe range
	Voice    *Voice  // nil lets the engine use its default voice
}

// EventKind identifies a notification emitted for an utterance.
type EventKind int

const (
	// EventStarted is emitted when audio output begins.
	EventStarted EventKind = iota

	// EventEnded is emitted when the utterance finished normally.
	EventEnded

	// EventError is emitted when the utterance failed or was canceled.
	EventError

	// EventPaused is emitted when output was paused.
	EventPaused

	// EventResumed is emitted when output resumed after a pause.
	EventResumed
)

var eventNames = [...]string{
	"started",
	"ended",
	"error",
	"paused",
	"resumed",
}

func (k EventKind) String() string {
	if int(k) < len(eventNames) {
		return eventNames[k]
	}
	return "unknown"
}

// Terminal reports whether no further events follow this one.
func (k EventKind) Terminal() bool {
	return k == EventEnded || k == EventError
}

// Event is a notification about an in-flight utterance.
type Event struct {
	Kind EventKind
	Err  error // Set for EventError
}

// Synthesizer is the platform speech capability consumed by the engine.
//
// Speak returns a channel that receives the utterance's events and is closed
// after exactly one terminal event (ended or error). An utterance interrupted
// by CancelAll reports an error wrapping ErrUtteranceCanceled. CancelAll must
// be safe to call when nothing is speaking.
//
// Implementations must never block on delivering an event; the channel is
// buffered for the handful of events a single utterance produces.
type Synthesizer interface {
	// Voices returns a fresh snapshot of the voice roster. It may be empty.
	Voices() []Voice

	// Speak starts an utterance.
	Speak(req Request) (<-chan Event, error)

	// CancelAll stops any utterance currently speaking.
	CancelAll() error
}

// State represents the playback driver state.
type State int

const (
	// StateIdle indicates nothing is being spoken
	StateIdle State = iota

	// StateSpeaking indicates a unit is in flight
	StateSpeaking
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSpeaking:
		return "speaking"
	default:
		return "unknown"
	}
}
