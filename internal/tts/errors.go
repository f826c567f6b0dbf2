package tts

import (
	"errors"
	"fmt"

	"github.com/dgnsrekt/speakblock/internal/ttypes"
)

// Common speech errors
var (
	// ErrNoText indicates there was nothing to read aloud
	ErrNoText = errors.New("enter text to read aloud")

	// ErrNoSynthesizer indicates no speech capability is available
	ErrNoSynthesizer = errors.New("speech synthesis is not supported on this system")

	// ErrSynthesisFailed indicates the speech capability reported a failure
	ErrSynthesisFailed = errors.New("speech synthesis failed")

	// ErrCanceled indicates an utterance was interrupted on purpose
	ErrCanceled = ttypes.ErrUtteranceCanceled

	// ErrInvalidLanguage indicates a language tag could not be parsed
	ErrInvalidLanguage = errors.New("invalid language tag")
)

// ErrorCode identifies specific error types
type ErrorCode string

const (
	// ErrorCodeInvalidInput covers missing text and missing capability
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrorCodeCanceled covers interruptions requested by the driver itself
	ErrorCodeCanceled ErrorCode = "CANCELED"

	// ErrorCodeSynthesis covers unexpected failures from the capability
	ErrorCodeSynthesis ErrorCode = "SYNTHESIS_FAILURE"

	// ErrorCodeBlockNotFound covers speak requests for unknown blocks
	ErrorCodeBlockNotFound ErrorCode = "BLOCK_NOT_FOUND"

	// ErrorCodeInvalidConfig covers bad configuration values
	ErrorCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// TTSError represents a speech error with additional context
type TTSError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *TTSError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *TTSError) Unwrap() error {
	return e.Cause
}

// NewTTSError creates a new speech error with context
func NewTTSError(code ErrorCode, message string, cause error) *TTSError {
	return &TTSError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *TTSError) WithContext(key string, value interface{}) *TTSError {
	e.Context[key] = value
	return e
}

// Notice returns the short text shown to the user for this error.
func (e *TTSError) Notice() string {
	switch e.Code {
	case ErrorCodeInvalidInput:
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return e.Message
	case ErrorCodeSynthesis:
		if e.Cause != nil {
			return fmt.Sprintf("speech error: %v", e.Cause)
		}
		return "speech error"
	default:
		return e.Message
	}
}

// IsInputError reports whether err is an InputError (no text or no capability).
func IsInputError(err error) bool {
	if errors.Is(err, ErrNoText) || errors.Is(err, ErrNoSynthesizer) {
		return true
	}
	var te *TTSError
	return errors.As(err, &te) && te.Code == ErrorCodeInvalidInput
}

// IsCancellation reports whether err signals a deliberate interruption.
func IsCancellation(err error) bool {
	if errors.Is(err, ErrCanceled) {
		return true
	}
	var te *TTSError
	return errors.As(err, &te) && te.Code == ErrorCodeCanceled
}

// Notice returns the user-facing text for any error.
func Notice(err error) string {
	var te *TTSError
	if errors.As(err, &te) {
		return te.Notice()
	}
	return err.Error()
}
