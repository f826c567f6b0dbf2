package tts

import (
	"errors"
	"math"
	"testing"
)

func TestClampRate(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 1.0},
		{math.NaN(), 1.0},
		{1.3, 1.3},
		{0.1, 0.5},
		{-1, 0.5},
		{5, 2.0},
		{math.Inf(1), 2.0},
		{math.Inf(-1), 0.5},
		{0.5, 0.5},
		{2.0, 2.0},
	}

	for _, tt := range tests {
		if got := ClampRate(tt.in); got != tt.want {
			t.Errorf("ClampRate(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1.5", 1.5},
		{"1.5x", 1.5},
		{" 0.8 ", 0.8},
		{"3", 3},
		{"fast", 1.0},
		{"", 1.0},
		{"NaN", 1.0},
	}

	for _, tt := range tests {
		if got := ParseRate(tt.in); got != tt.want {
			t.Errorf("ParseRate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStepRate(t *testing.T) {
	tests := []struct {
		rate  float64
		steps int
		want  float64
	}{
		{1.0, 1, 1.1},
		{1.0, -3, 0.7},
		{2.0, 1, 2.0},
		{0.5, -1, 0.5},
		{0, 2, 1.2},
	}

	for _, tt := range tests {
		if got := StepRate(tt.rate, tt.steps); got != tt.want {
			t.Errorf("StepRate(%v, %d) = %v, want %v", tt.rate, tt.steps, got, tt.want)
		}
	}

	// Repeated single steps must not drift.
	r := MinRate
	for i := 0; i < 15; i++ {
		r = StepRate(r, 1)
	}
	if r != MaxRate {
		t.Errorf("15 steps from %v = %v, want %v", MinRate, r, MaxRate)
	}
}

func TestFormatRate(t *testing.T) {
	if got := FormatRate(1); got != "1.0x" {
		t.Errorf("FormatRate(1) = %q", got)
	}
	if got := FormatRate(1.25); got != "1.2x" && got != "1.3x" {
		t.Errorf("FormatRate(1.25) = %q", got)
	}
}

func TestErrorClassification(t *testing.T) {
	synthErr := NewTTSError(ErrorCodeSynthesis, "speech synthesis failed", errors.New("device busy"))
	inputErr := NewTTSError(ErrorCodeInvalidInput, "nothing to say", ErrNoText)

	if !IsInputError(ErrNoText) || !IsInputError(inputErr) {
		t.Error("no-text errors should be input errors")
	}
	if !IsInputError(ErrNoSynthesizer) {
		t.Error("missing capability should be an input error")
	}
	if IsInputError(synthErr) {
		t.Error("synthesis failure should not be an input error")
	}

	if !IsCancellation(ErrCanceled) {
		t.Error("ErrCanceled should be a cancellation")
	}
	if IsCancellation(synthErr) {
		t.Error("synthesis failure should not be a cancellation")
	}

	if got := Notice(inputErr); got != ErrNoText.Error() {
		t.Errorf("Notice(input) = %q", got)
	}
	if got := Notice(synthErr); got != "speech error: device busy" {
		t.Errorf("Notice(synthesis) = %q", got)
	}
	if got := Notice(ErrNoText); got != "enter text to read aloud" {
		t.Errorf("Notice(ErrNoText) = %q", got)
	}

	withCtx := synthErr.WithContext("block", "b1")
	if withCtx.Context["block"] != "b1" {
		t.Error("WithContext did not record the value")
	}
}
