package tts

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// MinRate is the slowest rate handed to the speech capability
	MinRate = 0.5

	// MaxRate is the fastest rate handed to the speech capability
	MaxRate = 2.0

	// DefaultRate is used for absent or non-numeric rates
	DefaultRate = 1.0

	// RateStep is the increment used by rate controls
	RateStep = 0.1
)

// ClampRate maps any caller-supplied rate into [MinRate, MaxRate].
// Zero (absent) and NaN yield DefaultRate.
func ClampRate(rate float64) float64 {
	if rate == 0 || math.IsNaN(rate) {
		return DefaultRate
	}
	return math.Max(MinRate, math.Min(MaxRate, rate))
}

// ParseRate parses a rate as typed into a control or config value.
// Anything that is not a number yields DefaultRate; the result is not clamped.
func ParseRate(s string) float64 {
	s = strings.TrimSuffix(strings.TrimSpace(s), "x")
	r, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(r) {
		return DefaultRate
	}
	return r
}

// StepRate moves rate by steps of RateStep and clamps the result.
func StepRate(rate float64, steps int) float64 {
	r := ClampRate(rate) + float64(steps)*RateStep
	// keep one decimal so repeated steps do not drift
	r = math.Round(r*10) / 10
	return math.Max(MinRate, math.Min(MaxRate, r))
}

// FormatRate renders a rate the way the rate display shows it, e.g. "1.5x".
func FormatRate(rate float64) string {
	return fmt.Sprintf("%.1fx", rate)
}
