package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/dgnsrekt/speakblock/internal/tts"
	"github.com/dgnsrekt/speakblock/internal/ttypes"
)

// statusDisplay tracks what the driver is doing for the status bar.
type statusDisplay struct {
	state   ttypes.State
	unit    ttypes.SpeechUnit
	voice   *ttypes.Voice
	blockID string
}

// setState records a driver state change.
func (s *statusDisplay) setState(state ttypes.State) {
	s.state = state
	if state == ttypes.StateIdle {
		s.unit = ttypes.SpeechUnit{}
		s.voice = nil
	}
}

// setUnit records the unit now being spoken.
func (s *statusDisplay) setUnit(unit ttypes.SpeechUnit, voice *ttypes.Voice) {
	s.state = ttypes.StateSpeaking
	s.unit = unit
	s.voice = voice
}

// speaking reports whether blockID is the block being read.
func (s *statusDisplay) speaking(blockID string) bool {
	return s.state == ttypes.StateSpeaking && s.blockID == blockID
}

// compact returns the status bar text.
func (s *statusDisplay) compact(showVoice bool) string {
	if s.state != ttypes.StateSpeaking {
		return idleStatusStyle.Render("■ idle")
	}

	status := speakingStatusStyle.Render("▶ speaking")
	if s.unit.Language != "" {
		status += dimStyle.Render(fmt.Sprintf(" %s %s", s.unit.Language, tts.FormatRate(tts.ClampRate(s.unit.Rate))))
	}
	if showVoice {
		status += dimStyle.Render(" · " + voiceName(s.voice))
	}
	return status
}

func voiceName(v *ttypes.Voice) string {
	if v == nil {
		return "default voice"
	}
	return v.Name
}

var (
	idleStatusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	speakingStatusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
)
