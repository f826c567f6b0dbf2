// Package engines builds the speech synthesizer named in configuration.
// It supports the platform speech command, piper (offline neural TTS) and
// a silent mock, and picks the first available one for "auto".
package engines

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/speakblock/internal/audio"
	"github.com/dgnsrekt/speakblock/internal/tts"
	"github.com/dgnsrekt/speakblock/internal/tts/engines/command"
	"github.com/dgnsrekt/speakblock/internal/tts/engines/mock"
	"github.com/dgnsrekt/speakblock/internal/tts/engines/piper"
	"github.com/dgnsrekt/speakblock/internal/ttypes"
)

// New builds the synthesizer selected by cfg.Engine. A missing capability
// is reported as an input error carrying setup guidance.
func New(cfg tts.Config) (ttypes.Synthesizer, error) {
	switch cfg.Engine {
	case tts.EngineMock:
		return newMock(cfg.Mock), nil

	case tts.EngineCommand, tts.EnginePiper:
		if r := Validate(cfg.Engine, cfg); !r.Available {
			return nil, unavailable(r)
		}
		return build(cfg.Engine, cfg)

	case tts.EngineAuto, "":
		var results []*ValidationResult
		for _, name := range []string{tts.EnginePiper, tts.EngineCommand} {
			r := Validate(name, cfg)
			if !r.Available {
				log.Debug("engine unavailable", "engine", name, "error", r.Error)
				results = append(results, r)
				continue
			}
			synth, err := build(name, cfg)
			if err != nil {
				log.Debug("engine failed to start", "engine", name, "error", err)
				r.Available, r.Error = false, err
				results = append(results, r)
				continue
			}
			log.Debug("selected engine", "engine", name)
			return synth, nil
		}
		return nil, unavailable(results...)

	default:
		return nil, tts.NewTTSError(tts.ErrorCodeInvalidConfig, fmt.Sprintf("unknown engine %q", cfg.Engine), nil)
	}
}

func build(name string, cfg tts.Config) (ttypes.Synthesizer, error) {
	switch name {
	case tts.EngineCommand:
		return command.New(command.Config{
			Binary:  cfg.Command.Binary,
			Timeout: cfg.Command.Timeout,
		})

	case tts.EnginePiper:
		player, err := audio.NewPlayer(audio.DefaultPlayerConfig())
		if err != nil {
			return nil, fmt.Errorf("opening audio device: %w", err)
		}
		return piper.New(piper.Config{
			Binary:   cfg.Piper.Binary,
			ModelDir: cfg.Piper.ModelDir,
			Timeout:  cfg.Piper.Timeout,
		}, player)
	}
	return nil, fmt.Errorf("unknown engine %q", name)
}

func newMock(cfg tts.MockConfig) *mock.MockEngine {
	delay := cfg.Delay
	if delay <= 0 {
		delay = time.Millisecond
	}
	return mock.NewTimed(delay,
		ttypes.Voice{Name: "Mock Japanese", Language: ttypes.LanguageJapanese, IsLocal: true},
		ttypes.Voice{Name: "Mock English", Language: ttypes.LanguageEnglishUS, IsLocal: true},
	)
}

// UnavailableError reports why no engine could be started.
type UnavailableError struct {
	Results []*ValidationResult
}

func (e *UnavailableError) Error() string {
	parts := make([]string, 0, len(e.Results))
	for _, r := range e.Results {
		parts = append(parts, fmt.Sprintf("%s: %v", r.Engine, r.Error))
	}
	return strings.Join(parts, "; ")
}

// Guidance joins the setup instructions of every failed engine.
func (e *UnavailableError) Guidance() string {
	var b strings.Builder
	for _, r := range e.Results {
		if r.Guidance == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(r.Guidance)
	}
	return b.String()
}

func unavailable(results ...*ValidationResult) error {
	return tts.NewTTSError(tts.ErrorCodeInvalidInput, "no speech engine available",
		errors.Join(tts.ErrNoSynthesizer, &UnavailableError{Results: results}))
}
