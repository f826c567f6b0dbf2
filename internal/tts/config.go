package tts

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgnsrekt/speakblock/internal/ttypes"
)

// Engine names accepted in configuration.
const (
	EngineAuto    = "auto"
	EngineCommand = "command"
	EnginePiper   = "piper"
	EngineMock    = "mock"
)

// Config contains all speech configuration options.
type Config struct {
	Engine        string  `yaml:"engine"`
	Language      string  `yaml:"language"`
	Rate          float64 `yaml:"rate"`
	StripMarkdown bool    `yaml:"strip_markdown"`

	Voices  VoicesConfig  `yaml:"voices"`
	Command CommandConfig `yaml:"command"`
	Piper   PiperConfig   `yaml:"piper"`
	Mock    MockConfig    `yaml:"mock"`
}

// VoicesConfig tunes the voice selector.
type VoicesConfig struct {
	// Preferences maps a language prefix ("ja", "en", ...) to name
	// substrings in priority order.
	Preferences map[string][]string `yaml:"preferences"`

	// Weights is the fallback score table.
	Weights ScoreWeights `yaml:"weights"`
}

// CommandConfig configures the platform speech command engine.
type CommandConfig struct {
	// Binary is "say", "espeak-ng" or "espeak"; empty picks the first found
	Binary  string        `yaml:"binary"`
	Timeout time.Duration `yaml:"timeout"`
}

// PiperConfig contains Piper engine settings.
type PiperConfig struct {
	Binary   string        `yaml:"binary"`
	ModelDir string        `yaml:"model_dir"`
	Timeout  time.Duration `yaml:"timeout"`
}

// MockConfig configures the silent mock engine.
type MockConfig struct {
	// Delay is how long each utterance "plays"
	Delay time.Duration `yaml:"delay"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Engine:   EngineAuto,
		Language: string(ttypes.LanguageJapanese),
		Rate:     DefaultRate,
		Voices: VoicesConfig{
			Weights: DefaultScoreWeights(),
		},
		Command: CommandConfig{
			Timeout: 2 * time.Minute,
		},
		Piper: PiperConfig{
			Binary:  "piper",
			Timeout: 30 * time.Second,
		},
		Mock: MockConfig{
			Delay: 300 * time.Millisecond,
		},
	}
}

// Validate checks the configuration and normalizes the engine name,
// language tag and rate in place.
func (c *Config) Validate() error {
	validEngines := []string{EngineAuto, EngineCommand, EnginePiper, EngineMock}
	engineValid := false
	for _, e := range validEngines {
		if strings.EqualFold(c.Engine, e) {
			engineValid = true
			c.Engine = e
			break
		}
	}
	if !engineValid {
		return NewTTSError(ErrorCodeInvalidConfig,
			fmt.Sprintf("invalid engine '%s': must be one of %v", c.Engine, validEngines), nil)
	}

	lang, err := ParseLanguage(c.Language)
	if err != nil {
		return err
	}
	c.Language = string(lang)

	c.Rate = ClampRate(c.Rate)

	for prefix := range c.Voices.Preferences {
		if _, err := ParseLanguage(prefix); err != nil {
			return fmt.Errorf("voices.preferences: %w", err)
		}
	}

	if c.Command.Timeout < 0 || c.Piper.Timeout < 0 {
		return NewTTSError(ErrorCodeInvalidConfig, "timeouts must not be negative", nil)
	}

	return nil
}

// LanguageTag returns the configured language mode.
func (c Config) LanguageTag() ttypes.LanguageTag {
	if c.Language == "" {
		return ttypes.LanguageJapanese
	}
	return ttypes.LanguageTag(c.Language)
}

// Selector builds the voice selector described by the configuration.
func (c Config) Selector() *VoiceSelector {
	s := NewVoiceSelector().WithWeights(c.Voices.Weights)
	for lang, prefs := range c.Voices.Preferences {
		s.WithPreferences(lang, prefs)
	}
	return s
}
