package tts

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// LoadConfigFromViper loads speech configuration from Viper.
func LoadConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	if viper.IsSet("tts.engine") {
		cfg.Engine = viper.GetString("tts.engine")
	}
	if viper.IsSet("tts.language") {
		cfg.Language = viper.GetString("tts.language")
	}
	if viper.IsSet("tts.rate") {
		cfg.Rate = ParseRate(viper.GetString("tts.rate"))
	}
	if viper.IsSet("tts.strip_markdown") {
		cfg.StripMarkdown = viper.GetBool("tts.strip_markdown")
	}

	cfg.Voices = loadVoicesConfig(cfg.Voices)
	cfg.Command = loadCommandConfig(cfg.Command)
	cfg.Piper = loadPiperConfig(cfg.Piper)
	cfg.Mock.Delay = durationOr("tts.mock.delay", cfg.Mock.Delay)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid speech configuration: %w", err)
	}

	return cfg, nil
}

func loadVoicesConfig(cfg VoicesConfig) VoicesConfig {
	if viper.IsSet("tts.voices.preferences") {
		prefs := make(map[string][]string)
		for lang := range viper.GetStringMap("tts.voices.preferences") {
			prefs[lang] = viper.GetStringSlice("tts.voices.preferences." + lang)
		}
		cfg.Preferences = prefs
	}

	w := &cfg.Weights
	for key, field := range map[string]*int{
		"exact_language":  &w.ExactLanguage,
		"language_prefix": &w.LanguagePrefix,
		"local":           &w.Local,
		"marker":          &w.Marker,
		"premium":         &w.Premium,
		"compact":         &w.Compact,
	} {
		if viper.IsSet("tts.voices.weights." + key) {
			*field = viper.GetInt("tts.voices.weights." + key)
		}
	}

	return cfg
}

func loadCommandConfig(cfg CommandConfig) CommandConfig {
	if viper.IsSet("tts.command.binary") {
		cfg.Binary = viper.GetString("tts.command.binary")
	}
	cfg.Timeout = durationOr("tts.command.timeout", cfg.Timeout)
	return cfg
}

func loadPiperConfig(cfg PiperConfig) PiperConfig {
	if viper.IsSet("tts.piper.binary") {
		cfg.Binary = viper.GetString("tts.piper.binary")
	}
	if viper.IsSet("tts.piper.model_dir") {
		cfg.ModelDir = viper.GetString("tts.piper.model_dir")
	}
	cfg.Timeout = durationOr("tts.piper.timeout", cfg.Timeout)
	return cfg
}

// durationOr reads a duration key, keeping def when the key is unset or
// does not parse.
func durationOr(key string, def time.Duration) time.Duration {
	if !viper.IsSet(key) {
		return def
	}
	if d, err := time.ParseDuration(viper.GetString(key)); err == nil {
		return d
	}
	return def
}

// SetDefaults sets default values in Viper for speech configuration.
func SetDefaults() {
	defaults := DefaultConfig()

	viper.SetDefault("tts.engine", defaults.Engine)
	viper.SetDefault("tts.language", defaults.Language)
	viper.SetDefault("tts.rate", defaults.Rate)
	viper.SetDefault("tts.strip_markdown", defaults.StripMarkdown)

	viper.SetDefault("tts.command.timeout", defaults.Command.Timeout.String())
	viper.SetDefault("tts.piper.binary", defaults.Piper.Binary)
	viper.SetDefault("tts.piper.timeout", defaults.Piper.Timeout.String())
	viper.SetDefault("tts.mock.delay", defaults.Mock.Delay.String())
}
