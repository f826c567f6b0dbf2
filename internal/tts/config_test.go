package tts

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/dgnsrekt/speakblock/internal/ttypes"
)

// TestDefaultConfig tests that default configuration is valid.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
	if cfg.Engine != EngineAuto {
		t.Errorf("Default engine should be auto, got %s", cfg.Engine)
	}
	if cfg.LanguageTag() != ttypes.LanguageJapanese {
		t.Errorf("Default language should be ja-JP, got %s", cfg.LanguageTag())
	}
	if cfg.Rate != 1.0 {
		t.Errorf("Default rate should be 1.0, got %v", cfg.Rate)
	}
}

// TestConfigValidation tests configuration validation.
func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid config",
			modify: func(c *Config) {},
		},
		{
			name:   "engine is case insensitive",
			modify: func(c *Config) { c.Engine = "Piper" },
		},
		{
			name:    "invalid engine",
			modify:  func(c *Config) { c.Engine = "espeak-cloud" },
			wantErr: true,
			errMsg:  "invalid engine",
		},
		{
			name:   "auto language",
			modify: func(c *Config) { c.Language = "auto" },
		},
		{
			name:    "invalid language",
			modify:  func(c *Config) { c.Language = "??" },
			wantErr: true,
			errMsg:  "unknown language",
		},
		{
			name:   "rate out of range is clamped",
			modify: func(c *Config) { c.Rate = 3 },
		},
		{
			name:    "negative timeout",
			modify:  func(c *Config) { c.Piper.Timeout = -time.Second },
			wantErr: true,
			errMsg:  "timeouts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error %q should contain %q", err, tt.errMsg)
			}
		})
	}
}

func TestLoadConfigFromViper(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	SetDefaults()
	viper.Set("tts.engine", "mock")
	viper.Set("tts.language", "en_US")
	viper.Set("tts.rate", 1.5)
	viper.Set("tts.mock.delay", "10ms")
	viper.Set("tts.voices.preferences.en", []string{"Alex"})
	viper.Set("tts.voices.weights.local", 5)

	cfg, err := LoadConfigFromViper()
	if err != nil {
		t.Fatalf("LoadConfigFromViper failed: %v", err)
	}

	if cfg.Engine != EngineMock {
		t.Errorf("engine = %s", cfg.Engine)
	}
	if cfg.Language != "en-US" {
		t.Errorf("language = %s, want en-US", cfg.Language)
	}
	if cfg.Rate != 1.5 {
		t.Errorf("rate = %v", cfg.Rate)
	}
	if cfg.Mock.Delay != 10*time.Millisecond {
		t.Errorf("mock delay = %v", cfg.Mock.Delay)
	}
	if cfg.Voices.Weights.Local != 5 || cfg.Voices.Weights.ExactLanguage != 3 {
		t.Errorf("weights = %+v", cfg.Voices.Weights)
	}

	roster := []ttypes.Voice{
		{Name: "Samantha", Language: "en-US"},
		{Name: "Alex", Language: "en-US"},
	}
	if v := cfg.Selector().Pick("en-US", roster); v == nil || v.Name != "Alex" {
		t.Errorf("configured preference not applied, picked %+v", v)
	}
}

func TestLoadConfigFromViper_Invalid(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("tts.engine", "espeak-cloud")

	_, err := LoadConfigFromViper()
	if err == nil || !strings.Contains(err.Error(), "invalid engine") {
		t.Errorf("error = %v, want invalid engine", err)
	}
}

func TestLoadConfigFromViper_Rate(t *testing.T) {
	tests := []struct {
		name string
		rate any
		want float64
	}{
		{"in range", 1.3, 1.3},
		{"too fast", 3.0, MaxRate},
		{"too slow", 0.1, MinRate},
		{"negative", -1, MinRate},
		{"zero", 0, DefaultRate},
		{"not a number", "abc", DefaultRate},
		{"string number", "1.5", 1.5},
		{"display form", "0.8x", 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			defer viper.Reset()

			SetDefaults()
			viper.Set("tts.rate", tt.rate)

			cfg, err := LoadConfigFromViper()
			if err != nil {
				t.Fatalf("LoadConfigFromViper failed: %v", err)
			}
			if cfg.Rate != tt.want {
				t.Errorf("rate = %v, want %v", cfg.Rate, tt.want)
			}
		})
	}
}

func TestLoadConfigFromViper_Env(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	t.Setenv("SPEAKBLOCK_TTS_RATE", "2.5")
	t.Setenv("SPEAKBLOCK_TTS_ENGINE", "mock")
	t.Setenv("SPEAKBLOCK_TTS_PIPER_TIMEOUT", "5s")

	viper.SetEnvPrefix("speakblock")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	SetDefaults()

	cfg, err := LoadConfigFromViper()
	if err != nil {
		t.Fatalf("LoadConfigFromViper failed: %v", err)
	}
	if cfg.Engine != EngineMock {
		t.Errorf("engine = %s, want mock", cfg.Engine)
	}
	if cfg.Rate != MaxRate {
		t.Errorf("rate = %v, want clamped %v", cfg.Rate, MaxRate)
	}
	if cfg.Piper.Timeout != 5*time.Second {
		t.Errorf("piper timeout = %v, want 5s", cfg.Piper.Timeout)
	}
}
