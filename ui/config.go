package ui

import "time"

// Config contains TUI-specific configuration.
type Config struct {
	EnableMouse bool

	// Languages offered by the language selector, in cycle order
	Languages []string `env:"SPEAKBLOCK_LANGUAGES" envSeparator:"," envDefault:"ja-JP,en-US,auto"`

	// How long notices stay in the status bar
	NoticeTimeout time.Duration `env:"SPEAKBLOCK_NOTICE_TIMEOUT" envDefault:"4s"`

	// For debugging the UI
	ShowVoice bool `env:"SPEAKBLOCK_SHOW_VOICE" envDefault:"true"`
}
