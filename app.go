package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/speakblock/internal/blocks"
	"github.com/dgnsrekt/speakblock/internal/reader"
	"github.com/dgnsrekt/speakblock/internal/tts"
	"github.com/dgnsrekt/speakblock/internal/tts/engines"
	"github.com/dgnsrekt/speakblock/internal/ttypes"
	"github.com/dgnsrekt/speakblock/ui"
)

// newService builds the engine, driver and reader for cfg. store may be nil.
func newService(cfg tts.Config, store blocks.Store) (*reader.Service, error) {
	synth, err := engines.New(cfg)
	if err != nil {
		return nil, withGuidance(err)
	}

	driver, err := tts.NewDriver(synth, cfg.Selector())
	if err != nil {
		return nil, err
	}
	driver.OnUnit(func(u ttypes.SpeechUnit, v *ttypes.Voice) {
		name := "default"
		if v != nil {
			name = v.Name
		}
		log.Debug("speaking", "text", u.Text, "lang", u.Language, "rate", tts.ClampRate(u.Rate), "voice", name)
	})

	return reader.New(store, driver, reader.Config{
		Language:      cfg.LanguageTag(),
		Rate:          cfg.Rate,
		StripMarkdown: cfg.StripMarkdown,
		SaveDelay:     viper.GetDuration("document.save_delay"),
	}), nil
}

// withGuidance appends engine setup instructions to err.
func withGuidance(err error) error {
	var ue *engines.UnavailableError
	if errors.As(err, &ue) {
		if g := ue.Guidance(); g != "" {
			return fmt.Errorf("%w\n\n%s", err, g)
		}
	}
	return err
}

func openStore() (blocks.Store, error) {
	return blocks.Open(blocks.Config{
		Driver: viper.GetString("document.driver"),
		Path:   viper.GetString("document.path"),
		Watch:  viper.GetBool("document.watch"),
	})
}

// openStoreNoWatch opens the store for one-shot commands.
func openStoreNoWatch() (blocks.Store, error) {
	return blocks.Open(blocks.Config{
		Driver: viper.GetString("document.driver"),
		Path:   viper.GetString("document.path"),
	})
}

// speakAndWait starts speech with start and blocks until it finishes.
// Ctrl-C stops playback.
func speakAndWait(ctx context.Context, svc *reader.Service, start func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	var (
		mu     sync.Mutex
		notice string
	)
	svc.OnNotice(func(msg string) {
		mu.Lock()
		notice = msg
		mu.Unlock()
	})

	if err := start(); err != nil {
		return err
	}

	if err := svc.Driver().Wait(ctx); err != nil {
		if u, ok := svc.Driver().Current(); ok {
			log.Debug("interrupted", "text", u.Text)
		}
		svc.Stop()
		return nil
	}

	mu.Lock()
	defer mu.Unlock()
	if notice != "" {
		return errors.New(notice)
	}
	return nil
}

func runTUI() error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("no text given and stdout is not a terminal")
	}

	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	ttsCfg, err := tts.LoadConfigFromViper()
	if err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	svc, err := newService(ttsCfg, store)
	if err != nil {
		return err
	}
	defer svc.Close() //nolint:errcheck

	if _, err := ui.NewProgram(cfg, svc, store).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}
