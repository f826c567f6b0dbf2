// Package reader connects the document blocks to the playback driver. It is
// what the CLI and TUI call to speak a block, stop speaking, and change a
// block's language or rate.
package reader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/speakblock/internal/blocks"
	"github.com/dgnsrekt/speakblock/internal/debounce"
	"github.com/dgnsrekt/speakblock/internal/tts"
	"github.com/dgnsrekt/speakblock/internal/ttypes"
)

// DefaultSaveDelay is the quiet period before block settings are saved.
const DefaultSaveDelay = 500 * time.Millisecond

// Config holds the defaults used for blocks without their own settings.
type Config struct {
	Language      ttypes.LanguageTag
	Rate          float64
	StripMarkdown bool
	SaveDelay     time.Duration
}

// Service speaks blocks and keeps their speech settings.
type Service struct {
	store  blocks.Store
	driver *tts.Driver
	cfg    Config
	sink   *debounce.Sink[string, blocks.Props]

	mu       sync.Mutex
	props    map[string]blocks.Props
	onNotice func(string)
}

// New returns a service over store. store may be nil when only raw text is
// spoken.
func New(store blocks.Store, driver *tts.Driver, cfg Config) *Service {
	if cfg.Language == "" {
		cfg.Language = ttypes.LanguageJapanese
	}
	if cfg.Rate == 0 {
		cfg.Rate = tts.DefaultRate
	}
	if cfg.SaveDelay <= 0 {
		cfg.SaveDelay = DefaultSaveDelay
	}

	s := &Service{
		store:  store,
		driver: driver,
		cfg:    cfg,
		props:  make(map[string]blocks.Props),
	}
	s.sink = debounce.New(cfg.SaveDelay, s.save)

	driver.OnError(func(err error) { s.notify(err) })
	return s
}

// OnNotice registers the callback that shows user-facing notices.
func (s *Service) OnNotice(fn func(string)) {
	s.mu.Lock()
	s.onNotice = fn
	s.mu.Unlock()
}

// Driver returns the playback driver.
func (s *Service) Driver() *tts.Driver {
	return s.driver
}

// SpeakBlock reads the block aloud using its language and rate.
func (s *Service) SpeakBlock(ctx context.Context, id string) error {
	if s.store == nil {
		return s.fail(tts.NewTTSError(tts.ErrorCodeBlockNotFound, "no document open", blocks.ErrBlockNotFound))
	}

	b, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, blocks.ErrBlockNotFound) {
			return s.fail(tts.NewTTSError(tts.ErrorCodeBlockNotFound, "block not found", err).WithContext("id", id))
		}
		return s.fail(err)
	}

	props, err := s.Settings(ctx, id)
	if err != nil {
		return s.fail(err)
	}

	log.Debug("speak block", "id", id, "lang", props.Lang, "rate", props.Rate)
	return s.SpeakText(b.Content, props)
}

// SpeakText reads text aloud with the given settings. Empty settings fall
// back to the configured defaults.
func (s *Service) SpeakText(text string, props blocks.Props) error {
	text = strings.TrimSpace(text)
	if s.cfg.StripMarkdown && text != "" {
		text = strings.TrimSpace(tts.StripMarkdown(text))
	}
	if text == "" {
		return s.fail(tts.NewTTSError(tts.ErrorCodeInvalidInput, "nothing to speak", tts.ErrNoText))
	}

	props = s.withDefaults(props)
	s.driver.Speak(text, ttypes.LanguageTag(props.Lang), props.Rate)
	return nil
}

// Stop silences the driver.
func (s *Service) Stop() {
	s.driver.Stop()
}

// Settings returns the block's language and rate: pending edits first, then
// the stored props, then the defaults.
func (s *Service) Settings(ctx context.Context, id string) (blocks.Props, error) {
	s.mu.Lock()
	props, ok := s.props[id]
	s.mu.Unlock()
	if ok {
		return s.withDefaults(props), nil
	}

	if s.store == nil {
		return s.withDefaults(blocks.Props{}), nil
	}
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return blocks.Props{}, err
	}
	return s.withDefaults(b.Props), nil
}

// SetLanguage changes a block's language mode and schedules a save.
func (s *Service) SetLanguage(ctx context.Context, id, lang string) (blocks.Props, error) {
	tag, err := tts.ParseLanguage(lang)
	if err != nil {
		return blocks.Props{}, err
	}

	props, err := s.Settings(ctx, id)
	if err != nil {
		return blocks.Props{}, err
	}
	props.Lang = string(tag)
	s.update(id, props)
	return props, nil
}

// SetRate changes a block's rate, clamped to the safe range, and schedules
// a save.
func (s *Service) SetRate(ctx context.Context, id string, rate float64) (blocks.Props, error) {
	props, err := s.Settings(ctx, id)
	if err != nil {
		return blocks.Props{}, err
	}
	props.Rate = tts.ClampRate(rate)
	s.update(id, props)
	return props, nil
}

// Flush saves pending setting changes now.
func (s *Service) Flush() error {
	return s.sink.Flush()
}

// Close stops playback and saves pending setting changes.
func (s *Service) Close() error {
	s.driver.Stop()
	return s.sink.Stop()
}

func (s *Service) update(id string, props blocks.Props) {
	s.mu.Lock()
	s.props[id] = props
	s.mu.Unlock()

	if s.store != nil {
		s.sink.Put(id, props)
	}
}

func (s *Service) save(id string, props blocks.Props) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.store.SetProps(ctx, id, props); err != nil {
		return fmt.Errorf("saving settings for block %s: %w", id, err)
	}

	// The store is authoritative again unless a newer edit is waiting.
	s.mu.Lock()
	if s.props[id] == props {
		delete(s.props, id)
	}
	s.mu.Unlock()
	log.Debug("saved block settings", "id", id, "lang", props.Lang, "rate", props.Rate)
	return nil
}

func (s *Service) withDefaults(p blocks.Props) blocks.Props {
	if p.Lang == "" {
		p.Lang = string(s.cfg.Language)
	}
	if p.Rate == 0 {
		p.Rate = s.cfg.Rate
	}
	return p
}

func (s *Service) fail(err error) error {
	s.notify(err)
	return err
}

func (s *Service) notify(err error) {
	if tts.IsCancellation(err) {
		return
	}
	s.mu.Lock()
	fn := s.onNotice
	s.mu.Unlock()

	if fn != nil {
		fn(tts.Notice(err))
	}
}
