package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// ErrPlayerClosed is returned by Play after Close.
var ErrPlayerClosed = errors.New("player is closed")

// oto allows a single context per process.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
	otoRate int
)

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	SampleRate int           // device rate; PCM at other rates is resampled
	BufferSize time.Duration // oto buffer, 0 for the driver default
	PollEvery  time.Duration // how often playback completion is checked
}

// DefaultPlayerConfig returns the default player configuration.
// 22050 Hz matches the output of most piper voices.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: 22050,
		PollEvery:  10 * time.Millisecond,
	}
}

// Player plays mono signed 16-bit little-endian PCM, one clip at a time.
type Player struct {
	cfg PlayerConfig

	mu     sync.Mutex
	closed bool
	active *oto.Player
}

// NewPlayer opens the audio device. Only the first call decides the device
// sample rate; later players share it.
func NewPlayer(cfg PlayerConfig) (*Player, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", cfg.SampleRate)
	}
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 10 * time.Millisecond
	}

	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   cfg.SampleRate,
			ChannelCount: 1,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   cfg.BufferSize,
		}
		var ready chan struct{}
		otoCtx, ready, otoErr = oto.NewContext(op)
		if otoErr == nil {
			<-ready
			otoRate = cfg.SampleRate
		}
	})
	if otoErr != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", otoErr)
	}

	cfg.SampleRate = otoRate
	return &Player{cfg: cfg}, nil
}

// Play blocks until pcm has been played or ctx is done. A clip that is
// already playing is stopped first.
func (p *Player) Play(ctx context.Context, pcm []byte, sampleRate int) error {
	if len(pcm) < 2 {
		return errors.New("audio data is empty")
	}

	data := Resample(pcm, sampleRate, p.cfg.SampleRate)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPlayerClosed
	}
	p.stopLocked()
	// The reader keeps data reachable for the lifetime of the oto player.
	player := otoCtx.NewPlayer(bytes.NewReader(data))
	p.active = player
	p.mu.Unlock()

	player.Play()

	ticker := time.NewTicker(p.cfg.PollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.release(player)
			return ctx.Err()
		case <-ticker.C:
			if !player.IsPlaying() {
				err := player.Err()
				p.release(player)
				return err
			}
		}
	}
}

// Stop interrupts the current clip, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// Close stops playback and rejects further clips. The device itself stays
// open for the rest of the process.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.closed = true
	return nil
}

// SampleRate returns the device sample rate.
func (p *Player) SampleRate() int {
	return p.cfg.SampleRate
}

func (p *Player) release(player *oto.Player) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == player {
		p.stopLocked()
	}
}

func (p *Player) stopLocked() {
	if p.active == nil {
		return
	}
	p.active.Pause()
	_ = p.active.Close()
	p.active = nil
}
