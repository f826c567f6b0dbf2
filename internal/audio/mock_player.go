package audio

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MockPlayer simulates playback without producing sound.
type MockPlayer struct {
	mu sync.Mutex

	// delayFactor scales the real clip duration; 0 returns immediately
	delayFactor float64

	// hold keeps every clip playing until its context is canceled
	hold bool

	failWith error
	clips    []Clip
	closed   bool
}

// Clip is a recorded call to Play.
type Clip struct {
	PCM        []byte
	SampleRate int
}

// NewMockPlayer returns a mock whose clips finish immediately.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{}
}

// WithDelayFactor makes each clip last its real duration times f.
func (mp *MockPlayer) WithDelayFactor(f float64) *MockPlayer {
	mp.mu.Lock()
	mp.delayFactor = f
	mp.mu.Unlock()
	return mp
}

// Hold makes clips play until their context is canceled.
func (mp *MockPlayer) Hold() *MockPlayer {
	mp.mu.Lock()
	mp.hold = true
	mp.mu.Unlock()
	return mp
}

// FailWith makes every Play call return err.
func (mp *MockPlayer) FailWith(err error) {
	mp.mu.Lock()
	mp.failWith = err
	mp.mu.Unlock()
}

// Play records the clip and simulates its playback time.
func (mp *MockPlayer) Play(ctx context.Context, pcm []byte, sampleRate int) error {
	mp.mu.Lock()
	if mp.closed {
		mp.mu.Unlock()
		return ErrPlayerClosed
	}
	if len(pcm) == 0 {
		mp.mu.Unlock()
		return errors.New("audio data is empty")
	}
	if err := mp.failWith; err != nil {
		mp.mu.Unlock()
		return err
	}
	mp.clips = append(mp.clips, Clip{PCM: append([]byte(nil), pcm...), SampleRate: sampleRate})
	hold := mp.hold
	wait := time.Duration(float64(Duration(pcm, sampleRate)) * mp.delayFactor)
	mp.mu.Unlock()

	if hold {
		<-ctx.Done()
		return ctx.Err()
	}
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Clips returns every clip played so far.
func (mp *MockPlayer) Clips() []Clip {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return append([]Clip(nil), mp.clips...)
}

// Close rejects further clips.
func (mp *MockPlayer) Close() error {
	mp.mu.Lock()
	mp.closed = true
	mp.mu.Unlock()
	return nil
}
