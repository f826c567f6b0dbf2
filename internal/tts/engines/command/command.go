// Package command speaks through the platform speech command: macOS `say`
// or `espeak-ng` / `espeak` elsewhere. Each utterance is one child process.
package command

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/speakblock/internal/ttypes"
)

// ErrNotAvailable is returned when no speech command can be found.
var ErrNotAvailable = errors.New("no speech command found (tried say, espeak-ng, espeak)")

// baseWPM is the words-per-minute both commands use at rate 1.0.
const baseWPM = 175

// candidates are probed in order when no binary is configured.
var candidates = []string{"say", "espeak-ng", "espeak"}

// Config configures the command engine.
type Config struct {
	Binary  string        // empty probes candidates
	Timeout time.Duration // upper bound for one utterance
}

type flavor int

const (
	flavorSay flavor = iota
	flavorEspeak
)

type process struct {
	id       uint64
	cancel   context.CancelFunc
	canceled bool
}

// Engine implements ttypes.Synthesizer on top of a speech command.
type Engine struct {
	binary  string
	flavor  flavor
	timeout time.Duration

	mu     sync.Mutex
	active *process
	seq    uint64
	roster []ttypes.Voice
}

// New locates the speech command.
func New(cfg Config) (*Engine, error) {
	binary, err := findBinary(cfg.Binary)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		binary:  binary,
		flavor:  flavorOf(binary),
		timeout: cfg.Timeout,
	}
	if e.timeout <= 0 {
		e.timeout = 2 * time.Minute
	}
	return e, nil
}

// Available reports whether a speech command can be found.
func Available(binary string) bool {
	_, err := findBinary(binary)
	return err == nil
}

func findBinary(binary string) (string, error) {
	if binary != "" {
		path, err := exec.LookPath(binary)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrNotAvailable, binary)
		}
		return path, nil
	}
	for _, c := range candidates {
		if path, err := exec.LookPath(c); err == nil {
			return path, nil
		}
	}
	return "", ErrNotAvailable
}

func flavorOf(binary string) flavor {
	if filepath.Base(binary) == "say" {
		return flavorSay
	}
	return flavorEspeak
}

// Binary returns the resolved command path.
func (e *Engine) Binary() string {
	return e.binary
}

// Voices lists the voices the command reports. When listing fails the
// last known roster is returned.
func (e *Engine) Voices() []ttypes.Voice {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var args []string
	if e.flavor == flavorSay {
		args = []string{"-v", "?"}
	} else {
		args = []string{"--voices"}
	}

	out, err := exec.CommandContext(ctx, e.binary, args...).Output()

	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		log.Warn("listing voices failed", "binary", e.binary, "error", err)
		return append([]ttypes.Voice(nil), e.roster...)
	}

	if e.flavor == flavorSay {
		e.roster = ParseSayVoices(string(out))
	} else {
		e.roster = ParseEspeakVoices(string(out))
	}
	return append([]ttypes.Voice(nil), e.roster...)
}

// Speak starts the command for one utterance.
func (e *Engine) Speak(req ttypes.Request) (<-chan ttypes.Event, error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	cmd := exec.CommandContext(ctx, e.binary, e.args(req)...)

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("starting %s: %w", filepath.Base(e.binary), err)
	}

	e.mu.Lock()
	e.seq++
	p := &process{id: e.seq, cancel: cancel}
	e.active = p
	e.mu.Unlock()

	events := make(chan ttypes.Event, 4)
	events <- ttypes.Event{Kind: ttypes.EventStarted}

	go func() {
		defer close(events)
		defer cancel()

		err := cmd.Wait()

		e.mu.Lock()
		canceled := p.canceled
		if e.active == p {
			e.active = nil
		}
		e.mu.Unlock()

		switch {
		case canceled:
			events <- ttypes.Event{Kind: ttypes.EventError, Err: ttypes.ErrUtteranceCanceled}
		case err != nil:
			if ctx.Err() == context.DeadlineExceeded {
				err = fmt.Errorf("timed out after %s: %w", e.timeout, err)
			}
			events <- ttypes.Event{Kind: ttypes.EventError, Err: fmt.Errorf("%s: %w", filepath.Base(e.binary), err)}
		default:
			events <- ttypes.Event{Kind: ttypes.EventEnded}
		}
	}()

	return events, nil
}

// CancelAll kills the running command, if any.
func (e *Engine) CancelAll() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		e.active.canceled = true
		e.active.cancel()
		e.active = nil
	}
	return nil
}

func (e *Engine) args(req ttypes.Request) []string {
	wpm := strconv.Itoa(int(float64(baseWPM) * req.Rate))

	if e.flavor == flavorSay {
		args := []string{"-r", wpm}
		if req.Voice != nil {
			args = append(args, "-v", voiceID(req.Voice))
		}
		return append(args, "--", req.Text)
	}

	voice := strings.ToLower(req.Language.String())
	if req.Voice != nil {
		voice = voiceID(req.Voice)
	}
	return []string{"-s", wpm, "-v", voice, "--", req.Text}
}

func voiceID(v *ttypes.Voice) string {
	if v.ID != "" {
		return v.ID
	}
	return v.Name
}
