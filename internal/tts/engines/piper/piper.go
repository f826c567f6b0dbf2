// Package piper speaks with the piper neural TTS binary. Each utterance is
// synthesized to raw PCM and played through an audio player.
package piper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
	"golang.org/x/text/language"

	"github.com/dgnsrekt/speakblock/internal/ttypes"
)

var (
	// ErrNotAvailable is returned when the binary or models are missing.
	ErrNotAvailable = errors.New("piper is not available")

	// ErrNoModel is returned when no model fits the requested language.
	ErrNoModel = errors.New("no piper model for language")
)

const (
	defaultSampleRate = 22050
	maxTextSize       = 5000
)

// Player plays raw mono 16-bit PCM and blocks until done or ctx is canceled.
type Player interface {
	Play(ctx context.Context, pcm []byte, sampleRate int) error
}

// Config configures the piper engine.
type Config struct {
	Binary   string
	ModelDir string
	Timeout  time.Duration // synthesis timeout per utterance
}

// synthesizeFunc turns text into PCM. Tests replace it.
type synthesizeFunc func(ctx context.Context, model Model, text string, rate float64) ([]byte, error)

// Model is a voice model found in the model directory.
type Model struct {
	Name       string // file name without extension, e.g. ja_JP-test-medium
	Path       string
	Language   ttypes.LanguageTag
	SampleRate int
}

type job struct {
	cancel   context.CancelFunc
	canceled bool
}

// Engine implements ttypes.Synthesizer using piper.
type Engine struct {
	binary   string
	modelDir string
	timeout  time.Duration
	player   Player

	synthesize synthesizeFunc

	mu     sync.Mutex
	active *job
}

// New checks that piper and at least one model are present.
func New(cfg Config, player Player) (*Engine, error) {
	if player == nil {
		return nil, fmt.Errorf("%w: no audio player", ErrNotAvailable)
	}

	binary := cfg.Binary
	if binary == "" {
		binary = "piper"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found in PATH", ErrNotAvailable, binary)
	}

	dir, err := homedir.Expand(cfg.ModelDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAvailable, err)
	}
	models, err := ScanModels(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAvailable, err)
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("%w: no .onnx models in %s", ErrNotAvailable, dir)
	}

	e := &Engine{
		binary:   path,
		modelDir: dir,
		timeout:  cfg.Timeout,
		player:   player,
	}
	if e.timeout <= 0 {
		e.timeout = 30 * time.Second
	}
	e.synthesize = e.runPiper
	return e, nil
}

// ScanModels lists the *.onnx models in dir, sorted by name.
func ScanModels(dir string) ([]Model, error) {
	if dir == "" {
		return nil, errors.New("model directory not configured")
	}

	if _, err := os.Stat(dir); err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.onnx"))
	if err != nil {
		return nil, err
	}

	models := make([]Model, 0, len(matches))
	for _, path := range matches {
		name := strings.TrimSuffix(filepath.Base(path), ".onnx")
		models = append(models, Model{
			Name:       name,
			Path:       path,
			Language:   modelLanguage(name),
			SampleRate: modelSampleRate(path),
		})
	}
	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })
	return models, nil
}

// modelLanguage reads the language from piper's naming scheme
// <lang>_<REGION>-<voice>-<quality>.
func modelLanguage(name string) ttypes.LanguageTag {
	prefix, _, _ := strings.Cut(name, "-")
	s := strings.ReplaceAll(prefix, "_", "-")
	if t, err := language.Parse(s); err == nil {
		return ttypes.LanguageTag(t.String())
	}
	return ttypes.LanguageTag(s)
}

// modelSampleRate reads audio.sample_rate from the model's .onnx.json.
func modelSampleRate(path string) int {
	data, err := os.ReadFile(path + ".json")
	if err != nil {
		return defaultSampleRate
	}
	var meta struct {
		Audio struct {
			SampleRate int `json:"sample_rate"`
		} `json:"audio"`
	}
	if err := json.Unmarshal(data, &meta); err != nil || meta.Audio.SampleRate <= 0 {
		return defaultSampleRate
	}
	return meta.Audio.SampleRate
}

// Voices returns one local voice per model, rescanning the directory so
// newly downloaded models show up.
func (e *Engine) Voices() []ttypes.Voice {
	models, err := ScanModels(e.modelDir)
	if err != nil {
		log.Warn("scanning piper models failed", "dir", e.modelDir, "error", err)
		return nil
	}

	voices := make([]ttypes.Voice, 0, len(models))
	for _, m := range models {
		voices = append(voices, ttypes.Voice{
			Name:     m.Name,
			Language: m.Language,
			IsLocal:  true,
			ID:       m.Path,
		})
	}
	return voices
}

// Speak synthesizes and plays one utterance in the background.
func (e *Engine) Speak(req ttypes.Request) (<-chan ttypes.Event, error) {
	if len(req.Text) > maxTextSize {
		return nil, fmt.Errorf("text too long: %d bytes (max %d)", len(req.Text), maxTextSize)
	}

	model, err := e.modelFor(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &job{cancel: cancel}

	e.mu.Lock()
	e.active = j
	e.mu.Unlock()

	events := make(chan ttypes.Event, 4)
	events <- ttypes.Event{Kind: ttypes.EventStarted}

	go func() {
		defer close(events)
		defer cancel()

		err := e.run(ctx, model, req)

		e.mu.Lock()
		canceled := j.canceled
		if e.active == j {
			e.active = nil
		}
		e.mu.Unlock()

		switch {
		case canceled:
			events <- ttypes.Event{Kind: ttypes.EventError, Err: ttypes.ErrUtteranceCanceled}
		case err != nil:
			events <- ttypes.Event{Kind: ttypes.EventError, Err: err}
		default:
			events <- ttypes.Event{Kind: ttypes.EventEnded}
		}
	}()

	return events, nil
}

func (e *Engine) run(ctx context.Context, model Model, req ttypes.Request) error {
	synthCtx, cancel := context.WithTimeout(ctx, e.timeout)
	pcm, err := e.synthesize(synthCtx, model, req.Text, req.Rate)
	cancel()
	if err != nil {
		return err
	}
	log.Debug("piper synthesized", "model", model.Name, "bytes", len(pcm))

	return e.player.Play(ctx, pcm, model.SampleRate)
}

// CancelAll stops synthesis or playback of the active utterance.
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

// modelFor uses the selected voice's model, or the first model whose
// language matches the request.
func (e *Engine) modelFor(req ttypes.Request) (Model, error) {
	models, err := ScanModels(e.modelDir)
	if err != nil {
		return Model{}, err
	}

	if req.Voice != nil {
		for _, m := range models {
			if m.Path == req.Voice.ID || m.Name == req.Voice.Name {
				return m, nil
			}
		}
	}

	prefix := req.Language.Prefix()
	for _, m := range models {
		if m.Language.Prefix() == prefix {
			return m, nil
		}
	}
	return Model{}, fmt.Errorf("%w %s", ErrNoModel, req.Language)
}

// runPiper feeds text on stdin and collects raw PCM from stdout.
func (e *Engine) runPiper(ctx context.Context, model Model, text string, rate float64) ([]byte, error) {
	if rate <= 0 {
		rate = 1
	}
	args := []string{
		"--model", model.Path,
		"--output_raw",
		"--length_scale", fmt.Sprintf("%.2f", 1.0/rate),
	}

	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("piper synthesis interrupted: %w", ctx.Err())
		}
		return nil, fmt.Errorf("piper failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("piper produced no audio output, stderr: %s", strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
