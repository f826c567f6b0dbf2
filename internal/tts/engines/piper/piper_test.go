package piper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgnsrekt/speakblock/internal/audio"
	"github.com/dgnsrekt/speakblock/internal/ttypes"
)

func writeModels(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"ja_JP-test-medium.onnx":      "",
		"ja_JP-test-medium.onnx.json": `{"audio": {"sample_rate": 16000}}`,
		"en_US-amy-low.onnx":          "",
		"notes.txt":                   "ignored",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func newTestEngine(t *testing.T, player Player, synth synthesizeFunc) *Engine {
	t.Helper()
	return &Engine{
		modelDir:   writeModels(t),
		timeout:    time.Second,
		player:     player,
		synthesize: synth,
	}
}

func fakePCM(ctx context.Context, _ Model, _ string, _ float64) ([]byte, error) {
	return []byte{1, 0, 2, 0}, nil
}

func drain(t *testing.T, events <-chan ttypes.Event) ttypes.Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatal("channel closed without a terminal event")
			}
			if ev.Kind.Terminal() {
				return ev
			}
		case <-timeout:
			t.Fatal("timed out waiting for terminal event")
		}
	}
}

func TestScanModels(t *testing.T) {
	models, err := ScanModels(writeModels(t))
	if err != nil {
		t.Fatalf("ScanModels failed: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("found %d models, want 2", len(models))
	}

	if models[0].Name != "en_US-amy-low" || models[0].Language != "en-US" || models[0].SampleRate != 22050 {
		t.Errorf("first model = %+v", models[0])
	}
	if models[1].Name != "ja_JP-test-medium" || models[1].Language != "ja-JP" || models[1].SampleRate != 16000 {
		t.Errorf("second model = %+v", models[1])
	}

	if _, err := ScanModels(""); err == nil {
		t.Error("empty model dir should be an error")
	}
	if _, err := ScanModels(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("missing model dir should be an error")
	}
}

func TestEngine_Voices(t *testing.T) {
	e := newTestEngine(t, audio.NewMockPlayer(), fakePCM)

	voices := e.Voices()
	if len(voices) != 2 {
		t.Fatalf("voices = %d, want 2", len(voices))
	}
	for _, v := range voices {
		if !v.IsLocal || v.ID == "" {
			t.Errorf("voice %+v should be local with a model path", v)
		}
	}
}

func TestEngine_ModelFor(t *testing.T) {
	e := newTestEngine(t, audio.NewMockPlayer(), fakePCM)

	m, err := e.modelFor(ttypes.Request{Language: "ja-JP"})
	if err != nil || m.Name != "ja_JP-test-medium" {
		t.Errorf("modelFor(ja-JP) = %+v, %v", m, err)
	}

	m, err = e.modelFor(ttypes.Request{Language: "ja-JP", Voice: &ttypes.Voice{Name: "en_US-amy-low"}})
	if err != nil || m.Name != "en_US-amy-low" {
		t.Errorf("explicit voice should win, got %+v, %v", m, err)
	}

	if _, err := e.modelFor(ttypes.Request{Language: "fr-FR"}); !errors.Is(err, ErrNoModel) {
		t.Errorf("modelFor(fr-FR) error = %v, want ErrNoModel", err)
	}
}

func TestEngine_SpeakPlaysPCM(t *testing.T) {
	player := audio.NewMockPlayer()

	var gotRate float64
	e := newTestEngine(t, player, func(ctx context.Context, m Model, text string, rate float64) ([]byte, error) {
		gotRate = rate
		return fakePCM(ctx, m, text, rate)
	})

	events, err := e.Speak(ttypes.Request{Text: "こんにちは", Language: "ja-JP", Rate: 1.5})
	if err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if ev := drain(t, events); ev.Kind != ttypes.EventEnded {
		t.Fatalf("terminal event = %v (%v), want ended", ev.Kind, ev.Err)
	}

	clips := player.Clips()
	if len(clips) != 1 || clips[0].SampleRate != 16000 {
		t.Errorf("clips = %+v, want one clip at 16000 Hz", clips)
	}
	if gotRate != 1.5 {
		t.Errorf("synthesis rate = %v, want 1.5", gotRate)
	}
}

func TestEngine_CancelAll(t *testing.T) {
	e := newTestEngine(t, audio.NewMockPlayer().Hold(), fakePCM)

	events, err := e.Speak(ttypes.Request{Text: "Hello", Language: "en-US", Rate: 1})
	if err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	if err := e.CancelAll(); err != nil {
		t.Fatalf("CancelAll failed: %v", err)
	}

	ev := drain(t, events)
	if ev.Kind != ttypes.EventError || !errors.Is(ev.Err, ttypes.ErrUtteranceCanceled) {
		t.Errorf("terminal event = %v (%v), want canceled error", ev.Kind, ev.Err)
	}

	// Nothing speaking: still safe.
	if err := e.CancelAll(); err != nil {
		t.Errorf("second CancelAll = %v", err)
	}
}

func TestEngine_SynthesisFailure(t *testing.T) {
	boom := errors.New("model crashed")
	e := newTestEngine(t, audio.NewMockPlayer(), func(context.Context, Model, string, float64) ([]byte, error) {
		return nil, boom
	})

	events, err := e.Speak(ttypes.Request{Text: "Hello", Language: "en-US", Rate: 1})
	if err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	ev := drain(t, events)
	if ev.Kind != ttypes.EventError || !errors.Is(ev.Err, boom) {
		t.Errorf("terminal event = %v (%v), want the synthesis error", ev.Kind, ev.Err)
	}
	if errors.Is(ev.Err, ttypes.ErrUtteranceCanceled) {
		t.Error("synthesis failure must not look like a cancellation")
	}
}
