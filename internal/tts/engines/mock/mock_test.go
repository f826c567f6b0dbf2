package mock

import (
	"errors"
	"testing"
	"time"

	"github.com/dgnsrekt/speakblock/internal/ttypes"
)

func terminal(t *testing.T, events <-chan ttypes.Event) ttypes.Event {
	t.Helper()
	timeout := time.After(time.Second)
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
			t.Fatal("timed out")
		}
	}
}

func TestMockEngine_Manual(t *testing.T) {
	e := New(ttypes.Voice{Name: "Kyoko", Language: "ja-JP"})

	events, err := e.Speak(ttypes.Request{Text: "こんにちは", Language: "ja-JP", Rate: 1})
	if err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	if _, ok := e.Active(); !ok {
		t.Fatal("utterance should be active")
	}

	if !e.Complete() {
		t.Fatal("Complete should end the active utterance")
	}
	if ev := terminal(t, events); ev.Kind != ttypes.EventEnded {
		t.Errorf("terminal = %v", ev.Kind)
	}
	if e.Complete() {
		t.Error("Complete with nothing active should report false")
	}
}

func TestMockEngine_CancelAll(t *testing.T) {
	e := New()

	if err := e.CancelAll(); err != nil {
		t.Fatalf("idle CancelAll = %v", err)
	}

	events, _ := e.Speak(ttypes.Request{Text: "Hello"})
	if err := e.CancelAll(); err != nil {
		t.Fatal(err)
	}
	ev := terminal(t, events)
	if ev.Kind != ttypes.EventError || !errors.Is(ev.Err, ttypes.ErrUtteranceCanceled) {
		t.Errorf("terminal = %v (%v), want canceled", ev.Kind, ev.Err)
	}
	if e.CancelCalls() != 2 {
		t.Errorf("CancelCalls = %d, want 2", e.CancelCalls())
	}
}

func TestMockEngine_Timed(t *testing.T) {
	e := NewTimed(5 * time.Millisecond)

	events, _ := e.Speak(ttypes.Request{Text: "Hello"})
	if ev := terminal(t, events); ev.Kind != ttypes.EventEnded {
		t.Errorf("terminal = %v", ev.Kind)
	}
}

func TestMockEngine_Failures(t *testing.T) {
	e := New()

	boom := errors.New("boom")
	e.FailNextSpeak(boom)
	if _, err := e.Speak(ttypes.Request{Text: "x"}); !errors.Is(err, boom) {
		t.Errorf("Speak error = %v, want %v", err, boom)
	}

	events, err := e.Speak(ttypes.Request{Text: "y"})
	if err != nil {
		t.Fatalf("second Speak failed: %v", err)
	}
	e.Fail(nil)
	if ev := terminal(t, events); !errors.Is(ev.Err, ErrInjected) {
		t.Errorf("terminal error = %v, want ErrInjected", ev.Err)
	}

	if got := len(e.Requests()); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
}
