package queue

import (
	"testing"

	"github.com/dgnsrekt/speakblock/internal/ttypes"
)

func unit(text string) ttypes.SpeechUnit {
	return ttypes.SpeechUnit{Text: text, Language: ttypes.LanguageEnglishUS, Rate: 1}
}

func TestPlaybackQueue_BasicOperations(t *testing.T) {
	q := New()

	if size := q.Size(); size != 0 {
		t.Errorf("Expected empty queue, got size %d", size)
	}

	if _, err := q.Dequeue(); err != ErrQueueEmpty {
		t.Errorf("Expected ErrQueueEmpty, got %v", err)
	}

	if err := q.Enqueue(unit("first")); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if err := q.Enqueue(unit("second")); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	for _, want := range []string{"first", "second"} {
		got, err := q.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue failed: %v", err)
		}
		if got.Text != want {
			t.Errorf("Dequeue = %q, want %q", got.Text, want)
		}
	}

	if _, err := q.Dequeue(); err != ErrQueueEmpty {
		t.Errorf("Expected ErrQueueEmpty after draining, got %v", err)
	}
}

func TestPlaybackQueue_RejectsEmptyUnits(t *testing.T) {
	q := New()

	if err := q.Enqueue(unit("")); err != ErrEmptyUnit {
		t.Errorf("Enqueue(empty) = %v, want ErrEmptyUnit", err)
	}

	err := q.EnqueueBatch([]ttypes.SpeechUnit{unit("a"), unit(""), unit("b")})
	if err != ErrEmptyUnit {
		t.Errorf("EnqueueBatch with empty unit = %v, want ErrEmptyUnit", err)
	}
	if q.Size() != 2 {
		t.Errorf("Expected the two non-empty units to be kept, got %d", q.Size())
	}
}

func TestPlaybackQueue_ReplaceAndClear(t *testing.T) {
	q := FromUnits([]ttypes.SpeechUnit{unit("old 1"), unit("old 2")})

	if err := q.Replace([]ttypes.SpeechUnit{unit("new")}); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	snap := q.Snapshot()
	if len(snap) != 1 || snap[0].Text != "new" {
		t.Errorf("Snapshot after Replace = %+v", snap)
	}

	q.Clear()
	if !q.IsEmpty() {
		t.Error("Expected queue to be empty after Clear")
	}

	stats := q.GetStats()
	if stats.TotalDropped != 3 {
		t.Errorf("TotalDropped = %d, want 3", stats.TotalDropped)
	}
	if stats.PeakSize != 2 {
		t.Errorf("PeakSize = %d, want 2", stats.PeakSize)
	}
}

func TestPlaybackQueue_SnapshotIsCopy(t *testing.T) {
	q := FromUnits([]ttypes.SpeechUnit{unit("a")})

	snap := q.Snapshot()
	snap[0].Text = "mutated"

	head, _ := q.Dequeue()
	if head.Text != "a" {
		t.Errorf("Snapshot mutation leaked into queue: %q", head.Text)
	}
}
