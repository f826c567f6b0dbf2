package queue

import (
	"errors"
	"sync"
	"time"

	"github.com/dgnsrekt/speakblock/internal/ttypes"
)

var (
	// ErrQueueEmpty is returned when the queue has no units
	ErrQueueEmpty = errors.New("playback queue is empty")

	// ErrEmptyUnit is returned when a unit without text is enqueued
	ErrEmptyUnit = errors.New("speech unit has no text")
)

// PlaybackQueue is the ordered FIFO of speech units for one speak invocation.
// It is owned by the playback driver; outside callers only ever replace it
// wholesale or clear it.
type PlaybackQueue struct {
	units []ttypes.SpeechUnit

	mu    sync.RWMutex
	stats Stats
}

// Stats tracks queue activity across invocations.
type Stats struct {
	TotalEnqueued int64
	TotalDequeued int64
	TotalDropped  int64 // Units discarded by Clear or Replace
	CurrentSize   int
	PeakSize      int
	LastEnqueue   time.Time
	LastDequeue   time.Time
}

// New creates an empty playback queue.
func New() *PlaybackQueue {
	return &PlaybackQueue{}
}

// FromUnits creates a queue holding units in order.
func FromUnits(units []ttypes.SpeechUnit) *PlaybackQueue {
	q := New()
	_ = q.EnqueueBatch(units)
	return q
}

// Enqueue appends a unit to the tail of the queue.
func (q *PlaybackQueue) Enqueue(unit ttypes.SpeechUnit) error {
	if unit.Text == "" {
		return ErrEmptyUnit
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.units = append(q.units, unit)
	q.recordEnqueue(1)
	return nil
}

// EnqueueBatch appends units in order. Units without text are skipped and
// reported with ErrEmptyUnit after the rest were added.
func (q *PlaybackQueue) EnqueueBatch(units []ttypes.SpeechUnit) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	var err error
	added := 0
	for _, u := range units {
		if u.Text == "" {
			err = ErrEmptyUnit
			continue
		}
		q.units = append(q.units, u)
		added++
	}
	if added > 0 {
		q.recordEnqueue(added)
	}
	return err
}

// Dequeue removes and returns the head of the queue.
func (q *PlaybackQueue) Dequeue() (ttypes.SpeechUnit, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.units) == 0 {
		return ttypes.SpeechUnit{}, ErrQueueEmpty
	}

	unit := q.units[0]
	q.units[0] = ttypes.SpeechUnit{}
	q.units = q.units[1:]

	q.stats.TotalDequeued++
	q.stats.LastDequeue = time.Now()
	q.stats.CurrentSize = len(q.units)
	return unit, nil
}

// Size returns the number of pending units.
func (q *PlaybackQueue) Size() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.units)
}

// IsEmpty reports whether no units are pending.
func (q *PlaybackQueue) IsEmpty() bool {
	return q.Size() == 0
}

// Clear discards all pending units.
func (q *PlaybackQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.stats.TotalDropped += int64(len(q.units))
	q.units = nil
	q.stats.CurrentSize = 0
}

// Replace discards all pending units and installs units in their place.
func (q *PlaybackQueue) Replace(units []ttypes.SpeechUnit) error {
	q.Clear()
	return q.EnqueueBatch(units)
}

// Snapshot returns a copy of the pending units in order.
func (q *PlaybackQueue) Snapshot() []ttypes.SpeechUnit {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]ttypes.SpeechUnit, len(q.units))
	copy(out, q.units)
	return out
}

// GetStats returns current queue statistics.
func (q *PlaybackQueue) GetStats() Stats {
	q.mu.RLock()
	defer q.mu.RUnlock()

	stats := q.stats
	stats.CurrentSize = len(q.units)
	return stats
}

func (q *PlaybackQueue) recordEnqueue(n int) {
	q.stats.TotalEnqueued += int64(n)
	q.stats.LastEnqueue = time.Now()
	q.stats.CurrentSize = len(q.units)
	if q.stats.CurrentSize > q.stats.PeakSize {
		q.stats.PeakSize = q.stats.CurrentSize
	}
}
