package tts

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/speakblock/internal/queue"
	"github.com/dgnsrekt/speakblock/internal/ttypes"
)

// utterance is a unit handed to the synthesizer. Once the driver cancels or
// replaces it, its events are ignored.
type utterance struct {
	id       uint64
	unit     ttypes.SpeechUnit
	voice    *ttypes.Voice
	canceled bool
}

// notifications are callbacks collected under the lock and run after it is
// released. Waiters are released only after the callbacks have run, so a
// failure notice is delivered before Wait returns.
type notifications struct {
	fns  []func()
	idle chan struct{}
}

func (n *notifications) add(fn func()) {
	n.fns = append(n.fns, fn)
}

func (n *notifications) run() {
	for _, fn := range n.fns {
		fn()
	}
	if n.idle != nil {
		close(n.idle)
	}
}

// Driver walks a playback queue one unit at a time. At most one utterance
// is in flight; Speak and Stop are the only ways to interrupt it and both
// are safe to call from any state.
type Driver struct {
	synth    ttypes.Synthesizer
	selector *VoiceSelector

	mu      sync.Mutex
	state   ttypes.State
	queue   *queue.PlaybackQueue
	current *utterance
	roster  []ttypes.Voice
	seq     uint64
	idle    chan struct{} // closed once idle

	onStateChange func(ttypes.State)
	onUnit        []func(ttypes.SpeechUnit, *ttypes.Voice)
	onError       func(error)
}

// NewDriver returns an idle driver speaking through synth. A nil selector
// uses the stock voice preferences.
func NewDriver(synth ttypes.Synthesizer, selector *VoiceSelector) (*Driver, error) {
	if synth == nil {
		return nil, NewTTSError(ErrorCodeInvalidInput, "no speech capability", ErrNoSynthesizer)
	}
	if selector == nil {
		selector = NewVoiceSelector()
	}

	idle := make(chan struct{})
	close(idle)

	return &Driver{
		synth:    synth,
		selector: selector,
		state:    ttypes.StateIdle,
		queue:    queue.New(),
		idle:     idle,
	}, nil
}

// OnStateChange registers a callback for state transitions.
func (d *Driver) OnStateChange(fn func(ttypes.State)) {
	d.mu.Lock()
	d.onStateChange = fn
	d.mu.Unlock()
}

// OnUnit adds a callback run each time a unit is submitted. Callbacks run
// in registration order.
func (d *Driver) OnUnit(fn func(ttypes.SpeechUnit, *ttypes.Voice)) {
	d.mu.Lock()
	d.onUnit = append(d.onUnit, fn)
	d.mu.Unlock()
}

// OnError registers the callback that receives user-visible failures.
// Deliberate cancellations never reach it.
func (d *Driver) OnError(fn func(error)) {
	d.mu.Lock()
	d.onError = fn
	d.mu.Unlock()
}

// Speak replaces whatever is playing with text and returns the number of
// units queued. Empty text leaves the driver idle without touching the
// synthesizer.
func (d *Driver) Speak(text string, mode ttypes.LanguageTag, rate float64) int {
	if mode == "" {
		mode = ttypes.LanguageJapanese
	}
	units := BuildUnits(text, mode, rate)

	var n notifications
	d.mu.Lock()

	d.interruptLocked()
	if err := d.queue.Replace(units); err != nil {
		log.Warn("dropped empty speech unit", "error", err)
	}

	if len(units) == 0 {
		d.setStateLocked(ttypes.StateIdle, &n)
		d.mu.Unlock()
		n.run()
		return 0
	}

	d.roster = d.synth.Voices()
	log.Debug("speak", "units", len(units), "mode", mode, "voices", len(d.roster))

	d.advanceLocked(&n)
	d.mu.Unlock()
	n.run()

	return len(units)
}

// Stop cancels the in-flight utterance and drops the rest of the queue.
func (d *Driver) Stop() {
	var n notifications
	d.mu.Lock()
	d.interruptLocked()
	d.queue.Clear()
	d.setStateLocked(ttypes.StateIdle, &n)
	stats := d.queue.GetStats()
	d.mu.Unlock()
	n.run()

	log.Debug("stopped", "spoken", stats.TotalDequeued, "dropped", stats.TotalDropped)
}

// Wait blocks until the driver is idle or ctx is done.
func (d *Driver) Wait(ctx context.Context) error {
	d.mu.Lock()
	idle := d.idle
	d.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current driver state.
func (d *Driver) State() ttypes.State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Current returns the unit in flight, if any.
func (d *Driver) Current() (ttypes.SpeechUnit, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current == nil {
		return ttypes.SpeechUnit{}, false
	}
	return d.current.unit, true
}

// Pending returns the units still waiting behind the current one.
func (d *Driver) Pending() []ttypes.SpeechUnit {
	return d.queue.Snapshot()
}

// interruptLocked detaches the current utterance before canceling it so
// its cancellation error is never mistaken for a failure.
func (d *Driver) interruptLocked() {
	if d.current == nil {
		return
	}
	d.current.canceled = true
	log.Debug("canceling utterance", "id", d.current.id)
	d.current = nil

	if err := d.synth.CancelAll(); err != nil {
		log.Warn("cancel failed", "error", err)
	}
}

func (d *Driver) advanceLocked(n *notifications) {
	unit, err := d.queue.Dequeue()
	if err != nil {
		d.current = nil
		d.setStateLocked(ttypes.StateIdle, n)
		return
	}

	voice := d.selector.Pick(unit.Language, d.roster)
	req := ttypes.Request{
		Text:     unit.Text,
		Language: unit.Language,
		Rate:     ClampRate(unit.Rate),
		Voice:    voice,
	}

	events, err := d.synth.Speak(req)
	if err != nil {
		d.failLocked(err, unit, n)
		return
	}

	d.seq++
	u := &utterance{id: d.seq, unit: unit, voice: voice}
	d.current = u
	d.setStateLocked(ttypes.StateSpeaking, n)

	for _, fn := range d.onUnit {
		n.add(func() { fn(unit, voice) })
	}

	go d.watch(u, events)
}

// watch follows one utterance until its terminal event.
func (d *Driver) watch(u *utterance, events <-chan ttypes.Event) {
	for ev := range events {
		switch ev.Kind {
		case ttypes.EventEnded:
			d.finish(u, nil)
			return
		case ttypes.EventError:
			err := ev.Err
			if err == nil {
				err = ErrSynthesisFailed
			}
			d.finish(u, err)
			return
		default:
			log.Debug("utterance event", "id", u.id, "event", ev.Kind)
		}
	}
	// closed without a terminal event
	d.finish(u, nil)
}

func (d *Driver) finish(u *utterance, err error) {
	var n notifications
	d.mu.Lock()

	if u.canceled || d.current != u {
		log.Debug("ignoring stale utterance", "id", u.id, "error", err)
		d.mu.Unlock()
		return
	}
	d.current = nil

	switch {
	case err == nil:
		d.advanceLocked(&n)
	case errors.Is(err, ErrCanceled):
		// Someone else canceled the platform queue. Stop quietly.
		log.Debug("utterance canceled externally", "id", u.id)
		d.queue.Clear()
		d.setStateLocked(ttypes.StateIdle, &n)
	default:
		d.failLocked(err, u.unit, &n)
	}

	d.mu.Unlock()
	n.run()
}

func (d *Driver) failLocked(cause error, unit ttypes.SpeechUnit, n *notifications) {
	log.Error("speech synthesis failed", "error", cause, "language", unit.Language)

	d.current = nil
	d.queue.Clear()
	d.setStateLocked(ttypes.StateIdle, n)

	if fn := d.onError; fn != nil {
		err := NewTTSError(ErrorCodeSynthesis, "speech synthesis failed", cause).
			WithContext("text", unit.Text).
			WithContext("language", unit.Language)
		n.add(func() { fn(err) })
	}
}

func (d *Driver) setStateLocked(s ttypes.State, n *notifications) {
	if d.state == s {
		return
	}
	d.state = s
	if s == ttypes.StateIdle {
		n.idle = d.idle
	} else {
		d.idle = make(chan struct{})
	}

	if fn := d.onStateChange; fn != nil {
		n.add(func() { fn(s) })
	}
}
