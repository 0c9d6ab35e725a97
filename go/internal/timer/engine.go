package timer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/scorekeeper/go/internal/kvstore"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultDuration is used on first load and whenever reset gets no usable minutes
	DefaultDuration = 20 * time.Minute
	// TickInterval is the display refresh period while running
	TickInterval = time.Second
)

// Keys names the persisted fields of one engine instance
type Keys struct {
	Deadline  string
	Running   string
	Remaining string
}

// KeysFor returns the storage keys for an instance suffix. The first timer uses "" and the
// second "2", matching the keys the page has always written.
func KeysFor(suffix string) Keys {
	return Keys{
		Deadline:  "timerEndTime" + suffix,
		Running:   "timerRunning" + suffix,
		Remaining: "timerRemaining" + suffix,
	}
}

// Cue is an audio cue the host should play
type Cue string

const (
	CueToggle  Cue = "toggle"
	CueExpired Cue = "expired"
)

// Notifier receives display refreshes and cues. Calls happen with the engine lock held,
// so implementations must not call back into the engine.
type Notifier interface {
	TimerDisplay(name string, d Display)
	TimerCue(name string, cue Cue)
}

// State is a snapshot of an engine
type State struct {
	Name        string  `json:"name"`
	DeadlineMs  int64   `json:"deadline_ms"`
	Running     bool    `json:"running"`
	RemainingMs int64   `json:"remaining_ms"`
	Display     Display `json:"display"`
}

// Option configures an Engine
type Option func(*Engine)

// WithDefaultDuration overrides the 20 minute default
func WithDefaultDuration(d time.Duration) Option {
	return func(e *Engine) { e.defaultDuration = d }
}

// WithTickInterval overrides the one second refresh period
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) { e.tickInterval = d }
}

// Engine is one countdown. The deadline is absolute, so time that passes while the service
// is down is deducted on restore. A stopped engine keeps its remaining duration frozen.
type Engine struct {
	name            string
	keys            Keys
	store           kvstore.Store
	clock           clockwork.Clock
	notifier        Notifier
	defaultDuration time.Duration
	tickInterval    time.Duration

	mu        sync.Mutex
	deadline  time.Time
	remaining time.Duration
	running   bool
	paused    bool

	ticker clockwork.Ticker
	stopCh chan struct{}
	// gen changes every time a ticker is started or cancelled; stale ticks compare against it
	gen uint64
}

// New creates an engine. Call Restore before using it.
func New(name string, keys Keys, store kvstore.Store, clock clockwork.Clock, notifier Notifier, opts ...Option) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}

	e := &Engine{
		name:            name,
		keys:            keys,
		store:           store,
		clock:           clock,
		notifier:        notifier,
		defaultDuration: DefaultDuration,
		tickInterval:    TickInterval,
	}
	for _, opt := range opts {
		opt(e)
	}

	now := clock.Now()
	e.deadline = now.Add(e.defaultDuration)
	e.remaining = e.defaultDuration
	return e
}

// Name returns the instance name
func (e *Engine) Name() string {
	return e.name
}

// Restore loads the persisted state. A running timer resumes on its stored deadline and is
// checked for expiry right away.
func (e *Engine) Restore(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()

	deadline, hasDeadline, err := e.readMillis(ctx, e.keys.Deadline)
	if err != nil {
		return err
	}
	remaining, hasRemaining, err := e.readMillis(ctx, e.keys.Remaining)
	if err != nil {
		return err
	}
	running, err := e.store.Get(ctx, e.keys.Running)
	if err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		return fmt.Errorf("failed to read %s: %w", e.keys.Running, err)
	}

	if hasDeadline {
		e.deadline = time.UnixMilli(deadline)
	} else {
		e.deadline = now.Add(e.defaultDuration)
	}

	switch {
	case hasRemaining:
		e.remaining = time.Duration(remaining) * time.Millisecond
	case hasDeadline:
		// records written before remaining was tracked count down from the deadline
		e.remaining = e.deadline.Sub(now)
	default:
		e.remaining = e.defaultDuration
	}

	e.running = running == "true"
	e.paused = false

	log.Info().
		Str("timer", e.name).
		Time("deadline", e.deadline).
		Bool("running", e.running).
		Msg("restored timer state")

	e.notifyDisplay(now)

	if e.running {
		e.startTicker()
		if seconds(e.deadline.Sub(now)) <= 0 {
			return e.expire(ctx, now)
		}
	}
	return nil
}

// Start resumes the countdown from the frozen remaining time
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.start(ctx)
}

// Pause freezes the countdown
func (e *Engine) Pause(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pause(ctx)
}

// Toggle pauses a running timer and starts a stopped one
func (e *Engine) Toggle(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return e.pause(ctx)
	}
	return e.start(ctx)
}

// Reset stops the timer and sets it to minutes from now. Zero means the default; a negative
// count puts the deadline in the past, as the reset box always has.
func (e *Engine) Reset(ctx context.Context, minutes int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.defaultDuration
	if minutes != 0 {
		d = time.Duration(minutes) * time.Minute
	}

	e.stopTicker()
	now := e.clock.Now()
	e.running = false
	e.paused = false
	e.deadline = now.Add(d)
	e.remaining = d

	log.Info().Str("timer", e.name).Dur("duration", d).Msg("timer reset")

	err := e.persist(ctx)
	e.notifyDisplay(now)
	return err
}

// Display computes the current display text
func (e *Engine) Display() Display {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.display(e.clock.Now())
}

// State returns a snapshot for the API
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	return State{
		Name:        e.name,
		DeadlineMs:  e.deadline.UnixMilli(),
		Running:     e.running,
		RemainingMs: e.remainingAt(now).Milliseconds(),
		Display:     e.display(now),
	}
}

// Close stops the refresh ticker without touching persisted state
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTicker()
}

func (e *Engine) start(ctx context.Context) error {
	if e.running {
		return nil
	}

	now := e.clock.Now()
	e.deadline = now.Add(e.remaining)
	e.running = true
	e.paused = false
	e.startTicker()

	log.Debug().Str("timer", e.name).Time("deadline", e.deadline).Msg("timer started")

	err := e.persist(ctx)
	e.notifier.TimerCue(e.name, CueToggle)
	e.notifyDisplay(now)
	return err
}

func (e *Engine) pause(ctx context.Context) error {
	if !e.running {
		return nil
	}

	e.stopTicker()
	now := e.clock.Now()
	e.remaining = e.deadline.Sub(now)
	e.running = false
	e.paused = true

	log.Debug().Str("timer", e.name).Dur("remaining", e.remaining).Msg("timer paused")

	err := e.persist(ctx)
	e.notifier.TimerCue(e.name, CueToggle)
	e.notifyDisplay(now)
	return err
}

// tick runs once per interval while the ticker with generation gen is live
func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.gen || !e.running {
		return
	}

	now := e.clock.Now()
	e.notifyDisplay(now)
	if seconds(e.deadline.Sub(now)) <= 0 {
		if err := e.expire(context.Background(), now); err != nil {
			log.Error().Err(err).Str("timer", e.name).Msg("failed to persist expired timer")
		}
	}
}

// expire stops a running timer that reached zero. Caller holds the lock.
func (e *Engine) expire(ctx context.Context, now time.Time) error {
	e.stopTicker()
	e.running = false
	e.paused = false
	e.remaining = e.deadline.Sub(now)

	log.Info().Str("timer", e.name).Dur("overtime", -e.remaining).Msg("timer expired")

	err := e.persist(ctx)
	e.notifier.TimerCue(e.name, CueExpired)
	return err
}

func (e *Engine) startTicker() {
	e.stopTicker()

	e.gen++
	gen := e.gen
	ticker := e.clock.NewTicker(e.tickInterval)
	stop := make(chan struct{})
	e.ticker = ticker
	e.stopCh = stop

	go func() {
		for {
			select {
			case <-ticker.Chan():
				e.tick(gen)
			case <-stop:
				return
			}
		}
	}()
}

func (e *Engine) stopTicker() {
	if e.ticker == nil {
		return
	}
	e.ticker.Stop()
	close(e.stopCh)
	e.ticker = nil
	e.stopCh = nil
	e.gen++
}

func (e *Engine) remainingAt(now time.Time) time.Duration {
	if e.running {
		return e.deadline.Sub(now)
	}
	return e.remaining
}

func (e *Engine) display(now time.Time) Display {
	d := Format(e.remainingAt(now))
	d.Running = e.running
	d.Paused = e.paused
	return d
}

func (e *Engine) notifyDisplay(now time.Time) {
	e.notifier.TimerDisplay(e.name, e.display(now))
}

func (e *Engine) persist(ctx context.Context) error {
	values := []struct{ key, value string }{
		{e.keys.Deadline, strconv.FormatInt(e.deadline.UnixMilli(), 10)},
		{e.keys.Running, strconv.FormatBool(e.running)},
		{e.keys.Remaining, strconv.FormatInt(e.remaining.Milliseconds(), 10)},
	}
	for _, kv := range values {
		if err := e.store.Set(ctx, kv.key, kv.value); err != nil {
			return fmt.Errorf("failed to persist timer %s: %w", e.name, err)
		}
	}
	return nil
}

func (e *Engine) readMillis(ctx context.Context, key string) (int64, bool, error) {
	raw, err := e.store.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Warn().Str("timer", e.name).Str("key", key).Str("value", raw).Msg("ignoring unparsable timer value")
		return 0, false, nil
	}
	return v, true, nil
}

// NopNotifier discards every notification
type NopNotifier struct{}

func (NopNotifier) TimerDisplay(string, Display) {}
func (NopNotifier) TimerCue(string, Cue)         {}
