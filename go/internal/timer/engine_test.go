package timer

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/scorekeeper/go/internal/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kickoff = time.Date(2026, 10, 14, 18, 0, 0, 0, time.UTC)

type recorder struct {
	mu       sync.Mutex
	displays []Display
	cues     []Cue
}

func (r *recorder) TimerDisplay(_ string, d Display) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.displays = append(r.displays, d)
}

func (r *recorder) TimerCue(_ string, cue Cue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cues = append(r.cues, cue)
}

func (r *recorder) count(cue Cue) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.cues {
		if c == cue {
			n++
		}
	}
	return n
}

func (r *recorder) last() Display {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.displays[len(r.displays)-1]
}

func newTestEngine(t *testing.T, store kvstore.Store, clock clockwork.Clock) (*Engine, *recorder) {
	t.Helper()
	rec := &recorder{}
	e := New("timer1", KeysFor(""), store, clock, rec)
	t.Cleanup(e.Close)
	return e, rec
}

func TestRestoreDefaults(t *testing.T) {
	clock := clockwork.NewFakeClockAt(kickoff)
	e, rec := newTestEngine(t, kvstore.NewMemory(), clock)

	require.NoError(t, e.Restore(context.Background()))

	st := e.State()
	assert.False(t, st.Running)
	assert.Equal(t, kickoff.Add(20*time.Minute).UnixMilli(), st.DeadlineMs)
	assert.Equal(t, "20:00", st.Display.Text)
	assert.Equal(t, "20:00", rec.last().Text)
}

func TestReset(t *testing.T) {
	tests := []struct {
		name    string
		minutes int
		want    time.Duration
	}{
		{name: "explicit minutes", minutes: 15, want: 15 * time.Minute},
		{name: "one minute", minutes: 1, want: time.Minute},
		{name: "zero means default", minutes: 0, want: 20 * time.Minute},
		{name: "negative lands in the past", minutes: -5, want: -5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			clock := clockwork.NewFakeClockAt(kickoff)
			store := kvstore.NewMemory()
			e, _ := newTestEngine(t, store, clock)
			require.NoError(t, e.Restore(ctx))
			require.NoError(t, e.Start(ctx))
			clock.Advance(90 * time.Second)

			require.NoError(t, e.Reset(ctx, tt.minutes))

			st := e.State()
			assert.False(t, st.Running)
			assert.Equal(t, clock.Now().Add(tt.want).UnixMilli(), st.DeadlineMs)
			assert.Equal(t, Format(tt.want).Text, st.Display.Text)

			running, err := store.Get(ctx, "timerRunning")
			require.NoError(t, err)
			assert.Equal(t, "false", running)
			deadline, err := store.Get(ctx, "timerEndTime")
			require.NoError(t, err)
			assert.Equal(t, strconv.FormatInt(st.DeadlineMs, 10), deadline)
		})
	}
}

func TestToggleTwiceIsIdentity(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(kickoff)
	e, rec := newTestEngine(t, kvstore.NewMemory(), clock)
	require.NoError(t, e.Restore(ctx))

	before := e.State()
	require.NoError(t, e.Toggle(ctx))
	assert.True(t, e.State().Running)
	require.NoError(t, e.Toggle(ctx))

	after := e.State()
	assert.Equal(t, before.Running, after.Running)
	assert.Equal(t, before.DeadlineMs, after.DeadlineMs)
	assert.Equal(t, 2, rec.count(CueToggle))
}

func TestPauseFreezesRemaining(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(kickoff)
	e, _ := newTestEngine(t, kvstore.NewMemory(), clock)
	require.NoError(t, e.Restore(ctx))

	require.NoError(t, e.Start(ctx))
	clock.Advance(30 * time.Second)
	require.NoError(t, e.Pause(ctx))

	d := e.Display()
	assert.Equal(t, "19:30", d.Text)
	assert.True(t, d.Paused)
	assert.False(t, d.Running)

	clock.Advance(5 * time.Minute)
	assert.Equal(t, "19:30", e.Display().Text)

	require.NoError(t, e.Start(ctx))
	st := e.State()
	assert.Equal(t, clock.Now().Add(19*time.Minute+30*time.Second).UnixMilli(), st.DeadlineMs)
	assert.False(t, st.Display.Paused)
}

func TestStartAndPauseAreNoOpsInTheirOwnState(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(kickoff)
	e, rec := newTestEngine(t, kvstore.NewMemory(), clock)
	require.NoError(t, e.Restore(ctx))

	require.NoError(t, e.Pause(ctx))
	assert.Equal(t, 0, rec.count(CueToggle))

	require.NoError(t, e.Start(ctx))
	deadline := e.State().DeadlineMs
	clock.Advance(10 * time.Second)
	require.NoError(t, e.Start(ctx))
	assert.Equal(t, deadline, e.State().DeadlineMs)
	assert.Equal(t, 1, rec.count(CueToggle))
}

func TestRestoreResumesRunningTimer(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(kickoff)
	store := kvstore.NewMemory()

	first, _ := newTestEngine(t, store, clock)
	require.NoError(t, first.Restore(ctx))
	require.NoError(t, first.Reset(ctx, 5))
	require.NoError(t, first.Start(ctx))
	first.Close()

	// the page was closed for two minutes
	clock.Advance(2 * time.Minute)

	second, _ := newTestEngine(t, store, clock)
	require.NoError(t, second.Restore(ctx))

	st := second.State()
	assert.True(t, st.Running)
	assert.Equal(t, "03:00", st.Display.Text)
}

func TestRestoreLegacyRecordWithoutRemaining(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(kickoff)
	store := kvstore.NewMemory()
	require.NoError(t, store.Set(ctx, "timerEndTime", strconv.FormatInt(kickoff.Add(3*time.Minute).UnixMilli(), 10)))
	require.NoError(t, store.Set(ctx, "timerRunning", "false"))

	e, _ := newTestEngine(t, store, clock)
	require.NoError(t, e.Restore(ctx))

	assert.Equal(t, "03:00", e.Display().Text)
	assert.False(t, e.State().Running)
}

func TestRestorePastDeadlineExpiresOnce(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(kickoff)
	store := kvstore.NewMemory()
	require.NoError(t, store.Set(ctx, "timerEndTime", strconv.FormatInt(kickoff.Add(-45*time.Second).UnixMilli(), 10)))
	require.NoError(t, store.Set(ctx, "timerRunning", "true"))

	e, rec := newTestEngine(t, store, clock)
	require.NoError(t, e.Restore(ctx))

	d := e.Display()
	assert.Less(t, d.Seconds, 0)
	assert.True(t, d.Overtime)
	assert.Equal(t, "-00:45", d.Text)
	assert.False(t, e.State().Running)
	assert.Equal(t, 1, rec.count(CueExpired))

	running, err := store.Get(ctx, "timerRunning")
	require.NoError(t, err)
	assert.Equal(t, "false", running)

	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
	}
	assert.Never(t, func() bool { return rec.count(CueExpired) > 1 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestTickerExpiresRunningTimerOnce(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(kickoff)
	e, rec := newTestEngine(t, kvstore.NewMemory(), clock)
	require.NoError(t, e.Restore(ctx))
	require.NoError(t, e.Reset(ctx, 1))
	require.NoError(t, e.Start(ctx))

	clock.Advance(61 * time.Second)

	require.Eventually(t, func() bool { return rec.count(CueExpired) == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, e.State().Running)
	assert.True(t, e.Display().Overtime)

	clock.Advance(time.Second)
	clock.Advance(time.Second)
	assert.Never(t, func() bool { return rec.count(CueExpired) > 1 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestStaleTickIsIgnored(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(kickoff)
	e, rec := newTestEngine(t, kvstore.NewMemory(), clock)
	require.NoError(t, e.Restore(ctx))
	require.NoError(t, e.Reset(ctx, 1))
	require.NoError(t, e.Start(ctx))

	e.mu.Lock()
	staleGen := e.gen
	e.mu.Unlock()

	require.NoError(t, e.Pause(ctx))
	clock.Advance(2 * time.Minute)
	e.tick(staleGen)

	assert.Equal(t, 0, rec.count(CueExpired))
	assert.False(t, e.State().Running)
}

func TestInstancesAreIndependent(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(kickoff)
	store := kvstore.NewMemory()

	one := New("timer1", KeysFor(""), store, clock, nil)
	two := New("timer2", KeysFor("2"), store, clock, nil)
	t.Cleanup(one.Close)
	t.Cleanup(two.Close)
	require.NoError(t, one.Restore(ctx))
	require.NoError(t, two.Restore(ctx))

	require.NoError(t, one.Reset(ctx, 7))
	require.NoError(t, two.Start(ctx))

	assert.False(t, one.State().Running)
	assert.Equal(t, "07:00", one.Display().Text)
	assert.True(t, two.State().Running)
	assert.Equal(t, "20:00", two.Display().Text)

	running2, err := store.Get(ctx, "timerRunning2")
	require.NoError(t, err)
	assert.Equal(t, "true", running2)
	running1, err := store.Get(ctx, "timerRunning")
	require.NoError(t, err)
	assert.Equal(t, "false", running1)
}

func TestGroup(t *testing.T) {
	clock := clockwork.NewFakeClockAt(kickoff)
	store := kvstore.NewMemory()
	g := NewGroup(
		New("timer1", KeysFor(""), store, clock, nil),
		New("timer2", KeysFor("2"), store, clock, nil),
	)
	t.Cleanup(g.Close)

	require.NoError(t, g.RestoreAll(context.Background()))
	assert.Equal(t, []string{"timer1", "timer2"}, g.Names())

	_, err := g.Get("timer3")
	require.ErrorIs(t, err, ErrUnknownTimer)
}
