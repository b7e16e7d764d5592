package scheduler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/misting-controller/internal/clock"
	"github.com/thatsimonsguy/misting-controller/internal/model"
	"github.com/thatsimonsguy/misting-controller/internal/relay"
	"github.com/thatsimonsguy/misting-controller/internal/store"
)

func newTestScheduler(hour int, opts ...Option) (*Scheduler, *clock.Fake, *relay.Fake, *store.Fake) {
	clk := clock.NewFake(hour)
	rly := &relay.Fake{}
	st := store.NewFake()
	s := New(clk, rly, st, DefaultPolicy(), opts...)
	return s, clk, rly, st
}

func TestInitialStateIsWaitingForClock(t *testing.T) {
	clk := clock.NewFake(10)
	clk.Available = false

	s := New(clk, &relay.Fake{}, store.NewFake(), DefaultPolicy())

	assert.Equal(t, model.StateWaitingForClock, s.State())
}

func TestConstructorForcesActuatorOff(t *testing.T) {
	// The relay board may power on with the output latched on. The
	// scheduler must never reconstruct that as "active".
	clk := clock.NewFake(10)
	rly := &relay.Fake{On: true}
	st := store.NewFake()
	st.State = model.PersistedState{LastActivationEpoch: 12345, HasEverActivated: true, Enabled: true}

	New(clk, rly, st, DefaultPolicy())

	assert.False(t, rly.On)
	assert.Equal(t, 1, rly.OffCalls)
}

func TestStaysWaitingWhileClockUnavailable(t *testing.T) {
	s, clk, rly, _ := newTestScheduler(10)
	clk.Available = false

	s.Update()
	s.Update()

	assert.Equal(t, model.StateWaitingForClock, s.State())
	assert.False(t, rly.On)
}

func TestClockAcquisitionOutsideWindow(t *testing.T) {
	// Scenario A: clock unavailable at start, becomes available at hour 8.
	s, clk, rly, _ := newTestScheduler(8)
	clk.Available = false

	s.Update()
	require.Equal(t, model.StateWaitingForClock, s.State())

	clk.Available = true
	s.Update()

	assert.Equal(t, model.StateIdle, s.State())
	assert.False(t, rly.On)
}

func TestClockAcquisitionInWindowActivatesSameTick(t *testing.T) {
	// Waiting -> Idle must re-evaluate idle conditions within the same
	// update call, not wait for the next tick.
	s, clk, rly, _ := newTestScheduler(10)
	clk.Available = false

	s.Update()
	clk.Available = true
	s.Update()

	assert.Equal(t, model.StateActive, s.State())
	assert.True(t, rly.On)
}

func TestFirstActivationSkipsIntervalCheck(t *testing.T) {
	// Scenario B: in window, never activated, one tick.
	s, clk, rly, _ := newTestScheduler(10)

	s.Update()

	assert.Equal(t, model.StateActive, s.State())
	assert.True(t, rly.On)
	assert.Equal(t, clk.Epoch, s.Snapshot().LastActivationEpoch)
}

func TestActivationCompletesAfterDuration(t *testing.T) {
	// Scenario C: advance uptime by the mist duration.
	s, clk, rly, st := newTestScheduler(10)

	s.Update()
	require.Equal(t, model.StateActive, s.State())

	clk.AdvanceMillis(25000)
	s.Update()

	assert.Equal(t, model.StateIdle, s.State())
	assert.False(t, rly.On)
	assert.Equal(t, 1, st.Writes)
	assert.True(t, st.State.HasEverActivated)
}

func TestNoPersistAtActivationStart(t *testing.T) {
	s, _, _, st := newTestScheduler(10)

	s.Update()
	require.Equal(t, model.StateActive, s.State())

	assert.Equal(t, 0, st.Writes)
}

func TestIntervalGatesSecondActivation(t *testing.T) {
	// Scenarios D and E back to back.
	s, clk, rly, _ := newTestScheduler(10)

	s.Update()
	clk.AdvanceMillis(25000)
	s.Update()
	require.Equal(t, model.StateIdle, s.State())

	start := s.Snapshot().LastActivationEpoch

	// One hour later: interval not met.
	clk.Epoch = start + 3600
	s.Update()
	assert.Equal(t, model.StateIdle, s.State())
	assert.False(t, rly.On)

	// Exactly two hours since the last activation: eligible again.
	clk.Epoch = start + 7200
	s.Update()
	assert.Equal(t, model.StateActive, s.State())
	assert.True(t, rly.On)
}

func TestNoActivationOutsideWindow(t *testing.T) {
	tests := []struct {
		name    string
		hour    int
		hasEver bool
	}{
		{"before window, never activated", 8, false},
		{"at window end, never activated", 18, false},
		{"late evening, interval long met", 22, true},
		{"midnight", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, clk, rly, st := newTestScheduler(tt.hour)
			if tt.hasEver {
				st.State = model.PersistedState{LastActivationEpoch: clk.Epoch - 100000, HasEverActivated: true, Enabled: true}
				s.LoadState()
			}

			s.Update()

			assert.Equal(t, model.StateIdle, s.State())
			assert.False(t, rly.On)
		})
	}
}

func TestFailsClosedWhenClockDropsOut(t *testing.T) {
	s, clk, rly, _ := newTestScheduler(8)

	s.Update()
	require.Equal(t, model.StateIdle, s.State())

	// Clock drops out mid-session; absence of time is never "in window".
	clk.Available = false
	s.Update()

	assert.Equal(t, model.StateIdle, s.State())
	assert.False(t, rly.On)
}

func TestForceTriggerBypassesWindow(t *testing.T) {
	s, _, rly, _ := newTestScheduler(20)

	s.Update()
	require.Equal(t, model.StateIdle, s.State())

	err := s.ForceTrigger()

	require.NoError(t, err)
	assert.Equal(t, model.StateActive, s.State())
	assert.True(t, rly.On)
	assert.True(t, s.Snapshot().HasEverActivated)
}

func TestForceTriggerRejectedWhileActive(t *testing.T) {
	s, _, rly, _ := newTestScheduler(10)

	s.Update()
	require.Equal(t, model.StateActive, s.State())
	startEpoch := s.Snapshot().LastActivationEpoch
	onCalls := rly.OnCalls

	err := s.ForceTrigger()

	assert.Error(t, err)
	assert.Equal(t, model.StateActive, s.State())
	assert.Equal(t, startEpoch, s.Snapshot().LastActivationEpoch)
	assert.Equal(t, onCalls, rly.OnCalls)
}

func TestForceTriggerRejectedWhileDisabled(t *testing.T) {
	s, _, rly, _ := newTestScheduler(10)
	s.SetEnabled(false)

	err := s.ForceTrigger()

	assert.Error(t, err)
	assert.NotEqual(t, model.StateActive, s.State())
	assert.Equal(t, 0, rly.OnCalls)
}

func TestForceTriggerAfterReEnable(t *testing.T) {
	// Scenario F: disable blocks force, re-enable allows it even outside
	// the window.
	s, _, rly, _ := newTestScheduler(20)
	s.Update()

	s.SetEnabled(false)
	require.Error(t, s.ForceTrigger())
	require.Equal(t, 0, rly.OnCalls)

	s.SetEnabled(true)
	require.NoError(t, s.ForceTrigger())
	assert.Equal(t, model.StateActive, s.State())
	assert.True(t, rly.On)
}

func TestDisabledSuppressesAutomaticActivation(t *testing.T) {
	s, _, rly, _ := newTestScheduler(10)
	s.SetEnabled(false)

	s.Update()
	s.Update()

	assert.NotEqual(t, model.StateActive, s.State())
	assert.False(t, rly.On)
}

func TestSetEnabledAlwaysPersists(t *testing.T) {
	s, _, _, st := newTestScheduler(8)

	s.SetEnabled(false)
	assert.Equal(t, 1, st.Writes)
	assert.False(t, st.State.Enabled)

	s.SetEnabled(true)
	assert.Equal(t, 2, st.Writes)
	assert.True(t, st.State.Enabled)
}

func TestSetEnabledPromotesFromWaitingWhenClockReady(t *testing.T) {
	s, clk, _, _ := newTestScheduler(8)
	clk.Available = false
	s.Update()
	require.Equal(t, model.StateWaitingForClock, s.State())

	// Clock came back, but no update has run since. Enabling must promote
	// to idle in the same call.
	clk.Available = true
	s.SetEnabled(true)

	assert.Equal(t, model.StateIdle, s.State())
}

func TestSetEnabledStaysWaitingWithoutClock(t *testing.T) {
	s, clk, _, _ := newTestScheduler(8)
	clk.Available = false
	s.Update()

	s.SetEnabled(true)

	assert.Equal(t, model.StateWaitingForClock, s.State())
}

func TestFailsafeCutoff(t *testing.T) {
	var events []Event
	s, clk, rly, st := newTestScheduler(10, WithEventSink(func(e Event) {
		events = append(events, e)
	}))

	s.Update()
	require.Equal(t, model.StateActive, s.State())

	// The loop stalls and wakes up past three durations.
	clk.AdvanceMillis(75000)
	s.Update()

	assert.Equal(t, model.StateIdle, s.State())
	assert.False(t, rly.On)
	// anomalous cycle is not persisted
	assert.Equal(t, 0, st.Writes)

	require.Len(t, events, 2)
	assert.Equal(t, EventActivationStart, events[0].Type)
	assert.Equal(t, EventFailsafeCutoff, events[1].Type)
}

func TestLoadStateAdoptsPersistedRecord(t *testing.T) {
	s, clk, rly, st := newTestScheduler(10)
	st.State = model.PersistedState{
		LastActivationEpoch: clk.Epoch - 3600,
		HasEverActivated:    true,
		Enabled:             true,
	}

	s.LoadState()
	s.Update()

	// Last cycle was an hour ago per the persisted record: not eligible.
	assert.Equal(t, model.StateIdle, s.State())
	assert.False(t, rly.On)

	snap := s.Snapshot()
	assert.True(t, snap.HasEverActivated)
	assert.Equal(t, clk.Epoch-3600, snap.LastActivationEpoch)
}

func TestLoadStateDefaultsOnReadFailure(t *testing.T) {
	s, _, _, st := newTestScheduler(10)
	st.ReadError = errors.New("nvs gone")

	s.LoadState()

	snap := s.Snapshot()
	assert.True(t, snap.Enabled)
	assert.False(t, snap.HasEverActivated)
	assert.Equal(t, int64(0), snap.LastActivationEpoch)
}

func TestLoadStateDisabledSurvivesRestart(t *testing.T) {
	s, _, rly, st := newTestScheduler(10)
	st.State = model.PersistedState{Enabled: false}

	s.LoadState()
	s.Update()

	assert.False(t, s.IsEnabled())
	assert.False(t, rly.On)
}

func TestWriteFailureDoesNotBlockDisable(t *testing.T) {
	s, _, _, st := newTestScheduler(10)
	st.WriteError = errors.New("disk full")

	s.SetEnabled(false)

	assert.False(t, s.IsEnabled())
}

func TestActuatorOnIffActive(t *testing.T) {
	s, clk, rly, _ := newTestScheduler(10)

	check := func() {
		t.Helper()
		assert.Equal(t, s.State() == model.StateActive, rly.On)
	}

	clk.Available = false
	s.Update()
	check()

	clk.Available = true
	s.Update() // activates
	check()

	clk.AdvanceMillis(10000)
	s.Update() // still running
	check()

	clk.AdvanceMillis(15000)
	s.Update() // completes
	check()

	clk.Epoch += 7200
	s.Update() // second cycle
	check()
}

func TestRepeatedUpdatesAreIdempotentWithoutTimePassing(t *testing.T) {
	s, _, rly, st := newTestScheduler(10)

	s.Update()
	require.Equal(t, model.StateActive, s.State())

	for i := 0; i < 50; i++ {
		s.Update()
	}

	assert.Equal(t, model.StateActive, s.State())
	assert.Equal(t, 1, rly.OnCalls)
	assert.Equal(t, 0, st.Writes)
}

func TestForwardClockJumpSelfCorrects(t *testing.T) {
	s, clk, _, _ := newTestScheduler(10)

	s.Update()
	clk.AdvanceMillis(25000)
	s.Update()
	require.Equal(t, model.StateIdle, s.State())

	// NTP correction leaps the epoch well past the interval. The policy
	// reads epoch time directly, so the next check is simply eligible.
	clk.Epoch += 10000
	s.Update()

	assert.Equal(t, model.StateActive, s.State())
}

func TestBackwardClockJumpDelaysNextCycle(t *testing.T) {
	s, clk, _, _ := newTestScheduler(10)

	s.Update()
	clk.AdvanceMillis(25000)
	s.Update()
	require.Equal(t, model.StateIdle, s.State())

	clk.Epoch -= 5000
	s.Update()

	assert.Equal(t, model.StateIdle, s.State())
}

func TestEnabledChangeEmitsEvent(t *testing.T) {
	var events []Event
	s, _, _, _ := newTestScheduler(8, WithEventSink(func(e Event) {
		events = append(events, e)
	}))

	s.SetEnabled(false)

	require.Len(t, events, 1)
	assert.Equal(t, EventEnabledChanged, events[0].Type)
	require.NotNil(t, events[0].Enabled)
	assert.False(t, *events[0].Enabled)
}

func TestCompleteCycleEmitsStartAndComplete(t *testing.T) {
	var events []Event
	s, clk, _, _ := newTestScheduler(10, WithEventSink(func(e Event) {
		events = append(events, e)
	}))

	s.Update()
	clk.AdvanceMillis(25000)
	s.Update()

	require.Len(t, events, 2)
	assert.Equal(t, EventActivationStart, events[0].Type)
	assert.Equal(t, EventActivationComplete, events[1].Type)
}
