// Package scheduler is the misting state machine: one relay, one daily
// window, one duration, one minimum interval. It owns the actuator
// exclusively and orchestrates persistence around activation cycles.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/misting-controller/internal/clock"
	"github.com/thatsimonsguy/misting-controller/internal/datadog"
	"github.com/thatsimonsguy/misting-controller/internal/model"
	"github.com/thatsimonsguy/misting-controller/internal/notifications"
	"github.com/thatsimonsguy/misting-controller/internal/relay"
	"github.com/thatsimonsguy/misting-controller/internal/store"
)

// Policy holds the immutable scheduling constants.
type Policy struct {
	ActiveWindowStartHour int
	ActiveWindowEndHour   int // exclusive
	MistDuration          time.Duration
	MistInterval          time.Duration // measured in epoch seconds, not uptime

	// FailsafeMultiplier caps an activation at N times the configured
	// duration before the relay is forced off unconditionally.
	FailsafeMultiplier int

	ClockJumpWarnThreshold time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		ActiveWindowStartHour:  9,
		ActiveWindowEndHour:    18,
		MistDuration:           25 * time.Second,
		MistInterval:           2 * time.Hour,
		FailsafeMultiplier:     3,
		ClockJumpWarnThreshold: 5 * time.Minute,
	}
}

// Scheduler advances through waiting_for_clock -> idle -> active. The relay
// is on iff the state is active. Methods are serialized internally: the
// poll loop, the console, and the REST API all call into the same instance.
type Scheduler struct {
	mu sync.Mutex

	clk      clock.Clock
	actuator relay.Actuator
	store    store.Store
	policy   Policy
	events   EventSink

	state               model.SchedulerState
	enabled             bool
	hasEverActivated    bool
	lastActivationEpoch int64

	// activeSinceUptime measures the running activation against uptime so
	// that a wall-clock correction mid-cycle cannot stretch or cut it.
	activeSinceUptime int64

	// lastObservedEpoch detects large clock jumps between ticks. Purely
	// observational; scheduling arithmetic self-corrects on epoch time.
	lastObservedEpoch int64
}

type Option func(*Scheduler)

// WithEventSink registers a callback invoked on every state-changing event.
func WithEventSink(sink EventSink) Option {
	return func(s *Scheduler) {
		s.events = sink
	}
}

// New creates the scheduler and forces the actuator off before any other
// logic runs. The relay board's power-on default must never be
// reconstructed as "on", no matter what was persisted.
func New(clk clock.Clock, actuator relay.Actuator, st store.Store, policy Policy, opts ...Option) *Scheduler {
	actuator.TurnOff()

	s := &Scheduler{
		clk:      clk,
		actuator: actuator,
		store:    st,
		policy:   policy,
		state:    model.StateWaitingForClock,
		enabled:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadState adopts the persisted record into runtime fields. Call once,
// after the clock is available and before the first update that could
// activate; read failures fall back to the defaults that err toward an
// extra misting rather than a missed one.
func (s *Scheduler) LoadState() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == model.StateActive {
		log.Warn().Msg("LoadState called during an active cycle - runtime fields will be overwritten")
	}

	epoch, err := s.store.LastActivationEpoch()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read last activation time, defaulting to never")
		epoch = 0
	}

	hasEver, err := s.store.HasEverActivated()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read activation history flag, defaulting to false")
		hasEver = false
	}

	enabled, err := s.store.Enabled()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read enabled flag, defaulting to enabled")
		enabled = true
	}

	s.lastActivationEpoch = epoch
	s.hasEverActivated = hasEver
	s.enabled = enabled

	log.Info().
		Int64("last_activation_epoch", epoch).
		Bool("has_ever_activated", hasEver).
		Bool("enabled", enabled).
		Msg("Loaded persisted scheduler state")
}

// Update advances the state machine by one tick. Safe to call on any
// cadence; a tick where no time has passed is a no-op.
func (s *Scheduler) Update() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.observeClockJump()

	switch s.state {
	case model.StateWaitingForClock:
		if _, _, _, ok := s.clk.CalendarTime(); ok {
			s.state = model.StateIdle
			log.Info().Msg("Clock acquired, scheduler idle")
			// re-evaluate idle conditions within the same tick
			s.evaluateIdle()
		}

	case model.StateIdle:
		s.evaluateIdle()

	case model.StateActive:
		elapsed := s.clk.UptimeMillis() - s.activeSinceUptime
		failsafeLimit := int64(s.policy.FailsafeMultiplier) * s.policy.MistDuration.Milliseconds()

		if elapsed >= failsafeLimit {
			s.failsafeStop(elapsed)
		} else if elapsed >= s.policy.MistDuration.Milliseconds() {
			s.completeActivation(elapsed)
		}
	}
}

func (s *Scheduler) evaluateIdle() {
	if s.enabled && s.shouldActivate() {
		s.startActivation("auto")
	}
}

// shouldActivate is the pure activation predicate. Missing time information
// always fails closed: absence of a clock is never "in window".
func (s *Scheduler) shouldActivate() bool {
	hour, _, _, ok := s.clk.CalendarTime()
	if !ok {
		return false
	}
	if hour < s.policy.ActiveWindowStartHour || hour >= s.policy.ActiveWindowEndHour {
		return false
	}
	if s.state != model.StateIdle {
		return false
	}

	if !s.hasEverActivated {
		return true
	}

	epoch := s.clk.EpochSeconds()
	if epoch == 0 {
		return false
	}
	return epoch-s.lastActivationEpoch >= int64(s.policy.MistInterval.Seconds())
}

func (s *Scheduler) startActivation(trigger string) {
	s.actuator.TurnOn()
	s.activeSinceUptime = s.clk.UptimeMillis()
	s.lastActivationEpoch = s.clk.EpochSeconds()
	s.hasEverActivated = true
	s.state = model.StateActive

	log.Info().
		Str("trigger", trigger).
		Int64("epoch", s.lastActivationEpoch).
		Msg("MIST START")

	datadog.Count("mister.activation", 1, "trigger:"+trigger)
	s.emit(Event{Type: EventActivationStart, Epoch: s.lastActivationEpoch, State: s.state})
}

func (s *Scheduler) completeActivation(elapsedMillis int64) {
	s.actuator.TurnOff()
	s.state = model.StateIdle

	log.Info().
		Int64("elapsed_ms", elapsedMillis).
		Msg("MIST COMPLETE")

	datadog.Gauge("mister.cycle_duration_ms", float64(elapsedMillis))
	s.persist()
	s.emit(Event{Type: EventActivationComplete, Epoch: s.clk.EpochSeconds(), State: s.state})
}

// failsafeStop forces the relay off after a gross duration overrun. The
// cycle is treated as anomalous and is not persisted, so scheduling
// arithmetic from before the anomaly stays authoritative.
func (s *Scheduler) failsafeStop(elapsedMillis int64) {
	s.actuator.TurnOff()
	s.state = model.StateIdle

	log.Error().
		Int64("elapsed_ms", elapsedMillis).
		Int64("expected_ms", s.policy.MistDuration.Milliseconds()).
		Msg("FAILSAFE: mist duration overrun, forcing relay off")

	datadog.Count("mister.failsafe_cutoff", 1)

	// Update must not wait on the network while holding the lock; the
	// relay is already off by the time the alert goes out.
	body := fmt.Sprintf("Relay forced off after %dms (expected %dms)", elapsedMillis, s.policy.MistDuration.Milliseconds())
	go func() {
		if err := notifications.Alert("Mister failsafe triggered", body,
			notifications.PriorityUrgent, "mister", "failsafe"); err != nil {
			log.Debug().Err(err).Msg("Failsafe notification not sent")
		}
	}()

	s.emit(Event{Type: EventFailsafeCutoff, Epoch: s.clk.EpochSeconds(), State: s.state})
}

// ForceTrigger requests an immediate, policy-bypassing activation. Rejected
// while already active or while the scheduler is disabled.
func (s *Scheduler) ForceTrigger() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled {
		log.Warn().Msg("ERROR: Scheduler disabled, cannot force")
		return fmt.Errorf("scheduler is disabled")
	}
	if s.state == model.StateActive {
		log.Warn().Msg("ERROR: Already misting, cannot force")
		return fmt.Errorf("already misting")
	}

	s.startActivation("manual")
	return nil
}

func (s *Scheduler) State() model.SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) IsEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetEnabled toggles automatic scheduling and always persists the new
// value. Enabling while waiting for the clock promotes to idle immediately
// if the clock has since become available, so a manual recovery does not
// have to wait for the next tick.
func (s *Scheduler) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enabled = enabled

	if enabled && s.state == model.StateWaitingForClock {
		if _, _, _, ok := s.clk.CalendarTime(); ok {
			s.state = model.StateIdle
			log.Info().Msg("Clock available on enable, scheduler idle")
		}
	}

	s.persist()

	log.Info().Bool("enabled", enabled).Msg("Scheduler enabled flag changed")
	s.emit(Event{Type: EventEnabledChanged, Epoch: s.clk.EpochSeconds(), State: s.state, Enabled: &enabled})
}

// persist writes the durable record. Write failures are logged and
// swallowed: the in-memory change must stand even if the SD card is sick.
func (s *Scheduler) persist() {
	if err := s.store.WriteAll(s.lastActivationEpoch, s.hasEverActivated, s.enabled); err != nil {
		log.Warn().Err(err).Msg("Failed to persist scheduler state")
	}
}

func (s *Scheduler) observeClockJump() {
	epoch := s.clk.EpochSeconds()
	if epoch == 0 {
		return
	}
	if s.lastObservedEpoch != 0 {
		delta := epoch - s.lastObservedEpoch
		if delta < 0 {
			delta = -delta
		}
		if delta > int64(s.policy.ClockJumpWarnThreshold.Seconds()) {
			log.Warn().
				Int64("previous_epoch", s.lastObservedEpoch).
				Int64("current_epoch", epoch).
				Int64("delta_seconds", delta).
				Msg("Large clock jump observed")
		}
	}
	s.lastObservedEpoch = epoch
}

func (s *Scheduler) emit(e Event) {
	if s.events != nil {
		s.events(e)
	}
}
