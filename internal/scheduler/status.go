package scheduler

import (
	"fmt"
	"strings"
	"time"
)

// Snapshot is a read-only view of scheduler state for machine consumers.
type Snapshot struct {
	State               string `json:"state"`
	Enabled             bool   `json:"enabled"`
	HasEverActivated    bool   `json:"has_ever_activated"`
	LastActivationEpoch int64  `json:"last_activation_epoch"`
	ClockAvailable      bool   `json:"clock_available"`
}

func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _, _, ok := s.clk.CalendarTime()
	return Snapshot{
		State:               string(s.state),
		Enabled:             s.enabled,
		HasEverActivated:    s.hasEverActivated,
		LastActivationEpoch: s.lastActivationEpoch,
		ClockAvailable:      ok,
	}
}

// RenderStatus produces a human-readable snapshot for the console and the
// STATUS command. Read-only.
func (s *Scheduler) RenderStatus() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder

	fmt.Fprintf(&b, "state: %s\n", s.state)
	fmt.Fprintf(&b, "enabled: %t\n", s.enabled)
	fmt.Fprintf(&b, "has_ever_activated: %t\n", s.hasEverActivated)
	fmt.Fprintf(&b, "active_window: %02d:00-%02d:00\n", s.policy.ActiveWindowStartHour, s.policy.ActiveWindowEndHour)

	hour, min, sec, ok := s.clk.CalendarTime()
	if !ok {
		b.WriteString("time: unavailable\n")
		return b.String()
	}
	fmt.Fprintf(&b, "time: %02d:%02d:%02d\n", hour, min, sec)

	epoch := s.clk.EpochSeconds()
	if !s.hasEverActivated {
		b.WriteString("last_activation: never\n")
		b.WriteString("next_eligible: immediately (when window opens)\n")
		return b.String()
	}

	since := time.Duration(epoch-s.lastActivationEpoch) * time.Second
	if since < 0 {
		// Wall clock stepped behind the recorded activation; treat the
		// cycle as having just run rather than printing a negative age.
		since = 0
	}
	fmt.Fprintf(&b, "last_activation: %s ago\n", since)

	remaining := s.policy.MistInterval - since
	if remaining <= 0 {
		b.WriteString("next_eligible: now (when window allows)\n")
	} else {
		fmt.Fprintf(&b, "next_eligible: in %s\n", remaining)
	}

	return b.String()
}
