package scheduler

import "github.com/thatsimonsguy/misting-controller/internal/model"

type EventType string

const (
	EventActivationStart    EventType = "ACTIVATION_START"
	EventActivationComplete EventType = "ACTIVATION_COMPLETE"
	EventFailsafeCutoff     EventType = "FAILSAFE_CUTOFF"
	EventEnabledChanged     EventType = "ENABLED_CHANGED"
)

// Event describes a state-changing scheduler occurrence for external
// consumers (MQTT, logs). Epoch is 0 when the clock was unavailable.
type Event struct {
	Type    EventType
	Epoch   int64
	State   model.SchedulerState
	Enabled *bool // set for ENABLED_CHANGED only
}

// EventSink receives events synchronously from the scheduler. Sinks must
// not block and must not call back into the scheduler.
type EventSink func(Event)
