package model

type SchedulerState string

const (
	StateWaitingForClock SchedulerState = "waiting_for_clock"
	StateIdle            SchedulerState = "idle"
	StateActive          SchedulerState = "active"
)

// PersistedState is the durable snapshot of scheduling state that survives
// power loss. LastActivationEpoch is seconds since the Unix epoch, 0 = never.
type PersistedState struct {
	LastActivationEpoch int64 `json:"last_activation_epoch"`
	HasEverActivated    bool  `json:"has_ever_activated"`
	Enabled             bool  `json:"enabled"`
}

type GPIOPin struct {
	Number     int  `json:"number"`
	ActiveHigh bool `json:"active_high"`
}
