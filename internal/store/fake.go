package store

import "github.com/thatsimonsguy/misting-controller/internal/model"

// Fake is an in-memory store for tests. Errors can be scripted per
// direction to exercise fallback paths.
type Fake struct {
	State      model.PersistedState
	ReadError  error
	WriteError error
	Writes     int
}

// NewFake returns a fake holding the safe defaults.
func NewFake() *Fake {
	return &Fake{State: model.PersistedState{Enabled: true}}
}

func (f *Fake) LastActivationEpoch() (int64, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	return f.State.LastActivationEpoch, nil
}

func (f *Fake) HasEverActivated() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}
	return f.State.HasEverActivated, nil
}

func (f *Fake) Enabled() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}
	return f.State.Enabled, nil
}

func (f *Fake) WriteAll(epoch int64, hasEver, enabled bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.State = model.PersistedState{
		LastActivationEpoch: epoch,
		HasEverActivated:    hasEver,
		Enabled:             enabled,
	}
	f.Writes++
	return nil
}
