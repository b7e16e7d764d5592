// Package store persists scheduler state across power loss. The durable
// record is deliberately tiny (one row) and written rarely, since the
// underlying media on a Pi is a wear-limited SD card.
package store

// Store reads and writes the persisted scheduler record. Read methods
// return an error when the backing storage is unavailable; callers fall
// back to safe defaults.
type Store interface {
	LastActivationEpoch() (int64, error)
	HasEverActivated() (bool, error)
	Enabled() (bool, error)
	WriteAll(lastActivationEpoch int64, hasEverActivated, enabled bool) error
}

// Noop backs the scheduler when no state file is configured. Reads return
// the safe defaults: never activated, enabled.
type Noop struct{}

func (Noop) LastActivationEpoch() (int64, error) { return 0, nil }

func (Noop) HasEverActivated() (bool, error) { return false, nil }

func (Noop) Enabled() (bool, error) { return true, nil }

func (Noop) WriteAll(int64, bool, bool) error { return nil }
