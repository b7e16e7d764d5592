// Package relay drives the mister's relay. The real implementation uses the
// Linux GPIO character device; a fake is provided for tests and a stub for
// non-linux builds.
package relay

// Actuator is a binary on/off device. Calls are fire-and-forget and
// non-blocking; the relay board either follows or the failsafe catches it.
type Actuator interface {
	TurnOn()
	TurnOff()
}

var safeMode bool

// SetSafeMode disables all relay writes system-wide. Used for dry runs on a
// bench without the pump wired up.
func SetSafeMode(enabled bool) {
	safeMode = enabled
}

func SafeMode() bool {
	return safeMode
}
