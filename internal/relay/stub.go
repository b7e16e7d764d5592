//go:build !linux

package relay

import (
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/misting-controller/internal/model"
)

// GPIORelay on non-linux hosts only logs. Lets the daemon run for local
// development on a laptop.
type GPIORelay struct {
	pin model.GPIOPin
}

func NewGPIORelay(chipName string, pin model.GPIOPin) (*GPIORelay, error) {
	log.Warn().Str("chip", chipName).Int("pin", pin.Number).Msg("GPIO unavailable on this platform, relay writes are no-ops")
	return &GPIORelay{pin: pin}, nil
}

func (r *GPIORelay) TurnOn() {
	log.Info().Int("pin", r.pin.Number).Msg("stub relay on")
}

func (r *GPIORelay) TurnOff() {
	log.Info().Int("pin", r.pin.Number).Msg("stub relay off")
}

func (r *GPIORelay) Close() error { return nil }
