//go:build linux

package relay

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/warthog618/go-gpiocdev"

	"github.com/thatsimonsguy/misting-controller/internal/model"
)

// GPIORelay controls a relay line through the Linux GPIO character device.
type GPIORelay struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	pin  model.GPIOPin
}

// NewGPIORelay requests the relay line as an output, driven to the inactive
// level. The relay is guaranteed off once this returns.
func NewGPIORelay(chipName string, pin model.GPIOPin) (*GPIORelay, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	line, err := chip.RequestLine(pin.Number, gpiocdev.AsOutput(inactiveLevel(pin)))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request relay pin %d: %w", pin.Number, err)
	}

	return &GPIORelay{chip: chip, line: line, pin: pin}, nil
}

func (r *GPIORelay) TurnOn() {
	if safeMode {
		log.Warn().Int("pin", r.pin.Number).Msg("Safe mode: suppressing relay activation")
		return
	}
	if err := r.line.SetValue(activeLevel(r.pin)); err != nil {
		log.Error().Err(err).Int("pin", r.pin.Number).Msg("Failed to activate relay")
	}
}

func (r *GPIORelay) TurnOff() {
	if safeMode {
		return
	}
	if err := r.line.SetValue(inactiveLevel(r.pin)); err != nil {
		log.Error().Err(err).Int("pin", r.pin.Number).Msg("Failed to deactivate relay")
	}
}

// Close drives the line off and releases GPIO resources.
func (r *GPIORelay) Close() error {
	r.TurnOff()
	if err := r.line.Close(); err != nil {
		r.chip.Close()
		return fmt.Errorf("close relay line: %w", err)
	}
	return r.chip.Close()
}

func activeLevel(pin model.GPIOPin) int {
	if pin.ActiveHigh {
		return 1
	}
	return 0
}

func inactiveLevel(pin model.GPIOPin) int {
	if pin.ActiveHigh {
		return 0
	}
	return 1
}
