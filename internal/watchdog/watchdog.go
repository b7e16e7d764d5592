// Package watchdog is a software deadman for the poll loop. The loop feeds
// it every tick; if feeds stop, something is wedged and the operator needs
// to hear about it.
package watchdog

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/misting-controller/internal/notifications"
)

type Watchdog struct {
	mu      sync.Mutex
	lastFed time.Time
	timeout time.Duration
	starved bool
}

func New(timeout time.Duration) *Watchdog {
	return &Watchdog{
		lastFed: time.Now(),
		timeout: timeout,
	}
}

// Feed marks the loop as alive. Called from the poll loop every tick.
func (w *Watchdog) Feed() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastFed = time.Now()
	if w.starved {
		w.starved = false
		log.Info().Msg("Watchdog fed again, loop recovered")
	}
}

// Starved reports whether the loop has missed its feeding deadline.
func (w *Watchdog) Starved() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return time.Since(w.lastFed) > w.timeout
}

// Monitor starts the starvation check loop.
func (w *Watchdog) Monitor() {
	go func() {
		for {
			time.Sleep(w.timeout / 2)

			w.mu.Lock()
			elapsed := time.Since(w.lastFed)
			alreadyStarved := w.starved
			if elapsed > w.timeout {
				w.starved = true
			}
			w.mu.Unlock()

			if elapsed > w.timeout && !alreadyStarved {
				log.Error().
					Dur("since_last_feed", elapsed).
					Dur("timeout", w.timeout).
					Msg("Watchdog starved: scheduler loop is not running")

				if err := notifications.Alert("Mister watchdog starved",
					"The scheduler loop has stopped ticking",
					notifications.PriorityHigh, "mister", "watchdog"); err != nil {
					log.Debug().Err(err).Msg("Watchdog notification not sent")
				}
			}
		}
	}()
}
