package scheduler

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/misting-controller/internal/watchdog"
)

// Run drives the scheduler on a fixed cadence and feeds the watchdog on
// every tick. The loop is the sole periodic driver of Update.
func Run(s *Scheduler, interval time.Duration, wd *watchdog.Watchdog) {
	go func() {
		log.Info().Dur("interval", interval).Msg("Starting misting scheduler loop")

		for {
			s.Update()
			if wd != nil {
				wd.Feed()
			}
			time.Sleep(interval)
		}
	}()
}
