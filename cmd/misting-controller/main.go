package main

import (
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/misting-controller/internal/api"
	"github.com/thatsimonsguy/misting-controller/internal/clock"
	"github.com/thatsimonsguy/misting-controller/internal/config"
	"github.com/thatsimonsguy/misting-controller/internal/console"
	"github.com/thatsimonsguy/misting-controller/internal/datadog"
	"github.com/thatsimonsguy/misting-controller/internal/env"
	"github.com/thatsimonsguy/misting-controller/internal/logging"
	"github.com/thatsimonsguy/misting-controller/internal/model"
	"github.com/thatsimonsguy/misting-controller/internal/mqtt"
	"github.com/thatsimonsguy/misting-controller/internal/notifications"
	"github.com/thatsimonsguy/misting-controller/internal/relay"
	"github.com/thatsimonsguy/misting-controller/internal/scheduler"
	"github.com/thatsimonsguy/misting-controller/internal/store"
	"github.com/thatsimonsguy/misting-controller/internal/watchdog"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.LogLevel, cfg.LogFile)
	env.Cfg = &cfg

	log.Info().
		Int("relay_gpio", *cfg.RelayGPIO).
		Str("state_db", cfg.StateDBFile).
		Msg("Starting misting controller")

	relay.SetSafeMode(cfg.SafeMode)
	if cfg.SafeMode {
		log.Warn().Msg("SAFE MODE ENABLED — relay writes are disabled system-wide")
	}

	if cfg.EnableDatadog {
		datadog.InitMetrics()
	}
	notifications.Init()

	rly, err := relay.NewGPIORelay(cfg.GPIOChip, model.GPIOPin{
		Number:     *cfg.RelayGPIO,
		ActiveHigh: cfg.RelayActiveHigh,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Refusing to start without control of the relay pin")
	}

	var st store.Store = store.Noop{}
	if cfg.StateDBFile != "" {
		sqliteStore, err := store.NewSQLiteStore(cfg.StateDBFile)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to open state database, running without persistence")
		} else {
			defer sqliteStore.Close()
			st = sqliteStore
		}
	} else {
		log.Warn().Msg("No state database configured, scheduler state will not survive restarts")
	}

	var publisher mqtt.Publisher
	if cfg.MQTTBroker != "" {
		broker, err := mqtt.NewRealPublisher(cfg.MQTTBroker)
		if err != nil {
			log.Warn().Err(err).Str("broker", cfg.MQTTBroker).Msg("MQTT unavailable, events will not be published")
		} else {
			// The sink runs inside the scheduler tick, so broker delivery
			// happens on the async worker, never in the poll loop.
			publisher = mqtt.NewAsyncPublisher(broker, 64)
		}
	}

	opts := []scheduler.Option{}
	if publisher != nil {
		opts = append(opts, scheduler.WithEventSink(func(e scheduler.Event) {
			// Enqueue only; drops are logged by the publisher itself.
			_ = publisher.Publish(e)
		}))
	}

	clk := clock.NewSystemClock()
	sched := scheduler.New(clk, rly, st, policyFromConfig(cfg), opts...)

	wd := watchdog.New(time.Duration(cfg.WatchdogTimeoutSeconds) * time.Second)

	// State is loaded once the clock is trusted, then the poll loop starts.
	go func() {
		for {
			if _, _, _, ok := clk.CalendarTime(); ok {
				break
			}
			log.Info().Msg("Waiting for wall clock sync")
			time.Sleep(time.Second)
		}

		sched.LoadState()
		scheduler.Run(sched, time.Duration(cfg.PollIntervalMillis)*time.Millisecond, wd)
		wd.Monitor()
	}()

	if cfg.ConsoleAddr != "" {
		ln, err := net.Listen("tcp", cfg.ConsoleAddr)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.ConsoleAddr).Msg("Failed to open console listener")
		}
		console.New(sched).Serve(ln)
	}

	if cfg.APIPort != 0 {
		go func() {
			if err := api.NewServer(sched).Start(cfg.APIPort); err != nil {
				log.Fatal().Err(err).Msg("API server failed")
			}
		}()
	}

	if publisher != nil {
		if err := publisher.PublishSystem("STARTUP"); err != nil {
			log.Warn().Err(err).Msg("Failed to publish startup event")
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	received := <-sig

	log.Info().Str("signal", received.String()).Msg("Shutting down")

	if publisher != nil {
		if err := publisher.PublishSystem("SHUTDOWN"); err != nil {
			log.Warn().Err(err).Msg("Failed to publish shutdown event")
		}
		publisher.Close()
	}

	// Relay is left off no matter what state the scheduler was in.
	if err := rly.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to release relay pin")
	}
}

func policyFromConfig(cfg config.Config) scheduler.Policy {
	policy := scheduler.DefaultPolicy()
	policy.ActiveWindowStartHour = cfg.ActiveWindowStartHour
	policy.ActiveWindowEndHour = cfg.ActiveWindowEndHour
	policy.MistDuration = time.Duration(cfg.MistDurationMillis) * time.Millisecond
	policy.MistInterval = time.Duration(cfg.MistIntervalSeconds) * time.Second
	return policy
}
