package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/thatsimonsguy/misting-controller/internal/model"
	"github.com/thatsimonsguy/misting-controller/internal/relay"
	"github.com/thatsimonsguy/misting-controller/internal/store"
)

// Bench utility: pulse the relay to verify wiring, or inspect/reset the
// persisted scheduler state without starting the daemon.
func main() {
	var command, dbPath, chip string
	var pin int
	var activeHigh bool
	var pulseMillis int
	flag.StringVar(&command, "cmd", "", "Command to run: pulse-relay, show-state, reset-state")
	flag.StringVar(&dbPath, "db", "data/mister.db", "Path to the SQLite state file")
	flag.StringVar(&chip, "chip", "gpiochip0", "GPIO chip name")
	flag.IntVar(&pin, "pin", -1, "Relay GPIO pin (pulse-relay)")
	flag.BoolVar(&activeHigh, "active-high", true, "Relay is active-high (pulse-relay)")
	flag.IntVar(&pulseMillis, "pulse-ms", 500, "Pulse length in milliseconds (pulse-relay)")
	help := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *help || command == "" {
		fmt.Println("\nUsage of mister-debug:")
		fmt.Println("  -cmd string\tCommand to run: pulse-relay, show-state, reset-state")
		fmt.Println("  -db string\tPath to the SQLite state file (default 'data/mister.db')")
		fmt.Println("  -chip string\tGPIO chip name (default 'gpiochip0')")
		fmt.Println("  -pin int\tRelay GPIO pin for pulse-relay")
		fmt.Println("  -active-high\tRelay is active-high (default true)")
		fmt.Println("  -pulse-ms int\tPulse length in milliseconds (default 500)")
		fmt.Println("  -help\tShow this help message")
		os.Exit(0)
	}

	var err error
	switch command {
	case "pulse-relay":
		if pin < 0 {
			fmt.Println("Error: -pin is required")
			os.Exit(1)
		}
		err = pulseRelay(chip, pin, activeHigh, time.Duration(pulseMillis)*time.Millisecond)
	case "show-state":
		err = showState(dbPath)
	case "reset-state":
		err = resetState(dbPath)
	default:
		fmt.Println("Invalid command")
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Command %s failed: %v\n", command, err)
		os.Exit(1)
	}
	fmt.Printf("Command %s completed successfully\n", command)
}

func pulseRelay(chip string, pin int, activeHigh bool, pulse time.Duration) error {
	r, err := relay.NewGPIORelay(chip, model.GPIOPin{Number: pin, ActiveHigh: activeHigh})
	if err != nil {
		return err
	}
	defer r.Close()

	r.TurnOn()
	time.Sleep(pulse)
	r.TurnOff()
	return nil
}

func showState(dbPath string) error {
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	epoch, err := s.LastActivationEpoch()
	if err != nil {
		return err
	}
	hasEver, err := s.HasEverActivated()
	if err != nil {
		return err
	}
	enabled, err := s.Enabled()
	if err != nil {
		return err
	}

	fmt.Printf("last_activation_epoch: %d\n", epoch)
	if epoch != 0 {
		fmt.Printf("last_activation_time: %s\n", time.Unix(epoch, 0).Format(time.RFC3339))
	}
	fmt.Printf("has_ever_activated: %t\n", hasEver)
	fmt.Printf("enabled: %t\n", enabled)
	return nil
}

func resetState(dbPath string) error {
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	return s.WriteAll(0, false, true)
}
