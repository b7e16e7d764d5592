package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

type Config struct {
	ConfigFile string
	LogLevel   zerolog.Level
	LogFile    string

	// SafeMode disables all relay writes system-wide
	SafeMode bool `json:"safe_mode"`

	RelayGPIO       *int   `json:"relay_gpio"`
	RelayActiveHigh bool   `json:"relay_active_high"`
	GPIOChip        string `json:"gpio_chip"`

	PollIntervalMillis int `json:"poll_interval_millis"`

	ActiveWindowStartHour int   `json:"active_window_start_hour"`
	ActiveWindowEndHour   int   `json:"active_window_end_hour"`
	MistDurationMillis    int64 `json:"mist_duration_millis"`
	MistIntervalSeconds   int64 `json:"mist_interval_seconds"`

	WatchdogTimeoutSeconds int `json:"watchdog_timeout_seconds"`

	// StateDBFile is the sqlite file holding persisted scheduler state.
	// Empty disables persistence entirely.
	StateDBFile string `json:"state_db_file"`

	ConsoleAddr string `json:"console_addr"`
	APIPort     int    `json:"api_port"`

	MQTTBroker string `json:"mqtt_broker"`

	EnableDatadog bool     `json:"enable_datadog"`
	DDAgentAddr   string   `json:"dd_agent_addr"`
	DDNamespace   string   `json:"dd_namespace"`
	DDTags        []string `json:"dd_tags"`

	// NtfyServer overrides the public ntfy.sh instance, for self-hosted
	// deployments on the garden LAN.
	NtfyServer string `json:"ntfy_server"`
	NtfyTopic  string `json:"ntfy_topic"`
}

func Load() Config {
	var cfg Config
	var logLevel string

	flag.StringVar(&cfg.ConfigFile, "config-file", "config.json", "Path to controller config file")
	flag.StringVar(&cfg.LogFile, "log-file", "", "Optional log file path in addition to stderr")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	cfg.LogLevel = parseLogLevel(logLevel)

	file, err := os.Open(cfg.ConfigFile)
	if err != nil {
		panic("Failed to load config file: " + err.Error())
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		panic("Failed to parse config file: " + err.Error())
	}

	cfg.applyDefaults()
	cfg.validate()
	return cfg
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (cfg *Config) applyDefaults() {
	if cfg.GPIOChip == "" {
		cfg.GPIOChip = "gpiochip0"
	}
	if cfg.PollIntervalMillis == 0 {
		cfg.PollIntervalMillis = 100
	}
	if cfg.ActiveWindowStartHour == 0 && cfg.ActiveWindowEndHour == 0 {
		cfg.ActiveWindowStartHour = 9
		cfg.ActiveWindowEndHour = 18
	}
	if cfg.MistDurationMillis == 0 {
		cfg.MistDurationMillis = 25000
	}
	if cfg.MistIntervalSeconds == 0 {
		cfg.MistIntervalSeconds = 7200
	}
	if cfg.WatchdogTimeoutSeconds == 0 {
		cfg.WatchdogTimeoutSeconds = 10
	}
}

func (cfg *Config) validate() {
	if cfg.RelayGPIO == nil {
		panic("Missing required config field: relay_gpio")
	}
	if cfg.ActiveWindowStartHour < 0 || cfg.ActiveWindowEndHour > 24 ||
		cfg.ActiveWindowStartHour >= cfg.ActiveWindowEndHour {
		panic(fmt.Sprintf("Invalid active window: [%d, %d)", cfg.ActiveWindowStartHour, cfg.ActiveWindowEndHour))
	}
	if cfg.MistDurationMillis <= 0 {
		panic("mist_duration_millis must be positive")
	}
	if cfg.MistIntervalSeconds <= 0 {
		panic("mist_interval_seconds must be positive")
	}
}
