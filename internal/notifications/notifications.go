// Package notifications pushes operator alerts through ntfy. The mister
// runs unattended in a garden; a stuck relay or a wedged loop has to reach
// a phone, not just a log file.
package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/misting-controller/internal/env"
)

// ntfy priority levels. Failsafe cutoffs are urgent: water may have been
// running for minutes.
const (
	PriorityUrgent  = 5
	PriorityHigh    = 4
	PriorityDefault = 3
)

const defaultServer = "https://ntfy.sh"

var client *http.Client
var serverURL string
var topic string
var initialized bool

// Init initializes the notification client
func Init() {
	if env.Cfg.NtfyTopic == "" {
		log.Warn().Msg("Ntfy topic not configured - notifications disabled")
		return
	}

	client = &http.Client{
		Timeout: 10 * time.Second,
	}
	serverURL = env.Cfg.NtfyServer
	if serverURL == "" {
		serverURL = defaultServer
	}
	topic = env.Cfg.NtfyTopic
	initialized = true

	log.Info().
		Str("server", serverURL).
		Str("topic", topic).
		Msg("Ntfy notifications initialized")
}

// Alert publishes a tagged notification at the given priority. Tags show
// up as emoji or labels in the ntfy client and let the operator tell a
// failsafe cutoff from a watchdog starvation at a glance.
func Alert(title, message string, priority int, tags ...string) error {
	if !initialized {
		return fmt.Errorf("notifications not initialized")
	}

	payload := map[string]interface{}{
		"topic":    topic,
		"title":    title,
		"message":  message,
		"priority": priority,
		"tags":     tags,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequest("POST", serverURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy returned non-success status: %d", resp.StatusCode)
	}

	log.Debug().
		Str("title", title).
		Int("priority", priority).
		Int("status", resp.StatusCode).
		Msg("Notification sent successfully")

	return nil
}

// Send publishes a default-priority notification tagged for the mister.
func Send(title, message string) error {
	return Alert(title, message, PriorityDefault, "mister")
}
