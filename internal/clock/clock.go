// Package clock abstracts the timekeeping the scheduler depends on: local
// time-of-day for the active window, monotonic uptime for duration tracking,
// and epoch seconds for the inter-activation interval.
package clock

import "time"

type Clock interface {
	// CalendarTime returns the local time of day. ok is false while no
	// trusted wall-clock time is available (e.g. before NTP sync).
	CalendarTime() (hour, min, sec int, ok bool)

	// UptimeMillis returns milliseconds since process start. Monotonic,
	// unaffected by wall-clock corrections.
	UptimeMillis() int64

	// EpochSeconds returns seconds since the Unix epoch, 0 if the wall
	// clock is not trusted yet.
	EpochSeconds() int64
}

// Wall clocks earlier than this are assumed unsynced. A Pi without an RTC
// boots near the epoch (or the last fake-hwclock stamp) until NTP catches up.
var syncSanityTime = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

// SystemClock reads the OS clock and treats it as unavailable until it has
// advanced past a sanity threshold.
type SystemClock struct {
	start time.Time
}

func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

func (c *SystemClock) synced(now time.Time) bool {
	return now.After(syncSanityTime)
}

func (c *SystemClock) CalendarTime() (int, int, int, bool) {
	now := time.Now()
	if !c.synced(now) {
		return 0, 0, 0, false
	}
	return now.Hour(), now.Minute(), now.Second(), true
}

func (c *SystemClock) UptimeMillis() int64 {
	return time.Since(c.start).Milliseconds()
}

func (c *SystemClock) EpochSeconds() int64 {
	now := time.Now()
	if !c.synced(now) {
		return 0
	}
	return now.Unix()
}
