package clock

// Fake is a scripted clock for tests. All fields can be adjusted between
// Update calls to simulate time passing, clock jumps, and sync loss.
type Fake struct {
	Hour      int
	Minute    int
	Second    int
	Available bool

	Uptime int64 // milliseconds
	Epoch  int64 // seconds
}

// NewFake returns an available fake clock at the given hour with a
// plausible epoch timestamp.
func NewFake(hour int) *Fake {
	return &Fake{
		Hour:      hour,
		Available: true,
		Epoch:     1700000000,
	}
}

func (f *Fake) CalendarTime() (int, int, int, bool) {
	if !f.Available {
		return 0, 0, 0, false
	}
	return f.Hour, f.Minute, f.Second, true
}

func (f *Fake) UptimeMillis() int64 {
	return f.Uptime
}

func (f *Fake) EpochSeconds() int64 {
	if !f.Available {
		return 0
	}
	return f.Epoch
}

// AdvanceMillis moves uptime and epoch forward together, the way real time
// passes on a healthy clock.
func (f *Fake) AdvanceMillis(ms int64) {
	f.Uptime += ms
	f.Epoch += ms / 1000
}
