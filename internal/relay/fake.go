package relay

// Fake is a recording actuator for tests.
type Fake struct {
	On       bool
	OnCalls  int
	OffCalls int
}

func (f *Fake) TurnOn() {
	f.On = true
	f.OnCalls++
}

func (f *Fake) TurnOff() {
	f.On = false
	f.OffCalls++
}
