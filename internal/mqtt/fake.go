package mqtt

import "github.com/thatsimonsguy/misting-controller/internal/scheduler"

// FakePublisher records published events for tests.
type FakePublisher struct {
	Events       []scheduler.Event
	SystemEvents []string
	Closed       bool
	PublishError error
}

func (f *FakePublisher) Publish(event scheduler.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Events = append(f.Events, event)
	return nil
}

func (f *FakePublisher) PublishSystem(event string) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.SystemEvents = append(f.SystemEvents, event)
	return nil
}

func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}
