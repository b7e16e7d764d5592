package mqtt

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/misting-controller/internal/scheduler"
)

// AsyncPublisher decouples the scheduler from broker latency. Publish
// enqueues and returns immediately; a single worker goroutine delivers
// events in order through the underlying publisher. When the queue is
// full the event is dropped rather than making the caller wait.
type AsyncPublisher struct {
	delegate Publisher
	queue    chan scheduler.Event
	done     chan struct{}
}

func NewAsyncPublisher(delegate Publisher, depth int) *AsyncPublisher {
	a := &AsyncPublisher{
		delegate: delegate,
		queue:    make(chan scheduler.Event, depth),
		done:     make(chan struct{}),
	}
	go a.deliver()
	return a
}

func (a *AsyncPublisher) deliver() {
	defer close(a.done)
	for event := range a.queue {
		if err := a.delegate.Publish(event); err != nil {
			log.Warn().Err(err).Str("event", string(event.Type)).Msg("Failed to publish scheduler event")
		}
	}
}

// Publish never blocks. Safe to call from the scheduler's event sink.
func (a *AsyncPublisher) Publish(event scheduler.Event) error {
	select {
	case a.queue <- event:
		return nil
	default:
		log.Warn().Str("event", string(event.Type)).Msg("Event queue full, dropping scheduler event")
		return fmt.Errorf("event queue full")
	}
}

// PublishSystem delivers lifecycle events directly. Startup and shutdown
// run outside the scheduler, where waiting on the broker is fine.
func (a *AsyncPublisher) PublishSystem(event string) error {
	return a.delegate.PublishSystem(event)
}

// Close flushes queued events, then closes the underlying publisher.
func (a *AsyncPublisher) Close() error {
	close(a.queue)
	<-a.done
	return a.delegate.Close()
}
