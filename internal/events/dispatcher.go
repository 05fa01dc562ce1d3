package events

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

var (
	ErrQueueFull        = errors.New("event queue full")
	ErrDispatcherClosed = errors.New("event dispatcher closed")
)

const (
	defaultQueueSize      = 256
	defaultDeliverTimeout = 3 * time.Second
)

type queuedEvent struct {
	ctx   context.Context
	event Event
}

// Dispatcher hands events to a background worker so that callers never wait on the broker.
// Events that do not fit in the queue are dropped.
type Dispatcher struct {
	next           Publisher
	deliverTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan queuedEvent

	shutdownComplete chan struct{}
}

func NewDispatcher(next Publisher, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	d := &Dispatcher{
		next:             next,
		deliverTimeout:   defaultDeliverTimeout,
		queue:            make(chan queuedEvent, queueSize),
		shutdownComplete: make(chan struct{}),
	}
	go d.run()
	return d
}

// Publish only enqueues. The context keeps its values (trace span) but loses its deadline.
func (d *Dispatcher) Publish(ctx context.Context, event Event) error {
	if !event.Type.IsValid() {
		return ErrInvalidEvent
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), event: event}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *Dispatcher) run() {
	defer close(d.shutdownComplete)
	for qe := range d.queue {
		d.deliver(qe)
	}
}

func (d *Dispatcher) deliver(qe queuedEvent) {
	ctx, cancel := context.WithTimeout(qe.ctx, d.deliverTimeout)
	defer cancel()
	if err := d.next.Publish(ctx, qe.event); err != nil {
		log.Errorf("deliver %s event for %s: %s", qe.event.Type, qe.event.UserID, err)
	}
}

// Close delivers what is already queued, then closes the wrapped publisher.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.shutdownComplete
	return d.next.Close()
}
