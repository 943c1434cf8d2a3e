// Package events contains the event dispatcher.
package events

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mediactl/mediactl/internal/logger"
	"github.com/mediactl/mediactl/internal/registry"
)

const (
	defaultQueueSize = 1024
	defaultTimeout   = 5 * time.Second
	defaultWorkers   = 4
)

type delivery struct {
	id      string
	address string
	port    int32
	evt     *registry.Event
}

type transport interface {
	send(ctx context.Context, d *delivery) error
	close()
}

// Stats are dispatcher statistics.
type Stats struct {
	Queued    int
	Delivered uint64
	Failed    uint64
	Dropped   uint64
}

// Dispatcher delivers events to remote handlers asynchronously.
// Failed deliveries are logged and discarded.
type Dispatcher struct {
	Transport string
	QueueSize int
	Timeout   time.Duration
	Workers   int

	// events whose data is larger than this are dropped. Zero disables the limit.
	MaxPayloadSize uint64
	Parent         logger.Writer

	ctx       context.Context
	ctxCancel func()
	queue     chan *delivery
	tr        transport
	group     *errgroup.Group
	delivered atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

// Initialize initializes Dispatcher.
func (d *Dispatcher) Initialize() error {
	if d.QueueSize == 0 {
		d.QueueSize = defaultQueueSize
	}
	if d.Timeout == 0 {
		d.Timeout = defaultTimeout
	}
	if d.Workers == 0 {
		d.Workers = defaultWorkers
	}

	switch d.Transport {
	case "", "http":
		d.tr = newHTTPTransport(d.Timeout)

	case "websocket":
		d.tr = newWebSocketTransport(d.Timeout)

	default:
		return fmt.Errorf("unsupported event transport: %s", d.Transport)
	}

	d.ctx, d.ctxCancel = context.WithCancel(context.Background())
	d.queue = make(chan *delivery, d.QueueSize)

	d.group = &errgroup.Group{}
	for range d.Workers {
		d.group.Go(d.runWorker)
	}

	d.Log(logger.Debug, "dispatcher started with %d workers", d.Workers)

	return nil
}

// Close stops the workers. Queued events are discarded.
func (d *Dispatcher) Close() {
	d.ctxCancel()
	d.group.Wait() //nolint:errcheck
	d.tr.close()
}

// Log implements logger.Writer.
func (d *Dispatcher) Log(level logger.Level, format string, args ...any) {
	d.Parent.Log(level, "[events] "+format, args...)
}

// Deliver implements registry.EventDeliverer. It never blocks:
// when the queue is full the event is dropped.
func (d *Dispatcher) Deliver(address string, port int32, evt *registry.Event) {
	if d.MaxPayloadSize != 0 {
		if size := payloadSize(evt); size > d.MaxPayloadSize {
			d.dropped.Add(1)
			d.Log(logger.Warn, "event '%s' of object %d dropped: payload of %d bytes exceeds the limit",
				evt.Type, evt.ObjectID, size)
			return
		}
	}

	del := &delivery{
		id:      uuid.NewString(),
		address: address,
		port:    port,
		evt:     evt,
	}

	select {
	case d.queue <- del:
	case <-d.ctx.Done():
	default:
		d.dropped.Add(1)
		d.Log(logger.Warn, "queue is full, event '%s' of object %d dropped", evt.Type, evt.ObjectID)
	}
}

func payloadSize(evt *registry.Event) uint64 {
	var n uint64
	for k, v := range evt.Data {
		n += uint64(len(k) + len(v))
	}
	return n
}

// Stats returns dispatcher statistics.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Queued:    len(d.queue),
		Delivered: d.delivered.Load(),
		Failed:    d.failed.Load(),
		Dropped:   d.dropped.Load(),
	}
}

func (d *Dispatcher) runWorker() error {
	for {
		select {
		case del := <-d.queue:
			d.send(del)

		case <-d.ctx.Done():
			return nil
		}
	}
}

func (d *Dispatcher) send(del *delivery) {
	ctx, cancel := context.WithTimeout(d.ctx, d.Timeout)
	defer cancel()

	err := d.tr.send(ctx, del)
	if err != nil {
		d.failed.Add(1)
		d.Log(logger.Warn, "unable to deliver event '%s' to %s:%d: %v",
			del.evt.Type, del.address, del.port, err)
		return
	}

	d.delivered.Add(1)
	d.Log(logger.Debug, "event '%s' of object %d delivered to %s:%d",
		del.evt.Type, del.evt.ObjectID, del.address, del.port)
}
