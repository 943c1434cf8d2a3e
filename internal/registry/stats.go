package registry

import (
	"sync/atomic"
)

type counters struct {
	objects       atomic.Int64
	pipelines     atomic.Int64
	connections   atomic.Int64
	subscriptions atomic.Int64
	created       atomic.Uint64
	released      atomic.Uint64
	expired       atomic.Uint64
	events        atomic.Uint64
}

// Stats are registry statistics.
type Stats struct {
	Objects       int64
	Pipelines     int64
	Connections   int64
	Subscriptions int64
	Created       uint64
	Released      uint64
	Expired       uint64
	Events        uint64
}

// Stats returns registry statistics.
func (r *Registry) Stats() Stats {
	return Stats{
		Objects:       r.counters.objects.Load(),
		Pipelines:     r.counters.pipelines.Load(),
		Connections:   r.counters.connections.Load(),
		Subscriptions: r.counters.subscriptions.Load(),
		Created:       r.counters.created.Load(),
		Released:      r.counters.released.Load(),
		Expired:       r.counters.expired.Load(),
		Events:        r.counters.events.Load(),
	}
}
