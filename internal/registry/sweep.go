package registry

import (
	"time"

	"github.com/mediactl/mediactl/internal/logger"
)

func (r *Registry) runSweeper() {
	defer r.wg.Done()

	t := time.NewTicker(r.SweepInterval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			r.Sweep()

		case <-r.ctx.Done():
			return
		}
	}
}

// Sweep removes objects whose lease has expired, with the same cascade as Remove.
// Candidates are selected without locking the domains, then checked again
// once the domain is locked, so that a concurrent KeepAlive always wins.
// It returns the number of removed subtrees.
func (r *Registry) Sweep() int {
	now := r.Now()

	var candidates []*entry

	// snapshot is sorted by ID, therefore parents come before their children.
	for _, e := range r.snapshot() {
		if !e.kind.IsPad() && now.After(e.leaseExpiry()) {
			candidates = append(candidates, e)
		}
	}

	n := 0

	for _, e := range candidates {
		d := e.domain
		d.mutex.Lock()

		if e.removed || !now.After(e.leaseExpiry()) {
			d.mutex.Unlock()
			continue
		}

		removed := r.detach(e)
		d.mutex.Unlock()

		r.finalize(e, removed, ReasonExpired)
		n++
	}

	if n != 0 {
		r.Log(logger.Debug, "sweep removed %d expired objects", n)
	}

	return n
}
