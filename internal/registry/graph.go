package registry

import (
	"sort"

	"github.com/mediactl/mediactl/internal/defs"
	"github.com/mediactl/mediactl/internal/mediaobject"
)

// lockDomains locks one or two domains in ascending ID order.
func lockDomains(a *domain, b *domain) func() {
	if a == b {
		a.mutex.Lock()
		return a.mutex.Unlock
	}

	if b.id < a.id {
		a, b = b, a
	}

	a.mutex.Lock()
	b.mutex.Lock()

	return func() {
		b.mutex.Unlock()
		a.mutex.Unlock()
	}
}

func (r *Registry) lookupPair(src Handle, sink Handle) (*entry, *entry, func(), error) {
	se, err := r.lookup(src)
	if err != nil {
		return nil, nil, nil, err
	}

	ke, err := r.lookup(sink)
	if err != nil {
		return nil, nil, nil, err
	}

	unlock := lockDomains(se.domain, ke.domain)

	switch {
	case se.removed:
		unlock()
		return nil, nil, nil, errNotFound(src)

	case ke.removed:
		unlock()
		return nil, nil, nil, errNotFound(sink)
	}

	err = checkKind(se, mediaobject.KindSrcPad)
	if err == nil {
		err = checkKind(ke, mediaobject.KindSinkPad)
	}
	if err != nil {
		unlock()
		return nil, nil, nil, err
	}

	return se, ke, unlock, nil
}

// Connect adds an edge from a src pad to a sink pad.
// A sink accepts a single source: an existing edge from another source is replaced.
func (r *Registry) Connect(src Handle, sink Handle) error {
	se, ke, unlock, err := r.lookupPair(src, sink)
	if err != nil {
		return err
	}
	defer unlock()

	if se.domain != ke.domain {
		return defs.NewError(defs.ErrorCodeUnsupportedOperation,
			"pads %d and %d belong to different pipelines", src.ID, sink.ID)
	}

	if se.mediaType() != ke.mediaType() {
		return defs.NewError(defs.ErrorCodeInvalidMediaType,
			"cannot connect a %s pad to a %s pad", se.mediaType(), ke.mediaType())
	}

	if ke.src == se {
		return nil
	}

	if ke.src != nil {
		delete(ke.src.sinks, ke.handle.ID)
		r.counters.connections.Add(-1)
	}

	if se.sinks == nil {
		se.sinks = make(map[uint64]*entry)
	}
	se.sinks[ke.handle.ID] = ke
	ke.src = se
	r.counters.connections.Add(1)

	return nil
}

// Disconnect removes the edge between a src pad and a sink pad.
func (r *Registry) Disconnect(src Handle, sink Handle) error {
	se, ke, unlock, err := r.lookupPair(src, sink)
	if err != nil {
		return err
	}
	defer unlock()

	if ke.src != se {
		return defs.NewError(defs.ErrorCodeNotFound,
			"pads %d and %d are not connected", src.ID, sink.ID)
	}

	delete(se.sinks, ke.handle.ID)
	ke.src = nil
	r.counters.connections.Add(-1)

	return nil
}

// ConnectedSinks returns the sink pads fed by a src pad, sorted by ID.
func (r *Registry) ConnectedSinks(src Handle) ([]Handle, error) {
	e, err := r.lookup(src)
	if err != nil {
		return nil, err
	}

	e.domain.mutex.RLock()
	defer e.domain.mutex.RUnlock()

	if e.removed {
		return nil, errNotFound(src)
	}

	err = checkKind(e, mediaobject.KindSrcPad)
	if err != nil {
		return nil, err
	}

	ret := make([]Handle, 0, len(e.sinks))
	for _, sink := range e.sinks {
		ret = append(ret, sink.handle)
	}

	sort.Slice(ret, func(i, j int) bool {
		return ret[i].ID < ret[j].ID
	})

	return ret, nil
}

// ConnectedSrc returns the src pad that feeds a sink pad.
func (r *Registry) ConnectedSrc(sink Handle) (Handle, error) {
	e, err := r.lookup(sink)
	if err != nil {
		return Handle{}, err
	}

	e.domain.mutex.RLock()
	defer e.domain.mutex.RUnlock()

	if e.removed {
		return Handle{}, errNotFound(sink)
	}

	err = checkKind(e, mediaobject.KindSinkPad)
	if err != nil {
		return Handle{}, err
	}

	if e.src == nil {
		return Handle{}, defs.NewError(defs.ErrorCodeNotFound, "pad %d is not connected", sink.ID)
	}

	return e.src.handle, nil
}
