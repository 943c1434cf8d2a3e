package registry

import (
	"fmt"

	"github.com/mediactl/mediactl/internal/mediaobject"
)

const maxDepth = 16

// CheckInvariants verifies the consistency of the ownership tree and of the
// connection graph. It is meant to be called by tests.
func (r *Registry) CheckInvariants() error {
	for _, e := range r.snapshot() {
		e.domain.mutex.RLock()
		err := r.checkEntry(e)
		e.domain.mutex.RUnlock()

		if err != nil {
			return err
		}
	}

	return nil
}

func (r *Registry) checkEntry(e *entry) error {
	id := e.handle.ID

	// the entry may have been removed after the snapshot
	if e.removed {
		if r.indexed(id) == e {
			return fmt.Errorf("removed object %d is still indexed", id)
		}
		return nil
	}

	if e.kind == mediaobject.KindPipeline {
		if e.parent != nil {
			return fmt.Errorf("pipeline %d has a parent", id)
		}
		if e.domain.id != id {
			return fmt.Errorf("pipeline %d does not own its domain", id)
		}
	} else {
		if e.parent == nil {
			return fmt.Errorf("%s %d has no parent", e.kind, id)
		}
		if e.parent.removed || r.indexed(e.parent.handle.ID) != e.parent {
			return fmt.Errorf("%s %d has a dangling parent", e.kind, id)
		}
		if e.parent.domain != e.domain {
			return fmt.Errorf("%s %d is not in the domain of its parent", e.kind, id)
		}
		if !containsEntry(e.parent.children, e) {
			return fmt.Errorf("%s %d is not a child of its parent", e.kind, id)
		}
		if !e.kind.IsPad() && e.parent.leaseExpiry().Before(e.leaseExpiry()) {
			return fmt.Errorf("%s %d outlives its parent", e.kind, id)
		}
	}

	depth := 0
	for a := e; a.parent != nil; a = a.parent {
		depth++
		if depth > maxDepth {
			return fmt.Errorf("ownership of %d is cyclic", id)
		}
	}

	for _, c := range e.children {
		if c.parent != e {
			return fmt.Errorf("child %d of %d has another parent", c.handle.ID, id)
		}
	}

	if e.kind != mediaobject.KindSrcPad && len(e.sinks) != 0 {
		return fmt.Errorf("%s %d has outgoing edges", e.kind, id)
	}
	if e.kind != mediaobject.KindSinkPad && e.src != nil {
		return fmt.Errorf("%s %d has an incoming edge", e.kind, id)
	}

	for sid, sink := range e.sinks {
		if sid != sink.handle.ID || sink.removed || sink.src != e {
			return fmt.Errorf("edge %d -> %d is not mirrored", id, sid)
		}
	}

	if e.src != nil {
		if e.src.removed || e.src.sinks[id] != e {
			return fmt.Errorf("edge %d -> %d is not mirrored", e.src.handle.ID, id)
		}
	}

	tokens := make(map[string]struct{}, len(e.subs))
	for _, sub := range e.subs {
		if _, ok := tokens[sub.Token]; ok {
			return fmt.Errorf("object %d has duplicate subscription tokens", id)
		}
		tokens[sub.Token] = struct{}{}
	}

	return nil
}

func containsEntry(entries []*entry, e *entry) bool {
	for _, c := range entries {
		if c == e {
			return true
		}
	}
	return false
}
