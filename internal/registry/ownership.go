package registry

import (
	"github.com/bluenviron/gortsplib/v4/pkg/description"

	"github.com/mediactl/mediactl/internal/mediaobject"
)

func (r *Registry) viewEntry(h Handle, kind mediaobject.Kind, fn func(e *entry) error) error {
	e, err := r.lookup(h)
	if err != nil {
		return err
	}

	e.domain.mutex.RLock()
	defer e.domain.mutex.RUnlock()

	if e.removed {
		return errNotFound(h)
	}

	err = checkKind(e, kind)
	if err != nil {
		return err
	}

	return fn(e)
}

// ParentOf returns the parent of an object. The boolean is false for pipelines.
func (r *Registry) ParentOf(h Handle) (Handle, bool, error) {
	var ret Handle
	var ok bool

	err := r.viewEntry(h, mediaobject.KindAny, func(e *entry) error {
		if e.parent != nil {
			ret = e.parent.handle
			ok = true
		}
		return nil
	})

	return ret, ok, err
}

// PipelineOf returns the pipeline at the root of the object tree.
// A pipeline is its own pipeline.
func (r *Registry) PipelineOf(h Handle) (Handle, error) {
	var ret Handle

	err := r.viewEntry(h, mediaobject.KindAny, func(e *entry) error {
		for e.parent != nil {
			e = e.parent
		}
		ret = e.handle
		return nil
	})

	return ret, err
}

// MediaElementOf returns the element that owns a pad.
func (r *Registry) MediaElementOf(pad Handle) (Handle, error) {
	var ret Handle

	err := r.viewEntry(pad, mediaobject.KindPad, func(e *entry) error {
		ret = e.parent.handle
		return nil
	})

	return ret, err
}

// Pads returns the pads of an element with the given direction, in creation order.
// If mediaType is not empty, only pads of that media type are returned.
func (r *Registry) Pads(
	element Handle,
	direction mediaobject.Direction,
	mediaType description.MediaType,
) ([]Handle, error) {
	kind := mediaobject.KindSrcPad
	if direction == mediaobject.DirectionSink {
		kind = mediaobject.KindSinkPad
	}

	var ret []Handle

	err := r.viewEntry(element, mediaobject.KindElement, func(e *entry) error {
		ret = make([]Handle, 0, len(e.children))
		for _, c := range e.children {
			if c.kind == kind && (mediaType == "" || c.mediaType() == mediaType) {
				ret = append(ret, c.handle)
			}
		}
		return nil
	})

	return ret, err
}
