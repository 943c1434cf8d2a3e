package mediaobject

import (
	"github.com/mediactl/mediactl/internal/defs"
)

// Element is a processing element. Its pads are created together with it.
type Element struct {
	base
	pads []*Pad
}

func newElement(factory BackendFactory, kind Kind, typ string, params Params) (*Element, error) {
	e := &Element{}
	e.initialize(kind, typ, params)

	err := e.attach(factory)
	if err != nil {
		return nil, err
	}

	for _, spec := range e.backend.Pads() {
		e.pads = append(e.pads, newPad(spec))
	}

	return e, nil
}

// Pads returns the pads of the element, in creation order.
func (e *Element) Pads() []*Pad {
	return e.pads
}

// InitialChildren implements Container.
func (e *Element) InitialChildren() []Object {
	ret := make([]Object, len(e.pads))
	for i, p := range e.pads {
		ret[i] = p
	}
	return ret
}

// PadsByDescription is not supported; description matching belongs to the
// processing layer.
func (e *Element) PadsByDescription(_ Direction, _ string) error {
	return defs.NewError(defs.ErrorCodeUnsupportedOperation,
		"filtering pads by description is not supported")
}
