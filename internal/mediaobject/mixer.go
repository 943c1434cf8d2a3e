package mediaobject

import (
	"github.com/mediactl/mediactl/internal/defs"
)

// Mixer is a hub that aggregates endpoints.
type Mixer struct {
	base
}

// CreateEndPoint creates an endpoint bound to the mixer.
// The endpoint backend is resolved with the mixer type.
func (m *Mixer) CreateEndPoint(factory BackendFactory) (*MixerEndPoint, error) {
	e, err := newElement(factory, KindMixerEndPoint, m.typ, nil)
	if err != nil {
		return nil, err
	}
	return &MixerEndPoint{Element: e}, nil
}

// CreateEndPointWithParams is not supported.
func (m *Mixer) CreateEndPointWithParams(_ BackendFactory, _ Params) (*MixerEndPoint, error) {
	return nil, defs.NewError(defs.ErrorCodeUnsupportedOperation,
		"creating mixer endpoints with parameters is not supported")
}

// MixerEndPoint is an element bound to a mixer.
type MixerEndPoint struct {
	*Element
}
