// Package backend contains the built-in backend factory.
package backend

import (
	"sort"
	"strings"

	"github.com/mediactl/mediactl/internal/defs"
	"github.com/mediactl/mediactl/internal/logger"
	"github.com/mediactl/mediactl/internal/mediaobject"
)

type constructor func(params mediaobject.Params, raise mediaobject.RaiseFunc) (*backend, error)

var builtinElements = map[string]constructor{
	"source":      newSource,
	"sink":        newSink,
	"passthrough": newPassthrough,
	"player":      newPlayer,
	"recorder":    newRecorder,
	"rtpendpoint": newRTPEndpoint,
	"datachannel": newDataChannel,
}

var builtinMixers = map[string]constructor{
	"composite":  newComposite,
	"dispatcher": newDispatcher,
}

// Factory is the built-in backend factory.
// It does not process media: backends expose pad layouts and commands only.
type Factory struct {
	ElementTypes []string
	MixerTypes   []string
	Parent       logger.Writer

	elements map[string]constructor
	mixers   map[string]constructor
}

// Initialize initializes Factory.
func (f *Factory) Initialize() {
	f.elements = make(map[string]constructor)
	for name, c := range builtinElements {
		f.elements[name] = c
	}
	for _, name := range f.ElementTypes {
		if _, ok := f.elements[name]; !ok {
			f.elements[name] = newPassthrough
		}
	}

	f.mixers = make(map[string]constructor)
	for name, c := range builtinMixers {
		f.mixers[name] = c
	}
	for _, name := range f.MixerTypes {
		if _, ok := f.mixers[name]; !ok {
			f.mixers[name] = newComposite
		}
	}

	elements, mixers := f.Types()
	f.Log(logger.Debug, "element types: %s", strings.Join(elements, ", "))
	f.Log(logger.Debug, "mixer types: %s", strings.Join(mixers, ", "))
}

// Log implements logger.Writer.
func (f *Factory) Log(level logger.Level, format string, args ...any) {
	f.Parent.Log(level, "[backend] "+format, args...)
}

// Types returns the supported element and mixer types.
func (f *Factory) Types() ([]string, []string) {
	return sortedNames(f.elements), sortedNames(f.mixers)
}

func sortedNames(m map[string]constructor) []string {
	ret := make([]string, 0, len(m))
	for name := range m {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// CreateBackend implements mediaobject.BackendFactory.
func (f *Factory) CreateBackend(
	kind mediaobject.Kind,
	typ string,
	params mediaobject.Params,
	raise mediaobject.RaiseFunc,
) (mediaobject.Backend, error) {
	var c constructor

	switch kind {
	case mediaobject.KindPipeline:
		c = newPipeline

	case mediaobject.KindElement:
		c = f.elements[typ]

	case mediaobject.KindMixer:
		c = f.mixers[typ]

	case mediaobject.KindMixerEndPoint:
		if _, ok := f.mixers[typ]; ok {
			c = newMixerEndPoint
		}
	}

	if c == nil {
		return nil, defs.NewError(defs.ErrorCodeUnsupportedType, "unsupported %s type '%s'", kind, typ)
	}

	b, err := c(params, raise)
	if err != nil {
		return nil, err
	}

	f.Log(logger.Debug, "created %s backend '%s'", kind, typ)

	return b, nil
}
