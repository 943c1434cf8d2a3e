package mediaobject

import (
	"github.com/bluenviron/gortsplib/v4/pkg/description"
)

// Pad is a typed connection point of an element.
type Pad struct {
	base
	media *description.Media
}

func newPad(spec PadSpec) *Pad {
	p := &Pad{
		media: spec.Media,
	}

	kind := KindSrcPad
	if spec.Direction == DirectionSink {
		kind = KindSinkPad
	}
	p.initialize(kind, string(spec.Media.Type), nil)

	p.commands["getMediaType"] = func(_ Params) (*CommandResult, error) {
		return &CommandResult{Value: string(p.MediaType())}, nil
	}
	p.commands["getFormats"] = func(_ Params) (*CommandResult, error) {
		medi := p.Media()
		vals := make(map[string]string, len(medi.Formats))
		for _, forma := range medi.Formats {
			vals[forma.Codec()] = forma.RTPMap()
		}
		return &CommandResult{Values: vals}, nil
	}

	return p
}

// MediaType returns the media type of the pad.
func (p *Pad) MediaType() description.MediaType {
	return p.media.Type
}

// Media returns the media description of the pad.
func (p *Pad) Media() *description.Media {
	return p.media
}
