package mediaobject

// Kind is the kind of a media object.
type Kind int

// kinds.
const (
	// KindAny matches every kind in lookups.
	KindAny Kind = iota
	KindPipeline
	KindElement
	KindMixer
	KindMixerEndPoint
	KindSrcPad
	KindSinkPad
	// KindPad matches both pad kinds in lookups.
	KindPad
)

var kindNames = map[Kind]string{
	KindAny:           "any",
	KindPipeline:      "pipeline",
	KindElement:       "element",
	KindMixer:         "mixer",
	KindMixerEndPoint: "mixerEndPoint",
	KindSrcPad:        "srcPad",
	KindSinkPad:       "sinkPad",
	KindPad:           "pad",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Matches checks whether an object of kind k satisfies a lookup for kind want.
func (k Kind) Matches(want Kind) bool {
	switch want {
	case KindAny:
		return true

	case KindPad:
		return k == KindSrcPad || k == KindSinkPad

	case KindElement:
		return k == KindElement || k == KindMixerEndPoint
	}

	return k == want
}

// IsPad checks whether the kind is a pad kind.
func (k Kind) IsPad() bool {
	return k == KindSrcPad || k == KindSinkPad
}
