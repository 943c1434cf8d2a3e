package mediaobject

import (
	"strings"

	"github.com/bluenviron/gortsplib/v4/pkg/description"

	"github.com/mediactl/mediactl/internal/defs"
)

// Direction is the direction of a pad.
type Direction int

// directions.
const (
	DirectionSrc Direction = iota
	DirectionSink
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	if d == DirectionSrc {
		return "src"
	}
	return "sink"
}

// ParseMediaType converts a media type name into a description.MediaType.
// Both the RTSP names (video, audio, application) and the control-protocol
// names (VIDEO, AUDIO, DATA) are accepted.
func ParseMediaType(s string) (description.MediaType, error) {
	switch strings.ToLower(s) {
	case "video":
		return description.MediaTypeVideo, nil

	case "audio":
		return description.MediaTypeAudio, nil

	case "data", "application":
		return description.MediaTypeApplication, nil
	}

	return "", defs.NewError(defs.ErrorCodeInvalidMediaType, "invalid media type '%s'", s)
}
