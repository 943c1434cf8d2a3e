package backend

import (
	"github.com/bluenviron/gortsplib/v4/pkg/description"
	"github.com/bluenviron/gortsplib/v4/pkg/format"

	"github.com/mediactl/mediactl/internal/mediaobject"
)

func videoMedia() *description.Media {
	return &description.Media{
		Type: description.MediaTypeVideo,
		Formats: []format.Format{
			&format.H264{
				PayloadTyp:        96,
				PacketizationMode: 1,
			},
			&format.VP8{
				PayloadTyp: 97,
			},
		},
	}
}

func audioMedia() *description.Media {
	return &description.Media{
		Type: description.MediaTypeAudio,
		Formats: []format.Format{
			&format.Opus{
				PayloadTyp:   111,
				ChannelCount: 2,
			},
			&format.G711{
				PayloadTyp:   0,
				MULaw:        true,
				SampleRate:   8000,
				ChannelCount: 1,
			},
		},
	}
}

func dataMedia() *description.Media {
	return &description.Media{
		Type: description.MediaTypeApplication,
	}
}

func srcPads(medias ...*description.Media) []mediaobject.PadSpec {
	ret := make([]mediaobject.PadSpec, len(medias))
	for i, m := range medias {
		ret[i] = mediaobject.PadSpec{Direction: mediaobject.DirectionSrc, Media: m}
	}
	return ret
}

func sinkPads(medias ...*description.Media) []mediaobject.PadSpec {
	ret := make([]mediaobject.PadSpec, len(medias))
	for i, m := range medias {
		ret[i] = mediaobject.PadSpec{Direction: mediaobject.DirectionSink, Media: m}
	}
	return ret
}

// avPads returns a sink and a src pad for both video and audio.
func avPads() []mediaobject.PadSpec {
	return append(
		sinkPads(videoMedia(), audioMedia()),
		srcPads(videoMedia(), audioMedia())...)
}
