package backend

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/pion/sdp/v3"

	"github.com/mediactl/mediactl/internal/mediaobject"
)

type rtpEndpoint struct {
	pads  []mediaobject.PadSpec
	raise mediaobject.RaiseFunc

	mutex  sync.Mutex
	local  string
	remote string
}

func newRTPEndpoint(_ mediaobject.Params, raise mediaobject.RaiseFunc) (*backend, error) {
	e := &rtpEndpoint{
		pads:  avPads(),
		raise: raise,
	}

	return &backend{
		pads: e.pads,
		commands: map[string]mediaobject.CommandFunc{
			"generateOffer":              e.onGenerateOffer,
			"processAnswer":              e.onProcessAnswer,
			"getLocalSessionDescriptor":  e.onGetLocal,
			"getRemoteSessionDescriptor": e.onGetRemote,
		},
	}, nil
}

// marshalOffer describes the sink pads, that is, what the endpoint is able to receive.
func (e *rtpEndpoint) marshalOffer() (string, error) {
	sd := &sdp.SessionDescription{
		Version: 0,
		Origin: sdp.Origin{
			Username:       "-",
			SessionID:      uint64(time.Now().UnixNano()),
			SessionVersion: 1,
			NetworkType:    "IN",
			AddressType:    "IP4",
			UnicastAddress: "127.0.0.1",
		},
		SessionName: "mediactl",
		TimeDescriptions: []sdp.TimeDescription{
			{Timing: sdp.Timing{}},
		},
	}

	for _, pad := range e.pads {
		if pad.Direction != mediaobject.DirectionSink || len(pad.Media.Formats) == 0 {
			continue
		}

		md := &sdp.MediaDescription{
			MediaName: sdp.MediaName{
				Media:  string(pad.Media.Type),
				Port:   sdp.RangedPort{Value: 9},
				Protos: []string{"RTP", "AVP"},
			},
		}

		for _, forma := range pad.Media.Formats {
			pt := strconv.FormatUint(uint64(forma.PayloadType()), 10)
			md.MediaName.Formats = append(md.MediaName.Formats, pt)
			md.Attributes = append(md.Attributes, sdp.Attribute{
				Key:   "rtpmap",
				Value: pt + " " + forma.RTPMap(),
			})
		}

		md.Attributes = append(md.Attributes, sdp.Attribute{Key: "recvonly"})
		sd.MediaDescriptions = append(sd.MediaDescriptions, md)
	}

	byts, err := sd.Marshal()
	if err != nil {
		return "", err
	}

	return string(byts), nil
}

func (e *rtpEndpoint) onGenerateOffer(_ mediaobject.Params) (*mediaobject.CommandResult, error) {
	offer, err := e.marshalOffer()
	if err != nil {
		return nil, err
	}

	e.mutex.Lock()
	e.local = offer
	e.mutex.Unlock()

	return &mediaobject.CommandResult{Value: offer}, nil
}

func (e *rtpEndpoint) onProcessAnswer(params mediaobject.Params) (*mediaobject.CommandResult, error) {
	e.mutex.Lock()
	hasOffer := e.local != ""
	e.mutex.Unlock()

	if !hasOffer {
		return nil, fmt.Errorf("offer has not been generated")
	}

	answer := params["sdp"]

	var sd sdp.SessionDescription
	err := sd.Unmarshal([]byte(answer))
	if err != nil {
		return nil, fmt.Errorf("invalid SDP: %w", err)
	}

	if len(sd.MediaDescriptions) == 0 {
		return nil, fmt.Errorf("SDP contains no medias")
	}

	medias := make(map[string]string, len(sd.MediaDescriptions))
	for _, md := range sd.MediaDescriptions {
		medias[md.MediaName.Media] = strconv.Itoa(md.MediaName.Port.Value)
	}

	e.mutex.Lock()
	e.remote = answer
	e.mutex.Unlock()

	e.raise("MediaSessionStarted", medias)

	return &mediaobject.CommandResult{Values: medias}, nil
}

func (e *rtpEndpoint) onGetLocal(_ mediaobject.Params) (*mediaobject.CommandResult, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return &mediaobject.CommandResult{Value: e.local}, nil
}

func (e *rtpEndpoint) onGetRemote(_ mediaobject.Params) (*mediaobject.CommandResult, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return &mediaobject.CommandResult{Value: e.remote}, nil
}
