package backend

import (
	"strconv"
	"sync/atomic"

	"github.com/mediactl/mediactl/internal/mediaobject"
)

func newPipeline(_ mediaobject.Params, _ mediaobject.RaiseFunc) (*backend, error) {
	return &backend{}, nil
}

func newSource(_ mediaobject.Params, _ mediaobject.RaiseFunc) (*backend, error) {
	return &backend{
		pads: srcPads(videoMedia(), audioMedia()),
	}, nil
}

func newSink(_ mediaobject.Params, _ mediaobject.RaiseFunc) (*backend, error) {
	return &backend{
		pads: sinkPads(videoMedia(), audioMedia()),
	}, nil
}

func newPassthrough(_ mediaobject.Params, _ mediaobject.RaiseFunc) (*backend, error) {
	return &backend{
		pads: avPads(),
	}, nil
}

func newDataChannel(params mediaobject.Params, raise mediaobject.RaiseFunc) (*backend, error) {
	label := params["label"]

	var sent atomic.Uint64

	return &backend{
		pads: append(sinkPads(dataMedia()), srcPads(dataMedia())...),
		commands: map[string]mediaobject.CommandFunc{
			"getLabel": func(_ mediaobject.Params) (*mediaobject.CommandResult, error) {
				return &mediaobject.CommandResult{Value: label}, nil
			},
			// messages are looped back to subscribers
			"send": func(params mediaobject.Params) (*mediaobject.CommandResult, error) {
				n := sent.Add(1)
				raise("DataChannelMessage", map[string]string{
					"label": label,
					"data":  params["data"],
					"seq":   strconv.FormatUint(n, 10),
				})
				return &mediaobject.CommandResult{Value: strconv.FormatUint(n, 10)}, nil
			},
		},
	}, nil
}

func newComposite(_ mediaobject.Params, _ mediaobject.RaiseFunc) (*backend, error) {
	return &backend{}, nil
}

func newDispatcher(_ mediaobject.Params, raise mediaobject.RaiseFunc) (*backend, error) {
	return &backend{
		commands: map[string]mediaobject.CommandFunc{
			"setSource": func(params mediaobject.Params) (*mediaobject.CommandResult, error) {
				raise("SourceChanged", map[string]string{"source": params["source"]})
				return nil, nil
			},
		},
	}, nil
}

func newMixerEndPoint(_ mediaobject.Params, _ mediaobject.RaiseFunc) (*backend, error) {
	return &backend{
		pads: avPads(),
	}, nil
}
