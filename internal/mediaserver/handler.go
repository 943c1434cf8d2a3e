// Package mediaserver contains the operations exposed to remote clients.
package mediaserver

import (
	"fmt"
	"runtime/debug"

	"github.com/mediactl/mediactl/internal/defs"
	"github.com/mediactl/mediactl/internal/logger"
	"github.com/mediactl/mediactl/internal/mediaobject"
	"github.com/mediactl/mediactl/internal/registry"
)

type padDescriber interface {
	PadsByDescription(direction mediaobject.Direction, description string) error
}

// Handler exposes media object operations on top of a registry.
// Every error it returns is a *defs.Error.
type Handler struct {
	Version  string
	Registry *registry.Registry
	Factory  mediaobject.BackendFactory
	Parent   logger.Writer
}

// Log implements logger.Writer.
func (h *Handler) Log(level logger.Level, format string, args ...any) {
	h.Parent.Log(level, "[handler] "+format, args...)
}

// run executes an operation, tracing it and classifying its outcome.
func (h *Handler) run(op string, subject string, fn func() error) (err error) {
	h.Log(logger.Debug, "%s %s", op, subject)

	defer func() {
		if p := recover(); p != nil {
			h.Log(logger.Error, "panic in %s: %v\n%s", op, p, debug.Stack())
			err = defs.WrapError(defs.ErrorCodeUnexpected, fmt.Errorf("%v", p), "unexpected error in %s", op)
		}

		if err != nil {
			if !defs.IsClassified(err) {
				err = defs.WrapError(defs.ErrorCodeUnexpected, err, "unexpected error in %s", op)
			}
			h.Log(logger.Debug, "%s %s failed: %v", op, subject, err)
			return
		}

		h.Log(logger.Debug, "%s %s done", op, subject)
	}()

	return fn()
}

func pairSubject(a registry.Handle, b registry.Handle) string {
	return "src: " + a.String() + " sink: " + b.String()
}

// GetVersion returns the server version.
func (h *Handler) GetVersion() string {
	return h.Version
}

// CreatePipeline creates a pipeline.
func (h *Handler) CreatePipeline(params mediaobject.Params) (registry.Handle, error) {
	var ret registry.Handle

	err := h.run("createMediaPipeline", "", func() error {
		p, err := mediaobject.NewPipeline(h.Factory, params)
		if err != nil {
			return err
		}

		ret, err = h.Registry.Put(p, nil)
		return err
	})

	return ret, err
}

func (h *Handler) resolvePipeline(ph registry.Handle) (*mediaobject.Pipeline, error) {
	obj, err := h.Registry.Resolve(ph, mediaobject.KindPipeline)
	if err != nil {
		return nil, err
	}
	return obj.(*mediaobject.Pipeline), nil
}

// CreateElement creates an element that belongs to a pipeline.
func (h *Handler) CreateElement(
	pipeline registry.Handle,
	typ string,
	params mediaobject.Params,
) (registry.Handle, error) {
	var ret registry.Handle

	err := h.run("createMediaElement", pipeline.String(), func() error {
		p, err := h.resolvePipeline(pipeline)
		if err != nil {
			return err
		}

		// the backend is created without holding any lock
		el, err := p.CreateElement(h.Factory, typ, params)
		if err != nil {
			return err
		}

		ret, err = h.Registry.Put(el, &pipeline)
		return err
	})

	return ret, err
}

// CreateMixer creates a mixer that belongs to a pipeline.
func (h *Handler) CreateMixer(
	pipeline registry.Handle,
	typ string,
	params mediaobject.Params,
) (registry.Handle, error) {
	var ret registry.Handle

	err := h.run("createMediaMixer", pipeline.String(), func() error {
		p, err := h.resolvePipeline(pipeline)
		if err != nil {
			return err
		}

		m, err := p.CreateMixer(h.Factory, typ, params)
		if err != nil {
			return err
		}

		ret, err = h.Registry.Put(m, &pipeline)
		return err
	})

	return ret, err
}

func (h *Handler) resolveMixer(mh registry.Handle) (*mediaobject.Mixer, error) {
	obj, err := h.Registry.Resolve(mh, mediaobject.KindMixer)
	if err != nil {
		return nil, err
	}
	return obj.(*mediaobject.Mixer), nil
}

// CreateMixerEndPoint creates an endpoint that belongs to a mixer.
func (h *Handler) CreateMixerEndPoint(mixer registry.Handle) (registry.Handle, error) {
	var ret registry.Handle

	err := h.run("createMixerEndPoint", mixer.String(), func() error {
		m, err := h.resolveMixer(mixer)
		if err != nil {
			return err
		}

		ep, err := m.CreateEndPoint(h.Factory)
		if err != nil {
			return err
		}

		ret, err = h.Registry.Put(ep, &mixer)
		return err
	})

	return ret, err
}

// CreateMixerEndPointWithParams is not supported.
func (h *Handler) CreateMixerEndPointWithParams(
	mixer registry.Handle,
	params mediaobject.Params,
) (registry.Handle, error) {
	err := h.run("createMixerEndPointWithParams", mixer.String(), func() error {
		m, err := h.resolveMixer(mixer)
		if err != nil {
			return err
		}

		_, err = m.CreateEndPointWithParams(h.Factory, params)
		return err
	})

	return registry.Handle{}, err
}

// Connect connects a source pad to a sink pad.
func (h *Handler) Connect(src registry.Handle, sink registry.Handle) error {
	return h.run("connect", pairSubject(src, sink), func() error {
		return h.Registry.Connect(src, sink)
	})
}

// Disconnect removes the connection between a source pad and a sink pad.
func (h *Handler) Disconnect(src registry.Handle, sink registry.Handle) error {
	return h.run("disconnect", pairSubject(src, sink), func() error {
		return h.Registry.Disconnect(src, sink)
	})
}

// GetConnectedSinks returns the sink pads connected to a source pad.
func (h *Handler) GetConnectedSinks(src registry.Handle) ([]registry.Handle, error) {
	var ret []registry.Handle

	err := h.run("getConnectedSinks", src.String(), func() error {
		var err error
		ret, err = h.Registry.ConnectedSinks(src)
		return err
	})

	return ret, err
}

// GetConnectedSrc returns the source pad connected to a sink pad.
func (h *Handler) GetConnectedSrc(sink registry.Handle) (registry.Handle, error) {
	var ret registry.Handle

	err := h.run("getConnectedSrc", sink.String(), func() error {
		var err error
		ret, err = h.Registry.ConnectedSrc(sink)
		return err
	})

	return ret, err
}

func (h *Handler) pads(
	op string,
	element registry.Handle,
	direction mediaobject.Direction,
) ([]registry.Handle, error) {
	var ret []registry.Handle

	err := h.run(op, element.String(), func() error {
		var err error
		ret, err = h.Registry.Pads(element, direction, "")
		return err
	})

	return ret, err
}

// GetMediaSrcs returns the source pads of an element.
func (h *Handler) GetMediaSrcs(element registry.Handle) ([]registry.Handle, error) {
	return h.pads("getMediaSrcs", element, mediaobject.DirectionSrc)
}

// GetMediaSinks returns the sink pads of an element.
func (h *Handler) GetMediaSinks(element registry.Handle) ([]registry.Handle, error) {
	return h.pads("getMediaSinks", element, mediaobject.DirectionSink)
}

func (h *Handler) padsByType(
	op string,
	element registry.Handle,
	direction mediaobject.Direction,
	mediaType string,
) ([]registry.Handle, error) {
	var ret []registry.Handle

	err := h.run(op, element.String()+" type: "+mediaType, func() error {
		mt, err := mediaobject.ParseMediaType(mediaType)
		if err != nil {
			return err
		}

		ret, err = h.Registry.Pads(element, direction, mt)
		return err
	})

	return ret, err
}

// GetMediaSrcsByType returns the source pads of an element with the given media type.
func (h *Handler) GetMediaSrcsByType(element registry.Handle, mediaType string) ([]registry.Handle, error) {
	return h.padsByType("getMediaSrcsByMediaType", element, mediaobject.DirectionSrc, mediaType)
}

// GetMediaSinksByType returns the sink pads of an element with the given media type.
func (h *Handler) GetMediaSinksByType(element registry.Handle, mediaType string) ([]registry.Handle, error) {
	return h.padsByType("getMediaSinksByMediaType", element, mediaobject.DirectionSink, mediaType)
}

func (h *Handler) padsByDescription(
	op string,
	element registry.Handle,
	direction mediaobject.Direction,
	description string,
) ([]registry.Handle, error) {
	err := h.run(op, element.String(), func() error {
		obj, err := h.Registry.Resolve(element, mediaobject.KindElement)
		if err != nil {
			return err
		}

		return obj.(padDescriber).PadsByDescription(direction, description)
	})

	return nil, err
}

// GetMediaSrcsByDescription is not supported.
func (h *Handler) GetMediaSrcsByDescription(element registry.Handle, description string) ([]registry.Handle, error) {
	return h.padsByDescription("getMediaSrcsByFullDescription", element, mediaobject.DirectionSrc, description)
}

// GetMediaSinksByDescription is not supported.
func (h *Handler) GetMediaSinksByDescription(element registry.Handle, description string) ([]registry.Handle, error) {
	return h.padsByDescription("getMediaSinksByFullDescription", element, mediaobject.DirectionSink, description)
}

// GetMediaElement returns the element that owns a pad.
func (h *Handler) GetMediaElement(pad registry.Handle) (registry.Handle, error) {
	var ret registry.Handle

	err := h.run("getMediaElement", pad.String(), func() error {
		var err error
		ret, err = h.Registry.MediaElementOf(pad)
		return err
	})

	return ret, err
}

// GetParent returns the parent of an object. Pipelines have no parent.
func (h *Handler) GetParent(obj registry.Handle) (registry.Handle, error) {
	var ret registry.Handle

	err := h.run("getParent", obj.String(), func() error {
		var ok bool
		var err error
		ret, ok, err = h.Registry.ParentOf(obj)
		if err != nil {
			return err
		}

		if !ok {
			return defs.NewError(defs.ErrorCodeNotFound, "object %d has no parent", obj.ID)
		}
		return nil
	})

	return ret, err
}

// GetPipelineOf returns the pipeline an object belongs to.
func (h *Handler) GetPipelineOf(obj registry.Handle) (registry.Handle, error) {
	var ret registry.Handle

	err := h.run("getMediaPipeline", obj.String(), func() error {
		var err error
		ret, err = h.Registry.PipelineOf(obj)
		return err
	})

	return ret, err
}

// KeepAlive renews the lease of an object.
func (h *Handler) KeepAlive(obj registry.Handle) error {
	return h.run("keepAlive", obj.String(), func() error {
		return h.Registry.KeepAlive(obj)
	})
}

// Release destroys an object and its descendants.
func (h *Handler) Release(obj registry.Handle) error {
	return h.run("release", obj.String(), func() error {
		return h.Registry.Remove(obj)
	})
}

// Subscribe subscribes a remote handler to events of an object.
func (h *Handler) Subscribe(
	obj registry.Handle,
	eventType string,
	address string,
	port int32,
) (string, error) {
	var ret string

	err := h.run("subscribe", obj.String()+" event: "+eventType, func() error {
		var err error
		ret, err = h.Registry.Subscribe(obj, eventType, address, port)
		return err
	})

	return ret, err
}

// Unsubscribe removes a subscription.
func (h *Handler) Unsubscribe(obj registry.Handle, token string) error {
	return h.run("unsubscribe", obj.String(), func() error {
		return h.Registry.Unsubscribe(obj, token)
	})
}

// SubscribeError is not supported.
func (h *Handler) SubscribeError(obj registry.Handle, _ string, _ int32) (string, error) {
	err := h.run("subscribeError", obj.String(), func() error {
		_, err := h.Registry.Resolve(obj, mediaobject.KindAny)
		if err != nil {
			return err
		}

		return defs.NewError(defs.ErrorCodeUnsupportedOperation, "error subscriptions are not supported")
	})

	return "", err
}

// UnsubscribeError is not supported.
func (h *Handler) UnsubscribeError(obj registry.Handle, _ string) error {
	return h.run("unsubscribeError", obj.String(), func() error {
		_, err := h.Registry.Resolve(obj, mediaobject.KindAny)
		if err != nil {
			return err
		}

		return defs.NewError(defs.ErrorCodeUnsupportedOperation, "error subscriptions are not supported")
	})
}

// SendCommand sends a command to an object.
// The command runs without any registry lock held, so that it can raise events.
// A command racing a concurrent release of the same object may run against
// a backend that has already been closed.
func (h *Handler) SendCommand(obj registry.Handle, cmd mediaobject.Command) (*mediaobject.CommandResult, error) {
	var ret *mediaobject.CommandResult

	err := h.run("sendCommand", obj.String()+" command: "+cmd.Name, func() error {
		o, err := h.Registry.Resolve(obj, mediaobject.KindAny)
		if err != nil {
			return err
		}

		ret, err = o.SendCommand(cmd)
		return err
	})

	return ret, err
}
