package mediaserver

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mediactl/mediactl/internal/backend"
	"github.com/mediactl/mediactl/internal/defs"
	"github.com/mediactl/mediactl/internal/logger"
	"github.com/mediactl/mediactl/internal/mediaobject"
	"github.com/mediactl/mediactl/internal/registry"
	"github.com/mediactl/mediactl/internal/test"
)

type dummyDeliverer struct {
	mutex  sync.Mutex
	events []*registry.Event
}

func (d *dummyDeliverer) Deliver(_ string, _ int32, evt *registry.Event) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.events = append(d.events, evt)
}

func (d *dummyDeliverer) delivered() []*registry.Event {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]*registry.Event(nil), d.events...)
}

type faultyFactory struct {
	panics bool
}

func (f *faultyFactory) CreateBackend(
	_ mediaobject.Kind,
	_ string,
	_ mediaobject.Params,
	_ mediaobject.RaiseFunc,
) (mediaobject.Backend, error) {
	if f.panics {
		panic("backend exploded")
	}
	return nil, fmt.Errorf("device busy")
}

func newHandler(t *testing.T, parent logger.Writer) (*Handler, *dummyDeliverer) {
	f := &backend.Factory{Parent: test.NilLogger}
	f.Initialize()

	d := &dummyDeliverer{}

	r := &registry.Registry{
		TTL:           10 * time.Second,
		SweepInterval: time.Hour,
		Deliverer:     d,
		Parent:        test.NilLogger,
	}
	r.Initialize()
	t.Cleanup(r.Close)

	if parent == nil {
		parent = test.NilLogger
	}

	return &Handler{
		Version:  "v1.2.3",
		Registry: r,
		Factory:  f,
		Parent:   parent,
	}, d
}

func TestHandlerScenario(t *testing.T) {
	h, _ := newHandler(t, nil)

	p, err := h.CreatePipeline(nil)
	require.NoError(t, err)

	a, err := h.CreateElement(p, "source", nil)
	require.NoError(t, err)

	b, err := h.CreateElement(p, "sink", nil)
	require.NoError(t, err)

	aSrcs, err := h.GetMediaSrcsByType(a, "VIDEO")
	require.NoError(t, err)
	require.Len(t, aSrcs, 1)

	bSinks, err := h.GetMediaSinksByType(b, "VIDEO")
	require.NoError(t, err)
	require.Len(t, bSinks, 1)

	err = h.Connect(aSrcs[0], bSinks[0])
	require.NoError(t, err)

	sinks, err := h.GetConnectedSinks(aSrcs[0])
	require.NoError(t, err)
	require.Equal(t, []registry.Handle{bSinks[0]}, sinks)

	src, err := h.GetConnectedSrc(bSinks[0])
	require.NoError(t, err)
	require.Equal(t, aSrcs[0], src)

	err = h.Release(a)
	require.NoError(t, err)

	_, err = h.GetMediaElement(aSrcs[0])
	require.ErrorIs(t, err, defs.ErrNotFound)

	_, err = h.GetConnectedSrc(bSinks[0])
	require.ErrorIs(t, err, defs.ErrNotFound)

	require.NoError(t, h.Registry.CheckInvariants())
}

func TestHandlerOwnership(t *testing.T) {
	h, _ := newHandler(t, nil)

	p, err := h.CreatePipeline(mediaobject.Params{"name": "room"})
	require.NoError(t, err)

	el, err := h.CreateElement(p, "passthrough", nil)
	require.NoError(t, err)

	parent, err := h.GetParent(el)
	require.NoError(t, err)
	require.Equal(t, p, parent)

	pipeline, err := h.GetPipelineOf(el)
	require.NoError(t, err)
	require.Equal(t, p, pipeline)

	pipeline, err = h.GetPipelineOf(p)
	require.NoError(t, err)
	require.Equal(t, p, pipeline)

	_, err = h.GetParent(p)
	require.ErrorIs(t, err, defs.ErrNotFound)

	srcs, err := h.GetMediaSrcs(el)
	require.NoError(t, err)
	require.Len(t, srcs, 2)

	sinks, err := h.GetMediaSinks(el)
	require.NoError(t, err)
	require.Len(t, sinks, 2)

	for _, pad := range append(srcs, sinks...) {
		owner, err2 := h.GetMediaElement(pad)
		require.NoError(t, err2)
		require.Equal(t, el, owner)

		pipeline, err2 = h.GetPipelineOf(pad)
		require.NoError(t, err2)
		require.Equal(t, p, pipeline)
	}

	require.NoError(t, h.KeepAlive(srcs[0]))
	require.NoError(t, h.Release(p))

	for _, obj := range append([]registry.Handle{p, el}, srcs...) {
		err = h.KeepAlive(obj)
		require.ErrorIs(t, err, defs.ErrNotFound)
	}
}

func TestHandlerMixer(t *testing.T) {
	h, _ := newHandler(t, nil)

	p, err := h.CreatePipeline(nil)
	require.NoError(t, err)

	m, err := h.CreateMixer(p, "composite", nil)
	require.NoError(t, err)

	ep, err := h.CreateMixerEndPoint(m)
	require.NoError(t, err)

	parent, err := h.GetParent(ep)
	require.NoError(t, err)
	require.Equal(t, m, parent)

	res, err := h.SendCommand(ep, mediaobject.Command{Name: "getType"})
	require.NoError(t, err)
	require.Equal(t, "composite", res.Value)

	srcs, err := h.GetMediaSrcs(ep)
	require.NoError(t, err)
	require.NotEmpty(t, srcs)

	_, err = h.CreateMixerEndPointWithParams(m, mediaobject.Params{"a": "b"})
	require.ErrorIs(t, err, defs.ErrUnsupportedOperation)

	_, err = h.CreateMixerEndPoint(p)
	require.ErrorIs(t, err, defs.ErrTypeMismatch)

	_, err = h.CreateMixer(p, "unknown", nil)
	require.ErrorIs(t, err, defs.ErrUnsupportedType)
}

func TestHandlerErrors(t *testing.T) {
	h, _ := newHandler(t, nil)

	p, err := h.CreatePipeline(nil)
	require.NoError(t, err)

	el, err := h.CreateElement(p, "source", nil)
	require.NoError(t, err)

	for _, ca := range []struct {
		name string
		fn   func() error
		err  error
	}{
		{
			"unknown handle",
			func() error {
				_, err2 := h.CreateElement(registry.Handle{ID: 9999, Token: "x"}, "source", nil)
				return err2
			},
			defs.ErrNotFound,
		},
		{
			"wrong token",
			func() error {
				return h.KeepAlive(registry.Handle{ID: p.ID, Token: "wrong"})
			},
			defs.ErrNotFound,
		},
		{
			"element as pipeline",
			func() error {
				_, err2 := h.CreateElement(el, "source", nil)
				return err2
			},
			defs.ErrTypeMismatch,
		},
		{
			"pipeline as pad",
			func() error {
				_, err2 := h.GetMediaElement(p)
				return err2
			},
			defs.ErrTypeMismatch,
		},
		{
			"unsupported type",
			func() error {
				_, err2 := h.CreateElement(p, "teleporter", nil)
				return err2
			},
			defs.ErrUnsupportedType,
		},
		{
			"invalid media type",
			func() error {
				_, err2 := h.GetMediaSrcsByType(el, "SMELL")
				return err2
			},
			defs.ErrInvalidMediaType,
		},
		{
			"srcs by description",
			func() error {
				_, err2 := h.GetMediaSrcsByDescription(el, "video/H264")
				return err2
			},
			defs.ErrUnsupportedOperation,
		},
		{
			"sinks by description",
			func() error {
				_, err2 := h.GetMediaSinksByDescription(el, "video/H264")
				return err2
			},
			defs.ErrUnsupportedOperation,
		},
		{
			"subscribe error",
			func() error {
				_, err2 := h.SubscribeError(el, "127.0.0.1", 8080)
				return err2
			},
			defs.ErrUnsupportedOperation,
		},
		{
			"unsubscribe error",
			func() error {
				return h.UnsubscribeError(el, "token")
			},
			defs.ErrUnsupportedOperation,
		},
		{
			"unsupported command",
			func() error {
				_, err2 := h.SendCommand(el, mediaobject.Command{Name: "fly"})
				return err2
			},
			defs.ErrUnsupportedCommand,
		},
		{
			"pad release",
			func() error {
				srcs, err2 := h.GetMediaSrcs(el)
				if err2 != nil {
					return err2
				}
				return h.Release(srcs[0])
			},
			defs.ErrUnsupportedOperation,
		},
		{
			"unknown subscription",
			func() error {
				return h.Unsubscribe(el, "missing")
			},
			defs.ErrNotFound,
		},
	} {
		t.Run(ca.name, func(t *testing.T) {
			err2 := ca.fn()
			require.ErrorIs(t, err2, ca.err)
		})
	}

	require.NoError(t, h.Registry.CheckInvariants())
}

func TestHandlerUnexpected(t *testing.T) {
	for _, ca := range []string{"error", "panic"} {
		t.Run(ca, func(t *testing.T) {
			h, _ := newHandler(t, nil)
			h.Factory = &faultyFactory{panics: ca == "panic"}

			_, err := h.CreatePipeline(nil)
			require.ErrorIs(t, err, defs.ErrUnexpected)
			require.ErrorContains(t, err, "unexpected error in createMediaPipeline")
			require.Equal(t, int64(0), h.Registry.Stats().Objects)
		})
	}
}

func TestHandlerCommandsAndEvents(t *testing.T) {
	h, d := newHandler(t, nil)

	p, err := h.CreatePipeline(nil)
	require.NoError(t, err)

	dc, err := h.CreateElement(p, "datachannel", mediaobject.Params{"label": "chat"})
	require.NoError(t, err)

	token, err := h.Subscribe(dc, "DataChannelMessage", "127.0.0.1", 8080)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	res, err := h.SendCommand(dc, mediaobject.Command{
		Name:   "send",
		Params: mediaobject.Params{"data": "hello"},
	})
	require.NoError(t, err)
	require.Equal(t, "1", res.Value)

	evts := d.delivered()
	require.Len(t, evts, 1)
	require.Equal(t, "DataChannelMessage", evts[0].Type)
	require.Equal(t, dc.ID, evts[0].ObjectID)
	require.Equal(t, token, evts[0].SubscriptionToken)
	require.Equal(t, "hello", evts[0].Data["data"])

	require.NoError(t, h.Unsubscribe(dc, token))

	_, err = h.SendCommand(dc, mediaobject.Command{Name: "send"})
	require.NoError(t, err)
	require.Len(t, d.delivered(), 1)

	pl, err := h.CreateElement(p, "player", nil)
	require.NoError(t, err)

	_, err = h.SendCommand(pl, mediaobject.Command{Name: "play"})
	require.ErrorIs(t, err, defs.ErrCommandExecution)
	require.ErrorContains(t, err, "uri is not set")
}

func TestHandlerTrace(t *testing.T) {
	var mutex sync.Mutex
	var lines []string

	h, _ := newHandler(t, test.Logger(func(_ logger.Level, format string, args ...any) {
		mutex.Lock()
		defer mutex.Unlock()
		lines = append(lines, fmt.Sprintf(format, args...))
	}))

	require.Equal(t, "v1.2.3", h.GetVersion())

	p, err := h.CreatePipeline(nil)
	require.NoError(t, err)

	err = h.KeepAlive(p)
	require.NoError(t, err)

	err = h.Release(registry.Handle{ID: 4242})
	require.Error(t, err)

	mutex.Lock()
	defer mutex.Unlock()

	require.Contains(t, lines, fmt.Sprintf("[handler] keepAlive %d", p.ID))
	require.Contains(t, lines, fmt.Sprintf("[handler] keepAlive %d done", p.ID))
	require.Contains(t, lines, "[handler] release 4242 failed: object 4242 not found")
}
