package registry

import (
	"testing"

	"github.com/bluenviron/gortsplib/v4/pkg/description"
	"github.com/stretchr/testify/require"

	"github.com/mediactl/mediactl/internal/defs"
	"github.com/mediactl/mediactl/internal/mediaobject"
)

func TestConnect(t *testing.T) {
	fx := newFixture(t)

	p := fx.pipeline(t)
	a := fx.element(t, p, "source")
	b := fx.element(t, p, "sink")

	aSrc := fx.pad(t, a, mediaobject.DirectionSrc, description.MediaTypeVideo)
	bSink := fx.pad(t, b, mediaobject.DirectionSink, description.MediaTypeVideo)

	err := fx.r.Connect(aSrc, bSink)
	require.NoError(t, err)

	sinks, err := fx.r.ConnectedSinks(aSrc)
	require.NoError(t, err)
	require.Equal(t, []Handle{bSink}, sinks)

	src, err := fx.r.ConnectedSrc(bSink)
	require.NoError(t, err)
	require.Equal(t, aSrc, src)

	// identical edge
	err = fx.r.Connect(aSrc, bSink)
	require.NoError(t, err)
	require.Equal(t, int64(1), fx.r.Stats().Connections)

	require.NoError(t, fx.r.CheckInvariants())
}

func TestConnectFanOut(t *testing.T) {
	fx := newFixture(t)

	p := fx.pipeline(t)
	a := fx.element(t, p, "source")
	b := fx.element(t, p, "sink")
	c := fx.element(t, p, "sink")

	aSrc := fx.pad(t, a, mediaobject.DirectionSrc, description.MediaTypeAudio)
	bSink := fx.pad(t, b, mediaobject.DirectionSink, description.MediaTypeAudio)
	cSink := fx.pad(t, c, mediaobject.DirectionSink, description.MediaTypeAudio)

	require.NoError(t, fx.r.Connect(aSrc, cSink))
	require.NoError(t, fx.r.Connect(aSrc, bSink))

	sinks, err := fx.r.ConnectedSinks(aSrc)
	require.NoError(t, err)
	require.Equal(t, []Handle{bSink, cSink}, sinks)

	require.NoError(t, fx.r.CheckInvariants())
}

func TestConnectReplace(t *testing.T) {
	fx := newFixture(t)

	p := fx.pipeline(t)
	a1 := fx.element(t, p, "source")
	a2 := fx.element(t, p, "source")
	b := fx.element(t, p, "sink")

	src1 := fx.pad(t, a1, mediaobject.DirectionSrc, description.MediaTypeVideo)
	src2 := fx.pad(t, a2, mediaobject.DirectionSrc, description.MediaTypeVideo)
	sink := fx.pad(t, b, mediaobject.DirectionSink, description.MediaTypeVideo)

	require.NoError(t, fx.r.Connect(src1, sink))
	require.NoError(t, fx.r.Connect(src2, sink))

	src, err := fx.r.ConnectedSrc(sink)
	require.NoError(t, err)
	require.Equal(t, src2, src)

	sinks, err := fx.r.ConnectedSinks(src1)
	require.NoError(t, err)
	require.Empty(t, sinks)

	require.Equal(t, int64(1), fx.r.Stats().Connections)
	require.NoError(t, fx.r.CheckInvariants())
}

func TestDisconnect(t *testing.T) {
	fx := newFixture(t)

	p := fx.pipeline(t)
	a := fx.element(t, p, "source")
	b := fx.element(t, p, "sink")

	src := fx.pad(t, a, mediaobject.DirectionSrc, description.MediaTypeVideo)
	sink := fx.pad(t, b, mediaobject.DirectionSink, description.MediaTypeVideo)

	require.NoError(t, fx.r.Connect(src, sink))

	err := fx.r.Disconnect(src, sink)
	require.NoError(t, err)

	err = fx.r.Disconnect(src, sink)
	require.ErrorIs(t, err, defs.ErrNotFound)

	_, err = fx.r.ConnectedSrc(sink)
	require.ErrorIs(t, err, defs.ErrNotFound)

	sinks, err := fx.r.ConnectedSinks(src)
	require.NoError(t, err)
	require.Empty(t, sinks)

	require.Equal(t, int64(0), fx.r.Stats().Connections)
	require.NoError(t, fx.r.CheckInvariants())
}

func TestConnectErrors(t *testing.T) {
	fx := newFixture(t)

	p := fx.pipeline(t)
	a := fx.element(t, p, "source")
	b := fx.element(t, p, "sink")

	aVideo := fx.pad(t, a, mediaobject.DirectionSrc, description.MediaTypeVideo)
	bAudio := fx.pad(t, b, mediaobject.DirectionSink, description.MediaTypeAudio)
	bVideo := fx.pad(t, b, mediaobject.DirectionSink, description.MediaTypeVideo)

	other := fx.pipeline(t)
	c := fx.element(t, other, "sink")
	cVideo := fx.pad(t, c, mediaobject.DirectionSink, description.MediaTypeVideo)

	for _, ca := range []struct {
		name string
		src  Handle
		sink Handle
		err  error
	}{
		{"media type", aVideo, bAudio, defs.ErrInvalidMediaType},
		{"reversed", bVideo, aVideo, defs.ErrTypeMismatch},
		{"element", a, bVideo, defs.ErrTypeMismatch},
		{"different pipelines", aVideo, cVideo, defs.ErrUnsupportedOperation},
		{"unknown", aVideo, Handle{ID: 12345}, defs.ErrNotFound},
	} {
		t.Run(ca.name, func(t *testing.T) {
			err := fx.r.Connect(ca.src, ca.sink)
			require.ErrorIs(t, err, ca.err)
		})
	}

	require.Equal(t, int64(0), fx.r.Stats().Connections)
	require.NoError(t, fx.r.CheckInvariants())
}

// create P, A (source) and B (sink), connect, then release A.
func TestReleaseConnectedSource(t *testing.T) {
	fx := newFixture(t)

	p := fx.pipeline(t)
	a := fx.element(t, p, "source")
	b := fx.element(t, p, "passthrough")

	aSrc := fx.pad(t, a, mediaobject.DirectionSrc, description.MediaTypeVideo)
	bSink := fx.pad(t, b, mediaobject.DirectionSink, description.MediaTypeVideo)
	bSrc := fx.pad(t, b, mediaobject.DirectionSrc, description.MediaTypeVideo)

	require.NoError(t, fx.r.Connect(aSrc, bSink))

	sinks, err := fx.r.ConnectedSinks(aSrc)
	require.NoError(t, err)
	require.Equal(t, []Handle{bSink}, sinks)

	err = fx.r.Remove(a)
	require.NoError(t, err)

	_, err = fx.r.Resolve(aSrc, mediaobject.KindAny)
	require.ErrorIs(t, err, defs.ErrNotFound)

	_, err = fx.r.ConnectedSrc(bSink)
	require.ErrorIs(t, err, defs.ErrNotFound)

	sinks, err = fx.r.ConnectedSinks(bSrc)
	require.NoError(t, err)
	require.Empty(t, sinks)

	require.Equal(t, int64(0), fx.r.Stats().Connections)
	require.NoError(t, fx.r.CheckInvariants())
}

func TestReleaseSelfConnected(t *testing.T) {
	fx := newFixture(t)

	p := fx.pipeline(t)
	e := fx.element(t, p, "passthrough")

	src := fx.pad(t, e, mediaobject.DirectionSrc, description.MediaTypeAudio)
	sink := fx.pad(t, e, mediaobject.DirectionSink, description.MediaTypeAudio)

	require.NoError(t, fx.r.Connect(src, sink))
	require.NoError(t, fx.r.Remove(e))

	require.Equal(t, int64(0), fx.r.Stats().Connections)
	require.NoError(t, fx.r.CheckInvariants())
}
