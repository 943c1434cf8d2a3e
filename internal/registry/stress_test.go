package registry

import (
	"errors"
	"testing"

	"github.com/bluenviron/gortsplib/v4/pkg/description"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/mediactl/mediactl/internal/defs"
	"github.com/mediactl/mediactl/internal/mediaobject"
)

// ignoreNotFound filters the errors that concurrent removals legitimately cause.
func ignoreNotFound(err error) error {
	if err == nil || errors.Is(err, defs.ErrNotFound) {
		return nil
	}
	return err
}

func TestConcurrentGraphMutations(t *testing.T) {
	fx := newFixture(t)

	p := fx.pipeline(t)

	const elements = 8

	srcs := make([]Handle, elements)
	sinks := make([]Handle, elements)
	handles := make([]Handle, elements)

	for i := range elements {
		handles[i] = fx.element(t, p, "passthrough")
		srcs[i] = fx.pad(t, handles[i], mediaobject.DirectionSrc, description.MediaTypeVideo)
		sinks[i] = fx.pad(t, handles[i], mediaobject.DirectionSink, description.MediaTypeVideo)
	}

	var g errgroup.Group

	for w := range 8 {
		g.Go(func() error {
			for i := range 200 {
				src := srcs[(w+i)%elements]
				sink := sinks[(w*3+i)%elements]

				err := ignoreNotFound(fx.r.Connect(src, sink))
				if err != nil {
					return err
				}

				if i%3 == 0 {
					err = ignoreNotFound(fx.r.Disconnect(src, sink))
					if err != nil {
						return err
					}
				}

				_, err = fx.r.ConnectedSinks(src)
				if err != nil {
					return err
				}

				err = fx.r.KeepAlive(sink)
				if err != nil {
					return err
				}
			}
			return nil
		})
	}

	require.NoError(t, g.Wait())
	require.NoError(t, fx.r.CheckInvariants())

	// release half of the elements while others keep connecting
	var g2 errgroup.Group

	for i := range elements / 2 {
		g2.Go(func() error {
			return fx.r.Remove(handles[i])
		})
	}

	for w := range 4 {
		g2.Go(func() error {
			for i := range 100 {
				err := ignoreNotFound(fx.r.Connect(srcs[(w+i)%elements], sinks[(w+2*i)%elements]))
				if err != nil {
					return err
				}
			}
			return nil
		})
	}

	require.NoError(t, g2.Wait())
	require.NoError(t, fx.r.CheckInvariants())

	for i := range elements / 2 {
		_, err := fx.r.Resolve(srcs[i], mediaobject.KindSrcPad)
		require.ErrorIs(t, err, defs.ErrNotFound)
	}
}

func TestConcurrentPipelines(t *testing.T) {
	fx := newFixture(t)

	var g errgroup.Group

	for range 16 {
		g.Go(func() error {
			for range 20 {
				pl, err := mediaobject.NewPipeline(fx.f, nil)
				if err != nil {
					return err
				}

				p, err := fx.r.Put(pl, nil)
				if err != nil {
					return err
				}

				a, err := pl.CreateElement(fx.f, "source", nil)
				if err != nil {
					return err
				}

				ah, err := fx.r.Put(a, &p)
				if err != nil {
					return err
				}

				b, err := pl.CreateElement(fx.f, "sink", nil)
				if err != nil {
					return err
				}

				bh, err := fx.r.Put(b, &p)
				if err != nil {
					return err
				}

				aSrcs, err := fx.r.Pads(ah, mediaobject.DirectionSrc, description.MediaTypeAudio)
				if err != nil {
					return err
				}

				bSinks, err := fx.r.Pads(bh, mediaobject.DirectionSink, description.MediaTypeAudio)
				if err != nil {
					return err
				}

				err = fx.r.Connect(aSrcs[0], bSinks[0])
				if err != nil {
					return err
				}

				// a concurrent resolver never sees a partially removed tree
				done := make(chan error)
				go func() {
					for range 50 {
						_, err1 := fx.r.Resolve(bSinks[0], mediaobject.KindSinkPad)
						_, err2 := fx.r.Resolve(bh, mediaobject.KindElement)
						if err1 != nil && err2 == nil {
							done <- errors.New("pad removed before its element")
							return
						}
					}
					done <- nil
				}()

				err = fx.r.Remove(p)
				if err != nil {
					return err
				}

				err = <-done
				if err != nil {
					return err
				}
			}
			return nil
		})
	}

	require.NoError(t, g.Wait())
	require.NoError(t, fx.r.CheckInvariants())
	require.Equal(t, int64(0), fx.r.Stats().Objects)
}
