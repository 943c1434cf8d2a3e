package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mediactl/mediactl/internal/defs"
	"github.com/mediactl/mediactl/internal/mediaobject"
)

func TestLeaseExpiry(t *testing.T) {
	fx := newFixture(t)

	p := fx.pipeline(t)
	e := fx.element(t, p, "source")

	fx.clock.Advance(10 * time.Second)

	// a lease that ends exactly now is still valid
	require.Equal(t, 0, fx.r.Sweep())

	fx.clock.Advance(time.Millisecond)
	require.Equal(t, 1, fx.r.Sweep())

	_, err := fx.r.Resolve(p, mediaobject.KindPipeline)
	require.ErrorIs(t, err, defs.ErrNotFound)

	_, err = fx.r.Resolve(e, mediaobject.KindElement)
	require.ErrorIs(t, err, defs.ErrNotFound)

	err = fx.r.KeepAlive(e)
	require.ErrorIs(t, err, defs.ErrNotFound)

	stats := fx.r.Stats()
	require.Equal(t, uint64(4), stats.Expired)
	require.Equal(t, int64(0), stats.Objects)

	require.NoError(t, fx.r.CheckInvariants())
}

func TestLeaseExpiryChild(t *testing.T) {
	fx := newFixture(t)

	p := fx.pipeline(t)
	a := fx.element(t, p, "source")

	fx.clock.Advance(5 * time.Second)
	b := fx.element(t, p, "sink")

	// the creation of b renewed the pipeline, but not a
	fx.clock.Advance(6 * time.Second)
	require.Equal(t, 1, fx.r.Sweep())

	_, err := fx.r.Resolve(a, mediaobject.KindElement)
	require.ErrorIs(t, err, defs.ErrNotFound)

	_, err = fx.r.Resolve(b, mediaobject.KindElement)
	require.NoError(t, err)

	_, err = fx.r.Resolve(p, mediaobject.KindPipeline)
	require.NoError(t, err)

	require.NoError(t, fx.r.CheckInvariants())
}

func TestKeepAlivePreventsExpiry(t *testing.T) {
	fx := newFixture(t)

	p := fx.pipeline(t)
	e := fx.element(t, p, "source")

	for range 5 {
		fx.clock.Advance(8 * time.Second)
		require.NoError(t, fx.r.KeepAlive(e))
		require.Equal(t, 0, fx.r.Sweep())
	}

	// an expired but not yet swept object can still be renewed
	fx.clock.Advance(11 * time.Second)
	require.NoError(t, fx.r.KeepAlive(e))
	require.Equal(t, 0, fx.r.Sweep())

	_, err := fx.r.Resolve(p, mediaobject.KindPipeline)
	require.NoError(t, err)
}

func TestSweepRechecksLeaseUnderLock(t *testing.T) {
	fx := newFixture(t)

	p := fx.pipeline(t)
	fx.clock.Advance(11 * time.Second)

	e := fx.r.indexed(p.ID)
	require.NotNil(t, e)

	// the sweeper selects the expired pipeline, then waits for its domain
	e.domain.mutex.Lock()

	done := make(chan int)
	go func() {
		done <- fx.r.Sweep()
	}()

	time.Sleep(50 * time.Millisecond)

	// a keepalive completes first
	e.extendLease(fx.clock.Now().Add(10 * time.Second))
	e.domain.mutex.Unlock()

	require.Equal(t, 0, <-done)

	_, err := fx.r.Resolve(p, mediaobject.KindPipeline)
	require.NoError(t, err)
	require.NoError(t, fx.r.CheckInvariants())
}

func TestBackgroundSweeper(t *testing.T) {
	fx := newFixture(t)

	r := &Registry{
		TTL:           time.Millisecond,
		SweepInterval: 5 * time.Millisecond,
		Parent:        fx.r.Parent,
	}
	r.Initialize()
	defer r.Close()

	p, err := mediaobject.NewPipeline(fx.f, nil)
	require.NoError(t, err)

	h, err := r.Put(p, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := r.Resolve(h, mediaobject.KindAny)
		return err != nil
	}, 2*time.Second, 5*time.Millisecond)

	require.Equal(t, uint64(1), r.Stats().Expired)
}
