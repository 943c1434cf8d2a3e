// Package registry contains the object registry and the object graph.
package registry

import (
	"context"
	"crypto/subtle"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mediactl/mediactl/internal/defs"
	"github.com/mediactl/mediactl/internal/logger"
	"github.com/mediactl/mediactl/internal/mediaobject"
)

const (
	shardCount = 64

	defaultTTL           = 120 * time.Second
	defaultSweepInterval = 5 * time.Second
)

type shard struct {
	mutex   sync.RWMutex
	entries map[uint64]*entry
}

// Registry stores media objects and hands out handles to them.
//
// Every ownership tree has its own lock (a domain), so that operations on
// unrelated pipelines never contend. The id index is split into shards that
// are locked only for map access. Locks are always taken in the order
// domain, then shard.
type Registry struct {
	TTL           time.Duration
	SweepInterval time.Duration
	Deliverer     EventDeliverer
	OnCreate      func(*ObjectInfo)
	OnRemove      func(*ObjectInfo, RemoveReason)
	Now           func() time.Time
	Parent        logger.Writer

	ttl       atomic.Int64
	nextID    atomic.Uint64
	shards    [shardCount]shard
	counters  counters
	ctx       context.Context
	ctxCancel func()
	wg        sync.WaitGroup
}

// Initialize initializes Registry.
func (r *Registry) Initialize() {
	if r.TTL == 0 {
		r.TTL = defaultTTL
	}
	if r.SweepInterval == 0 {
		r.SweepInterval = defaultSweepInterval
	}
	if r.Now == nil {
		r.Now = time.Now
	}

	r.ttl.Store(int64(r.TTL))

	for i := range r.shards {
		r.shards[i].entries = make(map[uint64]*entry)
	}

	r.ctx, r.ctxCancel = context.WithCancel(context.Background())

	r.wg.Add(1)
	go r.runSweeper()
}

// Close stops the sweeper and releases every remaining object.
func (r *Registry) Close() {
	r.ctxCancel()
	r.wg.Wait()

	for _, e := range r.snapshot() {
		if e.parent == nil {
			r.removeEntry(e, ReasonShutdown) //nolint:errcheck
		}
	}
}

// Log implements logger.Writer.
func (r *Registry) Log(level logger.Level, format string, args ...any) {
	r.Parent.Log(level, "[registry] "+format, args...)
}

// SetTTL changes the lease duration of objects created or renewed from now on.
func (r *Registry) SetTTL(ttl time.Duration) {
	r.ttl.Store(int64(ttl))
}

func (r *Registry) leaseFromNow() time.Time {
	return r.Now().Add(time.Duration(r.ttl.Load()))
}

func (r *Registry) shard(id uint64) *shard {
	return &r.shards[id%shardCount]
}

func (r *Registry) index(e *entry) {
	s := r.shard(e.handle.ID)
	s.mutex.Lock()
	s.entries[e.handle.ID] = e
	s.mutex.Unlock()
}

func (r *Registry) unindex(e *entry) {
	s := r.shard(e.handle.ID)
	s.mutex.Lock()
	delete(s.entries, e.handle.ID)
	s.mutex.Unlock()
}

func (r *Registry) indexed(id uint64) *entry {
	s := r.shard(id)
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.entries[id]
}

func (r *Registry) snapshot() []*entry {
	var ret []*entry

	for i := range r.shards {
		s := &r.shards[i]
		s.mutex.RLock()
		for _, e := range s.entries {
			ret = append(ret, e)
		}
		s.mutex.RUnlock()
	}

	sort.Slice(ret, func(i, j int) bool {
		return ret[i].handle.ID < ret[j].handle.ID
	})

	return ret
}

func errNotFound(h Handle) error {
	return defs.NewError(defs.ErrorCodeNotFound, "object %d not found", h.ID)
}

// lookup finds the entry of a handle. The caller must then lock the
// entry domain and check the removed flag.
func (r *Registry) lookup(h Handle) (*entry, error) {
	e := r.indexed(h.ID)
	if e == nil || subtle.ConstantTimeCompare([]byte(e.handle.Token), []byte(h.Token)) != 1 {
		return nil, errNotFound(h)
	}
	return e, nil
}

func checkKind(e *entry, kind mediaobject.Kind) error {
	if !e.kind.Matches(kind) {
		return defs.NewError(defs.ErrorCodeTypeMismatch, "object %d is a %s, not a %s",
			e.handle.ID, e.kind, kind)
	}
	return nil
}

func (r *Registry) newEntry(obj mediaobject.Object, now time.Time, lease time.Time) *entry {
	e := &entry{
		handle: Handle{
			ID:    r.nextID.Add(1),
			Token: uuid.NewString(),
		},
		object:  obj,
		kind:    obj.Kind(),
		created: now,
	}
	e.lease.Store(lease.UnixNano())
	return e
}

// parentKind returns the kind the parent of an object of kind k must have.
// Pipelines have no parent, pads are only inserted as initial children.
func parentKind(k mediaobject.Kind) (mediaobject.Kind, bool) {
	switch k {
	case mediaobject.KindElement, mediaobject.KindMixer:
		return mediaobject.KindPipeline, true

	case mediaobject.KindMixerEndPoint:
		return mediaobject.KindMixer, true
	}
	return mediaobject.KindAny, false
}

// Put inserts an object into the registry. If parent is nil, the object becomes the
// root of a new ownership tree. Initial children of the object are inserted with it.
// If the parent does not exist anymore, the object is closed and NotFound is returned.
// If the parent kind cannot own the object, the object is closed and TypeMismatch is returned.
func (r *Registry) Put(obj mediaobject.Object, parent *Handle) (Handle, error) {
	var pe *entry

	want, needsParent := parentKind(obj.Kind())

	switch {
	case parent == nil && obj.Kind() != mediaobject.KindPipeline:
		obj.Close()
		return Handle{}, defs.NewError(defs.ErrorCodeTypeMismatch, "a %s needs a parent", obj.Kind())

	case parent != nil && !needsParent:
		obj.Close()
		return Handle{}, defs.NewError(defs.ErrorCodeTypeMismatch, "a %s cannot have a parent", obj.Kind())
	}

	if parent != nil {
		var err error
		pe, err = r.lookup(*parent)
		if err != nil {
			obj.Close()
			return Handle{}, err
		}

		// kinds never change, no lock is needed
		err = checkKind(pe, want)
		if err != nil {
			obj.Close()
			return Handle{}, err
		}
	}

	now := r.Now()
	lease := now.Add(time.Duration(r.ttl.Load()))

	e := r.newEntry(obj, now, lease)
	added := []*entry{e}

	var d *domain
	if pe != nil {
		d = pe.domain
	} else {
		d = &domain{id: e.handle.ID}
	}
	e.domain = d

	if c, ok := obj.(mediaobject.Container); ok {
		for _, child := range c.InitialChildren() {
			ce := r.newEntry(child, now, lease)
			ce.domain = d
			ce.parent = e
			e.children = append(e.children, ce)
			added = append(added, ce)
		}
	}

	d.mutex.Lock()

	if pe != nil {
		if pe.removed {
			d.mutex.Unlock()
			obj.Close()
			return Handle{}, errNotFound(*parent)
		}

		e.parent = pe
		pe.children = append(pe.children, e)

		// creating a child counts as activity on the ancestors
		for a := pe; a != nil; a = a.parent {
			a.extendLease(lease)
		}
	}

	for _, ae := range added {
		r.index(ae)
	}

	r.counters.objects.Add(int64(len(added)))
	if e.kind == mediaobject.KindPipeline {
		r.counters.pipelines.Add(1)
	}

	d.mutex.Unlock()

	r.counters.created.Add(uint64(len(added)))

	for _, ae := range added {
		ae.object.BindEvents(r.eventSink(ae))
	}

	for _, ae := range added {
		r.Log(logger.Debug, "%s %d created (type '%s')", ae.kind, ae.handle.ID, ae.object.Type())
		if r.OnCreate != nil {
			r.OnCreate(ae.info())
		}
	}

	return e.handle, nil
}

// View resolves a handle and calls fn while holding the object domain in shared mode.
func (r *Registry) View(h Handle, kind mediaobject.Kind, fn func(mediaobject.Object) error) error {
	e, err := r.lookup(h)
	if err != nil {
		return err
	}

	e.domain.mutex.RLock()
	defer e.domain.mutex.RUnlock()

	if e.removed {
		return errNotFound(h)
	}

	err = checkKind(e, kind)
	if err != nil {
		return err
	}

	return fn(e.object)
}

// Update resolves a handle and calls fn while holding the object domain in exclusive mode.
func (r *Registry) Update(h Handle, kind mediaobject.Kind, fn func(mediaobject.Object) error) error {
	e, err := r.lookup(h)
	if err != nil {
		return err
	}

	e.domain.mutex.Lock()
	defer e.domain.mutex.Unlock()

	if e.removed {
		return errNotFound(h)
	}

	err = checkKind(e, kind)
	if err != nil {
		return err
	}

	return fn(e.object)
}

// Resolve returns the object referenced by a handle.
func (r *Registry) Resolve(h Handle, kind mediaobject.Kind) (mediaobject.Object, error) {
	var ret mediaobject.Object

	err := r.View(h, kind, func(obj mediaobject.Object) error {
		ret = obj
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ret, nil
}

// Info returns a summary of the object referenced by a handle.
func (r *Registry) Info(h Handle) (*ObjectInfo, error) {
	e, err := r.lookup(h)
	if err != nil {
		return nil, err
	}

	e.domain.mutex.RLock()
	defer e.domain.mutex.RUnlock()

	if e.removed {
		return nil, errNotFound(h)
	}

	return e.info(), nil
}

// List returns a summary of every live object, sorted by ID.
func (r *Registry) List() []*ObjectInfo {
	entries := r.snapshot()

	ret := make([]*ObjectInfo, len(entries))
	for i, e := range entries {
		ret[i] = e.info()
	}

	return ret
}

// KeepAlive renews the lease of an object and of its ancestors.
// A pad renews the lease of its element. Leases are never shortened.
func (r *Registry) KeepAlive(h Handle) error {
	e, err := r.lookup(h)
	if err != nil {
		return err
	}

	e.domain.mutex.RLock()
	defer e.domain.mutex.RUnlock()

	if e.removed {
		return errNotFound(h)
	}

	lease := r.leaseFromNow()

	start := e
	if e.kind.IsPad() {
		start = e.parent
	}

	for a := start; a != nil; a = a.parent {
		a.extendLease(lease)
	}

	return nil
}

// Remove removes an object and, recursively, all its descendants.
// Connections and subscriptions of removed objects are dropped.
func (r *Registry) Remove(h Handle) error {
	e, err := r.lookup(h)
	if err != nil {
		return err
	}

	if e.kind.IsPad() {
		return defs.NewError(defs.ErrorCodeUnsupportedOperation,
			"pad %d cannot be released without its element", h.ID)
	}

	return r.removeEntry(e, ReasonReleased)
}

func (r *Registry) removeEntry(e *entry, reason RemoveReason) error {
	d := e.domain
	d.mutex.Lock()

	if e.removed {
		d.mutex.Unlock()
		return errNotFound(e.handle)
	}

	removed := r.detach(e)

	d.mutex.Unlock()

	r.finalize(e, removed, reason)

	return nil
}

// detach removes a subtree from the graph and from the index.
// It must be called with the subtree domain locked.
func (r *Registry) detach(root *entry) []*entry {
	var removed []*entry

	var walk func(e *entry)
	walk = func(e *entry) {
		for _, c := range e.children {
			walk(c)
		}

		for _, sink := range e.sinks {
			sink.src = nil
			r.counters.connections.Add(-1)
		}
		e.sinks = nil

		if e.src != nil {
			delete(e.src.sinks, e.handle.ID)
			e.src = nil
			r.counters.connections.Add(-1)
		}

		r.counters.subscriptions.Add(-int64(len(e.subs)))
		e.subs = nil

		e.removed = true
		r.unindex(e)
		removed = append(removed, e)
	}
	walk(root)

	if p := root.parent; p != nil {
		for i, c := range p.children {
			if c == root {
				p.children = append(p.children[:i:i], p.children[i+1:]...)
				break
			}
		}
	}

	r.counters.objects.Add(-int64(len(removed)))
	if root.kind == mediaobject.KindPipeline {
		r.counters.pipelines.Add(-1)
	}

	return removed
}

// finalize closes removed objects. It is called without any lock held.
func (r *Registry) finalize(root *entry, removed []*entry, reason RemoveReason) {
	switch reason {
	case ReasonExpired:
		r.counters.expired.Add(uint64(len(removed)))
	default:
		r.counters.released.Add(uint64(len(removed)))
	}

	for _, e := range removed {
		e.object.Close()

		er := reason
		if e != root {
			er = ReasonCascade
		}

		r.Log(logger.Debug, "%s %d removed (%s)", e.kind, e.handle.ID, er)

		if r.OnRemove != nil {
			r.OnRemove(e.info(), er)
		}
	}
}
