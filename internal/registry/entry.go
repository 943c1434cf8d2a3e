package registry

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/bluenviron/gortsplib/v4/pkg/description"

	"github.com/mediactl/mediactl/internal/mediaobject"
)

// domain is the lock shared by every entry of an ownership tree.
type domain struct {
	id    uint64
	mutex sync.RWMutex
}

type entry struct {
	handle  Handle
	object  mediaobject.Object
	kind    mediaobject.Kind
	domain  *domain
	parent  *entry
	created time.Time
	lease   atomic.Int64

	// guarded by domain.mutex
	removed  bool
	children []*entry
	sinks    map[uint64]*entry
	src      *entry
	subs     []*Subscription
}

func (e *entry) leaseExpiry() time.Time {
	if e.kind.IsPad() {
		return e.parent.leaseExpiry()
	}
	return time.Unix(0, e.lease.Load())
}

func (e *entry) extendLease(t time.Time) {
	n := t.UnixNano()
	for {
		cur := e.lease.Load()
		if cur >= n || e.lease.CompareAndSwap(cur, n) {
			return
		}
	}
}

func (e *entry) mediaType() description.MediaType {
	if p, ok := e.object.(interface{ MediaType() description.MediaType }); ok {
		return p.MediaType()
	}
	return ""
}

func (e *entry) info() *ObjectInfo {
	i := &ObjectInfo{
		ID:          e.handle.ID,
		Kind:        e.kind,
		Type:        e.object.Type(),
		Created:     e.created,
		LeaseExpiry: e.leaseExpiry(),
	}
	if e.parent != nil {
		i.Parent = e.parent.handle.ID
	}
	return i
}

// ObjectInfo is a summary of an object. It does not contain the token.
type ObjectInfo struct {
	ID          uint64
	Kind        mediaobject.Kind
	Type        string
	Parent      uint64
	Created     time.Time
	LeaseExpiry time.Time
}
