package registry

import (
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/mediactl/mediactl/internal/defs"
	"github.com/mediactl/mediactl/internal/mediaobject"
)

// Subscription is a request to deliver events of a given type to a remote handler.
type Subscription struct {
	Token          string
	EventType      string
	HandlerAddress string
	HandlerPort    int32
}

// Event is an event raised by an object, as delivered to a subscriber.
type Event struct {
	Type              string            `json:"type"`
	ObjectID          uint64            `json:"objectId"`
	ObjectKind        string            `json:"objectKind"`
	ObjectType        string            `json:"objectType"`
	SubscriptionToken string            `json:"subscriptionToken"`
	Data              map[string]string `json:"data,omitempty"`
	Timestamp         time.Time         `json:"timestamp"`
}

// EventDeliverer delivers events to remote handlers.
// Deliver must not block.
type EventDeliverer interface {
	Deliver(address string, port int32, evt *Event)
}

func (r *Registry) updateEntry(h Handle, fn func(e *entry) error) error {
	e, err := r.lookup(h)
	if err != nil {
		return err
	}

	e.domain.mutex.Lock()
	defer e.domain.mutex.Unlock()

	if e.removed {
		return errNotFound(h)
	}

	return fn(e)
}

// Subscribe adds a subscription to an object and returns its token.
// Event types are not validated: a subscription to a type that the object
// never raises is accepted and never fires.
func (r *Registry) Subscribe(h Handle, eventType string, address string, port int32) (string, error) {
	sub := &Subscription{
		Token:          uuid.NewString(),
		EventType:      eventType,
		HandlerAddress: address,
		HandlerPort:    port,
	}

	err := r.updateEntry(h, func(e *entry) error {
		e.subs = append(e.subs, sub)
		r.counters.subscriptions.Add(1)
		return nil
	})
	if err != nil {
		return "", err
	}

	return sub.Token, nil
}

// Unsubscribe removes a subscription from an object.
func (r *Registry) Unsubscribe(h Handle, token string) error {
	return r.updateEntry(h, func(e *entry) error {
		for i, sub := range e.subs {
			if sub.Token == token {
				e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
				r.counters.subscriptions.Add(-1)
				return nil
			}
		}

		return defs.NewError(defs.ErrorCodeNotFound, "subscription '%s' not found", token)
	})
}

func (r *Registry) eventSink(e *entry) mediaobject.RaiseFunc {
	return func(eventType string, data map[string]string) {
		r.raise(e, eventType, data)
	}
}

func (r *Registry) raise(e *entry, eventType string, data map[string]string) {
	e.domain.mutex.RLock()

	if e.removed {
		e.domain.mutex.RUnlock()
		return
	}

	var matched []Subscription
	for _, sub := range e.subs {
		if sub.EventType == eventType {
			matched = append(matched, *sub)
		}
	}

	e.domain.mutex.RUnlock()

	r.counters.events.Add(1)

	if r.Deliverer == nil {
		return
	}

	now := r.Now()

	for _, sub := range matched {
		r.Deliverer.Deliver(sub.HandlerAddress, sub.HandlerPort, &Event{
			Type:              eventType,
			ObjectID:          e.handle.ID,
			ObjectKind:        e.kind.String(),
			ObjectType:        e.object.Type(),
			SubscriptionToken: sub.Token,
			Data:              maps.Clone(data),
			Timestamp:         now,
		})
	}
}
