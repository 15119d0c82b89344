// Package notify implements a priority-ordered publish/subscribe bus. It
// propagates FileData lifecycle events so the cache engine and any open
// search results stay consistent without polling. The subject of a
// publish is an interface{} rather than a concrete FileData so that this
// package has no dependency on pkg/filedata (which itself depends on
// notify.EventKinds to describe the changes it publishes).
package notify

import "sync"

// EventKinds is a bitmask of notify-bus event kinds.
type EventKinds uint16

const (
	MarksChanged EventKinds = 1 << iota
	PixbufLoaded
	HistogramLoaded
	OrientationChanged
	MetadataChanged
	GroupingChanged
	Reread
	Change
)

// Handler is invoked for each publish a subscriber is registered for.
// subject is whatever was passed to Publish (in practice, a
// *filedata.FileData); data is an optional opaque payload a subscriber
// registered alongside itself.
type Handler func(subject interface{}, kinds EventKinds, data interface{})

// Priority orders subscriber dispatch. Higher priority values run first,
// so the cache engine can subscribe at high priority to relocate cache
// files before any lower-priority subscriber (e.g. an open search result)
// observes the change.
type Priority int

const (
	PriorityLow    Priority = 0
	PriorityNormal Priority = 50
	PriorityHigh   Priority = 100
)

type subscription struct {
	id       uint64
	handler  Handler
	data     interface{}
	priority Priority
}

// Bus is a priority-ordered subscriber list. Publish dispatches
// synchronously, in priority order, from the calling goroutine. No
// subscriber may add or remove subscriptions during dispatch; Bus detects
// and rejects attempts to do so via a dispatching flag, pushing the
// responsibility for deferred (un)subscription onto the caller.
type Bus struct {
	mu          sync.Mutex
	subscribers []*subscription
	nextID      uint64
	dispatching bool
}

// NewBus creates an empty notify bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscription is an opaque handle returned by Subscribe, used to
// Unsubscribe later.
type Subscription struct {
	id uint64
}

// Subscribe registers handler at the given priority, optionally carrying
// an opaque data value that will be passed back on every dispatch to this
// subscriber.
func (b *Bus) Subscribe(priority Priority, data interface{}, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dispatching {
		panic("notify: Subscribe called during dispatch; defer it instead")
	}
	b.nextID++
	sub := &subscription{id: b.nextID, handler: handler, data: data, priority: priority}
	b.subscribers = insertByPriority(b.subscribers, sub)
	return Subscription{id: sub.id}
}

func insertByPriority(subs []*subscription, sub *subscription) []*subscription {
	i := 0
	for ; i < len(subs); i++ {
		if subs[i].priority < sub.priority {
			break
		}
	}
	subs = append(subs, nil)
	copy(subs[i+1:], subs[i:])
	subs[i] = sub
	return subs
}

// Unsubscribe removes a previously registered subscription. It must not be
// called from within a dispatch (see Subscribe's documentation).
func (b *Bus) Unsubscribe(s Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dispatching {
		panic("notify: Unsubscribe called during dispatch; defer it instead")
	}
	for i, sub := range b.subscribers {
		if sub.id == s.id {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			return
		}
	}
}

// Publish dispatches subject/kinds to every subscriber in priority order,
// synchronously on the calling goroutine.
func (b *Bus) Publish(subject interface{}, kinds EventKinds) {
	b.mu.Lock()
	b.dispatching = true
	subs := make([]*subscription, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.dispatching = false
		b.mu.Unlock()
	}()

	for _, sub := range subs {
		sub.handler(subject, kinds, sub.data)
	}
}
