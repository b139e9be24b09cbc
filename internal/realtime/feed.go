package realtime

import (
	"sync"
	"time"
)

type EventKind string

const (
	EventClassworkCreated    EventKind = "classwork.created"
	EventAnnouncementCreated EventKind = "announcement.created"
	EventChatMessageCreated  EventKind = "chat.message.created"
	EventMembershipChanged   EventKind = "membership.changed"
)

// Event is one row-level change published to the feed.
type Event struct {
	Kind           EventKind
	ClassID        uint
	ItemID         uint
	ConversationID uint
	// ActorID is the user whose write produced the event.
	ActorID uint
	// UserID is the affected user for membership events.
	UserID     uint
	Title      string
	OccurredAt time.Time
}

// Subscription is an owned handle onto the feed. The holder must call Close
// when done; after Close the channel is drained and closed.
type Subscription struct {
	C <-chan Event

	id        uint64
	ch        chan Event
	feed      *Feed
	closeOnce sync.Once
}

// Close releases the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.feed.unsubscribe(s.id)
	})
}

// Feed is the in-process change feed: writers publish row events, each
// websocket session holds its own subscription. Delivery is best-effort; a
// subscriber that stops draining loses events rather than blocking writers.
type Feed struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	buffer int
}

func NewFeed() *Feed {
	return &Feed{
		subs:   make(map[uint64]*Subscription),
		buffer: 64,
	}
}

func (f *Feed) Subscribe() *Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	ch := make(chan Event, f.buffer)
	sub := &Subscription{
		C:    ch,
		id:   f.nextID,
		ch:   ch,
		feed: f,
	}
	f.subs[sub.id] = sub
	return sub
}

func (f *Feed) unsubscribe(id uint64) {
	f.mu.Lock()
	sub, ok := f.subs[id]
	if ok {
		delete(f.subs, id)
	}
	f.mu.Unlock()

	if ok {
		close(sub.ch)
	}
}

// Publish fans the event out to all current subscribers without blocking.
func (f *Feed) Publish(ev Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, sub := range f.subs {
		select {
		case sub.ch <- ev:
		default:
			// Subscriber is not draining; drop rather than stall the writer.
		}
	}
}

// SubscriberCount reports the number of live subscriptions.
func (f *Feed) SubscriberCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}
