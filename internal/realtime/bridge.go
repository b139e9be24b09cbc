package realtime

import (
	"fmt"
	"log"
	"sync"
)

// ClassDirectory is the slice of the roster the bridge needs: which classes a
// user belongs to, and a class's current display name.
type ClassDirectory interface {
	GetUserClassIDs(userID uint) ([]uint, error)
	GetClassName(classID uint) (string, error)
}

// Bridge watches the content feed and turns row inserts into per-user
// notification frames. Each attached user gets an owned feed subscription,
// released when the session detaches; membership is filtered through an
// in-memory cache loaded at attach time and refreshed on membership events
// or an explicit RefreshMemberships call.
type Bridge struct {
	feed    *Feed
	pusher  Pusher
	classes ClassDirectory

	mu       sync.Mutex
	sessions map[uint]*bridgeSession
}

type bridgeSession struct {
	userID uint
	sub    *Subscription

	mu       sync.RWMutex
	memberOf map[uint]struct{}
}

func NewBridge(feed *Feed, pusher Pusher, classes ClassDirectory) *Bridge {
	return &Bridge{
		feed:     feed,
		pusher:   pusher,
		classes:  classes,
		sessions: make(map[uint]*bridgeSession),
	}
}

// Attach starts watching the feed on behalf of a user. Idempotent: a second
// attach for the same user keeps the existing session.
func (b *Bridge) Attach(userID uint) error {
	b.mu.Lock()
	if _, exists := b.sessions[userID]; exists {
		b.mu.Unlock()
		return nil
	}

	s := &bridgeSession{
		userID:   userID,
		sub:      b.feed.Subscribe(),
		memberOf: make(map[uint]struct{}),
	}
	b.sessions[userID] = s
	b.mu.Unlock()

	if err := b.loadMemberships(s); err != nil {
		// Keep the session; the cache stays empty until a refresh succeeds,
		// which only suppresses notifications, never crashes the session.
		log.Printf("bridge: loading memberships for user %d: %v", userID, err)
	}

	go b.run(s)
	return nil
}

// Detach closes the user's subscription and drops the session.
func (b *Bridge) Detach(userID uint) {
	b.mu.Lock()
	s, exists := b.sessions[userID]
	if exists {
		delete(b.sessions, userID)
	}
	b.mu.Unlock()

	if exists {
		s.sub.Close()
	}
}

// RefreshMemberships reloads the membership cache for an attached user.
func (b *Bridge) RefreshMemberships(userID uint) error {
	b.mu.Lock()
	s, exists := b.sessions[userID]
	b.mu.Unlock()

	if !exists {
		return nil
	}
	return b.loadMemberships(s)
}

// Attached reports whether the user currently has a bridge session.
func (b *Bridge) Attached(userID uint) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, exists := b.sessions[userID]
	return exists
}

func (b *Bridge) loadMemberships(s *bridgeSession) error {
	ids, err := b.classes.GetUserClassIDs(s.userID)
	if err != nil {
		return err
	}

	fresh := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		fresh[id] = struct{}{}
	}

	s.mu.Lock()
	s.memberOf = fresh
	s.mu.Unlock()
	return nil
}

func (s *bridgeSession) isMemberOf(classID uint) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.memberOf[classID]
	return ok
}

func (b *Bridge) run(s *bridgeSession) {
	for ev := range s.sub.C {
		switch ev.Kind {
		case EventMembershipChanged:
			if ev.UserID == s.userID {
				if err := b.loadMemberships(s); err != nil {
					log.Printf("bridge: refreshing memberships for user %d: %v", s.userID, err)
				}
			}
		case EventClassworkCreated, EventAnnouncementCreated:
			b.notify(s, ev)
		}
	}
}

func (b *Bridge) notify(s *bridgeSession, ev Event) {
	// The author already sees their own post.
	if ev.ActorID == s.userID {
		return
	}
	if !s.isMemberOf(ev.ClassID) {
		return
	}

	// Resolve the display name fresh per event; renames must show the
	// current name, not the one cached at attach time.
	className, err := b.classes.GetClassName(ev.ClassID)
	if err != nil {
		log.Printf("bridge: resolving class %d name: %v", ev.ClassID, err)
		return
	}

	kind := "classwork"
	target := fmt.Sprintf("/classes/%d/classwork/%d", ev.ClassID, ev.ItemID)
	if ev.Kind == EventAnnouncementCreated {
		kind = "announcement"
		target = fmt.Sprintf("/classes/%d/stream", ev.ClassID)
	}

	frame := map[string]interface{}{
		"type":       "notification",
		"kind":       kind,
		"item_id":    ev.ItemID,
		"class_id":   ev.ClassID,
		"class_name": className,
		"title":      ev.Title,
		"navigate":   target,
	}

	if err := b.pusher.Push(s.userID, frame); err != nil {
		log.Printf("bridge: pushing notification to user %d: %v", s.userID, err)
	}
}
