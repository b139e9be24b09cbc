package realtime

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakePusher struct {
	mu     sync.Mutex
	frames map[uint][]map[string]interface{}
}

func newFakePusher() *fakePusher {
	return &fakePusher{frames: make(map[uint][]map[string]interface{})}
}

func (p *fakePusher) Push(userID uint, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	frame, _ := data.(map[string]interface{})
	p.frames[userID] = append(p.frames[userID], frame)
	return nil
}

func (p *fakePusher) IsOnline(userID uint) bool { return true }

func (p *fakePusher) framesFor(userID uint) []map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]map[string]interface{}, len(p.frames[userID]))
	copy(out, p.frames[userID])
	return out
}

type fakeDirectory struct {
	mu      sync.Mutex
	classes map[uint][]uint
	names   map[uint]string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{classes: make(map[uint][]uint), names: make(map[uint]string)}
}

func (d *fakeDirectory) GetUserClassIDs(userID uint) ([]uint, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classes[userID], nil
}

func (d *fakeDirectory) GetClassName(classID uint) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	name, ok := d.names[classID]
	if !ok {
		return "", errors.New("class not found")
	}
	return name, nil
}

func (d *fakeDirectory) rename(classID uint, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names[classID] = name
}

func waitForFrames(t *testing.T, p *fakePusher, userID uint, want int) []map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		frames := p.framesFor(userID)
		if len(frames) >= want {
			return frames
		}
		time.Sleep(5 * time.Millisecond)
	}
	return p.framesFor(userID)
}

func TestBridgeNotifiesMembers(t *testing.T) {
	feed := NewFeed()
	pusher := newFakePusher()
	dir := newFakeDirectory()
	dir.classes[10] = []uint{1}
	dir.names[1] = "Algebra"

	bridge := NewBridge(feed, pusher, dir)
	if err := bridge.Attach(10); err != nil {
		t.Fatalf("Attach error = %v", err)
	}
	defer bridge.Detach(10)

	feed.Publish(Event{
		Kind:    EventClassworkCreated,
		ClassID: 1,
		ItemID:  7,
		ActorID: 2,
		Title:   "Homework 1",
	})

	frames := waitForFrames(t, pusher, 10, 1)
	if len(frames) != 1 {
		t.Fatalf("frames = %d, want exactly 1", len(frames))
	}
	frame := frames[0]
	if frame["type"] != "notification" || frame["kind"] != "classwork" {
		t.Errorf("frame = %+v", frame)
	}
	if frame["class_name"] != "Algebra" || frame["title"] != "Homework 1" {
		t.Errorf("frame = %+v", frame)
	}
	if frame["navigate"] != "/classes/1/classwork/7" {
		t.Errorf("navigate = %v", frame["navigate"])
	}
}

func TestBridgeSkipsNonMembersAndAuthor(t *testing.T) {
	feed := NewFeed()
	pusher := newFakePusher()
	dir := newFakeDirectory()
	dir.classes[10] = []uint{1}
	dir.classes[11] = []uint{2}
	dir.names[1] = "Algebra"
	dir.names[2] = "History"

	bridge := NewBridge(feed, pusher, dir)
	bridge.Attach(10)
	bridge.Attach(11)
	defer bridge.Detach(10)
	defer bridge.Detach(11)

	// User 10 authored this one; user 11 is not in class 1.
	feed.Publish(Event{Kind: EventClassworkCreated, ClassID: 1, ItemID: 1, ActorID: 10})

	// Give the sessions a moment to drain.
	time.Sleep(50 * time.Millisecond)
	if n := len(pusher.framesFor(10)); n != 0 {
		t.Errorf("author got %d frames, want 0", n)
	}
	if n := len(pusher.framesFor(11)); n != 0 {
		t.Errorf("non-member got %d frames, want 0", n)
	}
}

func TestBridgeUsesCurrentClassName(t *testing.T) {
	feed := NewFeed()
	pusher := newFakePusher()
	dir := newFakeDirectory()
	dir.classes[10] = []uint{1}
	dir.names[1] = "Algebra"

	bridge := NewBridge(feed, pusher, dir)
	bridge.Attach(10)
	defer bridge.Detach(10)

	// Renamed after attach; the notification must carry the new name.
	dir.rename(1, "Algebra II")

	feed.Publish(Event{Kind: EventAnnouncementCreated, ClassID: 1, ItemID: 3, ActorID: 2, Title: "Exam moved"})

	frames := waitForFrames(t, pusher, 10, 1)
	if len(frames) != 1 {
		t.Fatalf("frames = %d, want 1", len(frames))
	}
	if frames[0]["class_name"] != "Algebra II" {
		t.Errorf("class_name = %v, want renamed value", frames[0]["class_name"])
	}
	if frames[0]["navigate"] != "/classes/1/stream" {
		t.Errorf("navigate = %v", frames[0]["navigate"])
	}
}

func TestBridgeMembershipRefreshOnEvent(t *testing.T) {
	feed := NewFeed()
	pusher := newFakePusher()
	dir := newFakeDirectory()
	dir.names[1] = "Algebra"

	bridge := NewBridge(feed, pusher, dir)
	bridge.Attach(10)
	defer bridge.Detach(10)

	// Not a member yet: no notification.
	feed.Publish(Event{Kind: EventClassworkCreated, ClassID: 1, ItemID: 1, ActorID: 2})
	time.Sleep(50 * time.Millisecond)
	if n := len(pusher.framesFor(10)); n != 0 {
		t.Fatalf("got %d frames before joining, want 0", n)
	}

	// Joining publishes a membership event; the session reloads its cache.
	dir.mu.Lock()
	dir.classes[10] = []uint{1}
	dir.mu.Unlock()
	feed.Publish(Event{Kind: EventMembershipChanged, ClassID: 1, UserID: 10, ActorID: 10})

	// Wait for the refresh to land before publishing content.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		bridge.mu.Lock()
		s := bridge.sessions[10]
		bridge.mu.Unlock()
		if s != nil && s.isMemberOf(1) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	feed.Publish(Event{Kind: EventClassworkCreated, ClassID: 1, ItemID: 2, ActorID: 2, Title: "HW 2"})
	frames := waitForFrames(t, pusher, 10, 1)
	if len(frames) != 1 {
		t.Fatalf("frames after joining = %d, want 1", len(frames))
	}
}

func TestBridgeAttachIdempotentAndDetachReleases(t *testing.T) {
	feed := NewFeed()
	pusher := newFakePusher()
	dir := newFakeDirectory()
	dir.classes[10] = []uint{1}
	dir.names[1] = "Algebra"

	bridge := NewBridge(feed, pusher, dir)
	bridge.Attach(10)
	bridge.Attach(10)

	if feed.SubscriberCount() != 1 {
		t.Errorf("subscriptions = %d, want 1 after double attach", feed.SubscriberCount())
	}
	if !bridge.Attached(10) {
		t.Errorf("Attached = false, want true")
	}

	bridge.Detach(10)
	if feed.SubscriberCount() != 0 {
		t.Errorf("subscriptions = %d after detach, want 0", feed.SubscriberCount())
	}
	if bridge.Attached(10) {
		t.Errorf("Attached = true after detach")
	}

	// Events after detach go nowhere.
	feed.Publish(Event{Kind: EventClassworkCreated, ClassID: 1, ItemID: 9, ActorID: 2})
	time.Sleep(50 * time.Millisecond)
	if n := len(pusher.framesFor(10)); n != 0 {
		t.Errorf("detached user got %d frames, want 0", n)
	}
}
