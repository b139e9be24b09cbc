package realtime

import (
	"testing"
	"time"
)

func TestSubscribePublishClose(t *testing.T) {
	feed := NewFeed()

	sub := feed.Subscribe()
	if feed.SubscriberCount() != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", feed.SubscriberCount())
	}

	feed.Publish(Event{Kind: EventClassworkCreated, ClassID: 1, ItemID: 7})

	select {
	case ev := <-sub.C:
		if ev.Kind != EventClassworkCreated || ev.ItemID != 7 {
			t.Errorf("received %+v", ev)
		}
		if ev.OccurredAt.IsZero() {
			t.Errorf("OccurredAt not stamped")
		}
	case <-time.After(time.Second):
		t.Fatalf("no event received")
	}

	sub.Close()
	if feed.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount after Close = %d, want 0", feed.SubscriberCount())
	}

	// The channel is closed after Close, so a range loop terminates.
	if _, ok := <-sub.C; ok {
		t.Errorf("channel still open after Close")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	feed := NewFeed()
	sub := feed.Subscribe()
	sub.Close()
	sub.Close()
	if feed.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount = %d, want 0", feed.SubscriberCount())
	}
}

func TestSlowSubscriberDoesNotBlockPublisher(t *testing.T) {
	feed := NewFeed()
	sub := feed.Subscribe()
	defer sub.Close()

	// Overfill the buffer; Publish must never block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			feed.Publish(Event{Kind: EventClassworkCreated, ItemID: uint(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Publish blocked on a slow subscriber")
	}
}

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	feed := NewFeed()
	a := feed.Subscribe()
	b := feed.Subscribe()
	defer a.Close()
	defer b.Close()

	feed.Publish(Event{Kind: EventAnnouncementCreated, ClassID: 3})

	for _, sub := range []*Subscription{a, b} {
		select {
		case ev := <-sub.C:
			if ev.ClassID != 3 {
				t.Errorf("received %+v", ev)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber missed the event")
		}
	}
}

func TestCloseDoesNotAffectOtherSubscribers(t *testing.T) {
	feed := NewFeed()
	a := feed.Subscribe()
	b := feed.Subscribe()
	defer b.Close()

	a.Close()
	feed.Publish(Event{Kind: EventClassworkCreated, ItemID: 1})

	select {
	case ev := <-b.C:
		if ev.ItemID != 1 {
			t.Errorf("received %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("surviving subscriber missed the event")
	}
}
