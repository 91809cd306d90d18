package events

import (
	"testing"

	"github.com/tdewolff/test"
)

func TestHubPublish(t *testing.T) {
	h := NewEventHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish(StatusChanged, StatusChangedEvent{ID: "img1", Status: "done"})

	ev := <-ch
	test.T(t, ev.Name, StatusChanged)
	payload, err := DecodeAs[StatusChangedEvent](ev)
	test.Error(t, err)
	test.T(t, payload, StatusChangedEvent{ID: "img1", Status: "done"})
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	h := NewEventHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+5; i++ {
		h.Publish(SessionChanged, i)
	}
	test.T(t, len(ch), subscriberBuffer)
}

func TestHubUnsubscribeAndClose(t *testing.T) {
	h := NewEventHub()
	ch, cancel := h.Subscribe()
	test.T(t, h.Subscribers(), 1)

	cancel()
	cancel()
	test.T(t, h.Subscribers(), 0)
	if _, ok := <-ch; ok {
		t.Fatal("channel not closed after cancel")
	}

	ch2, _ := h.Subscribe()
	h.Close()
	if _, ok := <-ch2; ok {
		t.Fatal("channel not closed by Close")
	}

	ch3, _ := h.Subscribe()
	if _, ok := <-ch3; ok {
		t.Fatal("subscribe after Close should yield a closed channel")
	}

	var nilHub *EventHub
	nilHub.Publish(SessionChanged, nil)
}

func TestDecodeAsEmpty(t *testing.T) {
	v, err := DecodeAs[StatusChangedEvent](Event{Name: StatusChanged})
	test.Error(t, err)
	test.T(t, v, StatusChangedEvent{})
}
