package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvOne(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestSubscribeReceivesMatchingTopic(t *testing.T) {
	h := NewHub()
	ch, unsub := h.Subscribe(TopicSchedule)
	defer unsub()

	id := uuid.New()
	h.Publish(TopicSchedule, "updated", id)

	ev := recvOne(t, ch)
	assert.Equal(t, TopicSchedule, ev.Topic)
	assert.Equal(t, "updated", ev.Action)
	assert.Equal(t, id, ev.DocumentID)
}

func TestSubscribeFiltersOtherTopics(t *testing.T) {
	h := NewHub()
	ch, unsub := h.Subscribe(TopicLibertyRequests)
	defer unsub()

	h.Publish(TopicSchedule, "created", uuid.New())
	h.Publish(TopicLibertyRequests, "created", uuid.New())

	ev := recvOne(t, ch)
	assert.Equal(t, TopicLibertyRequests, ev.Topic)
	assert.Empty(t, ch)
}

func TestEmptyTopicListReceivesEverything(t *testing.T) {
	h := NewHub()
	ch, unsub := h.Subscribe()
	defer unsub()

	h.Publish(TopicSchedule, "created", uuid.New())
	h.Publish(TopicSwapRequests, "updated", uuid.New())

	assert.Equal(t, TopicSchedule, recvOne(t, ch).Topic)
	assert.Equal(t, TopicSwapRequests, recvOne(t, ch).Topic)
}

func TestUnsubscribeClosesChannelAndStopsDelivery(t *testing.T) {
	h := NewHub()
	ch, unsub := h.Subscribe(TopicSchedule)

	unsub()
	unsub() // idempotent

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed")
	assert.Equal(t, 0, h.SubscriberCount())

	// Publishing after release must not panic.
	h.Publish(TopicSchedule, "updated", uuid.New())
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	h := NewHub()
	_, unsub := h.Subscribe(TopicSchedule)
	defer unsub()

	done := make(chan struct{})
	go func() {
		// Overfill the subscriber buffer; Publish must never block.
		for i := 0; i < 100; i++ {
			h.Publish(TopicSchedule, "updated", uuid.New())
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
