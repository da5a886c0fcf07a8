package server

import (
	"context"
	"testing"
	"time"
)

func TestRealtimeDispatcherDeliversToSubscribers(testContext *testing.T) {
	dispatcher := NewRealtimeDispatcher()

	stream, cleanup := dispatcher.Subscribe(context.Background())
	defer cleanup()

	dispatcher.Publish(ChangeEvent{
		EventID: "evt-1",
		Domain:  "budget",
		Action:  "categories_added",
	})

	select {
	case event := <-stream:
		if event.EventID != "evt-1" || event.Domain != "budget" {
			testContext.Fatalf("unexpected event %+v", event)
		}
	case <-time.After(time.Second):
		testContext.Fatalf("expected event delivery")
	}
}

func TestRealtimeDispatcherIgnoresIncompleteEvents(testContext *testing.T) {
	dispatcher := NewRealtimeDispatcher()

	stream, cleanup := dispatcher.Subscribe(context.Background())
	defer cleanup()

	dispatcher.Publish(ChangeEvent{Domain: "", Action: "categories_added"})
	dispatcher.Publish(ChangeEvent{Domain: "budget", Action: ""})

	select {
	case event := <-stream:
		testContext.Fatalf("expected no delivery for incomplete events, got %+v", event)
	default:
	}
}

func TestRealtimeDispatcherDropsWhenBufferFull(testContext *testing.T) {
	dispatcher := NewRealtimeDispatcher()

	stream, cleanup := dispatcher.Subscribe(context.Background())
	defer cleanup()

	for i := 0; i < dispatcher.bufferSize+5; i++ {
		dispatcher.Publish(ChangeEvent{EventID: "evt", Domain: "budget", Action: "allocation_set"})
	}

	delivered := 0
	for {
		select {
		case <-stream:
			delivered++
			continue
		default:
		}
		break
	}
	if delivered != dispatcher.bufferSize {
		testContext.Fatalf("expected exactly %d buffered events, got %d", dispatcher.bufferSize, delivered)
	}
}

func TestRealtimeDispatcherCleanupRemovesSubscriber(testContext *testing.T) {
	dispatcher := NewRealtimeDispatcher()

	_, cleanup := dispatcher.Subscribe(context.Background())
	if dispatcher.SubscriberCount() != 1 {
		testContext.Fatalf("expected one subscriber, got %d", dispatcher.SubscriberCount())
	}
	cleanup()
	if dispatcher.SubscriberCount() != 0 {
		testContext.Fatalf("expected cleanup to remove the subscriber, got %d", dispatcher.SubscriberCount())
	}
}

func TestRealtimeDispatcherContextCancelRemovesSubscriber(testContext *testing.T) {
	dispatcher := NewRealtimeDispatcher()

	ctx, cancel := context.WithCancel(context.Background())
	dispatcher.Subscribe(ctx)
	cancel()

	deadline := time.Now().Add(time.Second)
	for dispatcher.SubscriberCount() != 0 {
		if time.Now().After(deadline) {
			testContext.Fatalf("expected context cancellation to remove the subscriber")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
