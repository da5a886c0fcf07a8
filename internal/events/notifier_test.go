package events

import (
	"testing"

	"go.uber.org/zap"
)

func TestNotifierDeliversInRegistrationOrder(t *testing.T) {
	notifier := NewNotifier[string](zap.NewNop())

	var order []string
	notifier.Subscribe(func(payload string, meta Meta) {
		order = append(order, "first:"+payload)
	})
	notifier.Subscribe(func(payload string, meta Meta) {
		order = append(order, "second:"+payload)
	})

	notifier.Publish("doc", NewMeta("guest_added", "guest-1"))

	if len(order) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(order))
	}
	if order[0] != "first:doc" || order[1] != "second:doc" {
		t.Fatalf("unexpected delivery order: %v", order)
	}
}

func TestNotifierUnsubscribeStopsDelivery(t *testing.T) {
	notifier := NewNotifier[int](nil)

	calls := 0
	unsubscribe := notifier.Subscribe(func(payload int, meta Meta) {
		calls++
	})

	notifier.Publish(1, NewMeta("table_added"))
	unsubscribe()
	notifier.Publish(2, NewMeta("table_added"))

	if calls != 1 {
		t.Fatalf("expected 1 call after unsubscribe, got %d", calls)
	}
}

func TestNotifierRecoversPanickingListener(t *testing.T) {
	notifier := NewNotifier[string](zap.NewNop())

	notifier.Subscribe(func(payload string, meta Meta) {
		panic("listener failure")
	})
	delivered := false
	notifier.Subscribe(func(payload string, meta Meta) {
		delivered = true
	})

	notifier.Publish("doc", NewMeta("group_deleted", "group-1"))

	if !delivered {
		t.Fatalf("expected listener after the panicking one to still run")
	}
}

func TestNotifierAllowsDuplicateListeners(t *testing.T) {
	notifier := NewNotifier[string](nil)

	calls := 0
	listener := func(payload string, meta Meta) { calls++ }
	notifier.Subscribe(listener)
	notifier.Subscribe(listener)

	notifier.Publish("doc", NewMeta("meal_option_added"))

	if calls != 2 {
		t.Fatalf("expected duplicate listener to be invoked twice, got %d", calls)
	}
}

func TestNewMetaPopulatesEventID(t *testing.T) {
	meta := NewMeta("payment_added", "payment-1")
	if meta.EventID == "" {
		t.Fatalf("expected generated event id")
	}
	if meta.Action != "payment_added" {
		t.Fatalf("unexpected action %q", meta.Action)
	}
	if len(meta.EntityIDs) != 1 || meta.EntityIDs[0] != "payment-1" {
		t.Fatalf("unexpected entity ids: %v", meta.EntityIDs)
	}
}
