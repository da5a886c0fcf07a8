package guestnest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/weddingnest/backend/internal/storage"
)

type sequenceIDProvider struct {
	mu     sync.Mutex
	counts map[string]int
}

func newSequenceIDProvider() *sequenceIDProvider {
	return &sequenceIDProvider{counts: make(map[string]int)}
}

func (p *sequenceIDProvider) NewID(prefix string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts[prefix]++
	return fmt.Sprintf("%s-%d", prefix, p.counts[prefix])
}

// testClock advances one second per reading so successive mutations get
// distinct timestamps.
type testClock struct {
	mu      sync.Mutex
	current time.Time
}

func newTestClock() *testClock {
	return &testClock{current: time.Unix(1700000000, 0).UTC()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(time.Second)
	return c.current
}

func newTestStore(t *testing.T) (*Store, *storage.MemoryStore) {
	t.Helper()

	memory := storage.NewMemoryStore()
	store, err := NewStore(StoreConfig{
		Storage: memory,
		Clock:   newTestClock().Now,
		IDs:     newSequenceIDProvider(),
	})
	if err != nil {
		t.Fatalf("failed to construct store: %v", err)
	}
	return store, memory
}

func mustAddGroup(t *testing.T, store *Store, name string) Group {
	t.Helper()
	doc, err := store.AddGroup(context.Background(), name)
	if err != nil {
		t.Fatalf("unexpected add group error: %v", err)
	}
	return doc.Groups[len(doc.Groups)-1]
}

func mustAddMealOption(t *testing.T, store *Store, course Course, dishName string) MealOption {
	t.Helper()
	doc, err := store.AddMealOption(context.Background(), course, dishName)
	if err != nil {
		t.Fatalf("unexpected add meal option error: %v", err)
	}
	return doc.MealOptions[len(doc.MealOptions)-1]
}

func mustAddTable(t *testing.T, store *Store, input TableInput) Table {
	t.Helper()
	doc, err := store.AddTable(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected add table error: %v", err)
	}
	return doc.Tables[len(doc.Tables)-1]
}

func mustAddGuest(t *testing.T, store *Store, input GuestInput) Guest {
	t.Helper()
	doc, err := store.AddGuest(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected add guest error: %v", err)
	}
	return doc.Guests[len(doc.Guests)-1]
}

func findGuestByID(t *testing.T, doc Document, id string) Guest {
	t.Helper()
	index := findGuest(doc.Guests, id)
	if index < 0 {
		t.Fatalf("guest %s not found", id)
	}
	return doc.Guests[index]
}

func stringPtr(value string) *string {
	return &value
}
