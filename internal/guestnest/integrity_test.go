package guestnest

import (
	"reflect"
	"testing"
)

func TestApplyIntegrityClearsDanglingReferences(t *testing.T) {
	doc := Document{
		Guests: []Guest{
			{
				ID:           "guest-1",
				FullName:     "Ada",
				GroupID:      "group-gone",
				MealChoiceID: "meal-gone",
				TableID:      "table-gone",
				SeatLabel:    "Seat 3",
				UpdatedAt:    "2026-05-01T10:00:00.000Z",
			},
			{
				ID:           "guest-2",
				FullName:     "Grace",
				GroupID:      "group-1",
				MealChoiceID: "meal-1",
				TableID:      "table-1",
				SeatLabel:    "Seat 1",
			},
		},
		Groups:      []Group{{ID: "group-1", Name: "Friends"}},
		MealOptions: []MealOption{{ID: "meal-1", Course: CourseMain, DishName: "Soup"}},
		Tables:      []Table{{ID: "table-1", Name: "Garden"}},
	}

	result := applyIntegrity(doc)

	dangling := result.Guests[0]
	if dangling.GroupID != "" || dangling.MealChoiceID != "" || dangling.TableID != "" {
		t.Fatalf("expected dangling references cleared, got %+v", dangling)
	}
	if dangling.SeatLabel != "" {
		t.Fatalf("expected seat label to be cleared with its table, got %q", dangling.SeatLabel)
	}
	if dangling.UpdatedAt != "2026-05-01T10:00:00.000Z" {
		t.Fatalf("integrity clearing must not bump updatedAt, got %q", dangling.UpdatedAt)
	}

	intact := result.Guests[1]
	if intact.GroupID != "group-1" || intact.MealChoiceID != "meal-1" || intact.TableID != "table-1" || intact.SeatLabel != "Seat 1" {
		t.Fatalf("expected resolving references to survive, got %+v", intact)
	}
}

func TestApplyIntegrityKeepsEarliestTopTable(t *testing.T) {
	doc := Document{
		Guests: []Guest{},
		Tables: []Table{
			{ID: "table-1", Name: "Late", IsTopTable: true, CreatedAt: "2026-05-02T10:00:00.000Z"},
			{ID: "table-2", Name: "Early", IsTopTable: true, CreatedAt: "2026-05-01T10:00:00.000Z"},
			{ID: "table-3", Name: "Plain", IsTopTable: false, CreatedAt: "2026-04-01T10:00:00.000Z"},
		},
	}

	result := applyIntegrity(doc)

	topCount := 0
	for _, table := range result.Tables {
		if table.IsTopTable {
			topCount++
			if table.ID != "table-2" {
				t.Fatalf("expected earliest-created top table to win, got %s", table.ID)
			}
		}
	}
	if topCount != 1 {
		t.Fatalf("expected exactly one top table, got %d", topCount)
	}
}

func TestApplyIntegrityIsFixedPoint(t *testing.T) {
	doc := Document{
		Guests: []Guest{
			{ID: "guest-1", FullName: "Ada", GroupID: "missing", TableID: "missing", SeatLabel: "A1"},
		},
		Groups:      []Group{},
		MealOptions: []MealOption{},
		Tables: []Table{
			{ID: "table-1", Name: "One", IsTopTable: true, CreatedAt: "2026-05-01T10:00:00.000Z"},
			{ID: "table-2", Name: "Two", IsTopTable: true, CreatedAt: "2026-05-02T10:00:00.000Z"},
		},
	}

	first := applyIntegrity(doc)
	second := applyIntegrity(first)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected integrity pass to be a fixed point:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}
