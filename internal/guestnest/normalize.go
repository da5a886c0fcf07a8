package guestnest

import (
	"strings"
	"time"
)

// isoLayout matches the timestamp format the stored documents already carry.
const isoLayout = "2006-01-02T15:04:05.000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(isoLayout)
}

func validTimestamp(value string) bool {
	if value == "" {
		return false
	}
	if _, err := time.Parse(isoLayout, value); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, value)
	return err == nil
}

func normalizeGuest(guest Guest, fallbackID string, now string) Guest {
	guest.ID = strings.TrimSpace(guest.ID)
	if guest.ID == "" {
		guest.ID = fallbackID
	}
	guest.FullName = strings.TrimSpace(guest.FullName)
	guest.GroupID = strings.TrimSpace(guest.GroupID)
	switch guest.RSVPStatus {
	case RSVPPending, RSVPYes, RSVPNo:
	default:
		guest.RSVPStatus = RSVPPending
	}
	switch guest.GuestCategory {
	case GuestCategoryDay, GuestCategoryEvening, GuestCategoryBoth:
	default:
		guest.GuestCategory = ""
	}
	guest.MealChoiceID = strings.TrimSpace(guest.MealChoiceID)
	guest.DietaryNotes = strings.TrimSpace(guest.DietaryNotes)
	guest.Email = strings.TrimSpace(guest.Email)
	guest.Phone = strings.TrimSpace(guest.Phone)
	guest.Address = strings.TrimSpace(guest.Address)
	guest.TableID = strings.TrimSpace(guest.TableID)
	guest.SeatLabel = strings.TrimSpace(guest.SeatLabel)
	guest.Notes = strings.TrimSpace(guest.Notes)
	if !validTimestamp(guest.CreatedAt) {
		guest.CreatedAt = now
	}
	if !validTimestamp(guest.UpdatedAt) {
		guest.UpdatedAt = guest.CreatedAt
	}
	return guest
}

func normalizeGroup(group Group, fallbackID string, now string) Group {
	group.ID = strings.TrimSpace(group.ID)
	if group.ID == "" {
		group.ID = fallbackID
	}
	group.Name = strings.TrimSpace(group.Name)
	if !validTimestamp(group.CreatedAt) {
		group.CreatedAt = now
	}
	return group
}

func normalizeMealOption(option MealOption, fallbackID string, now string) MealOption {
	option.ID = strings.TrimSpace(option.ID)
	if option.ID == "" {
		option.ID = fallbackID
	}
	switch option.Course {
	case CourseStarter, CourseMain, CourseDessert, CourseOther:
	default:
		option.Course = CourseOther
	}
	option.DishName = strings.TrimSpace(option.DishName)
	if !validTimestamp(option.CreatedAt) {
		option.CreatedAt = now
	}
	return option
}

func normalizeTable(table Table, fallbackID string, now string) Table {
	table.ID = strings.TrimSpace(table.ID)
	if table.ID == "" {
		table.ID = fallbackID
	}
	table.Name = strings.TrimSpace(table.Name)
	if table.NumberOfSeats < 0 {
		table.NumberOfSeats = 0
	}
	table.Type = strings.TrimSpace(table.Type)
	if !validTimestamp(table.CreatedAt) {
		table.CreatedAt = now
	}
	return table
}

// normalizeDocument coerces a raw stored document into canonical shape. It is
// idempotent: normalizing an already-normalized document changes nothing.
func normalizeDocument(doc Document, now string, newID func(prefix string) string) Document {
	guests := make([]Guest, 0, len(doc.Guests))
	for _, guest := range doc.Guests {
		guests = append(guests, normalizeGuest(guest, newID("guest"), now))
	}
	doc.Guests = guests

	groups := make([]Group, 0, len(doc.Groups))
	for _, group := range doc.Groups {
		groups = append(groups, normalizeGroup(group, newID("group"), now))
	}
	doc.Groups = groups

	options := make([]MealOption, 0, len(doc.MealOptions))
	for _, option := range doc.MealOptions {
		options = append(options, normalizeMealOption(option, newID("meal"), now))
	}
	doc.MealOptions = options

	tables := make([]Table, 0, len(doc.Tables))
	for _, table := range doc.Tables {
		tables = append(tables, normalizeTable(table, newID("table"), now))
	}
	doc.Tables = tables

	return doc
}
