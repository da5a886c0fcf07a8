package guestnest

// applyIntegrity clears weak references that no longer resolve and enforces
// the at-most-one top table rule. It runs after normalization on every load
// and is a fixed point: running it again changes nothing. Load-time clearing
// does not bump guest updatedAt; only the eager delete-time cascades do.
func applyIntegrity(doc Document) Document {
	groupIDs := make(map[string]bool, len(doc.Groups))
	for _, group := range doc.Groups {
		groupIDs[group.ID] = true
	}
	mealIDs := make(map[string]bool, len(doc.MealOptions))
	for _, option := range doc.MealOptions {
		mealIDs[option.ID] = true
	}
	tableIDs := make(map[string]bool, len(doc.Tables))
	for _, table := range doc.Tables {
		tableIDs[table.ID] = true
	}

	for index, guest := range doc.Guests {
		if guest.GroupID != "" && !groupIDs[guest.GroupID] {
			guest.GroupID = ""
		}
		if guest.MealChoiceID != "" && !mealIDs[guest.MealChoiceID] {
			guest.MealChoiceID = ""
		}
		if guest.TableID != "" && !tableIDs[guest.TableID] {
			guest.TableID = ""
			guest.SeatLabel = ""
		}
		doc.Guests[index] = guest
	}

	// When several tables are flagged as top table, the earliest-created one
	// wins. Stored timestamps are ISO-8601 UTC, so they order lexicographically.
	topIndex := -1
	for index, table := range doc.Tables {
		if !table.IsTopTable {
			continue
		}
		if topIndex < 0 || table.CreatedAt < doc.Tables[topIndex].CreatedAt {
			topIndex = index
		}
	}
	if topIndex >= 0 {
		for index, table := range doc.Tables {
			if table.IsTopTable && index != topIndex {
				table.IsTopTable = false
				doc.Tables[index] = table
			}
		}
	}

	return doc
}
