package guestnest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/weddingnest/backend/internal/events"
	"github.com/weddingnest/backend/internal/ids"
	"github.com/weddingnest/backend/internal/storage"
	"go.uber.org/zap"
)

// storageKey is the fixed key the guest-nest document is stored under.
const storageKey = "guest_nest_store"

var (
	errMissingStorage = errors.New("storage is required")

	// ErrFullNameRequired indicates a guest name was blank.
	ErrFullNameRequired = errors.New("guestnest: full name is required")
	// ErrNameRequired indicates a group or table name was blank.
	ErrNameRequired = errors.New("guestnest: name is required")
	// ErrDishNameRequired indicates a meal option dish name was blank.
	ErrDishNameRequired = errors.New("guestnest: dish name is required")
	// ErrDuplicateName indicates the name already exists (case-insensitive).
	ErrDuplicateName = errors.New("guestnest: name already exists")
	// ErrGuestNotFound indicates the referenced guest does not exist.
	ErrGuestNotFound = errors.New("guestnest: guest not found")
	// ErrGroupNotFound indicates the referenced group does not exist.
	ErrGroupNotFound = errors.New("guestnest: group not found")
	// ErrMealOptionNotFound indicates the referenced meal option does not exist.
	ErrMealOptionNotFound = errors.New("guestnest: meal option not found")
	// ErrTableNotFound indicates the referenced table does not exist.
	ErrTableNotFound = errors.New("guestnest: table not found")

	noOpLogger = zap.NewNop()
)

// ServiceError carries a dotted operation code alongside the cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code returns the dotted operation code.
func (e *ServiceError) Code() string {
	return e.code
}

const (
	opStoreNew         = "guestnest.store.new"
	opLoad             = "guestnest.load"
	opAddGuest         = "guestnest.add_guest"
	opUpdateGuest      = "guestnest.update_guest"
	opDeleteGuest      = "guestnest.delete_guest"
	opBulkAddGuests    = "guestnest.bulk_add_guests"
	opAddGroup         = "guestnest.add_group"
	opUpdateGroup      = "guestnest.update_group"
	opDeleteGroup      = "guestnest.delete_group"
	opAddMealOption    = "guestnest.add_meal_option"
	opUpdateMealOption = "guestnest.update_meal_option"
	opDeleteMealOption = "guestnest.delete_meal_option"
	opAddTable         = "guestnest.add_table"
	opUpdateTable      = "guestnest.update_table"
	opDeleteTable      = "guestnest.delete_table"
	opAssignTable      = "guestnest.assign_guest_to_table"
	opUnassignTable    = "guestnest.unassign_guest_from_table"
	opSetMealChoice    = "guestnest.set_guest_meal_choice"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// StoreConfig describes the dependencies of a guest-nest Store.
type StoreConfig struct {
	Storage storage.KeyValueStore
	Clock   func() time.Time
	IDs     ids.Provider
	Logger  *zap.Logger
}

// Store is the GuestNest domain store. Every mutation is a
// load-normalize-mutate-save-notify cycle against the stored document,
// serialized through a per-store mutex: a mutation's load does not begin
// until the previous mutation's save has completed. The store keeps no
// in-memory copy of the document.
type Store struct {
	mu       sync.Mutex
	storage  storage.KeyValueStore
	clock    func() time.Time
	ids      ids.Provider
	logger   *zap.Logger
	notifier *events.Notifier[Document]
}

// NewStore constructs a guest-nest Store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Storage == nil {
		return nil, newServiceError(opStoreNew, "missing_storage", errMissingStorage)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	provider := cfg.IDs
	if provider == nil {
		provider = ids.NewProvider()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Store{
		storage:  cfg.Storage,
		clock:    clock,
		ids:      provider,
		logger:   logger,
		notifier: events.NewNotifier[Document](logger),
	}, nil
}

// Subscribe registers a listener for document changes and returns a disposer.
func (s *Store) Subscribe(fn events.Listener[Document]) func() {
	return s.notifier.Subscribe(fn)
}

// Load reads, normalizes and integrity-checks the stored document. The
// returned document is always usable: missing or malformed state falls back
// to the default document, and a storage read failure additionally reports
// an error.
func (s *Store) Load(ctx context.Context) (Document, error) {
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) (Document, error) {
	raw, ok, err := s.storage.GetItem(ctx, storageKey)
	if err != nil {
		s.logError(opLoad, "storage_read_failed", err)
		return DefaultDocument(), newServiceError(opLoad, "storage_read_failed", err)
	}
	if !ok {
		return DefaultDocument(), nil
	}
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		s.logError(opLoad, "document_malformed", err)
		return DefaultDocument(), nil
	}
	now := formatTimestamp(s.clock())
	return applyIntegrity(normalizeDocument(doc, now, s.ids.NewID)), nil
}

func (s *Store) save(ctx context.Context, doc Document) error {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.storage.SetItem(ctx, storageKey, string(encoded))
}

// mutate runs one serialized load-mutate-save-notify cycle. The apply
// callback mutates the freshly loaded document and reports the notification
// metadata; returning an error leaves the stored document untouched.
func (s *Store) mutate(ctx context.Context, operation string, apply func(doc *Document) (events.Meta, error)) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, loadErr := s.load(ctx)
	if loadErr != nil {
		return doc, newServiceError(operation, "storage_read_failed", loadErr)
	}

	meta, err := apply(&doc)
	if err != nil {
		return doc, err
	}

	if err := s.save(ctx, doc); err != nil {
		s.logError(operation, "storage_write_failed", err)
		return doc, newServiceError(operation, "storage_write_failed", err)
	}

	s.notifier.Publish(doc, meta)
	return doc, nil
}

// AddGuest appends a guest. FullName is required; group and meal references,
// when provided, must resolve.
func (s *Store) AddGuest(ctx context.Context, input GuestInput) (Document, error) {
	return s.mutate(ctx, opAddGuest, func(doc *Document) (events.Meta, error) {
		guest, err := s.buildGuest(doc, input, opAddGuest)
		if err != nil {
			return events.Meta{}, err
		}
		doc.Guests = append(doc.Guests, guest)
		return events.NewMeta("guest_added", guest.ID), nil
	})
}

// BulkAddGuests appends several guests in one write. Entries with a blank
// name are skipped; unresolvable group or meal references are cleared rather
// than rejected, import tolerance over strictness.
func (s *Store) BulkAddGuests(ctx context.Context, inputs []GuestInput) (Document, error) {
	return s.mutate(ctx, opBulkAddGuests, func(doc *Document) (events.Meta, error) {
		added := make([]string, 0, len(inputs))
		for _, input := range inputs {
			if strings.TrimSpace(input.FullName) == "" {
				continue
			}
			if input.GroupID != "" && findGroup(doc.Groups, strings.TrimSpace(input.GroupID)) < 0 {
				input.GroupID = ""
			}
			if input.MealChoiceID != "" && findMealOption(doc.MealOptions, strings.TrimSpace(input.MealChoiceID)) < 0 {
				input.MealChoiceID = ""
			}
			guest, err := s.buildGuest(doc, input, opBulkAddGuests)
			if err != nil {
				return events.Meta{}, err
			}
			doc.Guests = append(doc.Guests, guest)
			added = append(added, guest.ID)
		}
		if len(added) == 0 {
			return events.Meta{}, newServiceError(opBulkAddGuests, "empty_guests", ErrFullNameRequired)
		}
		return events.NewMeta("guests_bulk_added", added...), nil
	})
}

func (s *Store) buildGuest(doc *Document, input GuestInput, operation string) (Guest, error) {
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return Guest{}, newServiceError(operation, "empty_full_name", ErrFullNameRequired)
	}
	groupID := strings.TrimSpace(input.GroupID)
	if groupID != "" && findGroup(doc.Groups, groupID) < 0 {
		return Guest{}, newServiceError(operation, "group_not_found", ErrGroupNotFound)
	}
	mealChoiceID := strings.TrimSpace(input.MealChoiceID)
	if mealChoiceID != "" && findMealOption(doc.MealOptions, mealChoiceID) < 0 {
		return Guest{}, newServiceError(operation, "meal_option_not_found", ErrMealOptionNotFound)
	}
	now := formatTimestamp(s.clock())
	return normalizeGuest(Guest{
		ID:             s.ids.NewID("guest"),
		FullName:       fullName,
		GroupID:        groupID,
		RSVPStatus:     input.RSVPStatus,
		GuestCategory:  input.GuestCategory,
		PlusOneAllowed: input.PlusOneAllowed,
		MealChoiceID:   mealChoiceID,
		DietaryNotes:   input.DietaryNotes,
		Email:          input.Email,
		Phone:          input.Phone,
		Address:        input.Address,
		Notes:          input.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, s.ids.NewID("guest"), now), nil
}

// UpdateGuest applies a partial patch: nil fields keep the stored value, a
// pointer to the empty string clears an optional field. Clearing the table
// also clears the seat label. UpdatedAt is bumped on every patch.
func (s *Store) UpdateGuest(ctx context.Context, id string, patch GuestPatch) (Document, error) {
	return s.mutate(ctx, opUpdateGuest, func(doc *Document) (events.Meta, error) {
		index := findGuest(doc.Guests, id)
		if index < 0 {
			return events.Meta{}, newServiceError(opUpdateGuest, "guest_not_found", ErrGuestNotFound)
		}
		guest := doc.Guests[index]
		if patch.FullName != nil {
			fullName := strings.TrimSpace(*patch.FullName)
			if fullName == "" {
				return events.Meta{}, newServiceError(opUpdateGuest, "empty_full_name", ErrFullNameRequired)
			}
			guest.FullName = fullName
		}
		if patch.GroupID != nil {
			groupID := strings.TrimSpace(*patch.GroupID)
			if groupID != "" && findGroup(doc.Groups, groupID) < 0 {
				return events.Meta{}, newServiceError(opUpdateGuest, "group_not_found", ErrGroupNotFound)
			}
			guest.GroupID = groupID
		}
		if patch.RSVPStatus != nil {
			guest.RSVPStatus = *patch.RSVPStatus
		}
		if patch.GuestCategory != nil {
			guest.GuestCategory = *patch.GuestCategory
		}
		if patch.PlusOneAllowed != nil {
			guest.PlusOneAllowed = *patch.PlusOneAllowed
		}
		if patch.MealChoiceID != nil {
			mealChoiceID := strings.TrimSpace(*patch.MealChoiceID)
			if mealChoiceID != "" && findMealOption(doc.MealOptions, mealChoiceID) < 0 {
				return events.Meta{}, newServiceError(opUpdateGuest, "meal_option_not_found", ErrMealOptionNotFound)
			}
			guest.MealChoiceID = mealChoiceID
		}
		if patch.DietaryNotes != nil {
			guest.DietaryNotes = strings.TrimSpace(*patch.DietaryNotes)
		}
		if patch.Email != nil {
			guest.Email = strings.TrimSpace(*patch.Email)
		}
		if patch.Phone != nil {
			guest.Phone = strings.TrimSpace(*patch.Phone)
		}
		if patch.Address != nil {
			guest.Address = strings.TrimSpace(*patch.Address)
		}
		if patch.TableID != nil {
			tableID := strings.TrimSpace(*patch.TableID)
			if tableID == "" {
				guest.TableID = ""
				guest.SeatLabel = ""
			} else {
				if findTable(doc.Tables, tableID) < 0 {
					return events.Meta{}, newServiceError(opUpdateGuest, "table_not_found", ErrTableNotFound)
				}
				guest.TableID = tableID
			}
		}
		if patch.SeatLabel != nil {
			guest.SeatLabel = strings.TrimSpace(*patch.SeatLabel)
		}
		if patch.Notes != nil {
			guest.Notes = strings.TrimSpace(*patch.Notes)
		}
		guest.UpdatedAt = formatTimestamp(s.clock())
		doc.Guests[index] = normalizeGuest(guest, guest.ID, guest.UpdatedAt)
		return events.NewMeta("guest_updated", id), nil
	})
}

// DeleteGuest removes a guest.
func (s *Store) DeleteGuest(ctx context.Context, id string) (Document, error) {
	return s.mutate(ctx, opDeleteGuest, func(doc *Document) (events.Meta, error) {
		index := findGuest(doc.Guests, id)
		if index < 0 {
			return events.Meta{}, newServiceError(opDeleteGuest, "guest_not_found", ErrGuestNotFound)
		}
		doc.Guests = append(doc.Guests[:index], doc.Guests[index+1:]...)
		return events.NewMeta("guest_deleted", id), nil
	})
}

// AddGroup appends a group. Names are case-insensitively unique.
func (s *Store) AddGroup(ctx context.Context, name string) (Document, error) {
	return s.mutate(ctx, opAddGroup, func(doc *Document) (events.Meta, error) {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return events.Meta{}, newServiceError(opAddGroup, "empty_name", ErrNameRequired)
		}
		if groupNameTaken(doc.Groups, trimmed, "") {
			return events.Meta{}, newServiceError(opAddGroup, "duplicate_name", ErrDuplicateName)
		}
		group := Group{
			ID:        s.ids.NewID("group"),
			Name:      trimmed,
			CreatedAt: formatTimestamp(s.clock()),
		}
		doc.Groups = append(doc.Groups, group)
		return events.NewMeta("group_added", group.ID), nil
	})
}

// UpdateGroup renames a group, keeping names case-insensitively unique.
func (s *Store) UpdateGroup(ctx context.Context, id string, name string) (Document, error) {
	return s.mutate(ctx, opUpdateGroup, func(doc *Document) (events.Meta, error) {
		index := findGroup(doc.Groups, id)
		if index < 0 {
			return events.Meta{}, newServiceError(opUpdateGroup, "group_not_found", ErrGroupNotFound)
		}
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return events.Meta{}, newServiceError(opUpdateGroup, "empty_name", ErrNameRequired)
		}
		if groupNameTaken(doc.Groups, trimmed, id) {
			return events.Meta{}, newServiceError(opUpdateGroup, "duplicate_name", ErrDuplicateName)
		}
		doc.Groups[index].Name = trimmed
		return events.NewMeta("group_updated", id), nil
	})
}

// DeleteGroup removes a group and eagerly clears it from referencing guests,
// bumping their updatedAt. The load-time integrity pass gives the same
// protection; the eager cascade keeps the returned document consistent.
func (s *Store) DeleteGroup(ctx context.Context, id string) (Document, error) {
	return s.mutate(ctx, opDeleteGroup, func(doc *Document) (events.Meta, error) {
		index := findGroup(doc.Groups, id)
		if index < 0 {
			return events.Meta{}, newServiceError(opDeleteGroup, "group_not_found", ErrGroupNotFound)
		}
		doc.Groups = append(doc.Groups[:index], doc.Groups[index+1:]...)
		now := formatTimestamp(s.clock())
		for guestIndex, guest := range doc.Guests {
			if guest.GroupID == id {
				guest.GroupID = ""
				guest.UpdatedAt = now
				doc.Guests[guestIndex] = guest
			}
		}
		return events.NewMeta("group_deleted", id), nil
	})
}

// AddMealOption appends a meal option. Dish names are case-insensitively
// unique; an unknown course falls back to Other.
func (s *Store) AddMealOption(ctx context.Context, course Course, dishName string) (Document, error) {
	return s.mutate(ctx, opAddMealOption, func(doc *Document) (events.Meta, error) {
		trimmed := strings.TrimSpace(dishName)
		if trimmed == "" {
			return events.Meta{}, newServiceError(opAddMealOption, "empty_dish_name", ErrDishNameRequired)
		}
		if dishNameTaken(doc.MealOptions, trimmed, "") {
			return events.Meta{}, newServiceError(opAddMealOption, "duplicate_dish_name", ErrDuplicateName)
		}
		now := formatTimestamp(s.clock())
		option := normalizeMealOption(MealOption{
			ID:        s.ids.NewID("meal"),
			Course:    course,
			DishName:  trimmed,
			CreatedAt: now,
		}, s.ids.NewID("meal"), now)
		doc.MealOptions = append(doc.MealOptions, option)
		return events.NewMeta("meal_option_added", option.ID), nil
	})
}

// UpdateMealOption changes a meal option's course or dish name.
func (s *Store) UpdateMealOption(ctx context.Context, id string, course *Course, dishName *string) (Document, error) {
	return s.mutate(ctx, opUpdateMealOption, func(doc *Document) (events.Meta, error) {
		index := findMealOption(doc.MealOptions, id)
		if index < 0 {
			return events.Meta{}, newServiceError(opUpdateMealOption, "meal_option_not_found", ErrMealOptionNotFound)
		}
		option := doc.MealOptions[index]
		if dishName != nil {
			trimmed := strings.TrimSpace(*dishName)
			if trimmed == "" {
				return events.Meta{}, newServiceError(opUpdateMealOption, "empty_dish_name", ErrDishNameRequired)
			}
			if dishNameTaken(doc.MealOptions, trimmed, id) {
				return events.Meta{}, newServiceError(opUpdateMealOption, "duplicate_dish_name", ErrDuplicateName)
			}
			option.DishName = trimmed
		}
		if course != nil {
			option.Course = *course
		}
		doc.MealOptions[index] = normalizeMealOption(option, option.ID, option.CreatedAt)
		return events.NewMeta("meal_option_updated", id), nil
	})
}

// DeleteMealOption removes a meal option and eagerly clears it from
// referencing guests, bumping their updatedAt.
func (s *Store) DeleteMealOption(ctx context.Context, id string) (Document, error) {
	return s.mutate(ctx, opDeleteMealOption, func(doc *Document) (events.Meta, error) {
		index := findMealOption(doc.MealOptions, id)
		if index < 0 {
			return events.Meta{}, newServiceError(opDeleteMealOption, "meal_option_not_found", ErrMealOptionNotFound)
		}
		doc.MealOptions = append(doc.MealOptions[:index], doc.MealOptions[index+1:]...)
		now := formatTimestamp(s.clock())
		for guestIndex, guest := range doc.Guests {
			if guest.MealChoiceID == id {
				guest.MealChoiceID = ""
				guest.UpdatedAt = now
				doc.Guests[guestIndex] = guest
			}
		}
		return events.NewMeta("meal_option_deleted", id), nil
	})
}

// AddTable appends a table. If a top table already exists, the new table's
// top flag is cleared: the earliest-created top table always wins.
func (s *Store) AddTable(ctx context.Context, input TableInput) (Document, error) {
	return s.mutate(ctx, opAddTable, func(doc *Document) (events.Meta, error) {
		trimmed := strings.TrimSpace(input.Name)
		if trimmed == "" {
			return events.Meta{}, newServiceError(opAddTable, "empty_name", ErrNameRequired)
		}
		isTop := input.IsTopTable
		if isTop && hasTopTable(doc.Tables) {
			isTop = false
		}
		now := formatTimestamp(s.clock())
		table := normalizeTable(Table{
			ID:            s.ids.NewID("table"),
			Name:          trimmed,
			NumberOfSeats: input.NumberOfSeats,
			Type:          input.Type,
			IsTopTable:    isTop,
			CreatedAt:     now,
		}, s.ids.NewID("table"), now)
		doc.Tables = append(doc.Tables, table)
		return events.NewMeta("table_added", table.ID), nil
	})
}

// UpdateTable applies a partial patch to a table. Setting IsTopTable demotes
// any other top table; this is the one way to move the top table flag.
func (s *Store) UpdateTable(ctx context.Context, id string, patch TablePatch) (Document, error) {
	return s.mutate(ctx, opUpdateTable, func(doc *Document) (events.Meta, error) {
		index := findTable(doc.Tables, id)
		if index < 0 {
			return events.Meta{}, newServiceError(opUpdateTable, "table_not_found", ErrTableNotFound)
		}
		table := doc.Tables[index]
		if patch.Name != nil {
			trimmed := strings.TrimSpace(*patch.Name)
			if trimmed == "" {
				return events.Meta{}, newServiceError(opUpdateTable, "empty_name", ErrNameRequired)
			}
			table.Name = trimmed
		}
		if patch.NumberOfSeats != nil {
			table.NumberOfSeats = *patch.NumberOfSeats
		}
		if patch.Type != nil {
			table.Type = strings.TrimSpace(*patch.Type)
		}
		if patch.IsTopTable != nil {
			table.IsTopTable = *patch.IsTopTable
			if table.IsTopTable {
				for otherIndex, other := range doc.Tables {
					if otherIndex != index && other.IsTopTable {
						other.IsTopTable = false
						doc.Tables[otherIndex] = other
					}
				}
			}
		}
		doc.Tables[index] = normalizeTable(table, table.ID, table.CreatedAt)
		return events.NewMeta("table_updated", id), nil
	})
}

// DeleteTable removes a table and eagerly clears table and seat label from
// referencing guests, bumping their updatedAt.
func (s *Store) DeleteTable(ctx context.Context, id string) (Document, error) {
	return s.mutate(ctx, opDeleteTable, func(doc *Document) (events.Meta, error) {
		index := findTable(doc.Tables, id)
		if index < 0 {
			return events.Meta{}, newServiceError(opDeleteTable, "table_not_found", ErrTableNotFound)
		}
		doc.Tables = append(doc.Tables[:index], doc.Tables[index+1:]...)
		now := formatTimestamp(s.clock())
		for guestIndex, guest := range doc.Guests {
			if guest.TableID == id {
				guest.TableID = ""
				guest.SeatLabel = ""
				guest.UpdatedAt = now
				doc.Guests[guestIndex] = guest
			}
		}
		return events.NewMeta("table_deleted", id), nil
	})
}

// AssignGuestToTable seats a guest at a table with an optional seat label.
func (s *Store) AssignGuestToTable(ctx context.Context, guestID, tableID, seatLabel string) (Document, error) {
	return s.mutate(ctx, opAssignTable, func(doc *Document) (events.Meta, error) {
		guestIndex := findGuest(doc.Guests, guestID)
		if guestIndex < 0 {
			return events.Meta{}, newServiceError(opAssignTable, "guest_not_found", ErrGuestNotFound)
		}
		table := strings.TrimSpace(tableID)
		if table == "" || findTable(doc.Tables, table) < 0 {
			return events.Meta{}, newServiceError(opAssignTable, "table_not_found", ErrTableNotFound)
		}
		guest := doc.Guests[guestIndex]
		guest.TableID = table
		guest.SeatLabel = strings.TrimSpace(seatLabel)
		guest.UpdatedAt = formatTimestamp(s.clock())
		doc.Guests[guestIndex] = guest
		return events.NewMeta("guest_assigned_to_table", guestID, table), nil
	})
}

// UnassignGuestFromTable clears a guest's table and seat label.
func (s *Store) UnassignGuestFromTable(ctx context.Context, guestID string) (Document, error) {
	return s.mutate(ctx, opUnassignTable, func(doc *Document) (events.Meta, error) {
		guestIndex := findGuest(doc.Guests, guestID)
		if guestIndex < 0 {
			return events.Meta{}, newServiceError(opUnassignTable, "guest_not_found", ErrGuestNotFound)
		}
		guest := doc.Guests[guestIndex]
		guest.TableID = ""
		guest.SeatLabel = ""
		guest.UpdatedAt = formatTimestamp(s.clock())
		doc.Guests[guestIndex] = guest
		return events.NewMeta("guest_unassigned_from_table", guestID), nil
	})
}

// SetGuestMealChoice sets or clears a guest's meal choice. An empty meal
// option id clears the choice.
func (s *Store) SetGuestMealChoice(ctx context.Context, guestID, mealOptionID string) (Document, error) {
	return s.mutate(ctx, opSetMealChoice, func(doc *Document) (events.Meta, error) {
		guestIndex := findGuest(doc.Guests, guestID)
		if guestIndex < 0 {
			return events.Meta{}, newServiceError(opSetMealChoice, "guest_not_found", ErrGuestNotFound)
		}
		choice := strings.TrimSpace(mealOptionID)
		if choice != "" && findMealOption(doc.MealOptions, choice) < 0 {
			return events.Meta{}, newServiceError(opSetMealChoice, "meal_option_not_found", ErrMealOptionNotFound)
		}
		guest := doc.Guests[guestIndex]
		guest.MealChoiceID = choice
		guest.UpdatedAt = formatTimestamp(s.clock())
		doc.Guests[guestIndex] = guest
		return events.NewMeta("guest_meal_choice_set", guestID), nil
	})
}

func findGuest(guests []Guest, id string) int {
	for index, guest := range guests {
		if guest.ID == id {
			return index
		}
	}
	return -1
}

func findGroup(groups []Group, id string) int {
	for index, group := range groups {
		if group.ID == id {
			return index
		}
	}
	return -1
}

func findMealOption(options []MealOption, id string) int {
	for index, option := range options {
		if option.ID == id {
			return index
		}
	}
	return -1
}

func findTable(tables []Table, id string) int {
	for index, table := range tables {
		if table.ID == id {
			return index
		}
	}
	return -1
}

func groupNameTaken(groups []Group, name, excludeID string) bool {
	lowered := strings.ToLower(name)
	for _, group := range groups {
		if group.ID != excludeID && strings.ToLower(group.Name) == lowered {
			return true
		}
	}
	return false
}

func dishNameTaken(options []MealOption, dishName, excludeID string) bool {
	lowered := strings.ToLower(dishName)
	for _, option := range options {
		if option.ID != excludeID && strings.ToLower(option.DishName) == lowered {
			return true
		}
	}
	return false
}

func hasTopTable(tables []Table) bool {
	for _, table := range tables {
		if table.IsTopTable {
			return true
		}
	}
	return false
}

func (s *Store) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("guest nest store error", attrs...)
}
