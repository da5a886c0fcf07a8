package guestnest

// RSVPStatus enumerates a guest's attendance reply.
type RSVPStatus string

const (
	RSVPPending RSVPStatus = "Pending"
	RSVPYes     RSVPStatus = "Yes"
	RSVPNo      RSVPStatus = "No"
)

// GuestCategory enumerates which part of the day a guest is invited to.
// The empty string means the category has not been chosen.
type GuestCategory string

const (
	GuestCategoryDay     GuestCategory = "Day"
	GuestCategoryEvening GuestCategory = "Evening"
	GuestCategoryBoth    GuestCategory = "Both"
)

// Course enumerates the meal courses a dish can belong to.
type Course string

const (
	CourseStarter Course = "Starter"
	CourseMain    Course = "Main"
	CourseDessert Course = "Dessert"
	CourseOther   Course = "Other"
)

// Guest is one invited guest. GroupID, MealChoiceID and TableID are weak
// references cleared by the integrity pass when the target no longer exists.
type Guest struct {
	ID             string        `json:"id"`
	FullName       string        `json:"fullName"`
	GroupID        string        `json:"groupId,omitempty"`
	RSVPStatus     RSVPStatus    `json:"rsvpStatus"`
	GuestCategory  GuestCategory `json:"guestCategory,omitempty"`
	PlusOneAllowed bool          `json:"plusOneAllowed"`
	MealChoiceID   string        `json:"mealChoiceId,omitempty"`
	DietaryNotes   string        `json:"dietaryNotes,omitempty"`
	Email          string        `json:"email,omitempty"`
	Phone          string        `json:"phone,omitempty"`
	Address        string        `json:"address,omitempty"`
	TableID        string        `json:"tableId,omitempty"`
	SeatLabel      string        `json:"seatLabel,omitempty"`
	Notes          string        `json:"notes,omitempty"`
	CreatedAt      string        `json:"createdAt"`
	UpdatedAt      string        `json:"updatedAt"`
}

// Group is a named guest grouping. Names are case-insensitively unique.
type Group struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

// MealOption is one dish guests can choose. Dish names are
// case-insensitively unique.
type MealOption struct {
	ID        string `json:"id"`
	Course    Course `json:"course"`
	DishName  string `json:"dishName"`
	CreatedAt string `json:"createdAt"`
}

// Table is a seating table. At most one table may be the top table.
type Table struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	NumberOfSeats int    `json:"numberOfSeats"`
	Type          string `json:"type,omitempty"`
	IsTopTable    bool   `json:"isTopTable"`
	CreatedAt     string `json:"createdAt"`
}

// Document is the entire persisted guest-nest state.
type Document struct {
	Guests      []Guest      `json:"guests"`
	Groups      []Group      `json:"groups"`
	MealOptions []MealOption `json:"mealOptions"`
	Tables      []Table      `json:"tables"`
}

// DefaultDocument returns the empty guest-nest document used when nothing
// has been stored yet or the stored blob cannot be read.
func DefaultDocument() Document {
	return Document{
		Guests:      []Guest{},
		Groups:      []Group{},
		MealOptions: []MealOption{},
		Tables:      []Table{},
	}
}

// GuestInput describes a guest to create. FullName is required.
type GuestInput struct {
	FullName       string
	GroupID        string
	RSVPStatus     RSVPStatus
	GuestCategory  GuestCategory
	PlusOneAllowed bool
	MealChoiceID   string
	DietaryNotes   string
	Email          string
	Phone          string
	Address        string
	Notes          string
}

// GuestPatch updates a guest. Nil fields keep the stored value; a pointer to
// the empty string clears an optional field. Clearing TableID also clears the
// seat label.
type GuestPatch struct {
	FullName       *string
	GroupID        *string
	RSVPStatus     *RSVPStatus
	GuestCategory  *GuestCategory
	PlusOneAllowed *bool
	MealChoiceID   *string
	DietaryNotes   *string
	Email          *string
	Phone          *string
	Address        *string
	TableID        *string
	SeatLabel      *string
	Notes          *string
}

// TableInput describes a table to create. Name is required.
type TableInput struct {
	Name          string
	NumberOfSeats int
	Type          string
	IsTopTable    bool
}

// TablePatch updates a table. Nil fields keep the stored value. Setting
// IsTopTable to true demotes any other top table.
type TablePatch struct {
	Name          *string
	NumberOfSeats *int
	Type          *string
	IsTopTable    *bool
}
