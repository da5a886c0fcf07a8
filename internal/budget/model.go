package budget

// QuoteStatus enumerates the lifecycle of a vendor quote.
type QuoteStatus string

const (
	QuoteStatusConsidering QuoteStatus = "considering"
	QuoteStatusBooked      QuoteStatus = "booked"
	QuoteStatusDeclined    QuoteStatus = "declined"
)

// PaymentType enumerates the kinds of tracked payments.
type PaymentType string

const (
	PaymentTypeDeposit    PaymentType = "deposit"
	PaymentTypeInstalment PaymentType = "instalment"
	PaymentTypeFinal      PaymentType = "final"
	PaymentTypeOther      PaymentType = "other"
)

// PaymentStatus enumerates whether a payment has been settled.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Category is a budget category. Ids are slugs derived from the label,
// disambiguated with a numeric suffix on collision.
type Category struct {
	ID              string `json:"id"`
	Label           string `json:"label"`
	VendorName      string `json:"vendorName,omitempty"`
	Notes           string `json:"notes,omitempty"`
	CreatedManually bool   `json:"createdManually"`
}

// Quote is a vendor quote. CategoryID is a weak reference: it may point at a
// category that has since been deleted.
type Quote struct {
	ID         string      `json:"id"`
	VendorName string      `json:"vendorName"`
	CategoryID string      `json:"categoryId,omitempty"`
	Amount     float64     `json:"amount"`
	Status     QuoteStatus `json:"status"`
	Phone      string      `json:"phone,omitempty"`
	Email      string      `json:"email,omitempty"`
	Notes      string      `json:"notes,omitempty"`
}

// Payment is a tracked payment. CategoryName is a snapshot of the category
// label at creation time; it is not kept in sync with later renames.
type Payment struct {
	ID           string        `json:"id"`
	CategoryID   string        `json:"categoryId,omitempty"`
	CategoryName string        `json:"categoryName,omitempty"`
	VendorName   string        `json:"vendorName"`
	Amount       float64       `json:"amount"`
	DueDate      string        `json:"dueDate,omitempty"`
	PaymentType  PaymentType   `json:"paymentType"`
	Status       PaymentStatus `json:"status"`
	CreatedAt    string        `json:"createdAt"`
	UpdatedAt    string        `json:"updatedAt"`
}

// Document is the entire persisted budget state.
type Document struct {
	TotalBudget *float64           `json:"totalBudget"`
	Categories  []Category         `json:"categories"`
	Allocations map[string]float64 `json:"allocations"`
	Quotes      []Quote            `json:"quotes"`
	Payments    []Payment          `json:"payments"`
}

// DefaultDocument returns the empty budget document used when nothing has
// been stored yet or the stored blob cannot be read.
func DefaultDocument() Document {
	return Document{
		TotalBudget: nil,
		Categories:  []Category{},
		Allocations: map[string]float64{},
		Quotes:      []Quote{},
		Payments:    []Payment{},
	}
}

// CategoryPatch updates a category. Nil fields keep the stored value.
type CategoryPatch struct {
	Label      *string
	VendorName *string
	Notes      *string
}

// QuoteInput describes a quote to create.
type QuoteInput struct {
	VendorName string
	CategoryID string
	Amount     float64
	Status     QuoteStatus
	Phone      string
	Email      string
	Notes      string
}

// QuotePatch updates a quote. Nil fields keep the stored value; a pointer to
// the empty string clears an optional field.
type QuotePatch struct {
	VendorName *string
	CategoryID *string
	Amount     *float64
	Status     *QuoteStatus
	Phone      *string
	Email      *string
	Notes      *string
}

// PaymentInput describes a payment to create.
type PaymentInput struct {
	CategoryID  string
	VendorName  string
	Amount      float64
	DueDate     string
	PaymentType PaymentType
	Status      PaymentStatus
}

// PaymentPatch updates a payment. Nil fields keep the stored value; a pointer
// to the empty string clears an optional field.
type PaymentPatch struct {
	CategoryID  *string
	VendorName  *string
	Amount      *float64
	DueDate     *string
	PaymentType *PaymentType
	Status      *PaymentStatus
}
