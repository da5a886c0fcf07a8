package budget

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

// storageKey is the fixed key the budget document is stored under.
const storageKey = "budget_buddy_store"

var (
	errMissingStorage = errors.New("storage is required")

	// ErrLabelRequired indicates a category label was blank.
	ErrLabelRequired = errors.New("budget: label is required")
	// ErrVendorNameRequired indicates a vendor name was blank.
	ErrVendorNameRequired = errors.New("budget: vendor name is required")
	// ErrNegativeAmount indicates a supplied amount was negative or not finite.
	ErrNegativeAmount = errors.New("budget: amount must be a non-negative number")
	// ErrDuplicateLabel indicates every supplied label already exists.
	ErrDuplicateLabel = errors.New("budget: label already exists")
	// ErrCategoryNotFound indicates the referenced category does not exist.
	ErrCategoryNotFound = errors.New("budget: category not found")
	// ErrQuoteNotFound indicates the referenced quote does not exist.
	ErrQuoteNotFound = errors.New("budget: quote not found")
	// ErrPaymentNotFound indicates the referenced payment does not exist.
	ErrPaymentNotFound = errors.New("budget: payment not found")

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
	opStoreNew       = "budget.store.new"
	opLoad           = "budget.load"
	opSetTotalBudget = "budget.set_total_budget"
	opAddCategories  = "budget.add_categories"
	opUpdateCategory = "budget.update_category"
	opDeleteCategory = "budget.delete_category"
	opSetAllocation  = "budget.set_allocation"
	opAddQuote       = "budget.add_quote"
	opUpdateQuote    = "budget.update_quote"
	opDeleteQuote    = "budget.delete_quote"
	opAddPayment     = "budget.add_payment"
	opUpdatePayment  = "budget.update_payment"
	opDeletePayment  = "budget.delete_payment"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// StoreConfig describes the dependencies of a budget Store.
type StoreConfig struct {
	Storage storage.KeyValueStore
	Clock   func() time.Time
	IDs     ids.Provider
	Logger  *zap.Logger
}

// Store is the Budget Buddy domain store. Every mutation is a
// load-normalize-mutate-save-notify cycle against the stored document,
// serialized through a per-store mutex so concurrent callers cannot clobber
// each other's writes. The store keeps no in-memory copy of the document.
type Store struct {
	mu       sync.Mutex
	storage  storage.KeyValueStore
	clock    func() time.Time
	ids      ids.Provider
	logger   *zap.Logger
	notifier *events.Notifier[Document]
}

// NewStore constructs a budget Store.
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

// Load reads and normalizes the stored document. The returned document is
// always usable: missing or malformed state falls back to the default
// document, and a storage read failure additionally reports an error.
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
	return normalizeDocument(doc, now, s.ids.NewID), nil
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

// SetTotalBudget sets or clears the overall budget. A nil value clears it.
func (s *Store) SetTotalBudget(ctx context.Context, value *float64) (Document, error) {
	return s.mutate(ctx, opSetTotalBudget, func(doc *Document) (events.Meta, error) {
		if value != nil {
			amount := *value
			if amount != clampAmount(amount) {
				return events.Meta{}, newServiceError(opSetTotalBudget, "invalid_amount", ErrNegativeAmount)
			}
			doc.TotalBudget = &amount
		} else {
			doc.TotalBudget = nil
		}
		return events.NewMeta("total_budget_set"), nil
	})
}

// AddCategories appends categories for the given labels. Labels matching an
// existing category label (case-insensitive, trimmed) are filtered out before
// ids are generated; each new category gets a zero allocation entry.
func (s *Store) AddCategories(ctx context.Context, labels []string) (Document, error) {
	return s.mutate(ctx, opAddCategories, func(doc *Document) (events.Meta, error) {
		trimmed := make([]string, 0, len(labels))
		for _, label := range labels {
			if value := strings.TrimSpace(label); value != "" {
				trimmed = append(trimmed, value)
			}
		}
		if len(trimmed) == 0 {
			return events.Meta{}, newServiceError(opAddCategories, "empty_labels", ErrLabelRequired)
		}

		existing := make(map[string]bool, len(doc.Categories))
		taken := make(map[string]bool, len(doc.Categories))
		for _, category := range doc.Categories {
			existing[strings.ToLower(category.Label)] = true
			taken[category.ID] = true
		}

		added := make([]string, 0, len(trimmed))
		for _, label := range trimmed {
			lowered := strings.ToLower(label)
			if existing[lowered] {
				continue
			}
			existing[lowered] = true
			id := uniqueSlug(slugify(label), taken)
			taken[id] = true
			doc.Categories = append(doc.Categories, Category{
				ID:              id,
				Label:           label,
				CreatedManually: true,
			})
			doc.Allocations[id] = 0
			added = append(added, id)
		}
		if len(added) == 0 {
			return events.Meta{}, newServiceError(opAddCategories, "duplicate_labels", ErrDuplicateLabel)
		}
		return events.NewMeta("categories_added", added...), nil
	})
}

// UpdateCategory applies a partial patch to a category. The category id is
// stable across label renames, and payment snapshots are not resynced.
func (s *Store) UpdateCategory(ctx context.Context, id string, patch CategoryPatch) (Document, error) {
	return s.mutate(ctx, opUpdateCategory, func(doc *Document) (events.Meta, error) {
		index := findCategory(doc.Categories, id)
		if index < 0 {
			return events.Meta{}, newServiceError(opUpdateCategory, "category_not_found", ErrCategoryNotFound)
		}
		category := doc.Categories[index]
		if patch.Label != nil {
			label := strings.TrimSpace(*patch.Label)
			if label == "" {
				return events.Meta{}, newServiceError(opUpdateCategory, "empty_label", ErrLabelRequired)
			}
			category.Label = label
		}
		if patch.VendorName != nil {
			category.VendorName = strings.TrimSpace(*patch.VendorName)
		}
		if patch.Notes != nil {
			category.Notes = strings.TrimSpace(*patch.Notes)
		}
		doc.Categories[index] = category
		return events.NewMeta("category_updated", category.ID), nil
	})
}

// DeleteCategory removes a category and its allocation entry. Quotes and
// payments referencing the category keep their now-dangling categoryId; the
// budget domain has no load-time integrity pass.
func (s *Store) DeleteCategory(ctx context.Context, id string) (Document, error) {
	return s.mutate(ctx, opDeleteCategory, func(doc *Document) (events.Meta, error) {
		index := findCategory(doc.Categories, id)
		if index < 0 {
			return events.Meta{}, newServiceError(opDeleteCategory, "category_not_found", ErrCategoryNotFound)
		}
		doc.Categories = append(doc.Categories[:index], doc.Categories[index+1:]...)
		delete(doc.Allocations, id)
		return events.NewMeta("category_deleted", id), nil
	})
}

// SetAllocation sets the allocated amount for an existing category.
func (s *Store) SetAllocation(ctx context.Context, categoryID string, amount float64) (Document, error) {
	return s.mutate(ctx, opSetAllocation, func(doc *Document) (events.Meta, error) {
		if findCategory(doc.Categories, categoryID) < 0 {
			return events.Meta{}, newServiceError(opSetAllocation, "category_not_found", ErrCategoryNotFound)
		}
		if amount != clampAmount(amount) {
			return events.Meta{}, newServiceError(opSetAllocation, "invalid_amount", ErrNegativeAmount)
		}
		doc.Allocations[categoryID] = amount
		return events.NewMeta("allocation_set", categoryID), nil
	})
}

// AddQuote appends a vendor quote. CategoryID is stored as given; it is a
// weak reference and is not checked against the category list.
func (s *Store) AddQuote(ctx context.Context, input QuoteInput) (Document, error) {
	return s.mutate(ctx, opAddQuote, func(doc *Document) (events.Meta, error) {
		vendor := strings.TrimSpace(input.VendorName)
		if vendor == "" {
			return events.Meta{}, newServiceError(opAddQuote, "empty_vendor_name", ErrVendorNameRequired)
		}
		quote := normalizeQuote(Quote{
			ID:         s.ids.NewID("quote"),
			VendorName: vendor,
			CategoryID: input.CategoryID,
			Amount:     input.Amount,
			Status:     input.Status,
			Phone:      input.Phone,
			Email:      input.Email,
			Notes:      input.Notes,
		}, s.ids.NewID("quote"))
		doc.Quotes = append(doc.Quotes, quote)
		return events.NewMeta("quote_added", quote.ID), nil
	})
}

// UpdateQuote applies a partial patch to a quote.
func (s *Store) UpdateQuote(ctx context.Context, id string, patch QuotePatch) (Document, error) {
	return s.mutate(ctx, opUpdateQuote, func(doc *Document) (events.Meta, error) {
		index := findQuote(doc.Quotes, id)
		if index < 0 {
			return events.Meta{}, newServiceError(opUpdateQuote, "quote_not_found", ErrQuoteNotFound)
		}
		quote := doc.Quotes[index]
		if patch.VendorName != nil {
			vendor := strings.TrimSpace(*patch.VendorName)
			if vendor == "" {
				return events.Meta{}, newServiceError(opUpdateQuote, "empty_vendor_name", ErrVendorNameRequired)
			}
			quote.VendorName = vendor
		}
		if patch.CategoryID != nil {
			quote.CategoryID = strings.TrimSpace(*patch.CategoryID)
		}
		if patch.Amount != nil {
			quote.Amount = clampAmount(*patch.Amount)
		}
		if patch.Status != nil {
			quote.Status = *patch.Status
		}
		if patch.Phone != nil {
			quote.Phone = strings.TrimSpace(*patch.Phone)
		}
		if patch.Email != nil {
			quote.Email = strings.TrimSpace(*patch.Email)
		}
		if patch.Notes != nil {
			quote.Notes = strings.TrimSpace(*patch.Notes)
		}
		doc.Quotes[index] = normalizeQuote(quote, quote.ID)
		return events.NewMeta("quote_updated", id), nil
	})
}

// DeleteQuote removes a quote.
func (s *Store) DeleteQuote(ctx context.Context, id string) (Document, error) {
	return s.mutate(ctx, opDeleteQuote, func(doc *Document) (events.Meta, error) {
		index := findQuote(doc.Quotes, id)
		if index < 0 {
			return events.Meta{}, newServiceError(opDeleteQuote, "quote_not_found", ErrQuoteNotFound)
		}
		doc.Quotes = append(doc.Quotes[:index], doc.Quotes[index+1:]...)
		return events.NewMeta("quote_deleted", id), nil
	})
}

// AddPayment appends a payment. The category label, when the weak reference
// resolves, is captured as a creation-time snapshot.
func (s *Store) AddPayment(ctx context.Context, input PaymentInput) (Document, error) {
	return s.mutate(ctx, opAddPayment, func(doc *Document) (events.Meta, error) {
		vendor := strings.TrimSpace(input.VendorName)
		if vendor == "" {
			return events.Meta{}, newServiceError(opAddPayment, "empty_vendor_name", ErrVendorNameRequired)
		}
		now := formatTimestamp(s.clock())
		categoryName := ""
		if index := findCategory(doc.Categories, strings.TrimSpace(input.CategoryID)); index >= 0 {
			categoryName = doc.Categories[index].Label
		}
		payment := normalizePayment(Payment{
			ID:           s.ids.NewID("payment"),
			CategoryID:   input.CategoryID,
			CategoryName: categoryName,
			VendorName:   vendor,
			Amount:       input.Amount,
			DueDate:      input.DueDate,
			PaymentType:  input.PaymentType,
			Status:       input.Status,
			CreatedAt:    now,
			UpdatedAt:    now,
		}, s.ids.NewID("payment"), now)
		doc.Payments = append(doc.Payments, payment)
		return events.NewMeta("payment_added", payment.ID), nil
	})
}

// UpdatePayment applies a partial patch to a payment and bumps its updatedAt.
func (s *Store) UpdatePayment(ctx context.Context, id string, patch PaymentPatch) (Document, error) {
	return s.mutate(ctx, opUpdatePayment, func(doc *Document) (events.Meta, error) {
		index := findPayment(doc.Payments, id)
		if index < 0 {
			return events.Meta{}, newServiceError(opUpdatePayment, "payment_not_found", ErrPaymentNotFound)
		}
		payment := doc.Payments[index]
		if patch.VendorName != nil {
			vendor := strings.TrimSpace(*patch.VendorName)
			if vendor == "" {
				return events.Meta{}, newServiceError(opUpdatePayment, "empty_vendor_name", ErrVendorNameRequired)
			}
			payment.VendorName = vendor
		}
		if patch.CategoryID != nil {
			payment.CategoryID = strings.TrimSpace(*patch.CategoryID)
		}
		if patch.Amount != nil {
			payment.Amount = clampAmount(*patch.Amount)
		}
		if patch.DueDate != nil {
			payment.DueDate = strings.TrimSpace(*patch.DueDate)
		}
		if patch.PaymentType != nil {
			payment.PaymentType = *patch.PaymentType
		}
		if patch.Status != nil {
			payment.Status = *patch.Status
		}
		now := formatTimestamp(s.clock())
		payment.UpdatedAt = now
		doc.Payments[index] = normalizePayment(payment, payment.ID, now)
		return events.NewMeta("payment_updated", id), nil
	})
}

// DeletePayment removes a payment.
func (s *Store) DeletePayment(ctx context.Context, id string) (Document, error) {
	return s.mutate(ctx, opDeletePayment, func(doc *Document) (events.Meta, error) {
		index := findPayment(doc.Payments, id)
		if index < 0 {
			return events.Meta{}, newServiceError(opDeletePayment, "payment_not_found", ErrPaymentNotFound)
		}
		doc.Payments = append(doc.Payments[:index], doc.Payments[index+1:]...)
		return events.NewMeta("payment_deleted", id), nil
	})
}

func findCategory(categories []Category, id string) int {
	for index, category := range categories {
		if category.ID == id {
			return index
		}
	}
	return -1
}

func findQuote(quotes []Quote, id string) int {
	for index, quote := range quotes {
		if quote.ID == id {
			return index
		}
	}
	return -1
}

func findPayment(payments []Payment, id string) int {
	for index, payment := range payments {
		if payment.ID == id {
			return index
		}
	}
	return -1
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
	s.logger.Error("budget store error", attrs...)
}
