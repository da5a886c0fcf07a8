package budget

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// isoLayout matches the timestamp format the stored documents already carry.
const isoLayout = "2006-01-02T15:04:05.000Z"

const dueDateLayout = "2006-01-02"

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

// clampAmount coerces an amount to a usable non-negative number.
func clampAmount(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0
	}
	return value
}

// slugify lowercases the label, replaces non-alphanumeric runs with a single
// dash, and trims leading/trailing dashes.
func slugify(label string) string {
	var builder strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(label)) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if alnum {
			builder.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			builder.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimRight(builder.String(), "-")
}

// uniqueSlug disambiguates slug collisions with -2, -3, ... suffixes.
func uniqueSlug(slug string, taken map[string]bool) string {
	if slug == "" {
		slug = "category"
	}
	candidate := slug
	for suffix := 2; taken[candidate]; suffix++ {
		candidate = slug + "-" + strconv.Itoa(suffix)
	}
	return candidate
}

func normalizeQuote(quote Quote, fallbackID string) Quote {
	quote.ID = strings.TrimSpace(quote.ID)
	if quote.ID == "" {
		quote.ID = fallbackID
	}
	quote.VendorName = strings.TrimSpace(quote.VendorName)
	quote.CategoryID = strings.TrimSpace(quote.CategoryID)
	quote.Amount = clampAmount(quote.Amount)
	switch quote.Status {
	case QuoteStatusConsidering, QuoteStatusBooked, QuoteStatusDeclined:
	default:
		quote.Status = QuoteStatusConsidering
	}
	quote.Phone = strings.TrimSpace(quote.Phone)
	quote.Email = strings.TrimSpace(quote.Email)
	quote.Notes = strings.TrimSpace(quote.Notes)
	return quote
}

func normalizePayment(payment Payment, fallbackID string, now string) Payment {
	payment.ID = strings.TrimSpace(payment.ID)
	if payment.ID == "" {
		payment.ID = fallbackID
	}
	payment.CategoryID = strings.TrimSpace(payment.CategoryID)
	payment.CategoryName = strings.TrimSpace(payment.CategoryName)
	payment.VendorName = strings.TrimSpace(payment.VendorName)
	payment.Amount = clampAmount(payment.Amount)
	payment.DueDate = strings.TrimSpace(payment.DueDate)
	if payment.DueDate != "" {
		if _, err := time.Parse(dueDateLayout, payment.DueDate); err != nil {
			payment.DueDate = ""
		}
	}
	switch payment.PaymentType {
	case PaymentTypeDeposit, PaymentTypeInstalment, PaymentTypeFinal, PaymentTypeOther:
	default:
		payment.PaymentType = PaymentTypeOther
	}
	switch payment.Status {
	case PaymentStatusPending, PaymentStatusPaid:
	default:
		payment.Status = PaymentStatusPending
	}
	if !validTimestamp(payment.CreatedAt) {
		payment.CreatedAt = now
	}
	if !validTimestamp(payment.UpdatedAt) {
		payment.UpdatedAt = payment.CreatedAt
	}
	return payment
}

// normalizeDocument coerces a raw stored document into canonical shape. It is
// idempotent: normalizing an already-normalized document changes nothing.
func normalizeDocument(doc Document, now string, newID func(prefix string) string) Document {
	if doc.TotalBudget != nil {
		value := *doc.TotalBudget
		if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
			doc.TotalBudget = nil
		}
	}

	categories := make([]Category, 0, len(doc.Categories))
	seen := make(map[string]bool, len(doc.Categories))
	for _, category := range doc.Categories {
		category.Label = strings.TrimSpace(category.Label)
		category.VendorName = strings.TrimSpace(category.VendorName)
		category.Notes = strings.TrimSpace(category.Notes)
		category.ID = strings.TrimSpace(category.ID)
		if category.ID == "" || seen[category.ID] {
			category.ID = uniqueSlug(slugify(category.Label), seen)
		}
		seen[category.ID] = true
		categories = append(categories, category)
	}
	doc.Categories = categories

	// Allocation keys exactly equal the current category ids.
	allocations := make(map[string]float64, len(doc.Categories))
	for _, category := range doc.Categories {
		allocations[category.ID] = clampAmount(doc.Allocations[category.ID])
	}
	doc.Allocations = allocations

	quotes := make([]Quote, 0, len(doc.Quotes))
	for _, quote := range doc.Quotes {
		quotes = append(quotes, normalizeQuote(quote, newID("quote")))
	}
	doc.Quotes = quotes

	payments := make([]Payment, 0, len(doc.Payments))
	for _, payment := range doc.Payments {
		payments = append(payments, normalizePayment(payment, newID("payment"), now))
	}
	doc.Payments = payments

	return doc
}
