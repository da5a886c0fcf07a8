package budget

import (
	"math"
	"reflect"
	"testing"
)

func staticID(prefix string) string {
	return prefix + "-fallback"
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		label string
		want  string
	}{
		{"Venue", "venue"},
		{"  Food & Drink  ", "food-drink"},
		{"DJ / Band!!", "dj-band"},
		{"Héllo Wörld", "h-llo-w-rld"},
		{"---", ""},
	}
	for _, tc := range cases {
		if got := slugify(tc.label); got != tc.want {
			t.Fatalf("slugify(%q) = %q, want %q", tc.label, got, tc.want)
		}
	}
}

func TestUniqueSlugDisambiguates(t *testing.T) {
	taken := map[string]bool{"venue": true, "venue-2": true}
	if got := uniqueSlug("venue", taken); got != "venue-3" {
		t.Fatalf("expected venue-3, got %q", got)
	}
	if got := uniqueSlug("", map[string]bool{}); got != "category" {
		t.Fatalf("expected empty slug to fall back to category, got %q", got)
	}
}

func TestClampAmount(t *testing.T) {
	if got := clampAmount(-5); got != 0 {
		t.Fatalf("expected negative to clamp to 0, got %v", got)
	}
	if got := clampAmount(math.NaN()); got != 0 {
		t.Fatalf("expected NaN to clamp to 0, got %v", got)
	}
	if got := clampAmount(math.Inf(1)); got != 0 {
		t.Fatalf("expected Inf to clamp to 0, got %v", got)
	}
	if got := clampAmount(42.5); got != 42.5 {
		t.Fatalf("expected valid amount to pass through, got %v", got)
	}
}

func TestNormalizePaymentClampsEnumsAndDueDate(t *testing.T) {
	payment := normalizePayment(Payment{
		ID:          "payment-1",
		VendorName:  " Florist ",
		Amount:      -10,
		DueDate:     "next tuesday",
		PaymentType: "cheque",
		Status:      "maybe",
	}, "payment-fallback", "2026-05-01T10:00:00.000Z")

	if payment.VendorName != "Florist" {
		t.Fatalf("unexpected vendor name %q", payment.VendorName)
	}
	if payment.Amount != 0 {
		t.Fatalf("expected negative amount clamped, got %v", payment.Amount)
	}
	if payment.DueDate != "" {
		t.Fatalf("expected unparseable due date to be dropped, got %q", payment.DueDate)
	}
	if payment.PaymentType != PaymentTypeOther {
		t.Fatalf("expected unknown payment type to fall back to other, got %q", payment.PaymentType)
	}
	if payment.Status != PaymentStatusPending {
		t.Fatalf("expected unknown status to fall back to pending, got %q", payment.Status)
	}
	if payment.CreatedAt != "2026-05-01T10:00:00.000Z" || payment.UpdatedAt != payment.CreatedAt {
		t.Fatalf("expected timestamps backfilled, got created=%q updated=%q", payment.CreatedAt, payment.UpdatedAt)
	}
}

func TestNormalizeDocumentRebuildsAllocations(t *testing.T) {
	negative := -100.0
	doc := Document{
		TotalBudget: &negative,
		Categories: []Category{
			{ID: "venue", Label: "Venue"},
			{ID: "", Label: "Food & Drink"},
			{ID: "venue", Label: "Duplicate Id"},
		},
		Allocations: map[string]float64{
			"venue":    500,
			"orphaned": 900,
		},
	}

	result := normalizeDocument(doc, "2026-05-01T10:00:00.000Z", staticID)

	if result.TotalBudget != nil {
		t.Fatalf("expected negative total budget to be cleared, got %v", *result.TotalBudget)
	}
	if len(result.Categories) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(result.Categories))
	}
	if result.Categories[1].ID != "food-drink" {
		t.Fatalf("expected missing id to be slugified, got %q", result.Categories[1].ID)
	}
	if result.Categories[2].ID == "venue" {
		t.Fatalf("expected duplicate id to be reassigned, got %q", result.Categories[2].ID)
	}

	if len(result.Allocations) != len(result.Categories) {
		t.Fatalf("expected allocation per category, got %d for %d categories", len(result.Allocations), len(result.Categories))
	}
	if _, ok := result.Allocations["orphaned"]; ok {
		t.Fatalf("expected orphaned allocation to be dropped")
	}
	if result.Allocations["venue"] != 500 {
		t.Fatalf("expected existing allocation to survive, got %v", result.Allocations["venue"])
	}
	if result.Allocations["food-drink"] != 0 {
		t.Fatalf("expected new allocation to default to 0, got %v", result.Allocations["food-drink"])
	}
}

func TestNormalizeDocumentIsIdempotent(t *testing.T) {
	doc := Document{
		Categories: []Category{
			{Label: " Venue "},
			{Label: "Venue!"},
		},
		Allocations: map[string]float64{},
		Quotes:      []Quote{{VendorName: " Band ", Status: "unknown", Amount: -1}},
		Payments:    []Payment{{VendorName: " Florist ", PaymentType: "x", Status: "y"}},
	}

	now := "2026-05-01T10:00:00.000Z"
	first := normalizeDocument(doc, now, staticID)
	second := normalizeDocument(first, now, staticID)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected normalization to be idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}
