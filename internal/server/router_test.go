package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/weddingnest/backend/internal/auth"
	"github.com/weddingnest/backend/internal/budget"
	"github.com/weddingnest/backend/internal/guestnest"
	"github.com/weddingnest/backend/internal/storage"
)

func newTestHandler(testContext *testing.T, tokens *auth.TokenIssuer) http.Handler {
	testContext.Helper()
	gin.SetMode(gin.TestMode)

	budgetStore, err := budget.NewStore(budget.StoreConfig{Storage: storage.NewMemoryStore()})
	if err != nil {
		testContext.Fatalf("failed to construct budget store: %v", err)
	}
	guestNestStore, err := guestnest.NewStore(guestnest.StoreConfig{Storage: storage.NewMemoryStore()})
	if err != nil {
		testContext.Fatalf("failed to construct guest nest store: %v", err)
	}

	handler, err := NewHTTPHandler(Dependencies{
		BudgetStore:    budgetStore,
		GuestNestStore: guestNestStore,
		Tokens:         tokens,
	})
	if err != nil {
		testContext.Fatalf("failed to construct handler: %v", err)
	}
	return handler
}

func performRequest(testContext *testing.T, handler http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	testContext.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			testContext.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		request.Header.Set(key, value)
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func performRawRequest(testContext *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	testContext.Helper()

	request := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeBudgetDocument(testContext *testing.T, recorder *httptest.ResponseRecorder) budget.Document {
	testContext.Helper()
	var doc budget.Document
	if err := json.Unmarshal(recorder.Body.Bytes(), &doc); err != nil {
		testContext.Fatalf("failed to decode budget document: %v", err)
	}
	return doc
}

func decodeGuestNestDocument(testContext *testing.T, recorder *httptest.ResponseRecorder) guestnest.Document {
	testContext.Helper()
	var doc guestnest.Document
	if err := json.Unmarshal(recorder.Body.Bytes(), &doc); err != nil {
		testContext.Fatalf("failed to decode guest nest document: %v", err)
	}
	return doc
}

func decodeErrorCode(testContext *testing.T, recorder *httptest.ResponseRecorder) string {
	testContext.Helper()
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &payload); err != nil {
		testContext.Fatalf("failed to decode error payload: %v", err)
	}
	return payload.Error
}

func TestHealthzEndpoint(testContext *testing.T) {
	handler := newTestHandler(testContext, nil)

	recorder := performRequest(testContext, handler, http.MethodGet, "/healthz", nil, nil)
	if recorder.Code != http.StatusOK {
		testContext.Fatalf("expected 200, got %d", recorder.Code)
	}
}

func TestBudgetCategoryFlowOverHTTP(testContext *testing.T) {
	handler := newTestHandler(testContext, nil)

	recorder := performRequest(testContext, handler, http.MethodPost, "/budget/categories", gin.H{
		"labels": []string{"Venue", "Food & Drink"},
	}, nil)
	if recorder.Code != http.StatusOK {
		testContext.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	doc := decodeBudgetDocument(testContext, recorder)
	if len(doc.Categories) != 2 || doc.Categories[0].ID != "venue" {
		testContext.Fatalf("unexpected categories: %+v", doc.Categories)
	}

	recorder = performRequest(testContext, handler, http.MethodPut, "/budget/allocations/venue", gin.H{"amount": 5000}, nil)
	if recorder.Code != http.StatusOK {
		testContext.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	doc = decodeBudgetDocument(testContext, recorder)
	if doc.Allocations["venue"] != 5000 {
		testContext.Fatalf("expected allocation 5000, got %v", doc.Allocations["venue"])
	}

	recorder = performRequest(testContext, handler, http.MethodDelete, "/budget/categories/venue", nil, nil)
	if recorder.Code != http.StatusOK {
		testContext.Fatalf("expected 200, got %d", recorder.Code)
	}
	doc = decodeBudgetDocument(testContext, recorder)
	if len(doc.Categories) != 1 {
		testContext.Fatalf("expected one category left, got %d", len(doc.Categories))
	}
	if _, ok := doc.Allocations["venue"]; ok {
		testContext.Fatalf("expected allocation removed with its category")
	}
}

func TestSetTotalBudgetNullClears(testContext *testing.T) {
	handler := newTestHandler(testContext, nil)

	recorder := performRawRequest(testContext, handler, http.MethodPut, "/budget/total-budget", `{"totalBudget":20000}`)
	if recorder.Code != http.StatusOK {
		testContext.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	doc := decodeBudgetDocument(testContext, recorder)
	if doc.TotalBudget == nil || *doc.TotalBudget != 20000 {
		testContext.Fatalf("expected total budget set, got %v", doc.TotalBudget)
	}

	recorder = performRawRequest(testContext, handler, http.MethodPut, "/budget/total-budget", `{"totalBudget":null}`)
	if recorder.Code != http.StatusOK {
		testContext.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	doc = decodeBudgetDocument(testContext, recorder)
	if doc.TotalBudget != nil {
		testContext.Fatalf("expected total budget cleared, got %v", *doc.TotalBudget)
	}
}

func TestCategoryPatchNullClearsVendorName(testContext *testing.T) {
	handler := newTestHandler(testContext, nil)

	performRequest(testContext, handler, http.MethodPost, "/budget/categories", gin.H{"labels": []string{"Venue"}}, nil)

	recorder := performRawRequest(testContext, handler, http.MethodPatch, "/budget/categories/venue", `{"vendorName":"The Old Mill"}`)
	if recorder.Code != http.StatusOK {
		testContext.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	doc := decodeBudgetDocument(testContext, recorder)
	if doc.Categories[0].VendorName != "The Old Mill" {
		testContext.Fatalf("expected vendor name set, got %q", doc.Categories[0].VendorName)
	}

	// Absent key keeps the value; explicit null clears it.
	recorder = performRawRequest(testContext, handler, http.MethodPatch, "/budget/categories/venue", `{"notes":"deposit paid"}`)
	doc = decodeBudgetDocument(testContext, recorder)
	if doc.Categories[0].VendorName != "The Old Mill" {
		testContext.Fatalf("absent key must keep the stored value, got %q", doc.Categories[0].VendorName)
	}

	recorder = performRawRequest(testContext, handler, http.MethodPatch, "/budget/categories/venue", `{"vendorName":null}`)
	doc = decodeBudgetDocument(testContext, recorder)
	if doc.Categories[0].VendorName != "" {
		testContext.Fatalf("explicit null must clear the value, got %q", doc.Categories[0].VendorName)
	}
}

func TestErrorStatusMapping(testContext *testing.T) {
	handler := newTestHandler(testContext, nil)

	recorder := performRawRequest(testContext, handler, http.MethodPatch, "/budget/categories/missing", `{}`)
	if recorder.Code != http.StatusNotFound {
		testContext.Fatalf("expected 404 for unknown category, got %d", recorder.Code)
	}
	if code := decodeErrorCode(testContext, recorder); code != "budget.update_category.category_not_found" {
		testContext.Fatalf("unexpected error code %q", code)
	}

	performRequest(testContext, handler, http.MethodPost, "/budget/categories", gin.H{"labels": []string{"Venue"}}, nil)
	recorder = performRequest(testContext, handler, http.MethodPost, "/budget/categories", gin.H{"labels": []string{"venue"}}, nil)
	if recorder.Code != http.StatusConflict {
		testContext.Fatalf("expected 409 for duplicate label, got %d", recorder.Code)
	}

	recorder = performRequest(testContext, handler, http.MethodPut, "/budget/allocations/venue", gin.H{"amount": -1}, nil)
	if recorder.Code != http.StatusBadRequest {
		testContext.Fatalf("expected 400 for negative amount, got %d", recorder.Code)
	}

	recorder = performRawRequest(testContext, handler, http.MethodPost, "/budget/categories", `{not json`)
	if recorder.Code != http.StatusBadRequest {
		testContext.Fatalf("expected 400 for malformed body, got %d", recorder.Code)
	}
}

func TestGuestPatchNullClearsTableAssignment(testContext *testing.T) {
	handler := newTestHandler(testContext, nil)

	recorder := performRequest(testContext, handler, http.MethodPost, "/guestnest/tables", gin.H{
		"name": "Garden", "numberOfSeats": 8,
	}, nil)
	tableID := decodeGuestNestDocument(testContext, recorder).Tables[0].ID

	recorder = performRequest(testContext, handler, http.MethodPost, "/guestnest/guests", gin.H{"fullName": "Ada"}, nil)
	guestID := decodeGuestNestDocument(testContext, recorder).Guests[0].ID

	recorder = performRequest(testContext, handler, http.MethodPut, "/guestnest/guests/"+guestID+"/table", gin.H{
		"tableId": tableID, "seatLabel": "Seat 2",
	}, nil)
	if recorder.Code != http.StatusOK {
		testContext.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder = performRawRequest(testContext, handler, http.MethodPatch, "/guestnest/guests/"+guestID, `{"tableId":null}`)
	if recorder.Code != http.StatusOK {
		testContext.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	doc := decodeGuestNestDocument(testContext, recorder)
	if doc.Guests[0].TableID != "" || doc.Guests[0].SeatLabel != "" {
		testContext.Fatalf("expected table and seat label cleared, got %+v", doc.Guests[0])
	}
}

func TestGuestNestGroupRoutes(testContext *testing.T) {
	handler := newTestHandler(testContext, nil)

	recorder := performRequest(testContext, handler, http.MethodPost, "/guestnest/groups", gin.H{"name": "Friends"}, nil)
	if recorder.Code != http.StatusOK {
		testContext.Fatalf("expected 200, got %d", recorder.Code)
	}

	recorder = performRequest(testContext, handler, http.MethodPost, "/guestnest/groups", gin.H{"name": "friends"}, nil)
	if recorder.Code != http.StatusConflict {
		testContext.Fatalf("expected 409 for duplicate group name, got %d", recorder.Code)
	}
	if code := decodeErrorCode(testContext, recorder); code != "guestnest.add_group.duplicate_name" {
		testContext.Fatalf("unexpected error code %q", code)
	}
}

func TestAuthorizationMiddleware(testContext *testing.T) {
	issuer := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte("test-secret"),
		TokenTTL:      time.Hour,
	})
	handler := newTestHandler(testContext, issuer)

	// Reads stay open.
	recorder := performRequest(testContext, handler, http.MethodGet, "/budget", nil, nil)
	if recorder.Code != http.StatusOK {
		testContext.Fatalf("expected open read, got %d", recorder.Code)
	}

	recorder = performRequest(testContext, handler, http.MethodPost, "/guestnest/groups", gin.H{"name": "Friends"}, nil)
	if recorder.Code != http.StatusUnauthorized {
		testContext.Fatalf("expected 401 without token, got %d", recorder.Code)
	}

	recorder = performRequest(testContext, handler, http.MethodPost, "/guestnest/groups", gin.H{"name": "Friends"}, map[string]string{
		"Authorization": "Bearer not-a-token",
	})
	if recorder.Code != http.StatusUnauthorized {
		testContext.Fatalf("expected 401 for invalid token, got %d", recorder.Code)
	}

	token, _, err := issuer.Issue("companion-app")
	if err != nil {
		testContext.Fatalf("failed to issue token: %v", err)
	}
	recorder = performRequest(testContext, handler, http.MethodPost, "/guestnest/groups", gin.H{"name": "Friends"}, map[string]string{
		"Authorization": "Bearer " + token,
	})
	if recorder.Code != http.StatusOK {
		testContext.Fatalf("expected 200 with valid token, got %d: %s", recorder.Code, recorder.Body.String())
	}
}

func TestNewHTTPHandlerRequiresStores(testContext *testing.T) {
	gin.SetMode(gin.TestMode)

	if _, err := NewHTTPHandler(Dependencies{}); err == nil {
		testContext.Fatalf("expected missing store dependencies to be rejected")
	}
}
