package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/weddingnest/backend/internal/auth"
	"github.com/weddingnest/backend/internal/budget"
	"github.com/weddingnest/backend/internal/events"
	"github.com/weddingnest/backend/internal/guestnest"
	"go.uber.org/zap"
)

const subjectContextKey = "weddingnest_subject"

var (
	errMissingBudgetStore    = errors.New("budget store dependency required")
	errMissingGuestNestStore = errors.New("guest nest store dependency required")
	errInvalidAuthorization  = errors.New("authorization header missing or invalid")
)

// Dependencies wires the HTTP surface to the domain stores. Tokens is
// optional: when nil, mutating routes are unprotected.
type Dependencies struct {
	BudgetStore    *budget.Store
	GuestNestStore *guestnest.Store
	Tokens         *auth.TokenIssuer
	Logger         *zap.Logger
}

// NewHTTPHandler builds the gin handler serving both domain stores and the
// realtime change stream.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.BudgetStore == nil {
		return nil, errMissingBudgetStore
	}
	if deps.GuestNestStore == nil {
		return nil, errMissingGuestNestStore
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		budgetStore:    deps.BudgetStore,
		guestNestStore: deps.GuestNestStore,
		tokens:         deps.Tokens,
		logger:         logger,
		realtime:       NewRealtimeDispatcher(),
	}

	// The dispatcher stays subscribed for the handler's lifetime.
	deps.BudgetStore.Subscribe(func(doc budget.Document, meta events.Meta) {
		handler.realtime.Publish(changeEvent("budget", meta))
	})
	deps.GuestNestStore.Subscribe(func(doc guestnest.Document, meta events.Meta) {
		handler.realtime.Publish(changeEvent("guestnest", meta))
	})

	router.GET("/healthz", handler.handleHealthz)
	router.GET("/budget", handler.handleBudgetLoad)
	router.GET("/guestnest", handler.handleGuestNestLoad)
	router.GET("/events", handler.handleEvents)

	protected := router.Group("/")
	if handler.tokens != nil {
		protected.Use(handler.authorizeRequest)
	}

	protected.PUT("/budget/total-budget", handler.handleSetTotalBudget)
	protected.POST("/budget/categories", handler.handleAddCategories)
	protected.PATCH("/budget/categories/:id", handler.handleUpdateCategory)
	protected.DELETE("/budget/categories/:id", handler.handleDeleteCategory)
	protected.PUT("/budget/allocations/:categoryId", handler.handleSetAllocation)
	protected.POST("/budget/quotes", handler.handleAddQuote)
	protected.PATCH("/budget/quotes/:id", handler.handleUpdateQuote)
	protected.DELETE("/budget/quotes/:id", handler.handleDeleteQuote)
	protected.POST("/budget/payments", handler.handleAddPayment)
	protected.PATCH("/budget/payments/:id", handler.handleUpdatePayment)
	protected.DELETE("/budget/payments/:id", handler.handleDeletePayment)

	protected.POST("/guestnest/guests", handler.handleAddGuest)
	protected.POST("/guestnest/guests/bulk", handler.handleBulkAddGuests)
	protected.PATCH("/guestnest/guests/:id", handler.handleUpdateGuest)
	protected.DELETE("/guestnest/guests/:id", handler.handleDeleteGuest)
	protected.PUT("/guestnest/guests/:id/table", handler.handleAssignGuestToTable)
	protected.DELETE("/guestnest/guests/:id/table", handler.handleUnassignGuestFromTable)
	protected.PUT("/guestnest/guests/:id/meal-choice", handler.handleSetGuestMealChoice)
	protected.POST("/guestnest/groups", handler.handleAddGroup)
	protected.PATCH("/guestnest/groups/:id", handler.handleUpdateGroup)
	protected.DELETE("/guestnest/groups/:id", handler.handleDeleteGroup)
	protected.POST("/guestnest/meal-options", handler.handleAddMealOption)
	protected.PATCH("/guestnest/meal-options/:id", handler.handleUpdateMealOption)
	protected.DELETE("/guestnest/meal-options/:id", handler.handleDeleteMealOption)
	protected.POST("/guestnest/tables", handler.handleAddTable)
	protected.PATCH("/guestnest/tables/:id", handler.handleUpdateTable)
	protected.DELETE("/guestnest/tables/:id", handler.handleDeleteTable)

	return router, nil
}

type httpHandler struct {
	budgetStore    *budget.Store
	guestNestStore *guestnest.Store
	tokens         *auth.TokenIssuer
	logger         *zap.Logger
	realtime       *RealtimeDispatcher
}

func changeEvent(domain string, meta events.Meta) ChangeEvent {
	return ChangeEvent{
		EventID:   meta.EventID,
		Domain:    domain,
		Action:    meta.Action,
		EntityIDs: meta.EntityIDs,
		Timestamp: meta.OccurredAt,
	}
}

func (h *httpHandler) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *httpHandler) handleEvents(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	stream, cleanup := h.realtime.Subscribe(c.Request.Context())
	defer cleanup()

	ticker := time.NewTicker(realtimeHeartbeatInterval)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-stream:
			if !ok {
				return false
			}
			c.SSEvent(realtimeEventChange, event)
			return true
		case <-ticker.C:
			c.SSEvent(realtimeEventHeartbeat, time.Now().UTC().Format(time.RFC3339))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	subject, err := h.tokens.Validate(token)
	if err != nil {
		h.logger.Warn("token validation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(subjectContextKey, subject)
	c.Next()
}

// respondMutation maps a store outcome to an HTTP response: the new document
// on success, the store's dotted error code otherwise. Clients treating every
// non-200 as "state unchanged" match the stores' contract.
func (h *httpHandler) respondMutation(c *gin.Context, operation string, doc any, err error) {
	if err == nil {
		c.JSON(http.StatusOK, doc)
		return
	}
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("store operation failed", zap.String("operation", operation), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": errorCode(err)})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, guestnest.ErrGuestNotFound),
		errors.Is(err, guestnest.ErrGroupNotFound),
		errors.Is(err, guestnest.ErrMealOptionNotFound),
		errors.Is(err, guestnest.ErrTableNotFound),
		errors.Is(err, budget.ErrCategoryNotFound),
		errors.Is(err, budget.ErrQuoteNotFound),
		errors.Is(err, budget.ErrPaymentNotFound):
		return http.StatusNotFound
	case errors.Is(err, guestnest.ErrDuplicateName),
		errors.Is(err, budget.ErrDuplicateLabel):
		return http.StatusConflict
	case errors.Is(err, guestnest.ErrFullNameRequired),
		errors.Is(err, guestnest.ErrNameRequired),
		errors.Is(err, guestnest.ErrDishNameRequired),
		errors.Is(err, budget.ErrLabelRequired),
		errors.Is(err, budget.ErrVendorNameRequired),
		errors.Is(err, budget.ErrNegativeAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(err error) string {
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return "internal_error"
}

// Patch bodies distinguish an absent key (keep the stored value) from an
// explicit null (clear the field), so they are decoded as raw JSON first.
func decodePatchBody(c *gin.Context) (map[string]json.RawMessage, bool) {
	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return nil, false
	}
	return raw, true
}

func isJSONNull(value json.RawMessage) bool {
	return strings.TrimSpace(string(value)) == "null"
}

// stringField returns nil when the key is absent and a pointer to the empty
// string when the value is an explicit null.
func stringField(raw map[string]json.RawMessage, key string) (*string, error) {
	value, ok := raw[key]
	if !ok {
		return nil, nil
	}
	if isJSONNull(value) {
		empty := ""
		return &empty, nil
	}
	var parsed string
	if err := json.Unmarshal(value, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

func float64Field(raw map[string]json.RawMessage, key string) (*float64, error) {
	value, ok := raw[key]
	if !ok || isJSONNull(value) {
		return nil, nil
	}
	var parsed float64
	if err := json.Unmarshal(value, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

func intField(raw map[string]json.RawMessage, key string) (*int, error) {
	value, ok := raw[key]
	if !ok || isJSONNull(value) {
		return nil, nil
	}
	var parsed int
	if err := json.Unmarshal(value, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

func boolField(raw map[string]json.RawMessage, key string) (*bool, error) {
	value, ok := raw[key]
	if !ok || isJSONNull(value) {
		return nil, nil
	}
	var parsed bool
	if err := json.Unmarshal(value, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

// The bind helpers accumulate the first decode failure so patch handlers can
// collect their fields without an error check per field.

func bindString(raw map[string]json.RawMessage, key string, firstErr *error) *string {
	if *firstErr != nil {
		return nil
	}
	value, err := stringField(raw, key)
	if err != nil {
		*firstErr = err
	}
	return value
}

func bindFloat64(raw map[string]json.RawMessage, key string, firstErr *error) *float64 {
	if *firstErr != nil {
		return nil
	}
	value, err := float64Field(raw, key)
	if err != nil {
		*firstErr = err
	}
	return value
}

func bindInt(raw map[string]json.RawMessage, key string, firstErr *error) *int {
	if *firstErr != nil {
		return nil
	}
	value, err := intField(raw, key)
	if err != nil {
		*firstErr = err
	}
	return value
}

func bindBool(raw map[string]json.RawMessage, key string, firstErr *error) *bool {
	if *firstErr != nil {
		return nil
	}
	value, err := boolField(raw, key)
	if err != nil {
		*firstErr = err
	}
	return value
}
