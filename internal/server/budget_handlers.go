package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/weddingnest/backend/internal/budget"
	"go.uber.org/zap"
)

func (h *httpHandler) handleBudgetLoad(c *gin.Context) {
	doc, err := h.budgetStore.Load(c.Request.Context())
	if err != nil {
		// The store already fell back to a usable document.
		h.logger.Warn("budget load degraded", zap.Error(err))
	}
	c.JSON(http.StatusOK, doc)
}

func (h *httpHandler) handleSetTotalBudget(c *gin.Context) {
	raw, ok := decodePatchBody(c)
	if !ok {
		return
	}
	value, err := float64Field(raw, "totalBudget")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	doc, opErr := h.budgetStore.SetTotalBudget(c.Request.Context(), value)
	h.respondMutation(c, "set_total_budget", doc, opErr)
}

type addCategoriesPayload struct {
	Labels []string `json:"labels"`
}

func (h *httpHandler) handleAddCategories(c *gin.Context) {
	var request addCategoriesPayload
	if err := c.ShouldBindJSON(&request); err != nil || len(request.Labels) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	doc, err := h.budgetStore.AddCategories(c.Request.Context(), request.Labels)
	h.respondMutation(c, "add_categories", doc, err)
}

func (h *httpHandler) handleUpdateCategory(c *gin.Context) {
	raw, ok := decodePatchBody(c)
	if !ok {
		return
	}
	var err error
	patch := budget.CategoryPatch{
		Label:      bindString(raw, "label", &err),
		VendorName: bindString(raw, "vendorName", &err),
		Notes:      bindString(raw, "notes", &err),
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	doc, opErr := h.budgetStore.UpdateCategory(c.Request.Context(), c.Param("id"), patch)
	h.respondMutation(c, "update_category", doc, opErr)
}

func (h *httpHandler) handleDeleteCategory(c *gin.Context) {
	doc, err := h.budgetStore.DeleteCategory(c.Request.Context(), c.Param("id"))
	h.respondMutation(c, "delete_category", doc, err)
}

type setAllocationPayload struct {
	Amount float64 `json:"amount"`
}

func (h *httpHandler) handleSetAllocation(c *gin.Context) {
	var request setAllocationPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	doc, err := h.budgetStore.SetAllocation(c.Request.Context(), c.Param("categoryId"), request.Amount)
	h.respondMutation(c, "set_allocation", doc, err)
}

type quotePayload struct {
	VendorName string  `json:"vendorName"`
	CategoryID string  `json:"categoryId"`
	Amount     float64 `json:"amount"`
	Status     string  `json:"status"`
	Phone      string  `json:"phone"`
	Email      string  `json:"email"`
	Notes      string  `json:"notes"`
}

func (h *httpHandler) handleAddQuote(c *gin.Context) {
	var request quotePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	doc, err := h.budgetStore.AddQuote(c.Request.Context(), budget.QuoteInput{
		VendorName: request.VendorName,
		CategoryID: request.CategoryID,
		Amount:     request.Amount,
		Status:     budget.QuoteStatus(request.Status),
		Phone:      request.Phone,
		Email:      request.Email,
		Notes:      request.Notes,
	})
	h.respondMutation(c, "add_quote", doc, err)
}

func (h *httpHandler) handleUpdateQuote(c *gin.Context) {
	raw, ok := decodePatchBody(c)
	if !ok {
		return
	}
	var err error
	patch := budget.QuotePatch{
		VendorName: bindString(raw, "vendorName", &err),
		CategoryID: bindString(raw, "categoryId", &err),
		Amount:     bindFloat64(raw, "amount", &err),
		Phone:      bindString(raw, "phone", &err),
		Email:      bindString(raw, "email", &err),
		Notes:      bindString(raw, "notes", &err),
	}
	status := bindString(raw, "status", &err)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if status != nil {
		value := budget.QuoteStatus(*status)
		patch.Status = &value
	}
	doc, opErr := h.budgetStore.UpdateQuote(c.Request.Context(), c.Param("id"), patch)
	h.respondMutation(c, "update_quote", doc, opErr)
}

func (h *httpHandler) handleDeleteQuote(c *gin.Context) {
	doc, err := h.budgetStore.DeleteQuote(c.Request.Context(), c.Param("id"))
	h.respondMutation(c, "delete_quote", doc, err)
}

type paymentPayload struct {
	CategoryID  string  `json:"categoryId"`
	VendorName  string  `json:"vendorName"`
	Amount      float64 `json:"amount"`
	DueDate     string  `json:"dueDate"`
	PaymentType string  `json:"paymentType"`
	Status      string  `json:"status"`
}

func (h *httpHandler) handleAddPayment(c *gin.Context) {
	var request paymentPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	doc, err := h.budgetStore.AddPayment(c.Request.Context(), budget.PaymentInput{
		CategoryID:  request.CategoryID,
		VendorName:  request.VendorName,
		Amount:      request.Amount,
		DueDate:     request.DueDate,
		PaymentType: budget.PaymentType(request.PaymentType),
		Status:      budget.PaymentStatus(request.Status),
	})
	h.respondMutation(c, "add_payment", doc, err)
}

func (h *httpHandler) handleUpdatePayment(c *gin.Context) {
	raw, ok := decodePatchBody(c)
	if !ok {
		return
	}
	var err error
	patch := budget.PaymentPatch{
		CategoryID: bindString(raw, "categoryId", &err),
		VendorName: bindString(raw, "vendorName", &err),
		Amount:     bindFloat64(raw, "amount", &err),
		DueDate:    bindString(raw, "dueDate", &err),
	}
	paymentType := bindString(raw, "paymentType", &err)
	status := bindString(raw, "status", &err)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if paymentType != nil {
		value := budget.PaymentType(*paymentType)
		patch.PaymentType = &value
	}
	if status != nil {
		value := budget.PaymentStatus(*status)
		patch.Status = &value
	}
	doc, opErr := h.budgetStore.UpdatePayment(c.Request.Context(), c.Param("id"), patch)
	h.respondMutation(c, "update_payment", doc, opErr)
}

func (h *httpHandler) handleDeletePayment(c *gin.Context) {
	doc, err := h.budgetStore.DeletePayment(c.Request.Context(), c.Param("id"))
	h.respondMutation(c, "delete_payment", doc, err)
}
