package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/weddingnest/backend/internal/guestnest"
	"go.uber.org/zap"
)

func (h *httpHandler) handleGuestNestLoad(c *gin.Context) {
	doc, err := h.guestNestStore.Load(c.Request.Context())
	if err != nil {
		// The store already fell back to a usable document.
		h.logger.Warn("guest nest load degraded", zap.Error(err))
	}
	c.JSON(http.StatusOK, doc)
}

type guestPayload struct {
	FullName       string `json:"fullName"`
	GroupID        string `json:"groupId"`
	RSVPStatus     string `json:"rsvpStatus"`
	GuestCategory  string `json:"guestCategory"`
	PlusOneAllowed bool   `json:"plusOneAllowed"`
	MealChoiceID   string `json:"mealChoiceId"`
	DietaryNotes   string `json:"dietaryNotes"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	Notes          string `json:"notes"`
}

func (p guestPayload) toInput() guestnest.GuestInput {
	return guestnest.GuestInput{
		FullName:       p.FullName,
		GroupID:        p.GroupID,
		RSVPStatus:     guestnest.RSVPStatus(p.RSVPStatus),
		GuestCategory:  guestnest.GuestCategory(p.GuestCategory),
		PlusOneAllowed: p.PlusOneAllowed,
		MealChoiceID:   p.MealChoiceID,
		DietaryNotes:   p.DietaryNotes,
		Email:          p.Email,
		Phone:          p.Phone,
		Address:        p.Address,
		Notes:          p.Notes,
	}
}

func (h *httpHandler) handleAddGuest(c *gin.Context) {
	var request guestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	doc, err := h.guestNestStore.AddGuest(c.Request.Context(), request.toInput())
	h.respondMutation(c, "add_guest", doc, err)
}

type bulkGuestsPayload struct {
	Guests []guestPayload `json:"guests"`
}

func (h *httpHandler) handleBulkAddGuests(c *gin.Context) {
	var request bulkGuestsPayload
	if err := c.ShouldBindJSON(&request); err != nil || len(request.Guests) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	inputs := make([]guestnest.GuestInput, 0, len(request.Guests))
	for _, guest := range request.Guests {
		inputs = append(inputs, guest.toInput())
	}
	doc, err := h.guestNestStore.BulkAddGuests(c.Request.Context(), inputs)
	h.respondMutation(c, "bulk_add_guests", doc, err)
}

func (h *httpHandler) handleUpdateGuest(c *gin.Context) {
	raw, ok := decodePatchBody(c)
	if !ok {
		return
	}
	var err error
	patch := guestnest.GuestPatch{
		FullName:       bindString(raw, "fullName", &err),
		GroupID:        bindString(raw, "groupId", &err),
		PlusOneAllowed: bindBool(raw, "plusOneAllowed", &err),
		MealChoiceID:   bindString(raw, "mealChoiceId", &err),
		DietaryNotes:   bindString(raw, "dietaryNotes", &err),
		Email:          bindString(raw, "email", &err),
		Phone:          bindString(raw, "phone", &err),
		Address:        bindString(raw, "address", &err),
		TableID:        bindString(raw, "tableId", &err),
		SeatLabel:      bindString(raw, "seatLabel", &err),
		Notes:          bindString(raw, "notes", &err),
	}
	rsvp := bindString(raw, "rsvpStatus", &err)
	category := bindString(raw, "guestCategory", &err)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if rsvp != nil {
		value := guestnest.RSVPStatus(*rsvp)
		patch.RSVPStatus = &value
	}
	if category != nil {
		value := guestnest.GuestCategory(*category)
		patch.GuestCategory = &value
	}
	doc, opErr := h.guestNestStore.UpdateGuest(c.Request.Context(), c.Param("id"), patch)
	h.respondMutation(c, "update_guest", doc, opErr)
}

func (h *httpHandler) handleDeleteGuest(c *gin.Context) {
	doc, err := h.guestNestStore.DeleteGuest(c.Request.Context(), c.Param("id"))
	h.respondMutation(c, "delete_guest", doc, err)
}

type assignTablePayload struct {
	TableID   string `json:"tableId"`
	SeatLabel string `json:"seatLabel"`
}

func (h *httpHandler) handleAssignGuestToTable(c *gin.Context) {
	var request assignTablePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	doc, err := h.guestNestStore.AssignGuestToTable(c.Request.Context(), c.Param("id"), request.TableID, request.SeatLabel)
	h.respondMutation(c, "assign_guest_to_table", doc, err)
}

func (h *httpHandler) handleUnassignGuestFromTable(c *gin.Context) {
	doc, err := h.guestNestStore.UnassignGuestFromTable(c.Request.Context(), c.Param("id"))
	h.respondMutation(c, "unassign_guest_from_table", doc, err)
}

type mealChoicePayload struct {
	MealOptionID string `json:"mealOptionId"`
}

func (h *httpHandler) handleSetGuestMealChoice(c *gin.Context) {
	var request mealChoicePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	doc, err := h.guestNestStore.SetGuestMealChoice(c.Request.Context(), c.Param("id"), request.MealOptionID)
	h.respondMutation(c, "set_guest_meal_choice", doc, err)
}

type namePayload struct {
	Name string `json:"name"`
}

func (h *httpHandler) handleAddGroup(c *gin.Context) {
	var request namePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	doc, err := h.guestNestStore.AddGroup(c.Request.Context(), request.Name)
	h.respondMutation(c, "add_group", doc, err)
}

func (h *httpHandler) handleUpdateGroup(c *gin.Context) {
	var request namePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	doc, err := h.guestNestStore.UpdateGroup(c.Request.Context(), c.Param("id"), request.Name)
	h.respondMutation(c, "update_group", doc, err)
}

func (h *httpHandler) handleDeleteGroup(c *gin.Context) {
	doc, err := h.guestNestStore.DeleteGroup(c.Request.Context(), c.Param("id"))
	h.respondMutation(c, "delete_group", doc, err)
}

type mealOptionPayload struct {
	Course   string `json:"course"`
	DishName string `json:"dishName"`
}

func (h *httpHandler) handleAddMealOption(c *gin.Context) {
	var request mealOptionPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	doc, err := h.guestNestStore.AddMealOption(c.Request.Context(), guestnest.Course(request.Course), request.DishName)
	h.respondMutation(c, "add_meal_option", doc, err)
}

func (h *httpHandler) handleUpdateMealOption(c *gin.Context) {
	raw, ok := decodePatchBody(c)
	if !ok {
		return
	}
	var err error
	course := bindString(raw, "course", &err)
	dishName := bindString(raw, "dishName", &err)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	var coursePtr *guestnest.Course
	if course != nil {
		value := guestnest.Course(*course)
		coursePtr = &value
	}
	doc, opErr := h.guestNestStore.UpdateMealOption(c.Request.Context(), c.Param("id"), coursePtr, dishName)
	h.respondMutation(c, "update_meal_option", doc, opErr)
}

func (h *httpHandler) handleDeleteMealOption(c *gin.Context) {
	doc, err := h.guestNestStore.DeleteMealOption(c.Request.Context(), c.Param("id"))
	h.respondMutation(c, "delete_meal_option", doc, err)
}

type tablePayload struct {
	Name          string `json:"name"`
	NumberOfSeats int    `json:"numberOfSeats"`
	Type          string `json:"type"`
	IsTopTable    bool   `json:"isTopTable"`
}

func (h *httpHandler) handleAddTable(c *gin.Context) {
	var request tablePayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	doc, err := h.guestNestStore.AddTable(c.Request.Context(), guestnest.TableInput{
		Name:          request.Name,
		NumberOfSeats: request.NumberOfSeats,
		Type:          request.Type,
		IsTopTable:    request.IsTopTable,
	})
	h.respondMutation(c, "add_table", doc, err)
}

func (h *httpHandler) handleUpdateTable(c *gin.Context) {
	raw, ok := decodePatchBody(c)
	if !ok {
		return
	}
	var err error
	patch := guestnest.TablePatch{
		Name:          bindString(raw, "name", &err),
		NumberOfSeats: bindInt(raw, "numberOfSeats", &err),
		Type:          bindString(raw, "type", &err),
		IsTopTable:    bindBool(raw, "isTopTable", &err),
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	doc, opErr := h.guestNestStore.UpdateTable(c.Request.Context(), c.Param("id"), patch)
	h.respondMutation(c, "update_table", doc, opErr)
}

func (h *httpHandler) handleDeleteTable(c *gin.Context) {
	doc, err := h.guestNestStore.DeleteTable(c.Request.Context(), c.Param("id"))
	h.respondMutation(c, "delete_table", doc, err)
}
