package handler

import (
	"errors"
	"net/http"

	"salon-backend/internal/middleware"
	"salon-backend/internal/model"
	"salon-backend/internal/service"
	"salon-backend/pkg/pagination"
	"salon-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TicketHandler struct {
	ticketService service.TicketService
}

func NewTicketHandler(ticketService service.TicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

func (h *TicketHandler) RegisterRoutes(router *gin.RouterGroup) {
	tickets := router.Group("/api/tickets")
	tickets.Use(middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff))
	{
		tickets.GET("", h.ListTickets)
		tickets.GET("/:id", h.GetTicket)
		tickets.POST("", h.CreateTicket)
		tickets.PUT("/:id", h.UpdateTicket)
		tickets.POST("/:id/items", h.AddItem)
		tickets.DELETE("/:id/items/:itemId", h.RemoveItem)
		tickets.POST("/:id/payments", h.AddPayment)
		tickets.DELETE("/:id/payments/:paymentId", h.RemovePayment)
		tickets.POST("/:id/cancel", h.CancelTicket)
	}
}

// actorFromContext builds the acting identity from the auth middleware claims.
func actorFromContext(c *gin.Context) service.Actor {
	userID, _ := middleware.UserIDFromContext(c)
	return service.Actor{
		UserID:  userID,
		StaffID: middleware.StaffIDFromContext(c),
		Role:    middleware.RoleFromContext(c),
	}
}

// writeTicketError maps domain errors onto HTTP status codes.
func writeTicketError(c *gin.Context, err error) {
	var balanceErr *service.IncompleteBalanceError
	switch {
	case errors.Is(err, service.ErrTicketNotFound),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrPaymentNotFound),
		errors.Is(err, service.ErrCatalogNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, service.ErrTicketTerminal):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	case errors.As(err, &balanceErr):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	case errors.Is(err, service.ErrNotOwner):
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, err.Error()))
	case errors.Is(err, service.ErrInvalidStatus), errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}

// ListTickets returns a paginated, filtered list of tickets
// @Summary      List tickets
// @Description  Retrieves tickets filtered by status, client, staff and date range
// @Tags         tickets
// @Security     BearerAuth
// @Produce      json
// @Param        status     query     string  false  "Filter by status (open, in_service, awaiting_payment, paid, cancelled)"
// @Param        client_id  query     string  false  "Filter by client"
// @Param        staff_id   query     string  false  "Filter by staff on ticket items"
// @Param        date_from  query     string  false  "Opened at or after (RFC3339)"
// @Param        date_to    query     string  false  "Opened at or before (RFC3339)"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        per_page   query     int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Failure      400  {object}  response.Response
// @Router       /api/tickets [get]
func (h *TicketHandler) ListTickets(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	params := pagination.Parse(c)

	filter := service.TicketListFilter{
		Status:   c.Query("status"),
		ClientID: c.Query("client_id"),
		StaffID:  c.Query("staff_id"),
		DateFrom: c.Query("date_from"),
		DateTo:   c.Query("date_to"),
		Page:     params.Page,
		Limit:    params.Limit,
	}

	tickets, total, err := h.ticketService.ListTickets(c.Request.Context(), salonID, filter)
	if err != nil {
		writeTicketError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"tickets":  tickets,
		"total":    total,
		"page":     params.Page,
		"per_page": params.Limit,
	}))
}

// GetTicket returns one ticket with its items and payments
// @Summary      Get ticket
// @Description  Retrieves a single ticket by ID with items and payments
// @Tags         tickets
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Ticket ID"
// @Success      200  {object}  response.Response{data=service.TicketResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/tickets/{id} [get]
func (h *TicketHandler) GetTicket(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid ticket id"))
		return
	}

	ticket, err := h.ticketService.GetTicket(c.Request.Context(), salonID, id)
	if err != nil {
		writeTicketError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, ticket))
}

// CreateTicket opens a new ticket, optionally pre-loaded with items/payments
// @Summary      Create ticket
// @Description  Opens a ticket with optional initial items and payments. Creating with status=paid requires a settled balance.
// @Tags         tickets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateTicketRequest  true  "Create Ticket Payload"
// @Success      201      {object}  response.Response{data=service.TicketResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/tickets [post]
func (h *TicketHandler) CreateTicket(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}

	var req service.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ticket, err := h.ticketService.CreateTicket(c.Request.Context(), salonID, actorFromContext(c), req)
	if err != nil {
		writeTicketError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, ticket))
}

// UpdateTicket updates mutable header fields of an open ticket
// @Summary      Update ticket
// @Description  Updates header fields. Setting status=paid applies the balance guard; paid and cancelled tickets reject edits.
// @Tags         tickets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Ticket ID"
// @Param        payload  body      service.UpdateTicketRequest   true  "Update Ticket Payload"
// @Success      200      {object}  response.Response{data=service.TicketResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/tickets/{id} [put]
func (h *TicketHandler) UpdateTicket(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid ticket id"))
		return
	}

	var req service.UpdateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	ticket, err := h.ticketService.UpdateTicket(c.Request.Context(), salonID, actorFromContext(c), id, req)
	if err != nil {
		writeTicketError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, ticket))
}

// AddItem appends a service or product line to an open ticket
// @Summary      Add ticket item
// @Description  Adds a line item, snapshotting price and commission from the catalog
// @Tags         tickets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Ticket ID"
// @Param        payload  body      service.TicketItemRequest   true  "Item Payload"
// @Success      201      {object}  response.Response{data=service.TicketItemResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/tickets/{id}/items [post]
func (h *TicketHandler) AddItem(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid ticket id"))
		return
	}

	var req service.TicketItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	item, err := h.ticketService.AddItem(c.Request.Context(), salonID, actorFromContext(c), id, req)
	if err != nil {
		writeTicketError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, item))
}

// RemoveItem deletes a line item from an open ticket
// @Summary      Remove ticket item
// @Description  Removes a line item. Staff logins may only remove their own lines.
// @Tags         tickets
// @Security     BearerAuth
// @Produce      json
// @Param        id      path      string  true  "Ticket ID"
// @Param        itemId  path      string  true  "Item ID"
// @Success      200     {object}  response.Response
// @Failure      403     {object}  response.Response
// @Failure      404     {object}  response.Response
// @Router       /api/tickets/{id}/items/{itemId} [delete]
func (h *TicketHandler) RemoveItem(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid ticket id"))
		return
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid item id"))
		return
	}

	if err := h.ticketService.RemoveItem(c.Request.Context(), salonID, actorFromContext(c), id, itemID); err != nil {
		writeTicketError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": itemID.String()}))
}

// AddPayment records a payment against an open ticket
// @Summary      Add ticket payment
// @Description  Records a payment, snapshotting the method name
// @Tags         tickets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Ticket ID"
// @Param        payload  body      service.TicketPaymentRequest   true  "Payment Payload"
// @Success      201      {object}  response.Response{data=service.TicketPaymentResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/tickets/{id}/payments [post]
func (h *TicketHandler) AddPayment(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid ticket id"))
		return
	}

	var req service.TicketPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	payment, err := h.ticketService.AddPayment(c.Request.Context(), salonID, actorFromContext(c), id, req)
	if err != nil {
		writeTicketError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, payment))
}

// RemovePayment deletes a payment from an open ticket
// @Summary      Remove ticket payment
// @Description  Removes a payment record; corrections remove and re-add
// @Tags         tickets
// @Security     BearerAuth
// @Produce      json
// @Param        id         path      string  true  "Ticket ID"
// @Param        paymentId  path      string  true  "Payment ID"
// @Success      200        {object}  response.Response
// @Failure      404        {object}  response.Response
// @Router       /api/tickets/{id}/payments/{paymentId} [delete]
func (h *TicketHandler) RemovePayment(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid ticket id"))
		return
	}
	paymentID, err := uuid.Parse(c.Param("paymentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid payment id"))
		return
	}

	if err := h.ticketService.RemovePayment(c.Request.Context(), salonID, actorFromContext(c), id, paymentID); err != nil {
		writeTicketError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": paymentID.String()}))
}

// CancelTicket voids an open ticket
// @Summary      Cancel ticket
// @Description  Cancels a non-terminal ticket, freezing its items and payments as recorded
// @Tags         tickets
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Ticket ID"
// @Success      200  {object}  response.Response{data=service.TicketResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/tickets/{id}/cancel [post]
func (h *TicketHandler) CancelTicket(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid ticket id"))
		return
	}

	ticket, err := h.ticketService.CancelTicket(c.Request.Context(), salonID, actorFromContext(c), id)
	if err != nil {
		writeTicketError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, ticket))
}
