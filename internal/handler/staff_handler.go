package handler

import (
	"net/http"

	"salon-backend/internal/middleware"
	"salon-backend/internal/model"
	"salon-backend/internal/service"
	"salon-backend/pkg/pagination"
	"salon-backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StaffHandler struct {
	staffService service.StaffService
}

func NewStaffHandler(staffService service.StaffService) *StaffHandler {
	return &StaffHandler{staffService: staffService}
}

func (h *StaffHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff)
	write := middleware.RequireRole(model.RoleAdmin, model.RoleManager)

	staff := router.Group("/api/staff")
	{
		staff.GET("", read, h.ListStaff)
		staff.GET("/:id", read, h.GetStaff)
		staff.POST("", write, h.CreateStaff)
		staff.PUT("/:id", write, h.UpdateStaff)
		staff.DELETE("/:id", write, h.DeleteStaff)
	}
}

// ListStaff returns the salon's collaborators
// @Summary      List staff
// @Tags         staff
// @Security     BearerAuth
// @Produce      json
// @Param        page      query  int  false  "Page number"
// @Param        per_page  query  int  false  "Items per page"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/staff [get]
func (h *StaffHandler) ListStaff(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	params := pagination.Parse(c)

	staff, total, err := h.staffService.ListStaff(c.Request.Context(), salonID, params.Page, params.Limit)
	if err != nil {
		writeTicketError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"staff": staff,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// GetStaff returns one collaborator with their service qualifications
// @Summary      Get staff
// @Tags         staff
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Staff ID"
// @Success      200  {object}  response.Response{data=service.StaffResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/staff/{id} [get]
func (h *StaffHandler) GetStaff(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid staff id"))
		return
	}
	staff, err := h.staffService.GetStaff(c.Request.Context(), salonID, id)
	if err != nil {
		writeTicketError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, staff))
}

// CreateStaff registers a collaborator
// @Summary      Create staff
// @Tags         staff
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.StaffRequest  true  "Staff Payload"
// @Success      201      {object}  response.Response{data=service.StaffResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/staff [post]
func (h *StaffHandler) CreateStaff(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	var req service.StaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	created, err := h.staffService.CreateStaff(c.Request.Context(), salonID, req)
	if err != nil {
		writeTicketError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}

// UpdateStaff edits a collaborator
// @Summary      Update staff
// @Tags         staff
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                true  "Staff ID"
// @Param        payload  body      service.StaffRequest  true  "Staff Payload"
// @Success      200      {object}  response.Response{data=service.StaffResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/staff/{id} [put]
func (h *StaffHandler) UpdateStaff(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid staff id"))
		return
	}
	var req service.StaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	updated, err := h.staffService.UpdateStaff(c.Request.Context(), salonID, id, req)
	if err != nil {
		writeTicketError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, updated))
}

// DeleteStaff removes a collaborator
// @Summary      Delete staff
// @Tags         staff
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Staff ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/staff/{id} [delete]
func (h *StaffHandler) DeleteStaff(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid staff id"))
		return
	}
	if err := h.staffService.DeleteStaff(c.Request.Context(), salonID, id); err != nil {
		writeTicketError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": id.String()}))
}
