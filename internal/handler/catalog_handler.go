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

type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleStaff)
	write := middleware.RequireRole(model.RoleAdmin, model.RoleManager)

	services := router.Group("/api/services")
	{
		services.GET("", read, h.ListServices)
		services.POST("", write, h.CreateService)
		services.PUT("/:id", write, h.UpdateService)
		services.DELETE("/:id", write, h.DeleteService)
	}

	products := router.Group("/api/products")
	{
		products.GET("", read, h.ListProducts)
		products.POST("", write, h.CreateProduct)
		products.PUT("/:id", write, h.UpdateProduct)
		products.DELETE("/:id", write, h.DeleteProduct)
		products.POST("/:id/stock", write, h.AdjustStock)
		products.GET("/:id/stock-movements", read, h.ListStockMovements)
	}

	methods := router.Group("/api/payment-methods")
	{
		methods.GET("", read, h.ListPaymentMethods)
		methods.POST("", write, h.CreatePaymentMethod)
		methods.PUT("/:id", write, h.UpdatePaymentMethod)
		methods.DELETE("/:id", write, h.DeletePaymentMethod)
	}
}

// ListServices returns the salon's service catalog
// @Summary      List services
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        page      query  int     false  "Page number"
// @Param        per_page  query  int     false  "Items per page"
// @Param        search    query  string  false  "Name search"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/services [get]
func (h *CatalogHandler) ListServices(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	params := pagination.Parse(c)

	services, total, err := h.catalogService.ListServices(c.Request.Context(), salonID, params.Page, params.Limit, c.Query("search"))
	if err != nil {
		writeTicketError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"services": services,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// CreateService adds a service to the catalog
// @Summary      Create service
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.SalonServiceRequest  true  "Service Payload"
// @Success      201      {object}  response.Response{data=service.SalonServiceResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/services [post]
func (h *CatalogHandler) CreateService(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	var req service.SalonServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	created, err := h.catalogService.CreateService(c.Request.Context(), salonID, req)
	if err != nil {
		writeTicketError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}

// UpdateService edits a catalog service
// @Summary      Update service
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Service ID"
// @Param        payload  body      service.SalonServiceRequest  true  "Service Payload"
// @Success      200      {object}  response.Response{data=service.SalonServiceResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/services/{id} [put]
func (h *CatalogHandler) UpdateService(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid service id"))
		return
	}
	var req service.SalonServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	updated, err := h.catalogService.UpdateService(c.Request.Context(), salonID, id, req)
	if err != nil {
		writeTicketError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, updated))
}

// DeleteService removes a service from the catalog
// @Summary      Delete service
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Service ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/services/{id} [delete]
func (h *CatalogHandler) DeleteService(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid service id"))
		return
	}
	if err := h.catalogService.DeleteService(c.Request.Context(), salonID, id); err != nil {
		writeTicketError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": id.String()}))
}

// ListProducts returns the salon's product catalog
// @Summary      List products
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        page      query  int     false  "Page number"
// @Param        per_page  query  int     false  "Items per page"
// @Param        search    query  string  false  "Name search"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	params := pagination.Parse(c)

	products, total, err := h.catalogService.ListProducts(c.Request.Context(), salonID, params.Page, params.Limit, c.Query("search"))
	if err != nil {
		writeTicketError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"products": products,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// CreateProduct adds a product to the catalog
// @Summary      Create product
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ProductRequest  true  "Product Payload"
// @Success      201      {object}  response.Response{data=service.ProductResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	created, err := h.catalogService.CreateProduct(c.Request.Context(), salonID, req)
	if err != nil {
		writeTicketError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}

// UpdateProduct edits a catalog product
// @Summary      Update product
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Product ID"
// @Param        payload  body      service.ProductRequest  true  "Product Payload"
// @Success      200      {object}  response.Response{data=service.ProductResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/products/{id} [put]
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product id"))
		return
	}
	var req service.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	updated, err := h.catalogService.UpdateProduct(c.Request.Context(), salonID, id, req)
	if err != nil {
		writeTicketError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, updated))
}

// DeleteProduct removes a product from the catalog
// @Summary      Delete product
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [delete]
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product id"))
		return
	}
	if err := h.catalogService.DeleteProduct(c.Request.Context(), salonID, id); err != nil {
		writeTicketError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": id.String()}))
}

type stockAdjustRequest struct {
	Delta int    `json:"delta" binding:"required"`
	Notes string `json:"notes"`
}

// AdjustStock applies a manual stock correction
// @Summary      Adjust product stock
// @Description  Applies a positive or negative stock delta and records the movement
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string              true  "Product ID"
// @Param        payload  body      stockAdjustRequest  true  "Adjustment Payload"
// @Success      200      {object}  response.Response{data=service.ProductResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/products/{id}/stock [post]
func (h *CatalogHandler) AdjustStock(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product id"))
		return
	}
	var req stockAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	updated, err := h.catalogService.AdjustStock(c.Request.Context(), salonID, id, req.Delta, req.Notes)
	if err != nil {
		writeTicketError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, updated))
}

// ListStockMovements returns a product's stock movement history
// @Summary      List stock movements
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id        path   string  true   "Product ID"
// @Param        page      query  int     false  "Page number"
// @Param        per_page  query  int     false  "Items per page"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/products/{id}/stock-movements [get]
func (h *CatalogHandler) ListStockMovements(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product id"))
		return
	}
	params := pagination.Parse(c)

	movements, total, err := h.catalogService.ListStockMovements(c.Request.Context(), salonID, id, params.Page, params.Limit)
	if err != nil {
		writeTicketError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"movements": movements,
		"total":     total,
		"page":      params.Page,
		"limit":     params.Limit,
	}))
}

// ListPaymentMethods returns the accepted payment methods
// @Summary      List payment methods
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        page      query  int  false  "Page number"
// @Param        per_page  query  int  false  "Items per page"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/payment-methods [get]
func (h *CatalogHandler) ListPaymentMethods(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	params := pagination.Parse(c)

	methods, total, err := h.catalogService.ListPaymentMethods(c.Request.Context(), salonID, params.Page, params.Limit)
	if err != nil {
		writeTicketError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"payment_methods": methods,
		"total":           total,
		"page":            params.Page,
		"limit":           params.Limit,
	}))
}

// CreatePaymentMethod adds a payment method
// @Summary      Create payment method
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.PaymentMethodRequest  true  "Payment Method Payload"
// @Success      201      {object}  response.Response{data=service.PaymentMethodResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/payment-methods [post]
func (h *CatalogHandler) CreatePaymentMethod(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	var req service.PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	created, err := h.catalogService.CreatePaymentMethod(c.Request.Context(), salonID, req)
	if err != nil {
		writeTicketError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, created))
}

// UpdatePaymentMethod edits a payment method
// @Summary      Update payment method
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Payment Method ID"
// @Param        payload  body      service.PaymentMethodRequest  true  "Payment Method Payload"
// @Success      200      {object}  response.Response{data=service.PaymentMethodResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/payment-methods/{id} [put]
func (h *CatalogHandler) UpdatePaymentMethod(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid payment method id"))
		return
	}
	var req service.PaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	updated, err := h.catalogService.UpdatePaymentMethod(c.Request.Context(), salonID, id, req)
	if err != nil {
		writeTicketError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, updated))
}

// DeletePaymentMethod removes a payment method
// @Summary      Delete payment method
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Payment Method ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/payment-methods/{id} [delete]
func (h *CatalogHandler) DeletePaymentMethod(c *gin.Context) {
	salonID, ok := middleware.SalonIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing salon scope"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid payment method id"))
		return
	}
	if err := h.catalogService.DeletePaymentMethod(c.Request.Context(), salonID, id); err != nil {
		writeTicketError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": id.String()}))
}
