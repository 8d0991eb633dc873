package service

import (
	"context"
	"errors"
	"fmt"

	"salon-backend/internal/model"
	"salon-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type SalonServiceRequest struct {
	Name              string          `json:"name" binding:"required"`
	Description       string          `json:"description"`
	Category          string          `json:"category"`
	Price             decimal.Decimal `json:"price"`
	DurationMinutes   int             `json:"duration_minutes"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
	SortOrder         int             `json:"sort_order"`
	IsActive          *bool           `json:"is_active"`
}

type SalonServiceResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	Category          string `json:"category"`
	Price             string `json:"price"`
	DurationMinutes   int    `json:"duration_minutes"`
	CommissionPercent string `json:"commission_percent"`
	SortOrder         int    `json:"sort_order"`
	IsActive          bool   `json:"is_active"`
	CreatedAt         string `json:"created_at"`
}

type ProductRequest struct {
	Name              string          `json:"name" binding:"required"`
	Description       string          `json:"description"`
	Code              string          `json:"code"`
	Category          string          `json:"category"`
	Brand             string          `json:"brand"`
	SalePrice         decimal.Decimal `json:"sale_price"`
	CostPrice         decimal.Decimal `json:"cost_price"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
	CurrentStock      *int            `json:"current_stock"`
	MinimumStock      *int            `json:"minimum_stock"`
	IsActive          *bool           `json:"is_active"`
}

type ProductResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	Code              string `json:"code"`
	Category          string `json:"category"`
	Brand             string `json:"brand"`
	SalePrice         string `json:"sale_price"`
	CostPrice         string `json:"cost_price"`
	CommissionPercent string `json:"commission_percent"`
	CurrentStock      int    `json:"current_stock"`
	MinimumStock      int    `json:"minimum_stock"`
	LowStock          bool   `json:"low_stock"`
	IsActive          bool   `json:"is_active"`
	CreatedAt         string `json:"created_at"`
}

type PaymentMethodRequest struct {
	Name           string          `json:"name" binding:"required"`
	Description    string          `json:"description"`
	FeePercent     decimal.Decimal `json:"fee_percent"`
	SettlementDays int             `json:"settlement_days"`
	IsActive       *bool           `json:"is_active"`
}

type PaymentMethodResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	FeePercent     string `json:"fee_percent"`
	SettlementDays int    `json:"settlement_days"`
	IsActive       bool   `json:"is_active"`
	CreatedAt      string `json:"created_at"`
}

type StockMovementResponse struct {
	ID              string  `json:"id"`
	ProductID       string  `json:"product_id"`
	TicketID        *string `json:"ticket_id"`
	MovementType    string  `json:"movement_type"`
	QuantityChanged int     `json:"quantity_changed"`
	StockAfter      int     `json:"stock_after"`
	Notes           string  `json:"notes,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

// --- Interface ---

// CatalogService manages the per-salon price list: services offered, retail
// products and accepted payment methods.
type CatalogService interface {
	ListServices(ctx context.Context, salonID uuid.UUID, page, limit int, search string) ([]SalonServiceResponse, int64, error)
	CreateService(ctx context.Context, salonID uuid.UUID, req SalonServiceRequest) (*SalonServiceResponse, error)
	UpdateService(ctx context.Context, salonID, id uuid.UUID, req SalonServiceRequest) (*SalonServiceResponse, error)
	DeleteService(ctx context.Context, salonID, id uuid.UUID) error

	ListProducts(ctx context.Context, salonID uuid.UUID, page, limit int, search string) ([]ProductResponse, int64, error)
	CreateProduct(ctx context.Context, salonID uuid.UUID, req ProductRequest) (*ProductResponse, error)
	UpdateProduct(ctx context.Context, salonID, id uuid.UUID, req ProductRequest) (*ProductResponse, error)
	DeleteProduct(ctx context.Context, salonID, id uuid.UUID) error
	AdjustStock(ctx context.Context, salonID, productID uuid.UUID, delta int, notes string) (*ProductResponse, error)
	ListStockMovements(ctx context.Context, salonID, productID uuid.UUID, page, limit int) ([]StockMovementResponse, int64, error)

	ListPaymentMethods(ctx context.Context, salonID uuid.UUID, page, limit int) ([]PaymentMethodResponse, int64, error)
	CreatePaymentMethod(ctx context.Context, salonID uuid.UUID, req PaymentMethodRequest) (*PaymentMethodResponse, error)
	UpdatePaymentMethod(ctx context.Context, salonID, id uuid.UUID, req PaymentMethodRequest) (*PaymentMethodResponse, error)
	DeletePaymentMethod(ctx context.Context, salonID, id uuid.UUID) error
}

type catalogService struct {
	serviceRepo repository.ServiceRepository
	productRepo repository.ProductRepository
	methodRepo  repository.PaymentMethodRepository
	stockRepo   repository.StockRepository
	txManager   repository.TransactionManager
}

func NewCatalogService(
	serviceRepo repository.ServiceRepository,
	productRepo repository.ProductRepository,
	methodRepo repository.PaymentMethodRepository,
	stockRepo repository.StockRepository,
	txManager repository.TransactionManager,
) CatalogService {
	return &catalogService{
		serviceRepo: serviceRepo,
		productRepo: productRepo,
		methodRepo:  methodRepo,
		stockRepo:   stockRepo,
		txManager:   txManager,
	}
}

// --- Services ---

func (s *catalogService) ListServices(ctx context.Context, salonID uuid.UUID, page, limit int, search string) ([]SalonServiceResponse, int64, error) {
	services, total, err := s.serviceRepo.List(ctx, salonID, page, limit, search)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch services: %w", err)
	}
	result := make([]SalonServiceResponse, 0, len(services))
	for i := range services {
		result = append(result, toServiceResponse(&services[i]))
	}
	return result, total, nil
}

func (s *catalogService) CreateService(ctx context.Context, salonID uuid.UUID, req SalonServiceRequest) (*SalonServiceResponse, error) {
	if err := validateServiceReq(req); err != nil {
		return nil, err
	}
	svc := &model.SalonService{
		SalonID:           salonID,
		Name:              req.Name,
		Description:       req.Description,
		Category:          req.Category,
		Price:             req.Price,
		DurationMinutes:   req.DurationMinutes,
		CommissionPercent: req.CommissionPercent,
		SortOrder:         req.SortOrder,
		IsActive:          true,
	}
	if req.IsActive != nil {
		svc.IsActive = *req.IsActive
	}
	if err := s.serviceRepo.Create(ctx, svc); err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	resp := toServiceResponse(svc)
	return &resp, nil
}

func (s *catalogService) UpdateService(ctx context.Context, salonID, id uuid.UUID, req SalonServiceRequest) (*SalonServiceResponse, error) {
	if err := validateServiceReq(req); err != nil {
		return nil, err
	}
	svc, err := s.findSalonService(ctx, salonID, id)
	if err != nil {
		return nil, err
	}
	svc.Name = req.Name
	svc.Description = req.Description
	svc.Category = req.Category
	svc.Price = req.Price
	svc.DurationMinutes = req.DurationMinutes
	svc.CommissionPercent = req.CommissionPercent
	svc.SortOrder = req.SortOrder
	if req.IsActive != nil {
		svc.IsActive = *req.IsActive
	}
	if err := s.serviceRepo.Update(ctx, svc); err != nil {
		return nil, fmt.Errorf("failed to update service: %w", err)
	}
	resp := toServiceResponse(svc)
	return &resp, nil
}

func (s *catalogService) DeleteService(ctx context.Context, salonID, id uuid.UUID) error {
	if _, err := s.findSalonService(ctx, salonID, id); err != nil {
		return err
	}
	if err := s.serviceRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	return nil
}

func (s *catalogService) findSalonService(ctx context.Context, salonID, id uuid.UUID) (*model.SalonService, error) {
	svc, err := s.serviceRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCatalogNotFound
		}
		return nil, fmt.Errorf("failed to load service: %w", err)
	}
	if svc.SalonID != salonID {
		return nil, ErrCatalogNotFound
	}
	return svc, nil
}

func validateServiceReq(req SalonServiceRequest) error {
	if req.Price.IsNegative() {
		return validationErr("price must not be negative")
	}
	if req.CommissionPercent.IsNegative() || req.CommissionPercent.GreaterThan(decimal.NewFromInt(100)) {
		return validationErr("commission_percent must be between 0 and 100")
	}
	if req.DurationMinutes < 0 {
		return validationErr("duration_minutes must not be negative")
	}
	return nil
}

// --- Products ---

func (s *catalogService) ListProducts(ctx context.Context, salonID uuid.UUID, page, limit int, search string) ([]ProductResponse, int64, error) {
	products, total, err := s.productRepo.List(ctx, salonID, page, limit, search)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}
	result := make([]ProductResponse, 0, len(products))
	for i := range products {
		result = append(result, toProductResponse(&products[i]))
	}
	return result, total, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, salonID uuid.UUID, req ProductRequest) (*ProductResponse, error) {
	if err := validateProductReq(req); err != nil {
		return nil, err
	}
	product := &model.Product{
		SalonID:           salonID,
		Name:              req.Name,
		Description:       req.Description,
		Code:              req.Code,
		Category:          req.Category,
		Brand:             req.Brand,
		SalePrice:         req.SalePrice,
		CostPrice:         req.CostPrice,
		CommissionPercent: req.CommissionPercent,
		IsActive:          true,
	}
	if req.CurrentStock != nil {
		product.CurrentStock = *req.CurrentStock
	}
	if req.MinimumStock != nil {
		product.MinimumStock = *req.MinimumStock
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	resp := toProductResponse(product)
	return &resp, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, salonID, id uuid.UUID, req ProductRequest) (*ProductResponse, error) {
	if err := validateProductReq(req); err != nil {
		return nil, err
	}
	product, err := s.findSalonProduct(ctx, salonID, id)
	if err != nil {
		return nil, err
	}
	product.Name = req.Name
	product.Description = req.Description
	product.Code = req.Code
	product.Category = req.Category
	product.Brand = req.Brand
	product.SalePrice = req.SalePrice
	product.CostPrice = req.CostPrice
	product.CommissionPercent = req.CommissionPercent
	if req.MinimumStock != nil {
		product.MinimumStock = *req.MinimumStock
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	// CurrentStock is deliberately not editable here; stock changes go
	// through AdjustStock so every change leaves a movement record.
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	resp := toProductResponse(product)
	return &resp, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, salonID, id uuid.UUID) error {
	if _, err := s.findSalonProduct(ctx, salonID, id); err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func (s *catalogService) AdjustStock(ctx context.Context, salonID, productID uuid.UUID, delta int, notes string) (*ProductResponse, error) {
	if delta == 0 {
		return nil, validationErr("stock adjustment must not be zero")
	}
	var updated *model.Product
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.productRepo.FindByIDForUpdate(txCtx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCatalogNotFound
			}
			return fmt.Errorf("failed to load product: %w", err)
		}
		if product.SalonID != salonID {
			return ErrCatalogNotFound
		}

		stockAfter := product.CurrentStock + delta
		if stockAfter < 0 {
			return validationErr("adjustment would drop stock below zero")
		}
		if err := s.productRepo.UpdateStock(txCtx, product.ID, stockAfter); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}
		movement := &model.StockMovement{
			ProductID:       product.ID,
			MovementType:    model.MovementAdjustment,
			QuantityChanged: delta,
			StockAfter:      stockAfter,
			Notes:           notes,
		}
		if err := s.stockRepo.Record(txCtx, movement); err != nil {
			return fmt.Errorf("failed to record stock movement: %w", err)
		}

		product.CurrentStock = stockAfter
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := toProductResponse(updated)
	return &resp, nil
}

func (s *catalogService) ListStockMovements(ctx context.Context, salonID, productID uuid.UUID, page, limit int) ([]StockMovementResponse, int64, error) {
	if _, err := s.findSalonProduct(ctx, salonID, productID); err != nil {
		return nil, 0, err
	}
	movements, total, err := s.stockRepo.ListByProduct(ctx, productID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch stock movements: %w", err)
	}
	result := make([]StockMovementResponse, 0, len(movements))
	for i := range movements {
		result = append(result, toStockMovementResponse(&movements[i]))
	}
	return result, total, nil
}

func (s *catalogService) findSalonProduct(ctx context.Context, salonID, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCatalogNotFound
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product.SalonID != salonID {
		return nil, ErrCatalogNotFound
	}
	return product, nil
}

func validateProductReq(req ProductRequest) error {
	if req.SalePrice.IsNegative() || req.CostPrice.IsNegative() {
		return validationErr("prices must not be negative")
	}
	if req.CommissionPercent.IsNegative() || req.CommissionPercent.GreaterThan(decimal.NewFromInt(100)) {
		return validationErr("commission_percent must be between 0 and 100")
	}
	if req.CurrentStock != nil && *req.CurrentStock < 0 {
		return validationErr("current_stock must not be negative")
	}
	if req.MinimumStock != nil && *req.MinimumStock < 0 {
		return validationErr("minimum_stock must not be negative")
	}
	return nil
}

// --- Payment methods ---

func (s *catalogService) ListPaymentMethods(ctx context.Context, salonID uuid.UUID, page, limit int) ([]PaymentMethodResponse, int64, error) {
	methods, total, err := s.methodRepo.List(ctx, salonID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch payment methods: %w", err)
	}
	result := make([]PaymentMethodResponse, 0, len(methods))
	for i := range methods {
		result = append(result, toPaymentMethodResponse(&methods[i]))
	}
	return result, total, nil
}

func (s *catalogService) CreatePaymentMethod(ctx context.Context, salonID uuid.UUID, req PaymentMethodRequest) (*PaymentMethodResponse, error) {
	if err := validateMethodReq(req); err != nil {
		return nil, err
	}
	method := &model.PaymentMethod{
		SalonID:        salonID,
		Name:           req.Name,
		Description:    req.Description,
		FeePercent:     req.FeePercent,
		SettlementDays: req.SettlementDays,
		IsActive:       true,
	}
	if req.IsActive != nil {
		method.IsActive = *req.IsActive
	}
	if err := s.methodRepo.Create(ctx, method); err != nil {
		return nil, fmt.Errorf("failed to create payment method: %w", err)
	}
	resp := toPaymentMethodResponse(method)
	return &resp, nil
}

func (s *catalogService) UpdatePaymentMethod(ctx context.Context, salonID, id uuid.UUID, req PaymentMethodRequest) (*PaymentMethodResponse, error) {
	if err := validateMethodReq(req); err != nil {
		return nil, err
	}
	method, err := s.findSalonMethod(ctx, salonID, id)
	if err != nil {
		return nil, err
	}
	method.Name = req.Name
	method.Description = req.Description
	method.FeePercent = req.FeePercent
	method.SettlementDays = req.SettlementDays
	if req.IsActive != nil {
		method.IsActive = *req.IsActive
	}
	if err := s.methodRepo.Update(ctx, method); err != nil {
		return nil, fmt.Errorf("failed to update payment method: %w", err)
	}
	resp := toPaymentMethodResponse(method)
	return &resp, nil
}

func (s *catalogService) DeletePaymentMethod(ctx context.Context, salonID, id uuid.UUID) error {
	if _, err := s.findSalonMethod(ctx, salonID, id); err != nil {
		return err
	}
	if err := s.methodRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete payment method: %w", err)
	}
	return nil
}

func (s *catalogService) findSalonMethod(ctx context.Context, salonID, id uuid.UUID) (*model.PaymentMethod, error) {
	method, err := s.methodRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCatalogNotFound
		}
		return nil, fmt.Errorf("failed to load payment method: %w", err)
	}
	if method.SalonID != salonID {
		return nil, ErrCatalogNotFound
	}
	return method, nil
}

func validateMethodReq(req PaymentMethodRequest) error {
	if req.FeePercent.IsNegative() || req.FeePercent.GreaterThan(decimal.NewFromInt(100)) {
		return validationErr("fee_percent must be between 0 and 100")
	}
	if req.SettlementDays < 0 {
		return validationErr("settlement_days must not be negative")
	}
	return nil
}

// --- Mapping ---

func toServiceResponse(svc *model.SalonService) SalonServiceResponse {
	return SalonServiceResponse{
		ID:                svc.ID.String(),
		Name:              svc.Name,
		Description:       svc.Description,
		Category:          svc.Category,
		Price:             svc.Price.StringFixed(2),
		DurationMinutes:   svc.DurationMinutes,
		CommissionPercent: svc.CommissionPercent.StringFixed(2),
		SortOrder:         svc.SortOrder,
		IsActive:          svc.IsActive,
		CreatedAt:         svc.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toProductResponse(product *model.Product) ProductResponse {
	return ProductResponse{
		ID:                product.ID.String(),
		Name:              product.Name,
		Description:       product.Description,
		Code:              product.Code,
		Category:          product.Category,
		Brand:             product.Brand,
		SalePrice:         product.SalePrice.StringFixed(2),
		CostPrice:         product.CostPrice.StringFixed(2),
		CommissionPercent: product.CommissionPercent.StringFixed(2),
		CurrentStock:      product.CurrentStock,
		MinimumStock:      product.MinimumStock,
		LowStock:          product.CurrentStock <= product.MinimumStock,
		IsActive:          product.IsActive,
		CreatedAt:         product.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toPaymentMethodResponse(method *model.PaymentMethod) PaymentMethodResponse {
	return PaymentMethodResponse{
		ID:             method.ID.String(),
		Name:           method.Name,
		Description:    method.Description,
		FeePercent:     method.FeePercent.StringFixed(2),
		SettlementDays: method.SettlementDays,
		IsActive:       method.IsActive,
		CreatedAt:      method.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toStockMovementResponse(m *model.StockMovement) StockMovementResponse {
	resp := StockMovementResponse{
		ID:              m.ID.String(),
		ProductID:       m.ProductID.String(),
		MovementType:    m.MovementType,
		QuantityChanged: m.QuantityChanged,
		StockAfter:      m.StockAfter,
		Notes:           m.Notes,
		CreatedAt:       m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if m.TicketID != nil {
		id := m.TicketID.String()
		resp.TicketID = &id
	}
	return resp
}
