package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"salon-backend/internal/model"
	"salon-backend/internal/repository"
	ws "salon-backend/internal/websocket"
	"salon-backend/pkg/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

// Actor identifies who is performing a ticket mutation. Staff actors get the
// self-service ownership rules applied.
type Actor struct {
	UserID  uuid.UUID
	StaffID *uuid.UUID
	Role    string
}

// SelfService reports whether the actor edits under the staff self-service
// rules (ownership checks on removal, staff ref required on service lines).
func (a Actor) SelfService() bool {
	return a.Role == model.RoleStaff
}

type TicketItemRequest struct {
	Kind              string           `json:"kind" binding:"required,oneof=service product"`
	ServiceID         string           `json:"service_id"`
	ProductID         string           `json:"product_id"`
	StaffID           string           `json:"staff_id"`
	Quantity          int              `json:"quantity" binding:"required,min=1"`
	UnitPrice         *decimal.Decimal `json:"unit_price"` // overrides the catalog price when set
	Discount          decimal.Decimal  `json:"discount"`
	CommissionPercent *decimal.Decimal `json:"commission_percent"` // overrides the catalog default when set
	Notes             string           `json:"notes"`
}

type TicketPaymentRequest struct {
	PaymentMethodID string          `json:"payment_method_id" binding:"required"`
	Amount          decimal.Decimal `json:"amount"`
	Notes           string          `json:"notes"`
}

type CreateTicketRequest struct {
	ClientID        string                 `json:"client_id"`
	ClientName      string                 `json:"client_name"`
	OpenedAt        string                 `json:"opened_at"` // RFC3339, defaults to now
	Status          string                 `json:"status"`    // defaults to open
	Notes           string                 `json:"notes"`
	Discount        decimal.Decimal        `json:"discount"`
	DiscountPercent decimal.Decimal        `json:"discount_percent"`
	Surcharge       decimal.Decimal        `json:"surcharge"`
	Items           []TicketItemRequest    `json:"items" binding:"omitempty,dive"`
	Payments        []TicketPaymentRequest `json:"payments" binding:"omitempty,dive"`
}

// UpdateTicketRequest carries mutable header fields only. Items and payments
// go through their own operations.
type UpdateTicketRequest struct {
	ClientID        *string          `json:"client_id"`
	ClientName      *string          `json:"client_name"`
	OpenedAt        *string          `json:"opened_at"`
	Status          *string          `json:"status"`
	Notes           *string          `json:"notes"`
	Discount        *decimal.Decimal `json:"discount"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
	Surcharge       *decimal.Decimal `json:"surcharge"`
}

type TicketListFilter struct {
	Status   string
	ClientID string
	StaffID  string
	DateFrom string
	DateTo   string
	Page     int
	Limit    int
}

type TicketItemResponse struct {
	ID                string  `json:"id"`
	Kind              string  `json:"kind"`
	ServiceID         *string `json:"service_id"`
	ProductID         *string `json:"product_id"`
	StaffID           *string `json:"staff_id"`
	StaffName         string  `json:"staff_name,omitempty"`
	Description       string  `json:"description"`
	Quantity          int     `json:"quantity"`
	UnitPrice         string  `json:"unit_price"`
	Discount          string  `json:"discount"`
	CommissionPercent string  `json:"commission_percent"`
	LineTotal         string  `json:"line_total"`
	CommissionValue   string  `json:"commission_value"`
	Notes             string  `json:"notes,omitempty"`
	CreatedAt         string  `json:"created_at"`
}

type TicketPaymentResponse struct {
	ID              string `json:"id"`
	PaymentMethodID string `json:"payment_method_id"`
	MethodName      string `json:"method_name"`
	Amount          string `json:"amount"`
	PaidAt          string `json:"paid_at"`
	Notes           string `json:"notes,omitempty"`
	CreatedAt       string `json:"created_at"`
}

type TicketResponse struct {
	ID              string                  `json:"id"`
	SalonID         string                  `json:"salon_id"`
	Number          string                  `json:"number"`
	ClientID        *string                 `json:"client_id"`
	ClientName      string                  `json:"client_name"`
	Status          string                  `json:"status"`
	OpenedAt        string                  `json:"opened_at"`
	ClosedAt        *string                 `json:"closed_at"`
	Notes           string                  `json:"notes"`
	Discount        string                  `json:"discount"`
	DiscountPercent string                  `json:"discount_percent"`
	Surcharge       string                  `json:"surcharge"`
	Subtotal        string                  `json:"subtotal"`
	Total           string                  `json:"total"`
	AmountPaid      string                  `json:"amount_paid"`
	Balance         string                  `json:"balance"`
	Items           []TicketItemResponse    `json:"items"`
	Payments        []TicketPaymentResponse `json:"payments"`
	CreatedAt       string                  `json:"created_at"`
}

// --- Interface ---

type TicketService interface {
	CreateTicket(ctx context.Context, salonID uuid.UUID, actor Actor, req CreateTicketRequest) (*TicketResponse, error)
	GetTicket(ctx context.Context, salonID, id uuid.UUID) (*TicketResponse, error)
	FindOpenTicketForClient(ctx context.Context, salonID, clientID uuid.UUID) (*TicketResponse, error)
	ListTickets(ctx context.Context, salonID uuid.UUID, filter TicketListFilter) ([]TicketResponse, int64, error)
	UpdateTicket(ctx context.Context, salonID uuid.UUID, actor Actor, id uuid.UUID, req UpdateTicketRequest) (*TicketResponse, error)
	AddItem(ctx context.Context, salonID uuid.UUID, actor Actor, ticketID uuid.UUID, req TicketItemRequest) (*TicketItemResponse, error)
	RemoveItem(ctx context.Context, salonID uuid.UUID, actor Actor, ticketID, itemID uuid.UUID) error
	UpdateItemQuantity(ctx context.Context, salonID uuid.UUID, actor Actor, ticketID, itemID uuid.UUID, delta int) (*TicketItemResponse, error)
	AddPayment(ctx context.Context, salonID uuid.UUID, actor Actor, ticketID uuid.UUID, req TicketPaymentRequest) (*TicketPaymentResponse, error)
	RemovePayment(ctx context.Context, salonID uuid.UUID, actor Actor, ticketID, paymentID uuid.UUID) error
	MarkPaid(ctx context.Context, salonID uuid.UUID, actor Actor, ticketID uuid.UUID) (*TicketResponse, error)
	CancelTicket(ctx context.Context, salonID uuid.UUID, actor Actor, ticketID uuid.UUID) (*TicketResponse, error)
}

type ticketService struct {
	ticketRepo  repository.TicketRepository
	serviceRepo repository.ServiceRepository
	productRepo repository.ProductRepository
	methodRepo  repository.PaymentMethodRepository
	clientRepo  repository.ClientRepository
	staffRepo   repository.StaffRepository
	stockRepo   repository.StockRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
}

func NewTicketService(
	ticketRepo repository.TicketRepository,
	serviceRepo repository.ServiceRepository,
	productRepo repository.ProductRepository,
	methodRepo repository.PaymentMethodRepository,
	clientRepo repository.ClientRepository,
	staffRepo repository.StaffRepository,
	stockRepo repository.StockRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) TicketService {
	return &ticketService{
		ticketRepo:  ticketRepo,
		serviceRepo: serviceRepo,
		productRepo: productRepo,
		methodRepo:  methodRepo,
		clientRepo:  clientRepo,
		staffRepo:   staffRepo,
		stockRepo:   stockRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

// --- Implementation ---

func (s *ticketService) CreateTicket(ctx context.Context, salonID uuid.UUID, actor Actor, req CreateTicketRequest) (*TicketResponse, error) {
	status := req.Status
	if status == "" {
		status = model.StatusOpen
	}
	if !model.ValidStatus(status) || status == model.StatusCancelled {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	var clientID *uuid.UUID
	if req.ClientID != "" {
		parsed, err := uuid.Parse(req.ClientID)
		if err != nil {
			return nil, validationErr("invalid client_id")
		}
		if _, err := s.clientRepo.FindByID(ctx, parsed); err != nil {
			return nil, fmt.Errorf("%w: client %s", ErrCatalogNotFound, req.ClientID)
		}
		clientID = &parsed
	}
	// A walk-in needs at least a free-text name unless a staff member is
	// recording their own services.
	if clientID == nil && req.ClientName == "" && !actor.SelfService() {
		return nil, validationErr("client_id or client_name is required")
	}

	openedAt := time.Now()
	if req.OpenedAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.OpenedAt)
		if err != nil {
			return nil, validationErr("invalid opened_at: expected RFC3339")
		}
		openedAt = parsed
	}

	if req.Discount.IsNegative() || req.Surcharge.IsNegative() {
		return nil, validationErr("discount and surcharge must not be negative")
	}
	if req.DiscountPercent.IsNegative() || req.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, validationErr("discount_percent must be between 0 and 100")
	}

	var created *model.Ticket
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		number, err := s.nextTicketNumber(txCtx, salonID)
		if err != nil {
			return fmt.Errorf("failed to generate ticket number: %w", err)
		}

		ticket := &model.Ticket{
			SalonID:         salonID,
			Number:          number,
			ClientID:        clientID,
			ClientName:      req.ClientName,
			Status:          model.StatusOpen,
			OpenedAt:        openedAt,
			Notes:           req.Notes,
			Discount:        req.Discount,
			DiscountPercent: req.DiscountPercent,
			Surcharge:       req.Surcharge,
			CreatedByID:     &actor.UserID,
		}

		for _, itemReq := range req.Items {
			item, err := s.resolveItem(txCtx, salonID, actor, itemReq)
			if err != nil {
				return err
			}
			ticket.Items = append(ticket.Items, *item)
		}
		for _, payReq := range req.Payments {
			payment, err := s.resolvePayment(txCtx, payReq)
			if err != nil {
				return err
			}
			ticket.Payments = append(ticket.Payments, *payment)
		}

		recomputeTotals(ticket)

		if err := s.ticketRepo.Create(txCtx, ticket); err != nil {
			return fmt.Errorf("failed to create ticket: %w", err)
		}

		// Creating directly in paid carries the same balance guard as the
		// explicit close action.
		if status == model.StatusPaid {
			if err := s.settle(txCtx, ticket, actor); err != nil {
				return err
			}
		} else {
			ticket.Status = status
		}
		if err := s.ticketRepo.Update(txCtx, ticket); err != nil {
			return fmt.Errorf("failed to save ticket: %w", err)
		}

		s.audit(txCtx, actor, model.ActionCreateTicket, ticket, "")
		created = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("ticket.created", created.ID)
	return s.GetTicket(ctx, salonID, created.ID)
}

func (s *ticketService) GetTicket(ctx context.Context, salonID, id uuid.UUID) (*TicketResponse, error) {
	ticket, err := s.findSalonTicket(ctx, salonID, id)
	if err != nil {
		return nil, err
	}
	resp := toTicketResponse(ticket)
	return &resp, nil
}

func (s *ticketService) FindOpenTicketForClient(ctx context.Context, salonID, clientID uuid.UUID) (*TicketResponse, error) {
	ticket, err := s.ticketRepo.FindOpenByClient(ctx, salonID, clientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to look up open ticket: %w", err)
	}
	resp := toTicketResponse(ticket)
	return &resp, nil
}

func (s *ticketService) ListTickets(ctx context.Context, salonID uuid.UUID, filter TicketListFilter) ([]TicketResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Status != "" && !model.ValidStatus(filter.Status) {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidStatus, filter.Status)
	}

	repoFilter := repository.TicketListFilter{
		SalonID: salonID,
		Status:  filter.Status,
		Page:    filter.Page,
		Limit:   filter.Limit,
	}
	if filter.ClientID != "" {
		parsed, err := uuid.Parse(filter.ClientID)
		if err != nil {
			return nil, 0, validationErr("invalid client_id")
		}
		repoFilter.ClientID = &parsed
	}
	if filter.StaffID != "" {
		parsed, err := uuid.Parse(filter.StaffID)
		if err != nil {
			return nil, 0, validationErr("invalid staff_id")
		}
		repoFilter.StaffID = &parsed
	}
	if filter.DateFrom != "" {
		parsed, err := time.Parse(time.RFC3339, filter.DateFrom)
		if err != nil {
			return nil, 0, validationErr("invalid date_from: expected RFC3339")
		}
		repoFilter.DateFrom = &parsed
	}
	if filter.DateTo != "" {
		parsed, err := time.Parse(time.RFC3339, filter.DateTo)
		if err != nil {
			return nil, 0, validationErr("invalid date_to: expected RFC3339")
		}
		repoFilter.DateTo = &parsed
	}

	tickets, total, err := s.ticketRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch tickets: %w", err)
	}

	result := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		result = append(result, toTicketResponse(&tickets[i]))
	}
	return result, total, nil
}

func (s *ticketService) UpdateTicket(ctx context.Context, salonID uuid.UUID, actor Actor, id uuid.UUID, req UpdateTicketRequest) (*TicketResponse, error) {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ticket, err := s.lockMutable(txCtx, salonID, id)
		if err != nil {
			return err
		}

		if req.ClientID != nil {
			if *req.ClientID == "" {
				ticket.ClientID = nil
			} else {
				parsed, err := uuid.Parse(*req.ClientID)
				if err != nil {
					return validationErr("invalid client_id")
				}
				if _, err := s.clientRepo.FindByID(txCtx, parsed); err != nil {
					return fmt.Errorf("%w: client %s", ErrCatalogNotFound, *req.ClientID)
				}
				ticket.ClientID = &parsed
			}
		}
		if req.ClientName != nil {
			ticket.ClientName = *req.ClientName
		}
		if req.OpenedAt != nil {
			parsed, err := time.Parse(time.RFC3339, *req.OpenedAt)
			if err != nil {
				return validationErr("invalid opened_at: expected RFC3339")
			}
			ticket.OpenedAt = parsed
		}
		if req.Notes != nil {
			ticket.Notes = *req.Notes
		}
		if req.Discount != nil {
			if req.Discount.IsNegative() {
				return validationErr("discount must not be negative")
			}
			ticket.Discount = *req.Discount
		}
		if req.DiscountPercent != nil {
			if req.DiscountPercent.IsNegative() || req.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
				return validationErr("discount_percent must be between 0 and 100")
			}
			ticket.DiscountPercent = *req.DiscountPercent
		}
		if req.Surcharge != nil {
			if req.Surcharge.IsNegative() {
				return validationErr("surcharge must not be negative")
			}
			ticket.Surcharge = *req.Surcharge
		}

		recomputeTotals(ticket)

		if req.Status != nil && *req.Status != ticket.Status {
			switch {
			case *req.Status == model.StatusPaid:
				if err := s.settle(txCtx, ticket, actor); err != nil {
					return err
				}
			case model.ValidManualStatus(*req.Status):
				ticket.Status = *req.Status
			default:
				return fmt.Errorf("%w: %s", ErrInvalidStatus, *req.Status)
			}
		}

		if err := s.ticketRepo.Update(txCtx, ticket); err != nil {
			return fmt.Errorf("failed to update ticket: %w", err)
		}
		s.audit(txCtx, actor, model.ActionUpdateTicket, ticket, "")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("ticket.updated", id)
	return s.GetTicket(ctx, salonID, id)
}

func (s *ticketService) AddItem(ctx context.Context, salonID uuid.UUID, actor Actor, ticketID uuid.UUID, req TicketItemRequest) (*TicketItemResponse, error) {
	var created *model.TicketItem
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ticket, err := s.lockMutable(txCtx, salonID, ticketID)
		if err != nil {
			return err
		}

		item, err := s.resolveItem(txCtx, salonID, actor, req)
		if err != nil {
			return err
		}
		item.TicketID = ticket.ID

		if err := s.ticketRepo.AddItem(txCtx, item); err != nil {
			return fmt.Errorf("failed to add item: %w", err)
		}

		ticket.Items = append(ticket.Items, *item)
		recomputeTotals(ticket)
		if err := s.ticketRepo.Update(txCtx, ticket); err != nil {
			return fmt.Errorf("failed to update ticket totals: %w", err)
		}

		s.audit(txCtx, actor, model.ActionAddItem, ticket, item.Description)
		created = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("ticket.updated", ticketID)
	resp := toItemResponse(created)
	return &resp, nil
}

func (s *ticketService) RemoveItem(ctx context.Context, salonID uuid.UUID, actor Actor, ticketID, itemID uuid.UUID) error {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ticket, err := s.lockMutable(txCtx, salonID, ticketID)
		if err != nil {
			return err
		}

		item, err := s.ticketRepo.FindItem(txCtx, ticketID, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return fmt.Errorf("failed to load item: %w", err)
		}

		// Staff may only remove their own lines in the self-service flow.
		if actor.SelfService() {
			if item.StaffID == nil || actor.StaffID == nil || *item.StaffID != *actor.StaffID {
				return ErrNotOwner
			}
		}

		if err := s.ticketRepo.RemoveItem(txCtx, ticketID, itemID); err != nil {
			return fmt.Errorf("failed to remove item: %w", err)
		}

		remaining := ticket.Items[:0]
		for _, it := range ticket.Items {
			if it.ID != itemID {
				remaining = append(remaining, it)
			}
		}
		ticket.Items = remaining
		recomputeTotals(ticket)
		if err := s.ticketRepo.Update(txCtx, ticket); err != nil {
			return fmt.Errorf("failed to update ticket totals: %w", err)
		}

		s.audit(txCtx, actor, model.ActionRemoveItem, ticket, item.Description)
		return nil
	})
	if err != nil {
		return err
	}

	s.broadcast("ticket.updated", ticketID)
	return nil
}

func (s *ticketService) UpdateItemQuantity(ctx context.Context, salonID uuid.UUID, actor Actor, ticketID, itemID uuid.UUID, delta int) (*TicketItemResponse, error) {
	var updated *model.TicketItem
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ticket, err := s.lockMutable(txCtx, salonID, ticketID)
		if err != nil {
			return err
		}

		item, err := s.ticketRepo.FindItem(txCtx, ticketID, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return fmt.Errorf("failed to load item: %w", err)
		}

		// Quantity never drops below 1; removal is an explicit operation.
		quantity := item.Quantity + delta
		if quantity < 1 {
			quantity = 1
		}
		item.Quantity = quantity
		item.LineTotal = money.LineTotal(item.UnitPrice, item.Quantity, item.Discount)
		item.CommissionValue = money.Commission(item.UnitPrice, item.Quantity, item.Discount, item.CommissionPercent)

		if err := s.ticketRepo.UpdateItem(txCtx, item); err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}

		for i := range ticket.Items {
			if ticket.Items[i].ID == item.ID {
				ticket.Items[i] = *item
			}
		}
		recomputeTotals(ticket)
		if err := s.ticketRepo.Update(txCtx, ticket); err != nil {
			return fmt.Errorf("failed to update ticket totals: %w", err)
		}

		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("ticket.updated", ticketID)
	resp := toItemResponse(updated)
	return &resp, nil
}

func (s *ticketService) AddPayment(ctx context.Context, salonID uuid.UUID, actor Actor, ticketID uuid.UUID, req TicketPaymentRequest) (*TicketPaymentResponse, error) {
	var created *model.TicketPayment
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ticket, err := s.lockMutable(txCtx, salonID, ticketID)
		if err != nil {
			return err
		}

		payment, err := s.resolvePayment(txCtx, req)
		if err != nil {
			return err
		}
		payment.TicketID = ticket.ID

		if err := s.ticketRepo.AddPayment(txCtx, payment); err != nil {
			return fmt.Errorf("failed to add payment: %w", err)
		}

		ticket.Payments = append(ticket.Payments, *payment)
		recomputeTotals(ticket)
		if err := s.ticketRepo.Update(txCtx, ticket); err != nil {
			return fmt.Errorf("failed to update ticket totals: %w", err)
		}

		s.audit(txCtx, actor, model.ActionAddPayment, ticket, payment.MethodName)
		created = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("ticket.updated", ticketID)
	resp := toPaymentResponse(created)
	return &resp, nil
}

func (s *ticketService) RemovePayment(ctx context.Context, salonID uuid.UUID, actor Actor, ticketID, paymentID uuid.UUID) error {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ticket, err := s.lockMutable(txCtx, salonID, ticketID)
		if err != nil {
			return err
		}

		payment, err := s.ticketRepo.FindPayment(txCtx, ticketID, paymentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return fmt.Errorf("failed to load payment: %w", err)
		}

		if err := s.ticketRepo.RemovePayment(txCtx, ticketID, paymentID); err != nil {
			return fmt.Errorf("failed to remove payment: %w", err)
		}

		remaining := ticket.Payments[:0]
		for _, p := range ticket.Payments {
			if p.ID != paymentID {
				remaining = append(remaining, p)
			}
		}
		ticket.Payments = remaining
		recomputeTotals(ticket)
		if err := s.ticketRepo.Update(txCtx, ticket); err != nil {
			return fmt.Errorf("failed to update ticket totals: %w", err)
		}

		s.audit(txCtx, actor, model.ActionRemovePayment, ticket, payment.MethodName)
		return nil
	})
	if err != nil {
		return err
	}

	s.broadcast("ticket.updated", ticketID)
	return nil
}

func (s *ticketService) MarkPaid(ctx context.Context, salonID uuid.UUID, actor Actor, ticketID uuid.UUID) (*TicketResponse, error) {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ticket, err := s.lockMutable(txCtx, salonID, ticketID)
		if err != nil {
			return err
		}
		recomputeTotals(ticket)
		if err := s.settle(txCtx, ticket, actor); err != nil {
			return err
		}
		if err := s.ticketRepo.Update(txCtx, ticket); err != nil {
			return fmt.Errorf("failed to save ticket: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("ticket.updated", ticketID)
	return s.GetTicket(ctx, salonID, ticketID)
}

func (s *ticketService) CancelTicket(ctx context.Context, salonID uuid.UUID, actor Actor, ticketID uuid.UUID) (*TicketResponse, error) {
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ticket, err := s.lockMutable(txCtx, salonID, ticketID)
		if err != nil {
			return err
		}
		if !model.ValidTransition(model.ActionCancel, ticket.Status) {
			return ErrTicketTerminal
		}

		// Items and payments stay untouched as historical record.
		now := time.Now()
		ticket.Status = model.StatusCancelled
		ticket.ClosedAt = &now
		if err := s.ticketRepo.Update(txCtx, ticket); err != nil {
			return fmt.Errorf("failed to cancel ticket: %w", err)
		}

		s.audit(txCtx, actor, model.ActionCancelTicket, ticket, "")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("ticket.updated", ticketID)
	return s.GetTicket(ctx, salonID, ticketID)
}

// --- Internals ---

// lockMutable loads the ticket with a row lock and rejects terminal tickets.
func (s *ticketService) lockMutable(ctx context.Context, salonID, ticketID uuid.UUID) (*model.Ticket, error) {
	ticket, err := s.ticketRepo.FindByIDForUpdate(ctx, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to load ticket: %w", err)
	}
	if ticket.SalonID != salonID {
		return nil, ErrTicketNotFound
	}
	if ticket.IsTerminal() {
		return nil, ErrTicketTerminal
	}
	return ticket, nil
}

func (s *ticketService) findSalonTicket(ctx context.Context, salonID, id uuid.UUID) (*model.Ticket, error) {
	ticket, err := s.ticketRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to load ticket: %w", err)
	}
	if ticket.SalonID != salonID {
		return nil, ErrTicketNotFound
	}
	return ticket, nil
}

// resolveItem validates the catalog and staff references and snapshots
// description, price and commission at add time. Later catalog edits must not
// change lines already on a ticket.
func (s *ticketService) resolveItem(ctx context.Context, salonID uuid.UUID, actor Actor, req TicketItemRequest) (*model.TicketItem, error) {
	if req.Quantity < 1 {
		return nil, validationErr("quantity must be at least 1")
	}
	if req.Discount.IsNegative() {
		return nil, validationErr("item discount must not be negative")
	}

	item := &model.TicketItem{
		Kind:     req.Kind,
		Quantity: req.Quantity,
		Discount: req.Discount,
		Notes:    req.Notes,
	}

	var staffID *uuid.UUID
	if req.StaffID != "" {
		parsed, err := uuid.Parse(req.StaffID)
		if err != nil {
			return nil, validationErr("invalid staff_id")
		}
		staff, err := s.staffRepo.FindByID(ctx, parsed)
		if err != nil {
			return nil, fmt.Errorf("%w: staff %s", ErrCatalogNotFound, req.StaffID)
		}
		if staff.SalonID != salonID {
			return nil, fmt.Errorf("%w: staff %s", ErrCatalogNotFound, req.StaffID)
		}
		staffID = &parsed
	}

	switch req.Kind {
	case model.ItemKindService:
		if req.ServiceID == "" {
			return nil, validationErr("service_id is required for service items")
		}
		if actor.SelfService() && staffID == nil {
			staffID = actor.StaffID
		}
		if actor.SelfService() && staffID == nil {
			return nil, validationErr("staff_id is required for service items")
		}
		parsed, err := uuid.Parse(req.ServiceID)
		if err != nil {
			return nil, validationErr("invalid service_id")
		}
		svc, err := s.serviceRepo.FindByID(ctx, parsed)
		if err != nil {
			return nil, fmt.Errorf("%w: service %s", ErrCatalogNotFound, req.ServiceID)
		}
		if svc.SalonID != salonID {
			return nil, fmt.Errorf("%w: service %s", ErrCatalogNotFound, req.ServiceID)
		}
		item.ServiceID = &parsed
		item.Description = svc.Name
		item.UnitPrice = svc.Price
		item.CommissionPercent = svc.CommissionPercent
	case model.ItemKindProduct:
		if req.ProductID == "" {
			return nil, validationErr("product_id is required for product items")
		}
		parsed, err := uuid.Parse(req.ProductID)
		if err != nil {
			return nil, validationErr("invalid product_id")
		}
		product, err := s.productRepo.FindByID(ctx, parsed)
		if err != nil {
			return nil, fmt.Errorf("%w: product %s", ErrCatalogNotFound, req.ProductID)
		}
		if product.SalonID != salonID {
			return nil, fmt.Errorf("%w: product %s", ErrCatalogNotFound, req.ProductID)
		}
		item.ProductID = &parsed
		item.Description = product.Name
		item.UnitPrice = product.SalePrice
		item.CommissionPercent = product.CommissionPercent
	default:
		return nil, validationErr("item kind must be service or product")
	}

	item.StaffID = staffID

	if req.UnitPrice != nil {
		if req.UnitPrice.IsNegative() {
			return nil, validationErr("unit_price must not be negative")
		}
		item.UnitPrice = *req.UnitPrice
	}
	if req.CommissionPercent != nil {
		if req.CommissionPercent.IsNegative() || req.CommissionPercent.GreaterThan(decimal.NewFromInt(100)) {
			return nil, validationErr("commission_percent must be between 0 and 100")
		}
		item.CommissionPercent = *req.CommissionPercent
	}

	item.LineTotal = money.LineTotal(item.UnitPrice, item.Quantity, item.Discount)
	item.CommissionValue = money.Commission(item.UnitPrice, item.Quantity, item.Discount, item.CommissionPercent)
	return item, nil
}

func (s *ticketService) resolvePayment(ctx context.Context, req TicketPaymentRequest) (*model.TicketPayment, error) {
	if !req.Amount.IsPositive() {
		return nil, validationErr("payment amount must be positive")
	}
	methodID, err := uuid.Parse(req.PaymentMethodID)
	if err != nil {
		return nil, validationErr("invalid payment_method_id")
	}
	method, err := s.methodRepo.FindByID(ctx, methodID)
	if err != nil {
		return nil, fmt.Errorf("%w: payment method %s", ErrCatalogNotFound, req.PaymentMethodID)
	}

	return &model.TicketPayment{
		PaymentMethodID: method.ID,
		MethodName:      method.Name,
		Amount:          req.Amount,
		PaidAt:          time.Now(),
		Notes:           req.Notes,
	}, nil
}

// settle transitions the ticket to paid. The balance must be settled within
// the rounding epsilon; an overpayment has to be corrected first, this engine
// does not track change or refunds.
func (s *ticketService) settle(ctx context.Context, ticket *model.Ticket, actor Actor) error {
	if !model.ValidTransition(model.ActionMarkPaid, ticket.Status) {
		return ErrTicketTerminal
	}
	balance := ticket.Balance()
	if balance.Abs().GreaterThan(model.BalanceEpsilon) {
		return &IncompleteBalanceError{Remaining: balance}
	}

	now := time.Now()
	ticket.Status = model.StatusPaid
	ticket.ClosedAt = &now

	if err := s.consumeStock(ctx, ticket); err != nil {
		return err
	}
	s.recordVisit(ctx, ticket, now)
	s.audit(ctx, actor, model.ActionTicketPaid, ticket, "")
	return nil
}

// consumeStock decrements product stock for product lines and records the
// movements. Runs once, at the paid transition.
func (s *ticketService) consumeStock(ctx context.Context, ticket *model.Ticket) error {
	for _, item := range ticket.Items {
		if item.Kind != model.ItemKindProduct || item.ProductID == nil {
			continue
		}
		product, err := s.productRepo.FindByIDForUpdate(ctx, *item.ProductID)
		if err != nil {
			return fmt.Errorf("failed to load product for stock update: %w", err)
		}
		stockAfter := product.CurrentStock - item.Quantity
		if err := s.productRepo.UpdateStock(ctx, product.ID, stockAfter); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}
		movement := &model.StockMovement{
			ProductID:       product.ID,
			TicketID:        &ticket.ID,
			MovementType:    model.MovementOut,
			QuantityChanged: -item.Quantity,
			StockAfter:      stockAfter,
		}
		if err := s.stockRepo.Record(ctx, movement); err != nil {
			return fmt.Errorf("failed to record stock movement: %w", err)
		}
	}
	return nil
}

func (s *ticketService) recordVisit(ctx context.Context, ticket *model.Ticket, at time.Time) {
	if ticket.ClientID == nil {
		return
	}
	client, err := s.clientRepo.FindByID(ctx, *ticket.ClientID)
	if err != nil {
		return
	}
	client.VisitCount++
	client.LastVisitAt = &at
	// Visit bookkeeping is best effort; a failure here must not void the sale.
	_ = s.clientRepo.Update(ctx, client)
}

func (s *ticketService) nextTicketNumber(ctx context.Context, salonID uuid.UUID) (string, error) {
	count, err := s.ticketRepo.CountBySalon(ctx, salonID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", count+1), nil
}

func (s *ticketService) audit(ctx context.Context, actor Actor, action string, ticket *model.Ticket, detail string) {
	payload, _ := json.Marshal(map[string]interface{}{
		"ticket_id": ticket.ID.String(),
		"number":    ticket.Number,
		"status":    ticket.Status,
		"total":     ticket.Total.StringFixed(2),
		"detail":    detail,
	})
	entry := &model.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		EntityID:   ticket.ID.String(),
		EntityName: "ticket #" + ticket.Number,
		Details:    string(payload),
	}
	// Audit is best effort inside the mutation transaction.
	_ = s.auditRepo.Log(ctx, entry)
}

func (s *ticketService) broadcast(event string, ticketID uuid.UUID) {
	if s.hub == nil {
		return
	}
	payload, _ := json.Marshal(ws.TicketEvent{Event: event, TicketID: ticketID.String()})
	s.hub.Broadcast <- payload
}

// recomputeTotals derives subtotal, total and amount paid from the loaded
// item/payment sets. The stored values exist for listing and reporting only;
// this is the single source of truth.
func recomputeTotals(ticket *model.Ticket) {
	subtotal := decimal.Zero
	for _, item := range ticket.Items {
		subtotal = subtotal.Add(item.LineTotal)
	}
	paid := decimal.Zero
	for _, payment := range ticket.Payments {
		paid = paid.Add(payment.Amount)
	}
	ticket.Subtotal = subtotal
	ticket.Total = money.TicketTotal(subtotal, ticket.Discount, ticket.DiscountPercent, ticket.Surcharge)
	ticket.AmountPaid = paid
}

// --- Mapping ---

func toTicketResponse(t *model.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:              t.ID.String(),
		SalonID:         t.SalonID.String(),
		Number:          t.Number,
		ClientName:      t.ClientName,
		Status:          t.Status,
		OpenedAt:        t.OpenedAt.Format(time.RFC3339),
		Notes:           t.Notes,
		Discount:        money.Round2(t.Discount).StringFixed(2),
		DiscountPercent: t.DiscountPercent.StringFixed(2),
		Surcharge:       money.Round2(t.Surcharge).StringFixed(2),
		Subtotal:        money.Round2(t.Subtotal).StringFixed(2),
		Total:           money.Round2(t.Total).StringFixed(2),
		AmountPaid:      money.Round2(t.AmountPaid).StringFixed(2),
		Balance:         money.Round2(t.Balance()).StringFixed(2),
		Items:           make([]TicketItemResponse, 0, len(t.Items)),
		Payments:        make([]TicketPaymentResponse, 0, len(t.Payments)),
		CreatedAt:       t.CreatedAt.Format(time.RFC3339),
	}
	if t.ClientID != nil {
		id := t.ClientID.String()
		resp.ClientID = &id
	}
	if t.ClientName == "" && t.Client != nil {
		resp.ClientName = t.Client.Name
	}
	if t.ClosedAt != nil {
		closed := t.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &closed
	}
	for i := range t.Items {
		resp.Items = append(resp.Items, toItemResponse(&t.Items[i]))
	}
	for i := range t.Payments {
		resp.Payments = append(resp.Payments, toPaymentResponse(&t.Payments[i]))
	}
	return resp
}

func toItemResponse(item *model.TicketItem) TicketItemResponse {
	resp := TicketItemResponse{
		ID:                item.ID.String(),
		Kind:              item.Kind,
		Description:       item.Description,
		Quantity:          item.Quantity,
		UnitPrice:         money.Round2(item.UnitPrice).StringFixed(2),
		Discount:          money.Round2(item.Discount).StringFixed(2),
		CommissionPercent: item.CommissionPercent.StringFixed(2),
		LineTotal:         money.Round2(item.LineTotal).StringFixed(2),
		CommissionValue:   money.Round2(item.CommissionValue).StringFixed(2),
		Notes:             item.Notes,
		CreatedAt:         item.CreatedAt.Format(time.RFC3339),
	}
	if item.ServiceID != nil {
		id := item.ServiceID.String()
		resp.ServiceID = &id
	}
	if item.ProductID != nil {
		id := item.ProductID.String()
		resp.ProductID = &id
	}
	if item.StaffID != nil {
		id := item.StaffID.String()
		resp.StaffID = &id
	}
	if item.Staff != nil {
		resp.StaffName = item.Staff.Name
	}
	return resp
}

func toPaymentResponse(payment *model.TicketPayment) TicketPaymentResponse {
	return TicketPaymentResponse{
		ID:              payment.ID.String(),
		PaymentMethodID: payment.PaymentMethodID.String(),
		MethodName:      payment.MethodName,
		Amount:          money.Round2(payment.Amount).StringFixed(2),
		PaidAt:          payment.PaidAt.Format(time.RFC3339),
		Notes:           payment.Notes,
		CreatedAt:       payment.CreatedAt.Format(time.RFC3339),
	}
}
