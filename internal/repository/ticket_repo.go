package repository

import (
	"context"
	"time"

	"salon-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TicketListFilter narrows the ticket listing.
type TicketListFilter struct {
	SalonID  uuid.UUID
	Status   string
	ClientID *uuid.UUID
	StaffID  *uuid.UUID
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	Limit    int
}

type TicketRepository interface {
	Create(ctx context.Context, ticket *model.Ticket) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Ticket, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Ticket, error)
	FindOpenByClient(ctx context.Context, salonID, clientID uuid.UUID) (*model.Ticket, error)
	List(ctx context.Context, filter TicketListFilter) ([]model.Ticket, int64, error)
	Update(ctx context.Context, ticket *model.Ticket) error
	CountBySalon(ctx context.Context, salonID uuid.UUID) (int64, error)
	AddItem(ctx context.Context, item *model.TicketItem) error
	FindItem(ctx context.Context, ticketID, itemID uuid.UUID) (*model.TicketItem, error)
	UpdateItem(ctx context.Context, item *model.TicketItem) error
	RemoveItem(ctx context.Context, ticketID, itemID uuid.UUID) error
	AddPayment(ctx context.Context, payment *model.TicketPayment) error
	FindPayment(ctx context.Context, ticketID, paymentID uuid.UUID) (*model.TicketPayment, error)
	RemovePayment(ctx context.Context, ticketID, paymentID uuid.UUID) error
}

type ticketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *model.Ticket) error {
	return GetDB(ctx, r.db).Create(ticket).Error
}

func (r *ticketRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Ticket, error) {
	var ticket model.Ticket
	if err := GetDB(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("ticket_items.created_at asc") }).
		Preload("Items.Staff").
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("ticket_payments.created_at asc") }).
		Preload("Client").
		First(&ticket, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

// FindByIDForUpdate locks the ticket row so concurrent mutations against the
// same ticket serialize; items and payments are loaded after the lock is held.
func (r *ticketRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Ticket, error) {
	var ticket model.Ticket
	db := GetDB(ctx, r.db)
	locked := db
	if db.Dialector.Name() == "postgres" {
		// SQLite has no row locks; its writes serialize on the file anyway.
		locked = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := locked.First(&ticket, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := db.Order("created_at asc").Find(&ticket.Items, "ticket_id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := db.Order("created_at asc").Find(&ticket.Payments, "ticket_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) FindOpenByClient(ctx context.Context, salonID, clientID uuid.UUID) (*model.Ticket, error) {
	var ticket model.Ticket
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Items.Staff").
		Preload("Payments").
		Where("salon_id = ? AND client_id = ? AND status NOT IN ?", salonID, clientID,
			[]string{model.StatusPaid, model.StatusCancelled}).
		Order("opened_at desc").
		First(&ticket).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketListFilter) ([]model.Ticket, int64, error) {
	var tickets []model.Ticket
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Ticket{}).Where("salon_id = ?", filter.SalonID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.StaffID != nil {
		query = query.Where("EXISTS (SELECT 1 FROM ticket_items ti WHERE ti.ticket_id = tickets.id AND ti.staff_id = ?)", *filter.StaffID)
	}
	if filter.DateFrom != nil {
		query = query.Where("opened_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("opened_at <= ?", *filter.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.
		Preload("Items").
		Preload("Payments").
		Preload("Client").
		Order("opened_at desc").Offset(offset).Limit(filter.Limit).
		Find(&tickets).Error; err != nil {
		return nil, 0, err
	}

	return tickets, total, nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *model.Ticket) error {
	// Omit associations: items and payments are mutated through their own
	// operations, never via a header save.
	return GetDB(ctx, r.db).Omit("Items", "Payments", "Client").Save(ticket).Error
}

func (r *ticketRepository) CountBySalon(ctx context.Context, salonID uuid.UUID) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Ticket{}).Where("salon_id = ?", salonID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) AddItem(ctx context.Context, item *model.TicketItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *ticketRepository) FindItem(ctx context.Context, ticketID, itemID uuid.UUID) (*model.TicketItem, error) {
	var item model.TicketItem
	if err := GetDB(ctx, r.db).
		Where("id = ? AND ticket_id = ?", itemID, ticketID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *ticketRepository) UpdateItem(ctx context.Context, item *model.TicketItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *ticketRepository) RemoveItem(ctx context.Context, ticketID, itemID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("id = ? AND ticket_id = ?", itemID, ticketID).
		Delete(&model.TicketItem{}).Error
}

func (r *ticketRepository) AddPayment(ctx context.Context, payment *model.TicketPayment) error {
	return GetDB(ctx, r.db).Create(payment).Error
}

func (r *ticketRepository) FindPayment(ctx context.Context, ticketID, paymentID uuid.UUID) (*model.TicketPayment, error) {
	var payment model.TicketPayment
	if err := GetDB(ctx, r.db).
		Where("id = ? AND ticket_id = ?", paymentID, ticketID).
		First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *ticketRepository) RemovePayment(ctx context.Context, ticketID, paymentID uuid.UUID) error {
	return GetDB(ctx, r.db).
		Where("id = ? AND ticket_id = ?", paymentID, ticketID).
		Delete(&model.TicketPayment{}).Error
}
