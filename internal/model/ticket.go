package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TicketStatus constants
const (
	StatusOpen            = "open"
	StatusInService       = "in_service"
	StatusAwaitingPayment = "awaiting_payment"
	StatusPaid            = "paid"
	StatusCancelled       = "cancelled"
)

// ItemKind constants
const (
	ItemKindService = "service"
	ItemKindProduct = "product"
)

// BalanceEpsilon is the rounding tolerance under which a ticket counts as
// fully paid.
var BalanceEpsilon = decimal.NewFromFloat(0.01)

// Ticket represents one customer visit's running bill (comanda). Totals are
// recomputed server-side on every mutation, never trusted from the client.
type Ticket struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SalonID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_tickets_salon_number" json:"salon_id"`
	BranchID        *uuid.UUID      `gorm:"type:uuid;index" json:"branch_id"`
	Number          string          `gorm:"type:varchar(30);not null;uniqueIndex:idx_tickets_salon_number" json:"number"`
	ClientID        *uuid.UUID      `gorm:"type:uuid;index" json:"client_id"`
	Client          *Client         `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	ClientName      string          `gorm:"type:varchar(255)" json:"client_name"`
	Status          string          `gorm:"type:varchar(30);not null;default:'open';index" json:"status"`
	OpenedAt        time.Time       `gorm:"not null" json:"opened_at"`
	ClosedAt        *time.Time      `json:"closed_at"`
	Notes           string          `gorm:"type:text" json:"notes"`
	Discount        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"discount_percent"`
	Surcharge       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"surcharge"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"subtotal"`
	Total           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total"`
	AmountPaid      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"amount_paid"`
	CreatedByID     *uuid.UUID      `gorm:"type:uuid" json:"created_by_id"`
	Items           []TicketItem    `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE" json:"items"`
	Payments        []TicketPayment `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE" json:"payments"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// BeforeCreate populates the primary key.
func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Balance is the amount still owed. Negative means transient overpayment.
func (t *Ticket) Balance() decimal.Decimal {
	return t.Total.Sub(t.AmountPaid)
}

// IsTerminal reports whether the ticket no longer accepts mutations.
func (t *Ticket) IsTerminal() bool {
	return t.Status == StatusPaid || t.Status == StatusCancelled
}

// TicketItem is one rendered service or sold product on a ticket. Description,
// unit price and commission are snapshots taken from the catalog at add time;
// later catalog edits must not rewrite history.
type TicketItem struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TicketID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"ticket_id"`
	Kind              string          `gorm:"type:varchar(20);not null" json:"kind"` // service, product
	ServiceID         *uuid.UUID      `gorm:"type:uuid;index" json:"service_id"`
	ProductID         *uuid.UUID      `gorm:"type:uuid;index" json:"product_id"`
	StaffID           *uuid.UUID      `gorm:"type:uuid;index" json:"staff_id"`
	Staff             *Staff          `gorm:"foreignKey:StaffID" json:"staff,omitempty"`
	Description       string          `gorm:"type:varchar(255);not null" json:"description"`
	Quantity          int             `gorm:"type:int;not null;default:1" json:"quantity"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	Discount          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount"`
	CommissionPercent decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"commission_percent"`
	LineTotal         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"line_total"`
	CommissionValue   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"commission_value"`
	Notes             string          `gorm:"type:text" json:"notes"`
	CreatedAt         time.Time       `json:"created_at"`
}

func (i *TicketItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TicketPayment is one settlement applied to a ticket. Amounts are never
// edited in place; corrections remove and re-add.
type TicketPayment struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TicketID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"ticket_id"`
	PaymentMethodID uuid.UUID       `gorm:"type:uuid;not null;index" json:"payment_method_id"`
	MethodName      string          `gorm:"type:varchar(255);not null" json:"method_name"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	PaidAt          time.Time       `gorm:"not null" json:"paid_at"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (p *TicketPayment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
