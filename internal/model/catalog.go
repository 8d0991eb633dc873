package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SalonService is a service offered by the salon (haircut, coloring...).
// Price and commission are defaults copied onto ticket items at add time.
type SalonService struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SalonID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"salon_id"`
	Name              string          `gorm:"type:varchar(255);not null" json:"name"`
	Description       string          `gorm:"type:text" json:"description"`
	Category          string          `gorm:"type:varchar(100)" json:"category"`
	Price             decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
	DurationMinutes   int             `gorm:"type:int;default:30" json:"duration_minutes"`
	CommissionPercent decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"commission_percent"`
	SortOrder         int             `gorm:"type:int;default:0" json:"sort_order"`
	IsActive          bool            `gorm:"default:true" json:"is_active"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`
}

// Product is a retail item sold over the counter or alongside a service.
type Product struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SalonID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"salon_id"`
	Code              string          `gorm:"type:varchar(100)" json:"code"`
	Name              string          `gorm:"type:varchar(255);not null" json:"name"`
	Description       string          `gorm:"type:text" json:"description"`
	Category          string          `gorm:"type:varchar(100)" json:"category"`
	Brand             string          `gorm:"type:varchar(100)" json:"brand"`
	CostPrice         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"cost_price"`
	SalePrice         decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"sale_price"`
	CommissionPercent decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"commission_percent"`
	CurrentStock      int             `gorm:"type:int;default:0" json:"current_stock"`
	MinimumStock      int             `gorm:"type:int;default:0" json:"minimum_stock"`
	IsActive          bool            `gorm:"default:true" json:"is_active"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	DeletedAt         gorm.DeletedAt  `gorm:"index" json:"-"`
}

// PaymentMethod is a way a ticket can be settled (cash, credit card, pix...).
// FeePercent and SettlementDays describe what the acquirer charges; they do
// not affect ticket totals.
type PaymentMethod struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SalonID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"salon_id"`
	Name           string          `gorm:"type:varchar(255);not null" json:"name"`
	Description    string          `gorm:"type:text" json:"description"`
	FeePercent     decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"fee_percent"`
	SettlementDays int             `gorm:"type:int;default:0" json:"settlement_days"`
	IsActive       bool            `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (s *SalonService) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (m *PaymentMethod) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
