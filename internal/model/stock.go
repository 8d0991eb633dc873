package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementType constants
const (
	MovementOut        = "OUT"
	MovementAdjustment = "ADJUSTMENT"
)

// StockMovement records product stock changes strictly. Product lines on a
// ticket generate OUT movements when the ticket is marked paid.
type StockMovement struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	TicketID        *uuid.UUID `gorm:"type:uuid;index" json:"ticket_id"` // Nullable in case of manual adjustments
	MovementType    string     `gorm:"type:varchar(15);not null" json:"movement_type"`
	QuantityChanged int        `gorm:"type:int;not null" json:"quantity_changed"`
	StockAfter      int        `gorm:"type:int;not null" json:"stock_after"`
	Notes           string     `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
