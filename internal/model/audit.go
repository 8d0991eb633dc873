package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreateTicket  = "CREATE_TICKET"
	ActionUpdateTicket  = "UPDATE_TICKET"
	ActionAddItem       = "ADD_TICKET_ITEM"
	ActionRemoveItem    = "REMOVE_TICKET_ITEM"
	ActionAddPayment    = "ADD_TICKET_PAYMENT"
	ActionRemovePayment = "REMOVE_TICKET_PAYMENT"
	ActionTicketPaid    = "TICKET_PAID"
	ActionCancelTicket  = "CANCEL_TICKET"
)

// AuditLog tracks Who, What, and When for ticket lifecycle changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/ticket number)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (l *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
