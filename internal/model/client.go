package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client represents a salon customer.
type Client struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SalonID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"salon_id"`
	BranchID    *uuid.UUID     `gorm:"type:uuid;index" json:"branch_id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Email       string         `gorm:"type:varchar(255)" json:"email"`
	Phone       string         `gorm:"type:varchar(50)" json:"phone"`
	Mobile      string         `gorm:"type:varchar(50)" json:"mobile"`
	BirthDate   *time.Time     `json:"birth_date"`
	Notes       string         `gorm:"type:text" json:"notes"`
	VisitCount  int            `gorm:"type:int;default:0" json:"visit_count"`
	LastVisitAt *time.Time     `json:"last_visit_at"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
