package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Staff is a collaborator who performs services and earns commissions.
type Staff struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SalonID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"salon_id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Phone     string         `gorm:"type:varchar(50)" json:"phone"`
	RoleTitle string         `gorm:"type:varchar(100)" json:"role_title"`
	Services  []SalonService `gorm:"many2many:staff_services;" json:"services,omitempty"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *Staff) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
