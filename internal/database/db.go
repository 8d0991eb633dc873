package database

import (
	"log"

	"salon-backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.Salon{},
		&model.User{},
		&model.RefreshToken{},
		&model.Staff{},
		&model.Client{},
		&model.SalonService{},
		&model.Product{},
		&model.PaymentMethod{},
		&model.Ticket{},
		&model.TicketItem{},
		&model.TicketPayment{},
		&model.StockMovement{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
