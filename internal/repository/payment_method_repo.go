package repository

import (
	"context"

	"salon-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentMethodRepository interface {
	Create(ctx context.Context, method *model.PaymentMethod) error
	Update(ctx context.Context, method *model.PaymentMethod) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PaymentMethod, error)
	List(ctx context.Context, salonID uuid.UUID, page, limit int) ([]model.PaymentMethod, int64, error)
}

type paymentMethodRepository struct {
	db *gorm.DB
}

func NewPaymentMethodRepository(db *gorm.DB) PaymentMethodRepository {
	return &paymentMethodRepository{db: db}
}

func (r *paymentMethodRepository) Create(ctx context.Context, method *model.PaymentMethod) error {
	return GetDB(ctx, r.db).Create(method).Error
}

func (r *paymentMethodRepository) Update(ctx context.Context, method *model.PaymentMethod) error {
	return GetDB(ctx, r.db).Save(method).Error
}

func (r *paymentMethodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.PaymentMethod{}).Error
}

func (r *paymentMethodRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PaymentMethod, error) {
	var method model.PaymentMethod
	if err := GetDB(ctx, r.db).First(&method, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *paymentMethodRepository) List(ctx context.Context, salonID uuid.UUID, page, limit int) ([]model.PaymentMethod, int64, error) {
	var methods []model.PaymentMethod
	var total int64

	db := GetDB(ctx, r.db).Model(&model.PaymentMethod{}).Where("salon_id = ?", salonID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("name asc").Offset(offset).Limit(limit).Find(&methods).Error; err != nil {
		return nil, 0, err
	}

	return methods, total, nil
}
