package repository

import (
	"context"

	"salon-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StaffRepository interface {
	Create(ctx context.Context, staff *model.Staff) error
	Update(ctx context.Context, staff *model.Staff) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Staff, error)
	List(ctx context.Context, salonID uuid.UUID, page, limit int) ([]model.Staff, int64, error)
	ReplaceServices(ctx context.Context, staff *model.Staff, services []model.SalonService) error
}

type staffRepository struct {
	db *gorm.DB
}

func NewStaffRepository(db *gorm.DB) StaffRepository {
	return &staffRepository{db: db}
}

func (r *staffRepository) Create(ctx context.Context, staff *model.Staff) error {
	return GetDB(ctx, r.db).Create(staff).Error
}

func (r *staffRepository) Update(ctx context.Context, staff *model.Staff) error {
	return GetDB(ctx, r.db).Omit("Services").Save(staff).Error
}

func (r *staffRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Staff{}).Error
}

func (r *staffRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	var staff model.Staff
	if err := GetDB(ctx, r.db).Preload("Services").First(&staff, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepository) List(ctx context.Context, salonID uuid.UUID, page, limit int) ([]model.Staff, int64, error) {
	var staff []model.Staff
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Staff{}).Where("salon_id = ?", salonID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Services").Order("name asc").Offset(offset).Limit(limit).Find(&staff).Error; err != nil {
		return nil, 0, err
	}

	return staff, total, nil
}

// ReplaceServices resets the set of services a staff member can perform.
func (r *staffRepository) ReplaceServices(ctx context.Context, staff *model.Staff, services []model.SalonService) error {
	return GetDB(ctx, r.db).Model(staff).Association("Services").Replace(services)
}
