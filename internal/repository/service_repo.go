package repository

import (
	"context"

	"salon-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ServiceRepository interface {
	Create(ctx context.Context, svc *model.SalonService) error
	Update(ctx context.Context, svc *model.SalonService) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.SalonService, error)
	List(ctx context.Context, salonID uuid.UUID, page, limit int, search string) ([]model.SalonService, int64, error)
}

type serviceRepository struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) ServiceRepository {
	return &serviceRepository{db: db}
}

func (r *serviceRepository) Create(ctx context.Context, svc *model.SalonService) error {
	return GetDB(ctx, r.db).Create(svc).Error
}

func (r *serviceRepository) Update(ctx context.Context, svc *model.SalonService) error {
	return GetDB(ctx, r.db).Save(svc).Error
}

func (r *serviceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.SalonService{}).Error
}

func (r *serviceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.SalonService, error) {
	var svc model.SalonService
	if err := GetDB(ctx, r.db).First(&svc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *serviceRepository) List(ctx context.Context, salonID uuid.UUID, page, limit int, search string) ([]model.SalonService, int64, error) {
	var services []model.SalonService
	var total int64

	db := GetDB(ctx, r.db).Model(&model.SalonService{}).Where("salon_id = ?", salonID)
	if search != "" {
		db = db.Where("name ILIKE ?", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("sort_order asc, name asc").Offset(offset).Limit(limit).Find(&services).Error; err != nil {
		return nil, 0, err
	}

	return services, total, nil
}
