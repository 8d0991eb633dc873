package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"salon-backend/internal/model"
	"salon-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type StaffRequest struct {
	Name       string   `json:"name" binding:"required"`
	Phone      string   `json:"phone"`
	RoleTitle  string   `json:"role_title"`
	ServiceIDs []string `json:"service_ids"`
	IsActive   *bool    `json:"is_active"`
}

type StaffResponse struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Phone     string                 `json:"phone"`
	RoleTitle string                 `json:"role_title"`
	Services  []SalonServiceResponse `json:"services"`
	IsActive  bool                   `json:"is_active"`
	CreatedAt string                 `json:"created_at"`
}

// --- Interface ---

type StaffService interface {
	ListStaff(ctx context.Context, salonID uuid.UUID, page, limit int) ([]StaffResponse, int64, error)
	GetStaff(ctx context.Context, salonID, id uuid.UUID) (*StaffResponse, error)
	CreateStaff(ctx context.Context, salonID uuid.UUID, req StaffRequest) (*StaffResponse, error)
	UpdateStaff(ctx context.Context, salonID, id uuid.UUID, req StaffRequest) (*StaffResponse, error)
	DeleteStaff(ctx context.Context, salonID, id uuid.UUID) error
}

type staffService struct {
	staffRepo   repository.StaffRepository
	serviceRepo repository.ServiceRepository
}

func NewStaffService(staffRepo repository.StaffRepository, serviceRepo repository.ServiceRepository) StaffService {
	return &staffService{staffRepo: staffRepo, serviceRepo: serviceRepo}
}

// --- Implementation ---

func (s *staffService) ListStaff(ctx context.Context, salonID uuid.UUID, page, limit int) ([]StaffResponse, int64, error) {
	staff, total, err := s.staffRepo.List(ctx, salonID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch staff: %w", err)
	}
	result := make([]StaffResponse, 0, len(staff))
	for i := range staff {
		result = append(result, toStaffResponse(&staff[i]))
	}
	return result, total, nil
}

func (s *staffService) GetStaff(ctx context.Context, salonID, id uuid.UUID) (*StaffResponse, error) {
	staff, err := s.findSalonStaff(ctx, salonID, id)
	if err != nil {
		return nil, err
	}
	resp := toStaffResponse(staff)
	return &resp, nil
}

func (s *staffService) CreateStaff(ctx context.Context, salonID uuid.UUID, req StaffRequest) (*StaffResponse, error) {
	staff := &model.Staff{
		SalonID:   salonID,
		Name:      req.Name,
		Phone:     req.Phone,
		RoleTitle: req.RoleTitle,
		IsActive:  true,
	}
	if req.IsActive != nil {
		staff.IsActive = *req.IsActive
	}
	if err := s.staffRepo.Create(ctx, staff); err != nil {
		return nil, fmt.Errorf("failed to create staff: %w", err)
	}
	if req.ServiceIDs != nil {
		if err := s.assignServices(ctx, salonID, staff, req.ServiceIDs); err != nil {
			return nil, err
		}
	}
	resp := toStaffResponse(staff)
	return &resp, nil
}

func (s *staffService) UpdateStaff(ctx context.Context, salonID, id uuid.UUID, req StaffRequest) (*StaffResponse, error) {
	staff, err := s.findSalonStaff(ctx, salonID, id)
	if err != nil {
		return nil, err
	}
	staff.Name = req.Name
	staff.Phone = req.Phone
	staff.RoleTitle = req.RoleTitle
	if req.IsActive != nil {
		staff.IsActive = *req.IsActive
	}
	if err := s.staffRepo.Update(ctx, staff); err != nil {
		return nil, fmt.Errorf("failed to update staff: %w", err)
	}
	if req.ServiceIDs != nil {
		if err := s.assignServices(ctx, salonID, staff, req.ServiceIDs); err != nil {
			return nil, err
		}
	}
	resp := toStaffResponse(staff)
	return &resp, nil
}

func (s *staffService) DeleteStaff(ctx context.Context, salonID, id uuid.UUID) error {
	if _, err := s.findSalonStaff(ctx, salonID, id); err != nil {
		return err
	}
	if err := s.staffRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete staff: %w", err)
	}
	return nil
}

// assignServices replaces the staff member's service qualification list. All
// referenced services must belong to the same salon.
func (s *staffService) assignServices(ctx context.Context, salonID uuid.UUID, staff *model.Staff, serviceIDs []string) error {
	services := make([]model.SalonService, 0, len(serviceIDs))
	for _, raw := range serviceIDs {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return validationErr("invalid service id %q", raw)
		}
		svc, err := s.serviceRepo.FindByID(ctx, parsed)
		if err != nil {
			return fmt.Errorf("%w: service %s", ErrCatalogNotFound, raw)
		}
		if svc.SalonID != salonID {
			return fmt.Errorf("%w: service %s", ErrCatalogNotFound, raw)
		}
		services = append(services, *svc)
	}
	if err := s.staffRepo.ReplaceServices(ctx, staff, services); err != nil {
		return fmt.Errorf("failed to assign services: %w", err)
	}
	staff.Services = services
	return nil
}

func (s *staffService) findSalonStaff(ctx context.Context, salonID, id uuid.UUID) (*model.Staff, error) {
	staff, err := s.staffRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCatalogNotFound
		}
		return nil, fmt.Errorf("failed to load staff: %w", err)
	}
	if staff.SalonID != salonID {
		return nil, ErrCatalogNotFound
	}
	return staff, nil
}

// --- Mapping ---

func toStaffResponse(staff *model.Staff) StaffResponse {
	resp := StaffResponse{
		ID:        staff.ID.String(),
		Name:      staff.Name,
		Phone:     staff.Phone,
		RoleTitle: staff.RoleTitle,
		Services:  make([]SalonServiceResponse, 0, len(staff.Services)),
		IsActive:  staff.IsActive,
		CreatedAt: staff.CreatedAt.Format(time.RFC3339),
	}
	for i := range staff.Services {
		resp.Services = append(resp.Services, toServiceResponse(&staff.Services[i]))
	}
	return resp
}
