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

type ClientRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"omitempty,email"`
	Phone     string `json:"phone"`
	Mobile    string `json:"mobile"`
	BirthDate string `json:"birth_date"` // YYYY-MM-DD
	Notes     string `json:"notes"`
	IsActive  *bool  `json:"is_active"`
}

type ClientResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Phone       string  `json:"phone"`
	Mobile      string  `json:"mobile"`
	BirthDate   *string `json:"birth_date"`
	Notes       string  `json:"notes"`
	VisitCount  int     `json:"visit_count"`
	LastVisitAt *string `json:"last_visit_at"`
	IsActive    bool    `json:"is_active"`
	CreatedAt   string  `json:"created_at"`
}

// --- Interface ---

type ClientService interface {
	ListClients(ctx context.Context, salonID uuid.UUID, page, limit int, search string) ([]ClientResponse, int64, error)
	GetClient(ctx context.Context, salonID, id uuid.UUID) (*ClientResponse, error)
	CreateClient(ctx context.Context, salonID uuid.UUID, req ClientRequest) (*ClientResponse, error)
	UpdateClient(ctx context.Context, salonID, id uuid.UUID, req ClientRequest) (*ClientResponse, error)
	DeleteClient(ctx context.Context, salonID, id uuid.UUID) error
}

type clientService struct {
	clientRepo repository.ClientRepository
}

func NewClientService(clientRepo repository.ClientRepository) ClientService {
	return &clientService{clientRepo: clientRepo}
}

// --- Implementation ---

func (s *clientService) ListClients(ctx context.Context, salonID uuid.UUID, page, limit int, search string) ([]ClientResponse, int64, error) {
	clients, total, err := s.clientRepo.List(ctx, salonID, page, limit, search)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch clients: %w", err)
	}
	result := make([]ClientResponse, 0, len(clients))
	for i := range clients {
		result = append(result, toClientResponse(&clients[i]))
	}
	return result, total, nil
}

func (s *clientService) GetClient(ctx context.Context, salonID, id uuid.UUID) (*ClientResponse, error) {
	client, err := s.findSalonClient(ctx, salonID, id)
	if err != nil {
		return nil, err
	}
	resp := toClientResponse(client)
	return &resp, nil
}

func (s *clientService) CreateClient(ctx context.Context, salonID uuid.UUID, req ClientRequest) (*ClientResponse, error) {
	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}
	client := &model.Client{
		SalonID:   salonID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Mobile:    req.Mobile,
		BirthDate: birthDate,
		Notes:     req.Notes,
		IsActive:  true,
	}
	if req.IsActive != nil {
		client.IsActive = *req.IsActive
	}
	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	resp := toClientResponse(client)
	return &resp, nil
}

func (s *clientService) UpdateClient(ctx context.Context, salonID, id uuid.UUID, req ClientRequest) (*ClientResponse, error) {
	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}
	client, err := s.findSalonClient(ctx, salonID, id)
	if err != nil {
		return nil, err
	}
	client.Name = req.Name
	client.Email = req.Email
	client.Phone = req.Phone
	client.Mobile = req.Mobile
	client.BirthDate = birthDate
	client.Notes = req.Notes
	if req.IsActive != nil {
		client.IsActive = *req.IsActive
	}
	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}
	resp := toClientResponse(client)
	return &resp, nil
}

func (s *clientService) DeleteClient(ctx context.Context, salonID, id uuid.UUID) error {
	if _, err := s.findSalonClient(ctx, salonID, id); err != nil {
		return err
	}
	if err := s.clientRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return nil
}

func (s *clientService) findSalonClient(ctx context.Context, salonID, id uuid.UUID) (*model.Client, error) {
	client, err := s.clientRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCatalogNotFound
		}
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	if client.SalonID != salonID {
		return nil, ErrCatalogNotFound
	}
	return client, nil
}

func parseBirthDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, validationErr("invalid birth_date: expected YYYY-MM-DD")
	}
	return &parsed, nil
}

// --- Mapping ---

func toClientResponse(client *model.Client) ClientResponse {
	resp := ClientResponse{
		ID:         client.ID.String(),
		Name:       client.Name,
		Email:      client.Email,
		Phone:      client.Phone,
		Mobile:     client.Mobile,
		Notes:      client.Notes,
		VisitCount: client.VisitCount,
		IsActive:   client.IsActive,
		CreatedAt:  client.CreatedAt.Format(time.RFC3339),
	}
	if client.BirthDate != nil {
		bd := client.BirthDate.Format("2006-01-02")
		resp.BirthDate = &bd
	}
	if client.LastVisitAt != nil {
		lv := client.LastVisitAt.Format(time.RFC3339)
		resp.LastVisitAt = &lv
	}
	return resp
}
