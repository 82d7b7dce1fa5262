package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	repository "github.com/shutterdesk/shutterdesk/internal/database/postgres"
	"github.com/shutterdesk/shutterdesk/internal/entity"
)

// CreateClientRequest represents the data needed to add a client.
type CreateClientRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Name       string `json:"name" binding:"required,min=2,max=100"`
	Phone      string `json:"phone,omitempty" binding:"max=50"`
	Notes      string `json:"notes,omitempty" binding:"max=2000"`
	TelegramID string `json:"telegram_id,omitempty" binding:"max=100"`
}

// UpdateClientRequest represents partial client updates.
type UpdateClientRequest struct {
	Email      *string `json:"email,omitempty" binding:"omitempty,email"`
	Name       *string `json:"name,omitempty" binding:"omitempty,min=2,max=100"`
	Phone      *string `json:"phone,omitempty" binding:"omitempty,max=50"`
	Notes      *string `json:"notes,omitempty" binding:"omitempty,max=2000"`
	TelegramID *string `json:"telegram_id,omitempty" binding:"omitempty,max=100"`
}

type clientService struct {
	clientRepo  repository.ClientRepository
	bookingRepo repository.BookingRepository
}

// NewClientService creates a new ClientService instance.
func NewClientService(
	clientRepo repository.ClientRepository,
	bookingRepo repository.BookingRepository,
) ClientService {
	return &clientService{
		clientRepo:  clientRepo,
		bookingRepo: bookingRepo,
	}
}

func (s *clientService) CreateClient(ctx context.Context, req *CreateClientRequest) (*entity.Client, error) {
	existing, err := s.clientRepo.GetByEmail(ctx, req.Email)
	if err != nil && err != entity.ErrClientNotFound {
		return nil, fmt.Errorf("failed to check existing client: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrClientAlreadyExists, req.Email)
	}

	client := &entity.Client{
		ID:         uuid.New().String(),
		Email:      req.Email,
		Name:       req.Name,
		Phone:      req.Phone,
		Notes:      req.Notes,
		TelegramID: req.TelegramID,
		CreatedAt:  time.Now(),
	}

	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

func (s *clientService) GetClient(ctx context.Context, id string) (*entity.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (s *clientService) GetClientByEmail(ctx context.Context, email string) (*entity.Client, error) {
	client, err := s.clientRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (s *clientService) GetAllClients(ctx context.Context) ([]*entity.Client, error) {
	clients, err := s.clientRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get all clients: %w", err)
	}
	return clients, nil
}

func (s *clientService) UpdateClient(ctx context.Context, id string, req *UpdateClientRequest) (*entity.Client, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		client.Email = *req.Email
	}
	if req.Name != nil {
		client.Name = *req.Name
	}
	if req.Phone != nil {
		client.Phone = *req.Phone
	}
	if req.Notes != nil {
		client.Notes = *req.Notes
	}
	if req.TelegramID != nil {
		client.TelegramID = *req.TelegramID
	}

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}

	return client, nil
}

func (s *clientService) DeleteClient(ctx context.Context, id string) error {
	bookings, err := s.bookingRepo.GetByClientID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check client bookings: %w", err)
	}

	for _, booking := range bookings {
		if booking.Status == entity.BookingStatusActive || booking.Status == entity.BookingStatusProposalSent {
			return fmt.Errorf("%w: cannot delete client with active bookings", entity.ErrInvalidBookingStatus)
		}
	}

	if err := s.clientRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}

	return nil
}
