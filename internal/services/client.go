package services

import (
	"context"
	"fmt"
	"strings"

	"DF-PROPOSAL/internal/apperr"
	"DF-PROPOSAL/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type ClientService struct {
	db *gorm.DB
}

func NewClientService(db *gorm.DB) *ClientService {
	return &ClientService{db: db}
}

type ClientInput struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

func (s *ClientService) Create(ctx context.Context, ownerID string, in ClientInput) (*models.Client, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)

	v := apperr.NewValidation()
	if in.Name == "" {
		v.Add("name", "required")
	}
	if in.Email != "" && !validEmail(in.Email) {
		v.Add("email", "invalid_email")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	client := &models.Client{
		ID:      uuid.New().String(),
		OwnerID: ownerID,
		Name:    in.Name,
		Company: strings.TrimSpace(in.Company),
		Email:   in.Email,
		Phone:   strings.TrimSpace(in.Phone),
	}
	if err := s.db.WithContext(ctx).Create(client).Error; err != nil {
		return nil, fmt.Errorf("failed to save client: %w", err)
	}

	log.Info().Str("client_id", client.ID).Str("owner_id", ownerID).Msg("Client created")
	return client, nil
}

func (s *ClientService) Get(ctx context.Context, ownerID, clientID string) (*models.Client, error) {
	var client models.Client
	if err := s.db.WithContext(ctx).First(&client, "id = ? AND owner_id = ?", clientID, ownerID).Error; err != nil {
		return nil, notFound(err, "client")
	}
	return &client, nil
}

func (s *ClientService) List(ctx context.Context, ownerID string) ([]models.Client, error) {
	var clients []models.Client
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("name ASC").Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}
