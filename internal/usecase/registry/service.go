// Package registry handles client registration and the uniqueness rules
// around document, email and phone.
package registry

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ncastano/virtual-wallet/internal/domain"
)

// RegisterInput represents the input for registering a client.
type RegisterInput struct {
	Document string
	Name     string
	Email    string
	Phone    string
}

// Service handles client registration.
type Service struct {
	store  domain.Store
	logger *zap.Logger
}

// NewService creates a new registry Service instance.
func NewService(store domain.Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Register creates a new client with a zero balance.
// Any collision on document, email or phone rejects the registration.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.Client, error) {
	for field, value := range map[string]string{
		"document": input.Document,
		"name":     input.Name,
		"email":    input.Email,
		"phone":    input.Phone,
	} {
		if strings.TrimSpace(value) == "" {
			return nil, &domain.ErrValidation{Field: field, Message: "is required"}
		}
	}

	exists, err := s.store.ClientExists(ctx, input.Document, input.Email, input.Phone)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing clients: %w", err)
	}
	if exists {
		return nil, &domain.ErrConflict{
			Message: "a client already exists with the given document, email or phone",
		}
	}

	client := domain.NewClient(input.Document, input.Name, input.Email, input.Phone)

	// The unique constraints still back this up if another registration
	// lands between the check and the insert; the store maps that to a
	// conflict as well.
	if err := s.store.SaveClient(ctx, client); err != nil {
		return nil, err
	}

	s.logger.Info("client registered",
		zap.Int64("client_id", client.ID),
		zap.String("document", client.Document),
	)
	return client, nil
}
