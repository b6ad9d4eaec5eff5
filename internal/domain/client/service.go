package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	clients Repository
	logger  zerolog.Logger
}

func NewService(r Repository, logger zerolog.Logger) *Service {
	return &Service{clients: r, logger: logger}
}

// Create registers a new client in draft status, regardless of what the
// caller passed.
func (s *Service) Create(ctx context.Context, c *Client) error {
	if c.TenantID == uuid.Nil {
		return fmt.Errorf("tenant_id is required")
	}
	if c.FirstName == "" || c.LastName == "" {
		return fmt.Errorf("first_name and last_name are required")
	}
	c.Status = StatusDraft
	return s.clients.Create(ctx, c)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Client, error) {
	return s.clients.GetByID(ctx, id)
}

// Update changes demographic fields only; the status moves through Activate
// and Discharge.
func (s *Service) Update(ctx context.Context, c *Client) error {
	existing, err := s.clients.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	c.TenantID = existing.TenantID
	c.Status = existing.Status
	c.ActivatedAt = existing.ActivatedAt
	c.DischargedAt = existing.DischargedAt
	return s.clients.Update(ctx, c)
}

func (s *Service) ListByTenant(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*Client, int, error) {
	return s.clients.ListByTenant(ctx, tenantID, status, limit, offset)
}

// Activate moves a draft client into active care.
func (s *Service) Activate(ctx context.Context, id uuid.UUID) (*Client, error) {
	return s.transition(ctx, id, StatusActive)
}

// Discharge ends care for an active client.
func (s *Service) Discharge(ctx context.Context, id uuid.UUID) (*Client, error) {
	return s.transition(ctx, id, StatusDischarged)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to string) (*Client, error) {
	c, err := s.clients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(c.Status, to) {
		return nil, fmt.Errorf("cannot move client from %s to %s", c.Status, to)
	}

	now := time.Now().UTC()
	c.Status = to
	switch to {
	case StatusActive:
		c.ActivatedAt = &now
	case StatusDischarged:
		c.DischargedAt = &now
	}
	if err := s.clients.Update(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Info().Str("client_id", id.String()).Str("status", to).Msg("client status changed")
	return c, nil
}
