package client

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, c *Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*Client, error)
	Update(ctx context.Context, c *Client) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID, status string, limit, offset int) ([]*Client, int, error)
}
