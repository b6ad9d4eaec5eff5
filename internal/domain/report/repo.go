package report

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	Update(ctx context.Context, r *Report) error
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Report, int, error)
}
