package form

import "context"

type Repository interface {
	Create(ctx context.Context, f *Form) error
	GetByID(ctx context.Context, id int64) (*Form, error)
	Update(ctx context.Context, f *Form) error
	List(ctx context.Context, limit, offset int) ([]*Form, int, error)
	ListActive(ctx context.Context) ([]*Form, error)
	// UpdateSvcIDs persists the service-id list as a canonical JSON array,
	// regardless of what shape the row held before.
	UpdateSvcIDs(ctx context.Context, id int64, svcIDs []int64) error
}
