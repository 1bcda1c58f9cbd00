package customer

import "context"

type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, id uint64) (*Customer, error)
	// GetByIDForUpdate fetches the row under SELECT ... FOR UPDATE; only
	// meaningful inside a transaction.
	GetByIDForUpdate(ctx context.Context, id uint64) (*Customer, error)
	Save(ctx context.Context, c *Customer) error
}
