package customermock

import (
	"context"
	"errors"

	domain "credit-approval-service/internal/domain/customer"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies customer.Repository.
// Fill in the function fields you need in a test.
type Repo struct {
	CreateFn           func(ctx context.Context, c *domain.Customer) error
	GetByIDFn          func(ctx context.Context, id uint64) (*domain.Customer, error)
	GetByIDForUpdateFn func(ctx context.Context, id uint64) (*domain.Customer, error)
	SaveFn             func(ctx context.Context, c *domain.Customer) error
}

func (m *Repo) Create(ctx context.Context, c *domain.Customer) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, c)
	}
	return nil
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Customer, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, errors.New("customermock: GetByID not implemented")
}

func (m *Repo) GetByIDForUpdate(ctx context.Context, id uint64) (*domain.Customer, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return nil, errors.New("customermock: GetByIDForUpdate not implemented")
}

func (m *Repo) Save(ctx context.Context, c *domain.Customer) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, c)
	}
	return nil
}
