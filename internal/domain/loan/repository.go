package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByID(ctx context.Context, id uint64) (*Loan, error)
	ListByCustomerID(ctx context.Context, customerID uint64) ([]Loan, error)
	Save(ctx context.Context, l *Loan) error
}
