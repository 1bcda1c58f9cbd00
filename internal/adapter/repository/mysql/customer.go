package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	customerDomain "credit-approval-service/internal/domain/customer"
)

type CustomerRepository struct{ db *gorm.DB }

func NewCustomerRepository(db *gorm.DB) *CustomerRepository { return &CustomerRepository{db: db} }

func (r *CustomerRepository) Create(ctx context.Context, c *customerDomain.Customer) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CustomerRepository) Save(ctx context.Context, c *customerDomain.Customer) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *CustomerRepository) GetByID(ctx context.Context, id uint64) (*customerDomain.Customer, error) {
	var out customerDomain.Customer
	res := r.db.WithContext(ctx).First(&out, "id = ?", id)
	return &out, res.Error
}

// GetByIDForUpdate takes the row lock (SELECT ... FOR UPDATE); callers
// run it inside a transaction, typically via the UoW.
func (r *CustomerRepository) GetByIDForUpdate(ctx context.Context, id uint64) (*customerDomain.Customer, error) {
	var out customerDomain.Customer
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&out, "id = ?", id)
	return &out, res.Error
}
