package customer

import (
	"context"
	"errors"
	"log"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	domain "credit-approval-service/internal/domain/customer"
)

type Usecase struct{ repo domain.Repository }

func NewUsecase(r domain.Repository) *Usecase { return &Usecase{repo: r} }

type RegisterInput struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Age           int    `json:"age"`
	MonthlyIncome int64  `json:"monthly_income"`
	PhoneNumber   int64  `json:"phone_number"`
}

type CustomerDTO struct {
	CustomerID    uint64 `json:"customer_id"`
	Name          string `json:"name"`
	Age           int    `json:"age"`
	MonthlyIncome int64  `json:"monthly_income"`
	ApprovedLimit int64  `json:"approved_limit"`
	PhoneNumber   int64  `json:"phone_number"`
}

// Register creates a customer with approved_limit = 36 × monthly income,
// rounded to the nearest lakh. The limit is set once here and never
// recomputed afterwards.
func (u *Usecase) Register(ctx context.Context, in RegisterInput) (*CustomerDTO, error) {
	if in.FirstName == "" || in.LastName == "" || in.Age < 18 || in.MonthlyIncome <= 0 {
		return nil, errors.New("invalid input")
	}

	c := &domain.Customer{
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Age:           in.Age,
		PhoneNumber:   in.PhoneNumber,
		MonthlySalary: in.MonthlyIncome,
		ApprovedLimit: RoundToNearestLakh(36 * in.MonthlyIncome),
		CurrentDebt:   decimal.Zero,
	}
	if err := u.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	log.Printf("registered customer %d (%s) with approved_limit=%d", c.ID, c.FullName(), c.ApprovedLimit)
	return toDTO(c), nil
}

func (u *Usecase) Get(ctx context.Context, id uint64) (*CustomerDTO, error) {
	c, err := u.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return toDTO(c), nil
}

func toDTO(c *domain.Customer) *CustomerDTO {
	return &CustomerDTO{
		CustomerID:    c.ID,
		Name:          c.FullName(),
		Age:           c.Age,
		MonthlyIncome: c.MonthlySalary,
		ApprovedLimit: c.ApprovedLimit,
		PhoneNumber:   c.PhoneNumber,
	}
}

// RoundToNearestLakh rounds to the nearest 100,000, halves up.
func RoundToNearestLakh(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	const lakh = 100_000
	return (amount + lakh/2) / lakh * lakh
}
