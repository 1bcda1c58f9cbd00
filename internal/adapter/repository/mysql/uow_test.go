package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	customerDomain "credit-approval-service/internal/domain/customer"
	loanDomain "credit-approval-service/internal/domain/loan"
	"credit-approval-service/internal/domain/uow"
)

func seedUowCustomer(t *testing.T, db *gorm.DB) *customerDomain.Customer {
	t.Helper()
	c := &customerDomain.Customer{
		FirstName:     "Asha",
		LastName:      "Verma",
		Age:           34,
		PhoneNumber:   9812345678,
		MonthlySalary: 45_000,
		ApprovedLimit: 1_600_000,
		CurrentDebt:   decimal.Zero,
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return c
}

func TestGormUoW_WithinCustomerTx_Commit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	seed := seedUowCustomer(t, db)

	err := guow.WithinCustomerTx(ctx, seed.ID, func(r uow.Repos, c *customerDomain.Customer) error {
		if c == nil || c.ID != seed.ID || c.FirstName != "Asha" {
			t.Fatalf("unexpected customer passed to fn: %+v", c)
		}

		l := loanDomain.Loan{
			CustomerID:         c.ID,
			LoanAmount:         decimal.RequireFromString("100000"),
			Tenure:             24,
			InterestRate:       decimal.RequireFromString("12.00"),
			MonthlyInstallment: decimal.RequireFromString("4707.35"),
			StartDate:          time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
			EndDate:            time.Date(2027, 6, 15, 0, 0, 0, 0, time.UTC),
			IsActive:           true,
		}
		if err := r.Loans.Create(ctx, &l); err != nil {
			return err
		}
		c.CurrentDebt = c.CurrentDebt.Add(l.LoanAmount)
		return r.Customers.Save(ctx, c)
	})
	if err != nil {
		t.Fatalf("WithinCustomerTx commit err: %v", err)
	}

	got, err := NewCustomerRepository(db).GetByID(ctx, seed.ID)
	if err != nil {
		t.Fatalf("GetByID post-commit: %v", err)
	}
	if !got.CurrentDebt.Equal(decimal.RequireFromString("100000")) {
		t.Fatalf("debt = %s, want 100000", got.CurrentDebt)
	}
	loans, err := NewLoanRepository(db).ListByCustomerID(ctx, seed.ID)
	if err != nil || len(loans) != 1 {
		t.Fatalf("loans after commit: %v, %d", err, len(loans))
	}
}

func TestGormUoW_WithinCustomerTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	seed := seedUowCustomer(t, db)
	sentinel := errors.New("stop")

	err := guow.WithinCustomerTx(ctx, seed.ID, func(r uow.Repos, c *customerDomain.Customer) error {
		l := loanDomain.Loan{
			CustomerID:         c.ID,
			LoanAmount:         decimal.RequireFromString("100000"),
			Tenure:             24,
			InterestRate:       decimal.RequireFromString("12.00"),
			MonthlyInstallment: decimal.RequireFromString("4707.35"),
			StartDate:          time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
			EndDate:            time.Date(2027, 6, 15, 0, 0, 0, 0, time.UTC),
			IsActive:           true,
		}
		if err := r.Loans.Create(ctx, &l); err != nil {
			return err
		}
		c.CurrentDebt = c.CurrentDebt.Add(l.LoanAmount)
		if err := r.Customers.Save(ctx, c); err != nil {
			return err
		}
		return sentinel // force rollback
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("want sentinel, got %v", err)
	}

	// Neither the loan nor the debt update survives the rollback.
	got, err := NewCustomerRepository(db).GetByID(ctx, seed.ID)
	if err != nil {
		t.Fatalf("GetByID post-rollback: %v", err)
	}
	if !got.CurrentDebt.IsZero() {
		t.Fatalf("debt = %s after rollback, want 0", got.CurrentDebt)
	}
	loans, err := NewLoanRepository(db).ListByCustomerID(ctx, seed.ID)
	if err != nil || len(loans) != 0 {
		t.Fatalf("loans after rollback: %v, %d", err, len(loans))
	}
}

func TestGormUoW_WithinCustomerTx_CustomerNotFound(t *testing.T) {
	db := openTestDB(t)
	guow := NewGormUoW(db)

	called := false
	err := guow.WithinCustomerTx(context.Background(), 999, func(uow.Repos, *customerDomain.Customer) error {
		called = true
		return nil
	})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("want ErrRecordNotFound, got %v", err)
	}
	if called {
		t.Fatal("fn invoked for missing customer")
	}
}

// A second transaction sees the debt the first one committed, so the
// 50%-of-salary check always runs against up-to-date obligations.
func TestGormUoW_WithinCustomerTx_SequentialReadsCommittedDebt(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	seed := seedUowCustomer(t, db)

	add := decimal.RequireFromString("150000")
	if err := guow.WithinCustomerTx(ctx, seed.ID, func(r uow.Repos, c *customerDomain.Customer) error {
		c.CurrentDebt = c.CurrentDebt.Add(add)
		return r.Customers.Save(ctx, c)
	}); err != nil {
		t.Fatalf("first tx: %v", err)
	}

	if err := guow.WithinCustomerTx(ctx, seed.ID, func(r uow.Repos, c *customerDomain.Customer) error {
		if !c.CurrentDebt.Equal(add) {
			t.Fatalf("second tx saw debt %s, want %s", c.CurrentDebt, add)
		}
		return nil
	}); err != nil {
		t.Fatalf("second tx: %v", err)
	}
}

func TestGormUoW_WithinTx_Rollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	guow := NewGormUoW(db)
	sentinel := errors.New("stop")

	_ = guow.WithinTx(ctx, func(r uow.Repos) error {
		c := &customerDomain.Customer{
			FirstName:     "Ravi",
			LastName:      "Iyer",
			Age:           41,
			PhoneNumber:   9876543210,
			MonthlySalary: 90_000,
			ApprovedLimit: 3_200_000,
			CurrentDebt:   decimal.Zero,
		}
		if err := r.Customers.Create(ctx, c); err != nil {
			return err
		}
		return sentinel
	})

	var n int64
	if err := db.Model(&customerDomain.Customer{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("customer rows after rollback: %d", n)
	}
}
