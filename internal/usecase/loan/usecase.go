package loan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"credit-approval-service/internal/domain/customer"
	domainLoan "credit-approval-service/internal/domain/loan"
	"credit-approval-service/internal/domain/uow"
	"credit-approval-service/internal/usecase/credit"
)

type Usecase struct {
	customers customer.Repository
	loans     domainLoan.Repository
	uow       uow.UnitOfWork
	scorer    *credit.Scorer
	now       func() time.Time
}

// NewUsecase: repos cover the read paths, the UoW covers origination.
func NewUsecase(customers customer.Repository, loans domainLoan.Repository, tx uow.UnitOfWork, scorer *credit.Scorer) *Usecase {
	return &Usecase{customers: customers, loans: loans, uow: tx, scorer: scorer, now: time.Now}
}

// WithClock pins "today" for deterministic start/end dates in tests.
func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

// CheckEligibility is the read-only preview: no lock, no transaction,
// same decision function the origination path uses.
func (u *Usecase) CheckEligibility(ctx context.Context, in LoanRequestInput) (*EligibilityDTO, error) {
	c, err := u.customers.GetByID(ctx, in.CustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customer.ErrNotFound
		}
		return nil, err
	}
	history, err := u.loans.ListByCustomerID(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	d, err := u.scorer.Decide(c, history, in.LoanAmount, in.InterestRate, in.Tenure)
	if err != nil {
		return nil, err
	}
	return &EligibilityDTO{
		CustomerID:            d.CustomerID,
		Approval:              d.Approved,
		InterestRate:          d.InterestRate,
		CorrectedInterestRate: d.CorrectedInterestRate,
		Tenure:                d.Tenure,
		MonthlyInstallment:    d.MonthlyInstallment,
	}, nil
}

// Create runs the origination transaction: lock the customer row FIRST,
// decide against the locked snapshot, then either persist loan + debt in
// the same transaction or commit nothing. Locking after deciding would
// leave a window where two concurrent requests both observe headroom
// that only one can consume.
func (u *Usecase) Create(ctx context.Context, in LoanRequestInput) (*OutcomeDTO, error) {
	var dto *OutcomeDTO

	err := u.uow.WithinCustomerTx(ctx, in.CustomerID, func(r uow.Repos, c *customer.Customer) error {
		// History is read inside the tx, never from a stale cache.
		history, err := r.Loans.ListByCustomerID(ctx, c.ID)
		if err != nil {
			return err
		}

		d, err := u.scorer.Decide(c, history, in.LoanAmount, in.InterestRate, in.Tenure)
		if err != nil {
			return err
		}

		if !d.Approved {
			dto = &OutcomeDTO{
				CustomerID:   c.ID,
				LoanApproved: false,
				Message:      rejectionMessage(d),
			}
			return nil // no mutations to commit
		}

		today := dateOnly(u.now().UTC())
		l := &domainLoan.Loan{
			CustomerID:         c.ID,
			LoanAmount:         in.LoanAmount,
			Tenure:             in.Tenure,
			InterestRate:       d.CorrectedInterestRate,
			MonthlyInstallment: d.MonthlyInstallment,
			EMIsPaidOnTime:     0,
			StartDate:          today,
			EndDate:            today.AddDate(0, in.Tenure, 0),
			IsActive:           true,
		}
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}

		c.CurrentDebt = c.CurrentDebt.Add(in.LoanAmount)
		if err := r.Customers.Save(ctx, c); err != nil {
			return err
		}

		log.Printf("loan %d created for customer %d: amount=%s rate=%s tenure=%d emi=%s",
			l.ID, c.ID, in.LoanAmount, d.CorrectedInterestRate, in.Tenure, d.MonthlyInstallment)

		id := l.ID
		installment := d.MonthlyInstallment
		dto = &OutcomeDTO{
			LoanID:             &id,
			CustomerID:         c.ID,
			LoanApproved:       true,
			Message:            "Loan approved successfully.",
			MonthlyInstallment: &installment,
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customer.ErrNotFound
		}
		// Storage failures abort the whole tx and surface unmodified.
		return nil, err
	}
	return dto, nil
}

// rejectionMessage concatenates the specific failing conditions; breaches
// with no individually-attributable condition (limit breach, combined EMI
// breach) fall back to a generic line.
func rejectionMessage(d *credit.Decision) string {
	var reasons []string
	if d.ScoreTooLow {
		reasons = append(reasons, fmt.Sprintf("Credit score too low (%d/100).", d.Score))
	}
	if d.CurrentEMIsTooHigh {
		reasons = append(reasons, "Current EMIs exceed 50% of monthly income.")
	}
	if len(reasons) == 0 {
		return "Loan not approved based on eligibility criteria."
	}
	return strings.Join(reasons, " ")
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (u *Usecase) Get(ctx context.Context, loanID uint64) (*LoanDetailDTO, error) {
	l, err := u.loans.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainLoan.ErrNotFound
		}
		return nil, err
	}
	c, err := u.customers.GetByID(ctx, l.CustomerID)
	if err != nil {
		return nil, err
	}
	return &LoanDetailDTO{
		LoanID: l.ID,
		Customer: CustomerSummaryDTO{
			ID:          c.ID,
			FirstName:   c.FirstName,
			LastName:    c.LastName,
			PhoneNumber: c.PhoneNumber,
			Age:         c.Age,
		},
		LoanAmount:         l.LoanAmount,
		InterestRate:       l.InterestRate,
		MonthlyInstallment: l.MonthlyInstallment,
		Tenure:             l.Tenure,
		StartDate:          l.StartDate,
		EndDate:            l.EndDate,
		IsActive:           l.IsActive,
	}, nil
}

func (u *Usecase) ListByCustomer(ctx context.Context, customerID uint64) ([]LoanItemDTO, error) {
	if _, err := u.customers.GetByID(ctx, customerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, customer.ErrNotFound
		}
		return nil, err
	}
	loans, err := u.loans.ListByCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	items := make([]LoanItemDTO, 0, len(loans))
	for i := range loans {
		l := &loans[i]
		items = append(items, LoanItemDTO{
			LoanID:             l.ID,
			LoanAmount:         l.LoanAmount,
			InterestRate:       l.InterestRate,
			MonthlyInstallment: l.MonthlyInstallment,
			RepaymentsLeft:     l.RepaymentsLeft(),
			IsActive:           l.IsActive,
		})
	}
	return items, nil
}
