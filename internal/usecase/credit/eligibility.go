package credit

import (
	"github.com/shopspring/decimal"

	"credit-approval-service/internal/domain/customer"
	"credit-approval-service/internal/domain/loan"
	"credit-approval-service/pkg/emi"
)

var half = decimal.RequireFromString("0.5")

// Rate slabs, ordered best score first, first-match on score > minScore.
// A request at or below the slab floor is corrected up to the floor; a
// score clearing no slab is rejected outright.
type rateSlab struct {
	minScore int
	floor    decimal.Decimal // zero value = no correction
}

var rateSlabs = []rateSlab{
	{minScore: 50},
	{minScore: 30, floor: decimal.RequireFromString("12.00")},
	{minScore: 10, floor: decimal.RequireFromString("16.00")},
}

// Decision is the ephemeral result of one eligibility evaluation. It is
// produced fresh on every call and never cached: the customer's active
// loans and debt can change between calls.
type Decision struct {
	CustomerID            uint64
	Approved              bool
	Score                 int
	InterestRate          decimal.Decimal
	CorrectedInterestRate decimal.Decimal
	Tenure                int
	MonthlyInstallment    decimal.Decimal

	// Rejection facts, kept for the caller's reason assembly.
	ScoreTooLow        bool
	CurrentEMIsTooHigh bool
}

// Decide evaluates a loan request against the customer's history.
//
// Read-only and idempotent: identical inputs always yield an identical
// decision, so it serves both the preview endpoint and the locked
// origination path. The only error source is invalid numeric input to
// the EMI calculation.
func (s *Scorer) Decide(c *customer.Customer, history []loan.Loan, amount, rate decimal.Decimal, tenure int) (*Decision, error) {
	score := s.Score(c, history)

	currentEMITotal := decimal.Zero
	for i := range history {
		if history[i].IsActive {
			currentEMITotal = currentEMITotal.Add(history[i].MonthlyInstallment)
		}
	}
	emiLimit := decimal.NewFromInt(c.MonthlySalary).Mul(half)

	d := &Decision{
		CustomerID:            c.ID,
		Score:                 score,
		InterestRate:          rate,
		CorrectedInterestRate: rate,
		Tenure:                tenure,
		// Both facts are evaluated regardless of which step rejects, so
		// a rejection message can name every condition that applies.
		ScoreTooLow:        score <= rateSlabs[len(rateSlabs)-1].minScore,
		CurrentEMIsTooHigh: currentEMITotal.GreaterThanOrEqual(emiLimit),
	}

	// Requested principal beyond the approved limit: reject, but still
	// return the requested-rate EMI for caller transparency.
	if amount.GreaterThan(decimal.NewFromInt(c.ApprovedLimit)) {
		installment, err := emi.Compute(amount, rate, tenure)
		if err != nil {
			return nil, err
		}
		d.MonthlyInstallment = installment
		return d, nil
	}

	newEMI, err := emi.Compute(amount, rate, tenure)
	if err != nil {
		return nil, err
	}

	// Existing obligations already consume the affordability ceiling.
	if d.CurrentEMIsTooHigh {
		d.MonthlyInstallment = newEMI
		return d, nil
	}

	approved := false
	for _, slab := range rateSlabs {
		if score > slab.minScore {
			approved = true
			if !slab.floor.IsZero() && rate.LessThanOrEqual(slab.floor) {
				d.CorrectedInterestRate = slab.floor
			}
			break
		}
	}

	finalEMI, err := emi.Compute(amount, d.CorrectedInterestRate, tenure)
	if err != nil {
		return nil, err
	}
	d.MonthlyInstallment = finalEMI

	// The new obligation itself must not breach the ceiling.
	if approved && currentEMITotal.Add(finalEMI).GreaterThan(emiLimit) {
		approved = false
	}
	d.Approved = approved
	return d, nil
}
