package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

type LoanRequestInput struct {
	CustomerID   uint64          `json:"customer_id"`
	LoanAmount   decimal.Decimal `json:"loan_amount"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	Tenure       int             `json:"tenure"`
}

// EligibilityDTO mirrors one eligibility evaluation; it is never stored.
type EligibilityDTO struct {
	CustomerID            uint64          `json:"customer_id"`
	Approval              bool            `json:"approval"`
	InterestRate          decimal.Decimal `json:"interest_rate"`
	CorrectedInterestRate decimal.Decimal `json:"corrected_interest_rate"`
	Tenure                int             `json:"tenure"`
	MonthlyInstallment    decimal.Decimal `json:"monthly_installment"`
}

// OutcomeDTO is the result of one origination attempt. A rejection is a
// normal outcome, not an error: LoanID and MonthlyInstallment stay nil
// and Message carries the assembled reasons.
type OutcomeDTO struct {
	LoanID             *uint64          `json:"loan_id"`
	CustomerID         uint64           `json:"customer_id"`
	LoanApproved       bool             `json:"loan_approved"`
	Message            string           `json:"message"`
	MonthlyInstallment *decimal.Decimal `json:"monthly_installment"`
}

type CustomerSummaryDTO struct {
	ID          uint64 `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber int64  `json:"phone_number"`
	Age         int    `json:"age"`
}

type LoanDetailDTO struct {
	LoanID             uint64             `json:"loan_id"`
	Customer           CustomerSummaryDTO `json:"customer"`
	LoanAmount         decimal.Decimal    `json:"loan_amount"`
	InterestRate       decimal.Decimal    `json:"interest_rate"`
	MonthlyInstallment decimal.Decimal    `json:"monthly_installment"`
	Tenure             int                `json:"tenure"`
	StartDate          time.Time          `json:"start_date"`
	EndDate            time.Time          `json:"end_date"`
	IsActive           bool               `json:"is_active"`
}

type LoanItemDTO struct {
	LoanID             uint64          `json:"loan_id"`
	LoanAmount         decimal.Decimal `json:"loan_amount"`
	InterestRate       decimal.Decimal `json:"interest_rate"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
	RepaymentsLeft     int             `json:"repayments_left"`
	IsActive           bool            `json:"is_active"`
}
