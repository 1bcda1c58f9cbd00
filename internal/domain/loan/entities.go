package loan

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("loan not found")

// Loan terms (amount, rate, installment, tenure, dates) are fixed at
// origination and never rewritten; only emis_paid_on_time and is_active
// move afterwards, and that is the repayment tracker's job.
type Loan struct {
	ID                 uint64          `gorm:"primaryKey;column:id" json:"loan_id"`
	CustomerID         uint64          `gorm:"index:idx_loans_customer" json:"customer_id"`
	LoanAmount         decimal.Decimal `gorm:"type:decimal(15,2)" json:"loan_amount"`
	Tenure             int             `json:"tenure"`
	InterestRate       decimal.Decimal `gorm:"type:decimal(6,2)" json:"interest_rate"`
	MonthlyInstallment decimal.Decimal `gorm:"type:decimal(15,2)" json:"monthly_installment"`
	EMIsPaidOnTime     int             `gorm:"column:emis_paid_on_time" json:"emis_paid_on_time"`
	StartDate          time.Time       `gorm:"type:date" json:"start_date"`
	EndDate            time.Time       `gorm:"type:date" json:"end_date"`
	IsActive           bool            `json:"is_active"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// RepaymentsLeft never reports negative even if the tracker overshoots.
func (l *Loan) RepaymentsLeft() int {
	if left := l.Tenure - l.EMIsPaidOnTime; left > 0 {
		return left
	}
	return 0
}
