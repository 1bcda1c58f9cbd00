package customer

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("customer not found")

type Customer struct {
	ID            uint64          `gorm:"primaryKey;column:id" json:"customer_id"`
	FirstName     string          `gorm:"size:100" json:"first_name"`
	LastName      string          `gorm:"size:100" json:"last_name"`
	Age           int             `json:"age"`
	PhoneNumber   int64           `gorm:"index:idx_customers_phone" json:"phone_number"`
	MonthlySalary int64           `json:"monthly_salary"`
	ApprovedLimit int64           `json:"approved_limit"`
	CurrentDebt   decimal.Decimal `gorm:"type:decimal(15,2)" json:"current_debt"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }

func (c *Customer) FullName() string { return c.FirstName + " " + c.LastName }
