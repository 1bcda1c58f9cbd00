package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"credit-approval-service/internal/domain/customer"
	"credit-approval-service/internal/domain/loan"
	customeruc "credit-approval-service/internal/usecase/customer"
)

const (
	customerFile = "customer_data.csv"
	loanFile     = "loan_data.csv"
)

// Usecase loads seed data exported from the legacy books. Idempotent:
// rows upsert by id, so re-running the job is safe. A bad row is counted
// and skipped, never fatal for the file.
type Usecase struct {
	customers customer.Repository
	loans     loan.Repository
	dataDir   string
	now       func() time.Time
}

func NewUsecase(customers customer.Repository, loans loan.Repository, dataDir string) *Usecase {
	return &Usecase{customers: customers, loans: loans, dataDir: dataDir, now: time.Now}
}

func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

type FileReport struct {
	File    string `json:"file"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Errors  int    `json:"errors"`
}

type Report struct {
	Customers FileReport `json:"customers"`
	Loans     FileReport `json:"loans"`
}

func (u *Usecase) Run(ctx context.Context) (*Report, error) {
	customers, err := u.ingestCustomers(ctx)
	if err != nil {
		return nil, err
	}
	loans, err := u.ingestLoans(ctx)
	if err != nil {
		return nil, err
	}
	return &Report{Customers: *customers, Loans: *loans}, nil
}

func (u *Usecase) ingestCustomers(ctx context.Context) (*FileReport, error) {
	report := &FileReport{File: customerFile}
	rows, err := readCSV(filepath.Join(u.dataDir, customerFile))
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if err := u.upsertCustomer(ctx, row, report); err != nil {
			log.Printf("ingest: %s row %d: %v", customerFile, i+1, err)
			report.Errors++
		}
	}
	return report, nil
}

func (u *Usecase) upsertCustomer(ctx context.Context, row record, report *FileReport) error {
	id, err := row.uint64At("customer_id")
	if err != nil {
		return err
	}
	age, _ := row.intAt("age")
	phone, _ := row.int64At("phone_number")
	salary, err := row.int64At("monthly_salary")
	if err != nil {
		return err
	}
	limit, err := row.int64At("approved_limit")
	if err != nil {
		// Legacy exports sometimes miss the column; derive it the way
		// registration does.
		limit = customeruc.RoundToNearestLakh(36 * salary)
	}
	debt := decimal.Zero
	if raw := row.at("current_debt"); raw != "" {
		if debt, err = decimal.NewFromString(raw); err != nil {
			return fmt.Errorf("current_debt: %w", err)
		}
	}

	existing, err := u.customers.GetByID(ctx, id)
	switch {
	case err == nil:
		existing.FirstName = row.at("first_name")
		existing.LastName = row.at("last_name")
		existing.Age = age
		existing.PhoneNumber = phone
		existing.MonthlySalary = salary
		existing.ApprovedLimit = limit
		existing.CurrentDebt = debt
		if err := u.customers.Save(ctx, existing); err != nil {
			return err
		}
		report.Updated++
	case errors.Is(err, gorm.ErrRecordNotFound):
		c := &customer.Customer{
			ID:            id,
			FirstName:     row.at("first_name"),
			LastName:      row.at("last_name"),
			Age:           age,
			PhoneNumber:   phone,
			MonthlySalary: salary,
			ApprovedLimit: limit,
			CurrentDebt:   debt,
		}
		if err := u.customers.Create(ctx, c); err != nil {
			return err
		}
		report.Created++
	default:
		return err
	}
	return nil
}

func (u *Usecase) ingestLoans(ctx context.Context) (*FileReport, error) {
	report := &FileReport{File: loanFile}
	rows, err := readCSV(filepath.Join(u.dataDir, loanFile))
	if err != nil {
		return nil, err
	}
	today := u.now().UTC()
	for i, row := range rows {
		if err := u.upsertLoan(ctx, row, today, report); err != nil {
			log.Printf("ingest: %s row %d: %v", loanFile, i+1, err)
			report.Errors++
		}
	}
	return report, nil
}

func (u *Usecase) upsertLoan(ctx context.Context, row record, today time.Time, report *FileReport) error {
	id, err := row.uint64At("loan_id")
	if err != nil {
		return err
	}
	customerID, err := row.uint64At("customer_id")
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(row.at("loan_amount"))
	if err != nil {
		return fmt.Errorf("loan_amount: %w", err)
	}
	rate, err := decimal.NewFromString(row.at("interest_rate"))
	if err != nil {
		return fmt.Errorf("interest_rate: %w", err)
	}
	installment, err := decimal.NewFromString(row.at("monthly_installment"))
	if err != nil {
		return fmt.Errorf("monthly_installment: %w", err)
	}
	tenure, err := row.intAt("tenure")
	if err != nil {
		return err
	}
	paidOnTime, _ := row.intAt("emis_paid_on_time")
	start, err := parseDate(row.at("start_date"))
	if err != nil {
		return fmt.Errorf("start_date: %w", err)
	}
	end, err := parseDate(row.at("end_date"))
	if err != nil {
		return fmt.Errorf("end_date: %w", err)
	}

	l := loan.Loan{
		ID:                 id,
		CustomerID:         customerID,
		LoanAmount:         amount,
		Tenure:             tenure,
		InterestRate:       rate,
		MonthlyInstallment: installment,
		EMIsPaidOnTime:     paidOnTime,
		StartDate:          start,
		EndDate:            end,
		IsActive:           !end.Before(today),
	}

	existing, err := u.loans.GetByID(ctx, id)
	switch {
	case err == nil:
		l.CreatedAt = existing.CreatedAt
		if err := u.loans.Save(ctx, &l); err != nil {
			return err
		}
		report.Updated++
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := u.loans.Create(ctx, &l); err != nil {
			return err
		}
		report.Created++
	default:
		return err
	}
	return nil
}

// record is a header-indexed CSV row. Headers are normalized to
// lower_snake_case, so "Monthly Salary" and "monthly_salary" both work.
type record map[string]string

func (r record) at(key string) string { return strings.TrimSpace(r[key]) }

func (r record) intAt(key string) (int, error) {
	v := r.at(key)
	if v == "" {
		return 0, fmt.Errorf("%s: empty", key)
	}
	return strconv.Atoi(v)
}

func (r record) int64At(key string) (int64, error) {
	v := r.at(key)
	if v == "" {
		return 0, fmt.Errorf("%s: empty", key)
	}
	return strconv.ParseInt(v, 10, 64)
}

func (r record) uint64At(key string) (uint64, error) {
	v := r.at(key)
	if v == "" {
		return 0, fmt.Errorf("%s: empty", key)
	}
	return strconv.ParseUint(v, 10, 64)
}

func normalizeHeader(h string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
}

func readCSV(path string) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", filepath.Base(path), err)
	}
	for i := range header {
		header[i] = normalizeHeader(header[i])
	}

	var rows []record
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(record, len(header))
		for i, h := range header {
			if i < len(fields) {
				row[h] = fields[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
