package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	customerDomain "credit-approval-service/internal/domain/customer"
	loanDomain "credit-approval-service/internal/domain/loan"
	loanUC "credit-approval-service/internal/usecase/loan"
	"credit-approval-service/pkg/emi"
)

type LoanHandler struct{ uc *loanUC.Usecase }

func NewLoanHandler(uc *loanUC.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type loanReq struct {
	CustomerID   uint64  `json:"customer_id" validate:"required,gt=0"`
	LoanAmount   float64 `json:"loan_amount" validate:"required,gt=0,dec2"`
	InterestRate float64 `json:"interest_rate" validate:"gte=0,dec2"`
	Tenure       int     `json:"tenure" validate:"required,gt=0"`
}

func (r loanReq) toInput() loanUC.LoanRequestInput {
	return loanUC.LoanRequestInput{
		CustomerID:   r.CustomerID,
		LoanAmount:   decimal.NewFromFloat(r.LoanAmount),
		InterestRate: decimal.NewFromFloat(r.InterestRate),
		Tenure:       r.Tenure,
	}
}

func (h *LoanHandler) CheckEligibility(c echo.Context) error {
	var req loanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	dto, err := h.uc.CheckEligibility(c.Request().Context(), req.toInput())
	if err != nil {
		return loanError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// CreateLoan returns 201 when the loan is booked and 200 when the
// request is rejected: a rejection is a decision, not a failure.
func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req loanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	dto, err := h.uc.Create(c.Request().Context(), req.toInput())
	if err != nil {
		return loanError(c, err)
	}
	if dto.LoanApproved {
		return c.JSON(http.StatusCreated, dto)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ViewLoan(c echo.Context) error {
	id, err := parseID(c.Param("loan_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan_id"})
	}
	dto, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return loanError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ViewLoans(c echo.Context) error {
	id, err := parseID(c.Param("customer_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid customer_id"})
	}
	items, err := h.uc.ListByCustomer(c.Request().Context(), id)
	if err != nil {
		return loanError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func loanError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, customerDomain.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "customer not found"})
	case errors.Is(err, loanDomain.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "loan not found"})
	case errors.Is(err, emi.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan terms"})
	default:
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
