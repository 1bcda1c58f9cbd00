package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	customerDomain "credit-approval-service/internal/domain/customer"
	customerUC "credit-approval-service/internal/usecase/customer"
)

type CustomerHandler struct{ uc *customerUC.Usecase }

func NewCustomerHandler(uc *customerUC.Usecase) *CustomerHandler {
	return &CustomerHandler{uc: uc}
}

type registerReq struct {
	FirstName     string `json:"first_name" validate:"required"`
	LastName      string `json:"last_name" validate:"required"`
	Age           int    `json:"age" validate:"required,gte=18"`
	MonthlyIncome int64  `json:"monthly_income" validate:"required,gt=0"`
	PhoneNumber   int64  `json:"phone_number" validate:"required,gt=0"`
}

func (h *CustomerHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	dto, err := h.uc.Register(c.Request().Context(), customerUC.RegisterInput{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Age:           req.Age,
		MonthlyIncome: req.MonthlyIncome,
		PhoneNumber:   req.PhoneNumber,
	})
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *CustomerHandler) GetCustomer(c echo.Context) error {
	id, err := parseID(c.Param("customer_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid customer_id"})
	}
	dto, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, customerDomain.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "customer not found"})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
	return c.JSON(http.StatusOK, dto)
}
