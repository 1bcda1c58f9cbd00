package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	ingestUC "credit-approval-service/internal/usecase/ingest"
)

type IngestHandler struct{ uc *ingestUC.Usecase }

func NewIngestHandler(uc *ingestUC.Usecase) *IngestHandler { return &IngestHandler{uc: uc} }

// Ingest loads the seed CSVs synchronously; the report says what landed.
func (h *IngestHandler) Ingest(c echo.Context) error {
	report, err := h.uc.Run(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, report)
}
