package export

import (
	"fmt"
	"net/http"

	"github.com/atosab2b/catalog-export/pkg/rest"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreateExport handles POST /api/genera-excel-final-async
// Registers the job and answers immediately with its id.
func (h *Handler) CreateExport(c echo.Context) error {
	var input CreateExportInput
	if err := c.Bind(&input); err != nil {
		return rest.NewUnprocessableEntity("error al procesar la petición")
	}

	result, apiErr := h.service.StartExport(input)
	if apiErr != nil {
		return apiErr
	}

	return c.JSON(http.StatusAccepted, result)
}

// Progress handles GET /api/progreso/:jobId
func (h *Handler) Progress(c echo.Context) error {
	result, apiErr := h.service.Progress(c.Param("jobId"))
	if apiErr != nil {
		return apiErr
	}
	return c.JSON(http.StatusOK, result)
}

// Download handles GET /api/descarga-excel/:jobId
// Streams the finished workbook; 404 until the job completes.
func (h *Handler) Download(c echo.Context) error {
	result, filename, apiErr := h.service.Download(c.Param("jobId"))
	if apiErr != nil {
		return apiErr
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", result.Bytes())
}
