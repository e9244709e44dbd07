package groups

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/atosab2b/catalog-export/pkg/rest"
	"github.com/labstack/echo/v4"
)

const maxUploadSize = 5 << 20 // 5 MB, same cap as the admin panel enforces

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListGroups handles GET /api/grupos
func (h *Handler) ListGroups(c echo.Context) error {
	names, apiErr := h.service.ListGroups(c.Request().Context())
	if apiErr != nil {
		return apiErr
	}
	return c.JSON(http.StatusOK, echo.Map{"grupos": names})
}

// UploadGrupos handles POST /admin/upload-grupos
// Replaces the whole group membership table from an uploaded .xlsx file.
func (h *Handler) UploadGrupos(c echo.Context) error {
	file, apiErr := openUpload(c)
	if apiErr != nil {
		return apiErr
	}
	defer file.Close()

	count, apiErr := h.service.ReplaceGroupsFromSpreadsheet(c.Request().Context(), file)
	if apiErr != nil {
		return apiErr
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"filas":   count,
	})
}

// UploadOrden handles POST /admin/upload-orden
func (h *Handler) UploadOrden(c echo.Context) error {
	file, apiErr := openUpload(c)
	if apiErr != nil {
		return apiErr
	}
	defer file.Close()

	count, apiErr := h.service.ReplaceOrderFromSpreadsheet(c.Request().Context(), file)
	if apiErr != nil {
		return apiErr
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"filas":   count,
	})
}

func openUpload(c echo.Context) (multipart.File, *rest.ApiErr) {
	fileHeader, err := c.FormFile("archivo")
	if err != nil {
		return nil, rest.NewBadRequestError("falta el archivo 'archivo'")
	}

	if fileHeader.Size > maxUploadSize {
		return nil, rest.NewBadRequestError("el archivo supera el tamaño máximo de 5MB")
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
		return nil, rest.NewBadRequestError("solo se permiten archivos Excel (.xlsx)")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, rest.NewInternalServerError("error al abrir el archivo")
	}
	return file, nil
}
