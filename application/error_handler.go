package application

import (
	"net/http"

	"github.com/atosab2b/catalog-export/pkg/rest"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func (a *Application) CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var code int
	var message string

	if apiErr, ok := err.(*rest.ApiErr); ok {
		code = apiErr.Code
		message = apiErr.Message
		a.Logger.Debug("api error",
			zap.Int("code", apiErr.Code),
			zap.String("message", apiErr.Message),
		)
	} else if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		switch he.Code {
		case http.StatusUnauthorized:
			message = he.Error()
		default:
			if msg, ok := he.Message.(string); ok {
				message = msg
			} else {
				message = http.StatusText(he.Code)
			}
		}
	} else {
		code = http.StatusInternalServerError
		message = "Error interno del servidor"
		a.Logger.Error("unhandled error", zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, echo.Map{"error": message})
}
