package auth

import (
	"net/http"

	pkgauth "github.com/atosab2b/catalog-export/pkg/auth"
	"github.com/atosab2b/catalog-export/pkg/rest"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	service   Service
	jwtSecret string
}

func NewHandler(service Service, jwtSecret string) *Handler {
	return &Handler{service: service, jwtSecret: jwtSecret}
}

// Login handles POST /admin/login
func (h *Handler) Login(c echo.Context) error {
	var input LoginInput
	if err := c.Bind(&input); err != nil {
		return rest.NewUnprocessableEntity("error al procesar la petición")
	}
	if input.Password == "" {
		return rest.NewBadRequestError("la contraseña es obligatoria")
	}

	tokens, apiErr := h.service.Login(c.Request().Context(), input.Password)
	if apiErr != nil {
		return apiErr
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"tokens":  tokens,
	})
}

// Refresh handles POST /admin/refresh
func (h *Handler) Refresh(c echo.Context) error {
	var input RefreshInput
	if err := c.Bind(&input); err != nil {
		return rest.NewUnprocessableEntity("error al procesar la petición")
	}

	tokens, apiErr := h.service.RefreshTokens(c.Request().Context(), input.RefreshToken)
	if apiErr != nil {
		return apiErr
	}
	return c.JSON(http.StatusOK, tokens)
}

// Logout handles POST /admin/logout
func (h *Handler) Logout(c echo.Context) error {
	var input RefreshInput
	if err := c.Bind(&input); err != nil {
		return rest.NewUnprocessableEntity("error al procesar la petición")
	}

	if err := h.service.Logout(c.Request().Context(), input.RefreshToken); err != nil {
		return rest.NewInternalServerError("error al cerrar sesión")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Status handles GET /admin/status
// Unauthenticated probe: reports whether the bearer token is a live admin session.
func (h *Handler) Status(c echo.Context) error {
	isAdmin := false

	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if len(authHeader) > len(prefix) && authHeader[:len(prefix)] == prefix {
		tokenStr := authHeader[len(prefix):]
		claims := new(pkgauth.JWTCustomClaims)
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(h.jwtSecret), nil
		})
		if err == nil && token.Valid && claims.Role == adminRole {
			isAdmin = true
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"isAdmin": isAdmin})
}
