package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/apitoken-system/internal/core/domain"
)

// ctxClaims extracts the session claims injected by the Auth middleware.
// An empty user_id means the middleware did not run.
func ctxClaims(c echo.Context) (userID, role string, err error) {
	userID, _ = c.Get("user_id").(string)
	if userID == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	role, _ = c.Get("role").(string)
	return userID, role, nil
}

// authorizeTarget resolves the :id path parameter. Users may only act on
// their own account; admins may act on any.
func authorizeTarget(c echo.Context) (string, error) {
	userID, role, err := ctxClaims(c)
	if err != nil {
		return "", err
	}
	target := c.Param("id")
	if target == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "missing user id")
	}
	if target != userID && role != domain.RoleAdmin {
		return "", domain.ErrForbidden
	}
	return target, nil
}
