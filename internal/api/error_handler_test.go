package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/apitoken-system/internal/core/domain"
)

func TestResolveError(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrInsufficientCredit, http.StatusPaymentRequired},
		{fmt.Errorf("purchase: %w", domain.ErrInvalidTier), http.StatusUnprocessableEntity},
		{domain.ErrInvalidRequest, http.StatusUnprocessableEntity},
		{domain.ErrDerivation, http.StatusUnprocessableEntity},
		{domain.ErrUserNotFound, http.StatusNotFound},
		{domain.ErrUserExists, http.StatusConflict},
		{domain.ErrConflict, http.StatusConflict},
		{fmt.Errorf("sweep hd index 3: %w", domain.ErrNoUTXOs), http.StatusConflict},
		{domain.ErrSweepInProgress, http.StatusConflict},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest},
		{errors.New("mongo: connection reset"), http.StatusInternalServerError},
	}

	e := echo.New()
	for _, tc := range cases {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		code, msg := resolveError(tc.err, zerolog.Nop(), c)
		if code != tc.code {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.code, code)
		}
		if msg == "" {
			t.Fatalf("%v: empty message", tc.err)
		}
	}
}

func TestHTTPErrorHandler_HidesInternalErrors(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(errors.New("dial tcp 10.0.0.3:27017: refused"), c)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"error\":\"internal server error\"}\n" {
		t.Fatalf("unexpected body %q", got)
	}
}
