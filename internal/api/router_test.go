package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/99minutos/apitoken-system/internal/api/handler"
	"github.com/99minutos/apitoken-system/internal/core/domain"
	"github.com/99minutos/apitoken-system/internal/core/ports"
)

const testSessionSecret = "session-secret"

type fakeAuth struct{}

func (fakeAuth) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	return nil, domain.ErrUserExists
}

func (fakeAuth) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return "", nil, domain.ErrInvalidCredentials
}

type fakeTokens struct{}

func (fakeTokens) Purchase(ctx context.Context, userID string, input ports.PurchaseInput) (*ports.PurchaseResult, error) {
	if input.APILevel == 60 {
		return nil, domain.ErrInsufficientCredit
	}
	return &ports.PurchaseResult{APIToken: "tok", APILevel: input.APILevel, Credit: decimal.Zero}, nil
}

func (fakeTokens) IsValid(ctx context.Context, token string) domain.TokenStatus {
	return domain.TokenStatus{}
}

func (fakeTokens) CurrentToken(ctx context.Context, userID string) (string, error) {
	return "tok-" + userID, nil
}

func (fakeTokens) DepositAddress(ctx context.Context, userID string) (string, error) {
	return "", domain.ErrUserNotFound
}

type fakeTopups struct{}

func (fakeTopups) Topup(ctx context.Context, userID string) (*ports.TopupResult, error) {
	return &ports.TopupResult{Credit: decimal.Zero}, domain.ErrNoUTXOs
}

type fakeSweeper struct{}

func (fakeSweeper) Queue(ctx context.Context, hdIndex int) (string, error) {
	return "txid", nil
}

func sessionToken(t *testing.T, userID, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":    userID,
		"email": userID + "@example.com",
		"role":  role,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(testSessionSecret))
	if err != nil {
		t.Fatalf("sign session: %v", err)
	}
	return signed
}

// TestRouter builds the router once; the prometheus middleware registers
// its collectors globally.
func TestRouter(t *testing.T) {
	e := NewRouter(Deps{
		Auth:          fakeAuth{},
		Tokens:        fakeTokens{},
		Topups:        fakeTopups{},
		Sweeper:       fakeSweeper{},
		Ready:         map[string]handler.Pinger{},
		SessionSecret: testSessionSecret,
		Logger:        zerolog.Nop(),
	})

	user := "Bearer " + sessionToken(t, "u1", domain.RoleUser)
	admin := "Bearer " + sessionToken(t, "root", domain.RoleAdmin)

	cases := []struct {
		name, method, path, auth, body string
		code                           int
	}{
		{"liveness", http.MethodGet, "/health", "", "", http.StatusOK},
		{"readiness", http.MethodGet, "/health/ready", "", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", "", http.StatusOK},
		{"register conflict", http.MethodPost, "/auth/register", "", `{"email":"a@example.com","password":"longenough"}`, http.StatusConflict},
		{"login rejected", http.MethodPost, "/auth/login", "", `{"email":"a@example.com","password":"x"}`, http.StatusUnauthorized},
		{"isvalid without session", http.MethodPost, "/v1/apitoken/isvalid", "", `{"token":"x"}`, http.StatusOK},
		{"current requires session", http.MethodGet, "/v1/apitoken", "", "", http.StatusUnauthorized},
		{"current", http.MethodGet, "/v1/apitoken", user, "", http.StatusOK},
		{"purchase", http.MethodPost, "/v1/apitoken/new", user, `{"apiLevel":40}`, http.StatusOK},
		{"purchase insufficient credit", http.MethodPost, "/v1/apitoken/new", user, `{"apiLevel":60}`, http.StatusPaymentRequired},
		{"purchase invalid", http.MethodPost, "/v1/apitoken/new", user, `{"apiLevel":-3}`, http.StatusUnprocessableEntity},
		{"address of other user", http.MethodGet, "/v1/apitoken/address/u2", user, "", http.StatusForbidden},
		{"address unknown user", http.MethodGet, "/v1/apitoken/address/u1", user, "", http.StatusNotFound},
		{"update credit nothing to sweep", http.MethodPost, "/v1/apitoken/update-credit/u1", user, "", http.StatusConflict},
		{"sweep as user", http.MethodPost, "/v1/admin/sweep/4", user, "", http.StatusForbidden},
		{"sweep as admin", http.MethodPost, "/v1/admin/sweep/4", admin, "", http.StatusOK},
		{"sweep bad index", http.MethodPost, "/v1/admin/sweep/x", admin, "", http.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d: %s", tc.code, rec.Code, rec.Body.String())
			}
			if rec.Code >= 400 {
				var body errorResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error == "" {
					t.Fatalf("expected error envelope, got %s", rec.Body.String())
				}
			}
		})
	}
}
