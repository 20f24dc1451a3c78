package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/99minutos/apitoken-system/internal/api/handler"
	"github.com/99minutos/apitoken-system/internal/api/middleware"
	"github.com/99minutos/apitoken-system/internal/core/domain"
	"github.com/99minutos/apitoken-system/internal/core/ports"
)

// Deps are the services and probes the HTTP layer is built on.
type Deps struct {
	Auth    ports.AuthService
	Tokens  ports.TokenService
	Topups  ports.TopupService
	Sweeper ports.Sweeper
	// Ready is checked by /health/ready, keyed by dependency name.
	Ready map[string]handler.Pinger

	SessionSecret string
	Logger        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("apitoken_http"))

	authMiddleware := middleware.Auth(deps.SessionSecret)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- API token routes ---
	tokenHandler := handler.NewAPITokenHandler(deps.Tokens, deps.Topups)
	v1 := e.Group("/v1")

	// isvalid is called by downstream API servers holding only the API token.
	v1.POST("/apitoken/isvalid", tokenHandler.IsValid)

	apitoken := v1.Group("/apitoken", authMiddleware)
	apitoken.GET("", tokenHandler.Current)
	apitoken.POST("/new", tokenHandler.New)
	apitoken.GET("/address/:id", tokenHandler.Address)
	apitoken.POST("/update-credit/:id", tokenHandler.UpdateCredit)

	// --- Admin routes ---
	adminHandler := handler.NewAdminHandler(deps.Sweeper)
	admin := v1.Group("/admin", authMiddleware, adminOnly)
	admin.POST("/sweep/:hd_index", adminHandler.Sweep)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Ready)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
