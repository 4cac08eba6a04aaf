package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/goodmove/logistics-api/internal/api/handler"
	"github.com/goodmove/logistics-api/internal/api/middleware"
	"github.com/goodmove/logistics-api/internal/core/domain"
	"github.com/goodmove/logistics-api/internal/core/ports"
	_ "github.com/goodmove/logistics-api/internal/docs"
	"github.com/goodmove/logistics-api/internal/infrastructure/http/handlers"
)

// Deps carries everything the HTTP layer needs.
type Deps struct {
	Auth      ports.AuthService
	Billing   ports.BillingService
	Loads     ports.LoadService
	Reminders ports.ReminderService
	Admin     ports.AdminService

	Webhooks handler.WebhookParser
	Events   handler.EventSubmitter

	// Health lists the readiness checks of the configured dependencies.
	Health map[string]handlers.Checker

	JWTSecret      string
	PublishableKey string
	Logger         zerolog.Logger

	// MetricsRegisterer defaults to the global Prometheus registry.
	MetricsRegisterer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "goodmove",
		Registerer: d.MetricsRegisterer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth)
	billingHandler := handler.NewBillingHandler(d.Billing, d.PublishableKey)
	webhookHandler := handler.NewWebhookHandler(d.Webhooks, d.Events, d.Logger)
	loadHandler := handler.NewLoadHandler(d.Loads)
	reminderHandler := handler.NewReminderHandler(d.Reminders)
	adminHandler := handler.NewAdminHandler(d.Admin)

	// --- Public routes ---
	pub := e.Group("/api")
	pub.POST("/register", authHandler.Register)
	pub.POST("/login", authHandler.Login)
	pub.GET("/subscription-plans", billingHandler.Plans)
	pub.GET("/stripe-key", billingHandler.StripeKey)
	pub.POST("/webhook", webhookHandler.Handle) // authenticated by processor signature

	// --- Authenticated routes ---
	authed := e.Group("/api", middleware.Auth(d.JWTSecret))
	authed.POST("/create-customer", billingHandler.CreateCustomer)
	authed.POST("/create-subscription", billingHandler.CreateSubscription)
	authed.POST("/confirm-payment", billingHandler.ConfirmPayment)
	authed.GET("/subscription-status", billingHandler.SubscriptionStatus)
	authed.POST("/cancel-subscription", billingHandler.CancelSubscription)
	authed.POST("/loads/save", loadHandler.Save)
	authed.GET("/loads", loadHandler.List)
	authed.POST("/reminders", reminderHandler.Create)
	authed.GET("/reminders", reminderHandler.List)
	authed.GET("/referrals", authHandler.Referrals)

	admin := e.Group("/api/admin", middleware.Auth(d.JWTSecret), middleware.RBAC(domain.RoleAdmin))
	admin.GET("/users", adminHandler.Users)

	// --- Health probes (no auth required) ---
	e.GET("/health", handlers.NewHealthHandler().Liveness)
	e.GET("/health/ready", handlers.NewHealthDependenciesHandler(d.Health).Readiness)

	// --- Operations ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
