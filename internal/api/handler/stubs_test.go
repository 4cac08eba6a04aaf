package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/goodmove/logistics-api/internal/api/middleware"
	"github.com/goodmove/logistics-api/internal/core/domain"
	"github.com/goodmove/logistics-api/internal/core/ports"
)

// ----- Stubs -----

type stubAuthService struct {
	registerFn  func(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error)
	loginFn     func(ctx context.Context, email, password string) (*ports.AuthResult, error)
	referralsFn func(ctx context.Context, email string) ([]domain.ReferralEvent, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Referrals(ctx context.Context, email string) ([]domain.ReferralEvent, error) {
	return s.referralsFn(ctx, email)
}

type stubBillingService struct {
	plans          []domain.Plan
	createCustomer func(ctx context.Context, email, customerEmail, name string) (string, error)
	createSub      func(ctx context.Context, email, priceID, paymentMethodID string) (*ports.CreateSubscriptionResult, error)
	confirm        func(ctx context.Context, email, subscriptionID string) (*ports.ActivationResult, error)
	status         func(ctx context.Context, email string) (*domain.SubscriptionStatus, error)
	cancel         func(ctx context.Context, email string) error
}

func (s *stubBillingService) Plans() []domain.Plan { return s.plans }

func (s *stubBillingService) CreateCustomer(ctx context.Context, email, customerEmail, name string) (string, error) {
	return s.createCustomer(ctx, email, customerEmail, name)
}

func (s *stubBillingService) CreateSubscription(ctx context.Context, email, priceID, paymentMethodID string) (*ports.CreateSubscriptionResult, error) {
	return s.createSub(ctx, email, priceID, paymentMethodID)
}

func (s *stubBillingService) ConfirmPayment(ctx context.Context, email, subscriptionID string) (*ports.ActivationResult, error) {
	return s.confirm(ctx, email, subscriptionID)
}

func (s *stubBillingService) Status(ctx context.Context, email string) (*domain.SubscriptionStatus, error) {
	return s.status(ctx, email)
}

func (s *stubBillingService) Cancel(ctx context.Context, email string) error {
	return s.cancel(ctx, email)
}

func (s *stubBillingService) HandleWebhookEvent(context.Context, ports.WebhookEvent) error {
	return nil
}

type stubLoadService struct {
	saveFn func(ctx context.Context, email string, payload map[string]any) (*ports.SaveLoadResult, error)
	listFn func(ctx context.Context, email string) ([]*domain.Load, error)
}

func (s *stubLoadService) SaveLoad(ctx context.Context, email string, payload map[string]any) (*ports.SaveLoadResult, error) {
	return s.saveFn(ctx, email, payload)
}

func (s *stubLoadService) ListLoads(ctx context.Context, email string) ([]*domain.Load, error) {
	return s.listFn(ctx, email)
}

type stubReminderService struct {
	setFn  func(ctx context.Context, email, text string, at time.Time) (*domain.Reminder, error)
	listFn func(ctx context.Context, email string) ([]*domain.Reminder, error)
}

func (s *stubReminderService) SetReminder(ctx context.Context, email, text string, at time.Time) (*domain.Reminder, error) {
	return s.setFn(ctx, email, text, at)
}

func (s *stubReminderService) ListReminders(ctx context.Context, email string) ([]*domain.Reminder, error) {
	return s.listFn(ctx, email)
}

type stubAdminService struct {
	listFn func(ctx context.Context, requesterEmail string) ([]ports.AdminUserView, error)
}

func (s *stubAdminService) ListUsers(ctx context.Context, requesterEmail string) ([]ports.AdminUserView, error) {
	return s.listFn(ctx, requesterEmail)
}

// ----- Helpers -----

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// newJSONContext builds a request context. An empty email leaves it unauthenticated.
func newJSONContext(e *echo.Echo, method, target, body, email, role string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if email != "" {
		c.Set(middleware.KeyEmail, email)
		c.Set(middleware.KeyRole, role)
	}
	return c, rec
}
