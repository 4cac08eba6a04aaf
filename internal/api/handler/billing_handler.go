package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/goodmove/logistics-api/internal/core/ports"
)

// BillingHandler serves the plan catalog and the subscription lifecycle.
type BillingHandler struct {
	service        ports.BillingService
	publishableKey string
}

func NewBillingHandler(service ports.BillingService, publishableKey string) *BillingHandler {
	return &BillingHandler{service: service, publishableKey: publishableKey}
}

// Plans handles GET /api/subscription-plans.
//
// @Summary      List subscription plans
// @Tags         billing
// @Produce      json
// @Success      200  {object}  plansResponse
// @Router       /api/subscription-plans [get]
func (h *BillingHandler) Plans(c echo.Context) error {
	return c.JSON(http.StatusOK, plansResponse{Success: true, Plans: h.service.Plans()})
}

// StripeKey handles GET /api/stripe-key.
//
// @Summary      Payment processor publishable key
// @Tags         billing
// @Produce      json
// @Success      200  {object}  stripeKeyResponse
// @Router       /api/stripe-key [get]
func (h *BillingHandler) StripeKey(c echo.Context) error {
	return c.JSON(http.StatusOK, stripeKeyResponse{Success: true, PublishableKey: h.publishableKey})
}

// CreateCustomer handles POST /api/create-customer.
//
// @Summary      Create a processor customer for the caller
// @Tags         billing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createCustomerRequest  true  "Customer details"
// @Success      200   {object}  createCustomerResponse
// @Failure      400   {object}  apiError
// @Failure      402   {object}  apiError
// @Router       /api/create-customer [post]
func (h *BillingHandler) CreateCustomer(c echo.Context) error {
	email, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req createCustomerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	customerID, err := h.service.CreateCustomer(c.Request().Context(), email, req.Email, req.Name)
	observeBilling("create_customer", err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, createCustomerResponse{Success: true, CustomerID: customerID})
}

// CreateSubscription handles POST /api/create-subscription.
//
// @Summary      Start a subscription and return the payment client secret
// @Tags         billing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createSubscriptionRequest  true  "Plan price and payment method"
// @Success      200   {object}  createSubscriptionResponse
// @Failure      400   {object}  apiError
// @Failure      402   {object}  apiError
// @Failure      422   {object}  apiError
// @Router       /api/create-subscription [post]
func (h *BillingHandler) CreateSubscription(c echo.Context) error {
	email, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req createSubscriptionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.service.CreateSubscription(c.Request().Context(), email, req.PriceID, req.PaymentMethodID)
	observeBilling("create_subscription", err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, createSubscriptionResponse{
		Success:        true,
		SubscriptionID: res.SubscriptionID,
		ClientSecret:   res.ClientSecret,
		Status:         res.Status,
	})
}

// ConfirmPayment handles POST /api/confirm-payment.
//
// @Summary      Confirm payment and activate the subscription
// @Tags         billing
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      confirmPaymentRequest  true  "Subscription to confirm"
// @Success      200   {object}  confirmPaymentResponse
// @Failure      400   {object}  apiError
// @Failure      402   {object}  apiError
// @Failure      403   {object}  apiError
// @Failure      422   {object}  apiError
// @Router       /api/confirm-payment [post]
func (h *BillingHandler) ConfirmPayment(c echo.Context) error {
	email, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req confirmPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.service.ConfirmPayment(c.Request().Context(), email, req.SubscriptionID)
	observeBilling("confirm_payment", err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, confirmPaymentResponse{
		Success:      true,
		Message:      "Payment confirmed and subscription activated",
		Subscription: toActivationView(res),
	})
}

// SubscriptionStatus handles GET /api/subscription-status.
//
// @Summary      Current subscription status
// @Tags         billing
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  subscriptionStatusResponse
// @Failure      404  {object}  apiError
// @Router       /api/subscription-status [get]
func (h *BillingHandler) SubscriptionStatus(c echo.Context) error {
	email, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	status, err := h.service.Status(c.Request().Context(), email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, subscriptionStatusResponse{Success: true, Subscription: *status})
}

// CancelSubscription handles POST /api/cancel-subscription.
//
// @Summary      Cancel the caller's subscription
// @Tags         billing
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      402  {object}  apiError
// @Failure      404  {object}  apiError
// @Router       /api/cancel-subscription [post]
func (h *BillingHandler) CancelSubscription(c echo.Context) error {
	email, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	err = h.service.Cancel(c.Request().Context(), email)
	observeBilling("cancel", err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "Subscription cancelled successfully"})
}
