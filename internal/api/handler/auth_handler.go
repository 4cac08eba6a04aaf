package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/goodmove/logistics-api/internal/api/metrics"
	"github.com/goodmove/logistics-api/internal/core/domain"
	"github.com/goodmove/logistics-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new user account and returns a session token.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  apiError
// @Failure      409   {object}  apiError
// @Failure      500   {object}  apiError
// @Router       /api/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Password:     req.Password,
		Phone:        req.Phone,
		CountryCode:  req.CountryCode,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		return err
	}
	metrics.RegistrationsTotal.WithLabelValues(strconv.FormatBool(req.ReferralCode != "")).Inc()

	return c.JSON(http.StatusOK, authResponse{
		Success: true,
		Message: "Registration successful",
		Token:   res.Token,
		User:    toUserResponse(res.User),
	})
}

// Login authenticates a user and returns a JWT token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  apiError
// @Failure      401   {object}  apiError
// @Router       /api/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{
		Success: true,
		Message: "Login successful",
		Token:   res.Token,
		User:    toUserResponse(res.User),
	})
}

// Referrals lists the registrations credited to the caller's referral code.
//
// @Summary      List referral events
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  referralsResponse
// @Failure      401  {object}  apiError
// @Router       /api/referrals [get]
func (h *AuthHandler) Referrals(c echo.Context) error {
	email, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	events, err := h.authService.Referrals(c.Request().Context(), email)
	if err != nil {
		return err
	}
	if events == nil {
		events = []domain.ReferralEvent{}
	}

	return c.JSON(http.StatusOK, referralsResponse{Success: true, Referrals: events})
}
