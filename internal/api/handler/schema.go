package handler

import (
	"time"

	"github.com/goodmove/logistics-api/internal/core/domain"
	"github.com/goodmove/logistics-api/internal/core/ports"
)

// apiError documents the error envelope rendered by the central error handler.
type apiError struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"invalid credentials"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// --- Auth ---

type registerRequest struct {
	FirstName    string `json:"firstName"    validate:"required"`
	LastName     string `json:"lastName"     validate:"required"`
	Email        string `json:"email"        validate:"required,email"`
	Password     string `json:"password"     validate:"required,min=6"`
	Phone        string `json:"phone"        validate:"required"`
	CountryCode  string `json:"countryCode"  validate:"omitempty,startswith=+"`
	ReferralCode string `json:"referralCode"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID               string `json:"id"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	UserReferralCode string `json:"userReferralCode"`
	Subscription     string `json:"subscription"`
}

type authResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    userResponse `json:"user"`
}

type referralsResponse struct {
	Success   bool                   `json:"success"`
	Referrals []domain.ReferralEvent `json:"referrals"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:               u.ID,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Email:            u.Email,
		Role:             u.Role,
		UserReferralCode: u.ReferralCode,
		Subscription:     u.Subscription,
	}
}

// --- Billing ---

type plansResponse struct {
	Success bool          `json:"success"`
	Plans   []domain.Plan `json:"plans"`
}

type stripeKeyResponse struct {
	Success        bool   `json:"success"`
	PublishableKey string `json:"publishableKey"`
}

type createCustomerRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
	Name  string `json:"name"`
}

type createCustomerResponse struct {
	Success    bool   `json:"success"`
	CustomerID string `json:"customerId"`
}

type createSubscriptionRequest struct {
	PriceID         string `json:"priceId"         validate:"required"`
	PaymentMethodID string `json:"paymentMethodId" validate:"required"`
}

type createSubscriptionResponse struct {
	Success        bool   `json:"success"`
	SubscriptionID string `json:"subscriptionId"`
	ClientSecret   string `json:"clientSecret"`
	Status         string `json:"status"`
}

type confirmPaymentRequest struct {
	SubscriptionID string `json:"subscriptionId" validate:"required"`
}

type activationView struct {
	Plan    string     `json:"plan"`
	Status  string     `json:"status"`
	Expiry  *time.Time `json:"expiry"`
	Applied bool       `json:"applied"`
}

type confirmPaymentResponse struct {
	Success      bool           `json:"success"`
	Message      string         `json:"message"`
	Subscription activationView `json:"subscription"`
}

type subscriptionStatusResponse struct {
	Success      bool                      `json:"success"`
	Subscription domain.SubscriptionStatus `json:"subscription"`
}

type webhookAck struct {
	Received bool `json:"received"`
}

func toActivationView(r *ports.ActivationResult) activationView {
	return activationView{Plan: r.Plan, Status: r.Status, Expiry: r.Expiry, Applied: r.Applied}
}

// --- Loads and reminders ---

type saveLoadResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	LoadID  string           `json:"loadId"`
	Load    *domain.Load     `json:"load"`
	Stats   domain.LoadStats `json:"stats"`
}

type loadsResponse struct {
	Success bool           `json:"success"`
	Loads   []*domain.Load `json:"loads"`
}

type reminderRequest struct {
	Text     string `json:"text"     validate:"required"`
	DateTime string `json:"dateTime" validate:"required"`
}

type reminderResponse struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Reminder *domain.Reminder `json:"reminder"`
}

type remindersResponse struct {
	Success   bool               `json:"success"`
	Reminders []*domain.Reminder `json:"reminders"`
}

// --- Admin ---

type adminUserView struct {
	ID                   string     `json:"id"`
	FirstName            string     `json:"firstName"`
	LastName             string     `json:"lastName"`
	Email                string     `json:"email"`
	Phone                string     `json:"phone"`
	Role                 string     `json:"role"`
	RegistrationDate     time.Time  `json:"registrationDate"`
	UserReferralCode     string     `json:"userReferralCode"`
	TotalReferrals       int        `json:"totalReferrals"`
	ReferralEarnings     float64    `json:"referralEarnings"`
	Subscription         string     `json:"subscription"`
	SubscriptionExpiry   *time.Time `json:"subscriptionExpiry"`
	LoadsCount           int        `json:"loadsCount"`
	TotalRevenue         float64    `json:"totalRevenue"`
	TotalProfit          float64    `json:"totalProfit"`
	AverageMargin        float64    `json:"averageMargin"`
	IsSubscriptionActive bool       `json:"isSubscriptionActive"`
}

type adminUsersResponse struct {
	Success bool            `json:"success"`
	Users   []adminUserView `json:"users"`
}

func toAdminUserView(v ports.AdminUserView) adminUserView {
	u := v.User
	return adminUserView{
		ID:                   u.ID,
		FirstName:            u.FirstName,
		LastName:             u.LastName,
		Email:                u.Email,
		Phone:                u.Phone,
		Role:                 u.Role,
		RegistrationDate:     u.RegisteredAt,
		UserReferralCode:     u.ReferralCode,
		TotalReferrals:       u.TotalReferrals,
		ReferralEarnings:     u.ReferralEarnings,
		Subscription:         u.Subscription,
		SubscriptionExpiry:   u.SubscriptionExpiry,
		LoadsCount:           v.LoadsCount,
		TotalRevenue:         v.Stats.TotalRevenue,
		TotalProfit:          v.Stats.TotalProfit,
		AverageMargin:        v.Stats.AverageMargin,
		IsSubscriptionActive: v.IsSubscriptionActive,
	}
}
