package ports

import (
	"context"

	"github.com/goodmove/logistics-api/internal/core/domain"
)

// RegisterInput carries the registration form.
type RegisterInput struct {
	FirstName    string
	LastName     string
	Email        string
	Password     string
	Phone        string
	CountryCode  string
	ReferralCode string // optional; unknown codes are ignored
}

// AuthResult is returned by successful registration and login.
type AuthResult struct {
	Token string
	User  *domain.User
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Referrals(ctx context.Context, email string) ([]domain.ReferralEvent, error)
}
