package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/goodmove/logistics-api/internal/core/domain"
	"github.com/goodmove/logistics-api/internal/core/ports"
)

const (
	minPasswordLength      = 6
	referralCodeAttempts   = 5
	defaultSessionTokenTTL = 30 * 24 * time.Hour
)

// AuthService implements registration, login and referral crediting.
type AuthService struct {
	users     ports.UserRepository
	referrals ports.ReferralRepository
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

func NewAuthService(users ports.UserRepository, referrals ports.ReferralRepository, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = defaultSessionTokenTTL
	}
	return &AuthService{
		users:     users,
		referrals: referrals,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// Register creates a user without a subscription and, when a known referral code
// is supplied, credits its owner. A bad referral code never fails registration.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	email := normalizeEmail(in.Email)
	if in.FirstName == "" || in.LastName == "" || email == "" || in.Password == "" || in.Phone == "" {
		return nil, domain.NewValidationError("all fields are required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, domain.NewValidationError(fmt.Sprintf("password must be at least %d characters long", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	code, err := s.uniqueReferralCode(ctx)
	if err != nil {
		return nil, err
	}

	countryCode := strings.TrimSpace(in.CountryCode)
	phone := strings.TrimSpace(in.Phone)
	if countryCode != "" {
		phone = countryCode + " " + phone
	} else {
		countryCode = domain.DefaultCountryCode
	}

	user := &domain.User{
		ID:               uuid.NewString(),
		FirstName:        strings.TrimSpace(in.FirstName),
		LastName:         strings.TrimSpace(in.LastName),
		Email:            email,
		PasswordHash:     string(hash),
		Phone:            phone,
		CountryCode:      countryCode,
		Role:             domain.RoleUser,
		RegisteredAt:     s.now().UTC(),
		ReferralCode:     code,
		ReferralCodeUsed: strings.TrimSpace(in.ReferralCode),
		BillingState:     domain.NoSubscription(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if user.ReferralCodeUsed != "" {
		s.creditReferral(ctx, user.ReferralCodeUsed, user.Email)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("email", user.Email).Bool("referred", user.ReferralCodeUsed != "").Msg("user registered")
	return &ports.AuthResult{Token: token, User: user}, nil
}

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.NewValidationError("email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{Token: token, User: user}, nil
}

// Referrals lists the referral events credited to the user.
func (s *AuthService) Referrals(ctx context.Context, email string) ([]domain.ReferralEvent, error) {
	if _, err := s.users.FindByEmail(ctx, email); err != nil {
		return nil, err
	}
	return s.referrals.ListByReferrer(ctx, email)
}

// EnsureAdmin seeds the administrative account when it does not exist yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	code, err := s.uniqueReferralCode(ctx)
	if err != nil {
		return err
	}

	admin := &domain.User{
		ID:           uuid.NewString(),
		FirstName:    "Admin",
		LastName:     "User",
		Email:        email,
		PasswordHash: string(hash),
		CountryCode:  domain.DefaultCountryCode,
		Role:         domain.RoleAdmin,
		RegisteredAt: s.now().UTC(),
		ReferralCode: code,
		BillingState: domain.BillingState{Subscription: domain.SubscriptionNone, Status: domain.StatusActive},
	}
	if err := s.users.Create(ctx, admin); err != nil && !errors.Is(err, domain.ErrUserExists) {
		return err
	}
	s.logger.Info().Str("email", email).Msg("admin account seeded")
	return nil
}

func (s *AuthService) creditReferral(ctx context.Context, code, referredEmail string) {
	referrer, err := s.users.FindByReferralCode(ctx, code)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Warn().Err(err).Str("code", code).Msg("referral lookup failed")
		}
		return
	}

	event := domain.ReferralEvent{
		ReferrerEmail: referrer.Email,
		ReferredEmail: referredEmail,
		Date:          s.now().UTC(),
		Earnings:      domain.ReferralEarning,
	}
	if err := s.referrals.Credit(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("referrer", referrer.Email).Msg("failed to credit referral")
		return
	}
	s.logger.Info().Str("referrer", referrer.Email).Str("referred", referredEmail).Msg("referral credited")
}

func (s *AuthService) uniqueReferralCode(ctx context.Context) (string, error) {
	for range referralCodeAttempts {
		code, err := domain.NewReferralCode()
		if err != nil {
			return "", fmt.Errorf("referral code: %w", err)
		}
		_, err = s.users.FindByReferralCode(ctx, code)
		if errors.Is(err, domain.ErrUserNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", errors.New("referral code: exhausted attempts")
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     s.now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
