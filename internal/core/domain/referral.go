package domain

import (
	"crypto/rand"
	"time"
)

// ReferralEarning is credited to the referrer for every referred registration.
const ReferralEarning = 5.00

const (
	referralCodeLength   = 8
	referralCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// ReferralEvent records one successful referral.
type ReferralEvent struct {
	ReferrerEmail string    `json:"-"`
	ReferredEmail string    `json:"referredEmail"`
	Date          time.Time `json:"date"`
	Earnings      float64   `json:"earnings"`
}

// NewReferralCode returns a random 8-character code over [A-Z0-9].
func NewReferralCode() (string, error) {
	b := make([]byte, referralCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = referralCodeAlphabet[int(b[i])%len(referralCodeAlphabet)]
	}
	return string(b), nil
}
