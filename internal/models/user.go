package models

import "time"

// User represents a user account in the system. The OTP pairs are either
// both set or both nil; they hold the pending email-verification and
// password-reset challenges.
type User struct {
	ID                string     `json:"id"`
	Username          string     `json:"userName"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"` // Never expose this to the client
	IsVerified        bool       `json:"isVerified"`
	OTP               *string    `json:"-"`
	OTPExpiresAt      *time.Time `json:"-"`
	ResetOTP          *string    `json:"-"`
	ResetOTPExpiresAt *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}
