package services

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/dmarrec/authflow-be/internal/apperr"
	"github.com/dmarrec/authflow-be/internal/mailer"
	"github.com/dmarrec/authflow-be/internal/models"
	"github.com/dmarrec/authflow-be/internal/otp"
	"github.com/dmarrec/authflow-be/internal/password"
	"github.com/rs/zerolog/log"
)

// OTP lifetimes. Verification codes ride along with signup and can be
// redeemed for a day; reset codes prove fresh control of the mailbox and
// stay tight.
const (
	verificationOTPTTL = 24 * time.Hour
	resetOTPTTL        = 5 * time.Minute
)

// AuthServiceProvider defines the interface for the authentication flows.
type AuthServiceProvider interface {
	Signup(username, email, pass, passConfirm string) (models.User, error)
	VerifyAccount(user *models.User, code string) (models.User, error)
	ResendOTP(user *models.User) error
	Login(email, pass string) (models.User, error)
	ForgotPassword(email string) error
	ResetPassword(email, code, pass, passConfirm string) (models.User, error)
}

// AuthService orchestrates signup, verification, login, and password reset
// by composing the user store and the mailer.
type AuthService struct {
	users UserServiceProvider
	mail  mailer.Mailer
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserServiceProvider, mail mailer.Mailer) *AuthService {
	return &AuthService{users: users, mail: mail}
}

// Signup registers a new, unverified account and mails it a verification
// OTP. If the mail cannot be delivered the account is deleted again: signup
// is not complete without a delivered code, and the caller retries from
// scratch.
func (s *AuthService) Signup(username, email, pass, passConfirm string) (models.User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if err := validateSignup(username, email, pass, passConfirm); err != nil {
		return models.User{}, err
	}

	_, err := s.users.GetUserByEmail(email)
	if err == nil {
		return models.User{}, apperr.BadRequest("An account with this email already exists.")
	}
	if !errors.Is(err, ErrUserNotFound) {
		return models.User{}, err
	}

	hash, err := password.Hash(pass)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.users.CreateUser(username, email, hash)
	if err != nil {
		return models.User{}, err
	}

	code, err := otp.Generate()
	if err != nil {
		return models.User{}, err
	}
	if err := s.users.SetVerificationOTP(user.ID, code, time.Now().Add(verificationOTPTTL)); err != nil {
		return models.User{}, err
	}

	if err := s.mail.Send(user.Email, "OTP for email verification", mailer.VerificationBody(code)); err != nil {
		log.Warn().Err(err).Str("email", user.Email).Msg("Signup OTP email failed, deleting user")
		if delErr := s.users.DeleteUser(user.ID); delErr != nil {
			log.Error().Err(delErr).Str("user_id", user.ID).Msg("Failed to delete user after mail failure")
		}
		return models.User{}, apperr.Internal("Failed to send OTP email. Please try signing up again.")
	}

	log.Info().Str("email", user.Email).Msg("User registered")
	return user, nil
}

// VerifyAccount consumes a verification OTP for the authenticated user. A
// mismatch or an expired code fails without mutating any state.
func (s *AuthService) VerifyAccount(user *models.User, code string) (models.User, error) {
	if code == "" {
		return models.User{}, apperr.BadRequest("OTP is required to verify your account.")
	}
	if user.OTP == nil || *user.OTP != code {
		return models.User{}, apperr.BadRequest("Invalid OTP. Please check and try again.")
	}
	if user.OTPExpiresAt == nil || time.Now().After(*user.OTPExpiresAt) {
		return models.User{}, apperr.BadRequest("OTP has expired. Please request a new one.")
	}

	if err := s.users.MarkVerified(user.ID); err != nil {
		return models.User{}, err
	}

	log.Info().Str("email", user.Email).Msg("Email verified")
	return s.users.GetUserByID(user.ID)
}

// ResendOTP regenerates and re-sends a verification OTP for an unverified
// account. On mail failure the freshly stored pair is rolled back so no
// unsent code stays active.
func (s *AuthService) ResendOTP(user *models.User) error {
	if user.IsVerified {
		return apperr.BadRequest("This account is already verified.")
	}

	code, err := otp.Generate()
	if err != nil {
		return err
	}
	if err := s.users.SetVerificationOTP(user.ID, code, time.Now().Add(verificationOTPTTL)); err != nil {
		return err
	}

	if err := s.mail.Send(user.Email, "Resend OTP for email verification", mailer.VerificationBody(code)); err != nil {
		log.Warn().Err(err).Str("email", user.Email).Msg("Resend OTP email failed, rolling back")
		if clearErr := s.users.ClearVerificationOTP(user.ID); clearErr != nil {
			log.Error().Err(clearErr).Str("user_id", user.ID).Msg("Failed to clear OTP after mail failure")
		}
		return apperr.Internal("There was an error sending the email. Please try again later.")
	}

	log.Info().Str("email", user.Email).Msg("Verification OTP resent")
	return nil
}

// Login verifies credentials and returns the user. Unknown email and wrong
// password produce the same error so the response does not reveal which.
func (s *AuthService) Login(email, pass string) (models.User, error) {
	email = normalizeEmail(email)
	if email == "" || pass == "" {
		return models.User{}, apperr.BadRequest("Please provide email and password.")
	}

	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return models.User{}, apperr.Unauthorized("Incorrect email or password.")
		}
		return models.User{}, err
	}
	if !password.Compare(user.PasswordHash, pass) {
		return models.User{}, apperr.Unauthorized("Incorrect email or password.")
	}

	log.Info().Str("email", user.Email).Msg("User logged in")
	return user, nil
}

// ForgotPassword issues a short-lived reset OTP and mails it. The pair is
// rolled back if the mail cannot be delivered.
func (s *AuthService) ForgotPassword(email string) error {
	email = normalizeEmail(email)

	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return apperr.NotFound("No user found with that email address.")
		}
		return err
	}

	code, err := otp.Generate()
	if err != nil {
		return err
	}
	if err := s.users.SetResetOTP(user.ID, code, time.Now().Add(resetOTPTTL)); err != nil {
		return err
	}

	if err := s.mail.Send(user.Email, "Your password reset OTP (valid for 5 minutes)", mailer.ResetBody(code)); err != nil {
		log.Warn().Err(err).Str("email", user.Email).Msg("Reset OTP email failed, rolling back")
		if clearErr := s.users.ClearResetOTP(user.ID); clearErr != nil {
			log.Error().Err(clearErr).Str("user_id", user.ID).Msg("Failed to clear reset OTP after mail failure")
		}
		return apperr.Internal("There was an error sending the email. Please try again later.")
	}

	log.Info().Str("email", user.Email).Msg("Password reset OTP sent")
	return nil
}

// ResetPassword consumes a reset OTP and sets a new password. The lookup
// matches email, code, and expiry in one query; a miss on any condition
// yields the same error.
func (s *AuthService) ResetPassword(email, code, pass, passConfirm string) (models.User, error) {
	email = normalizeEmail(email)
	if err := validatePassword(pass, passConfirm); err != nil {
		return models.User{}, err
	}

	user, err := s.users.FindByResetOTP(email, code, time.Now())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return models.User{}, apperr.BadRequest("No user found.")
		}
		return models.User{}, err
	}

	hash, err := password.Hash(pass)
	if err != nil {
		return models.User{}, err
	}
	if err := s.users.UpdatePassword(user.ID, hash); err != nil {
		return models.User{}, err
	}

	log.Info().Str("email", user.Email).Msg("Password reset")
	return s.users.GetUserByID(user.ID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateSignup(username, email, pass, passConfirm string) error {
	if len(username) < 3 || len(username) > 30 {
		return apperr.BadRequest("Username must be between 3 and 30 characters.")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperr.BadRequest("Please enter a valid email address.")
	}
	return validatePassword(pass, passConfirm)
}

func validatePassword(pass, passConfirm string) error {
	if len(pass) < 8 {
		return apperr.BadRequest("Password must be at least 8 characters.")
	}
	if pass != passConfirm {
		return apperr.BadRequest("Passwords must match.")
	}
	return nil
}
