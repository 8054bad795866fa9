package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmarrec/authflow-be/internal/api/respond"
	"github.com/dmarrec/authflow-be/internal/apperr"
	"github.com/dmarrec/authflow-be/internal/auth"
	"github.com/dmarrec/authflow-be/internal/models"
	"github.com/dmarrec/authflow-be/internal/services"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles the HTTP surface of all authentication flows.
type AuthHandler struct {
	service   services.AuthServiceProvider
	issuer    *auth.Issuer
	cookieTTL time.Duration
	secure    bool
}

// NewAuthHandler creates a new AuthHandler. secure toggles the cookie flags
// for cross-site production deployments.
func NewAuthHandler(service services.AuthServiceProvider, issuer *auth.Issuer, cookieExpireDays int, secure bool) *AuthHandler {
	return &AuthHandler{
		service:   service,
		issuer:    issuer,
		cookieTTL: time.Duration(cookieExpireDays) * 24 * time.Hour,
		secure:    secure,
	}
}

// SignupPayload defines the structure for registration requests.
// PasswordConfirm is transient input and is never persisted.
type SignupPayload struct {
	UserName        string `json:"userName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// OTPPayload carries a submitted verification code.
type OTPPayload struct {
	OTP string `json:"otp"`
}

// EmailPayload carries the email address starting a password reset.
type EmailPayload struct {
	Email string `json:"email"`
}

// ResetPayload defines the structure for password reset requests.
type ResetPayload struct {
	Email           string `json:"email"`
	OTP             string `json:"otp"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// Signup handles new user registration.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload SignupPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respond.Error(w, apperr.BadRequest("Invalid request body"))
		return
	}

	user, err := h.service.Signup(payload.UserName, payload.Email, payload.Password, payload.PasswordConfirm)
	if err != nil {
		respond.Error(w, err)
		return
	}

	h.sendToken(w, &user, "Registration successful. OTP sent to your email.")
}

// Verify consumes the verification OTP for the authenticated user.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		respond.Error(w, apperr.Unauthorized("Access denied. Please log in."))
		return
	}

	var payload OTPPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respond.Error(w, apperr.BadRequest("Invalid request body"))
		return
	}

	verified, err := h.service.VerifyAccount(user, payload.OTP)
	if err != nil {
		respond.Error(w, err)
		return
	}

	h.sendToken(w, &verified, "Your email has been successfully verified.")
}

// ResendOTP reissues a verification OTP for the authenticated user.
func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		respond.Error(w, apperr.Unauthorized("Access denied. Please log in."))
		return
	}

	if err := h.service.ResendOTP(user); err != nil {
		respond.Error(w, err)
		return
	}

	respond.Success(w, http.StatusOK, "A new OTP has been sent to your email.", "", nil)
}

// Login handles user authentication and token issuance.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respond.Error(w, apperr.BadRequest("Invalid request body"))
		return
	}

	user, err := h.service.Login(payload.Email, payload.Password)
	if err != nil {
		respond.Error(w, err)
		return
	}

	h.sendToken(w, &user, "Login successful.")
}

// Logout expires the session cookie client-side. The token itself stays
// valid until its natural expiry; there is no server-side revocation.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "loggedout",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: h.sameSite(),
		Path:     "/",
	})

	respond.Success(w, http.StatusOK, "Logged out successfully.", "", nil)
}

// ForgotPassword starts the password reset flow.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var payload EmailPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respond.Error(w, apperr.BadRequest("Invalid request body"))
		return
	}

	if err := h.service.ForgotPassword(payload.Email); err != nil {
		respond.Error(w, err)
		return
	}

	respond.Success(w, http.StatusOK, "Password reset OTP has been sent to your email.", "", nil)
}

// ResetPassword consumes the reset OTP, sets the new password, and logs the
// user in.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload ResetPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respond.Error(w, apperr.BadRequest("Invalid request body"))
		return
	}

	user, err := h.service.ResetPassword(payload.Email, payload.OTP, payload.Password, payload.PasswordConfirm)
	if err != nil {
		respond.Error(w, err)
		return
	}

	h.sendToken(w, &user, "Password reset successful.")
}

// sendToken issues a bearer token for the user, mirrors it into the http-only
// cookie, and writes the success envelope.
func (h *AuthHandler) sendToken(w http.ResponseWriter, user *models.User, message string) {
	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to sign token")
		respond.Error(w, apperr.Internal("Failed to generate token."))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Expires:  time.Now().Add(h.cookieTTL),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: h.sameSite(),
		Path:     "/",
	})

	respond.Success(w, http.StatusOK, message, token, user)
}

// Cross-site cookies need SameSite=None, which browsers only accept with
// Secure set. Development stays on Lax.
func (h *AuthHandler) sameSite() http.SameSite {
	if h.secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}
