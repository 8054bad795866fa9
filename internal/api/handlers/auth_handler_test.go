package handlers_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/dmarrec/authflow-be/internal/api"
	"github.com/dmarrec/authflow-be/internal/api/handlers"
	"github.com/dmarrec/authflow-be/internal/auth"
	"github.com/dmarrec/authflow-be/internal/database"
	"github.com/dmarrec/authflow-be/internal/services"
)

type fakeMailer struct {
	sent int
	err  error
}

func (m *fakeMailer) Send(to, subject, html string) error {
	if m.err != nil {
		return m.err
	}
	m.sent++
	return nil
}

type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Token   string `json:"token"`
	Data    *struct {
		User struct {
			ID         string `json:"id"`
			UserName   string `json:"userName"`
			Email      string `json:"email"`
			IsVerified bool   `json:"isVerified"`
		} `json:"user"`
	} `json:"data"`
	Error string `json:"error"`
}

type testApp struct {
	router *chi.Mux
	users  *services.UserService
	mail   *fakeMailer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	users := services.NewUserService(db)
	mail := &fakeMailer{}
	authService := services.NewAuthService(users, mail)

	issuer := auth.NewIssuer("test-secret", time.Hour)
	guard := auth.NewGuard(issuer, users)
	handler := handlers.NewAuthHandler(authService, issuer, 7, false)

	return &testApp{
		router: api.NewRouter(handler, guard, []string{"http://localhost:3000"}),
		users:  users,
		mail:   mail,
	}
}

func (a *testApp) post(t *testing.T, path string, body any, mutate ...func(*http.Request)) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	for _, m := range mutate {
		m(req)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func signupBody() map[string]string {
	return map[string]string{
		"email":           "a@x.com",
		"password":        "longenough1",
		"passwordConfirm": "longenough1",
		"userName":        "abc",
	}
}

func tokenCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	t.Fatal("token cookie not set")
	return nil
}

func TestSignupEndpoint(t *testing.T) {
	app := newTestApp(t)

	rec, env := app.post(t, "/api/v1/users/signup", signupBody())

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "success", env.Status)
	require.NotEmpty(t, env.Token)
	require.NotNil(t, env.Data)
	require.False(t, env.Data.User.IsVerified)
	require.Equal(t, "a@x.com", env.Data.User.Email)
	require.Equal(t, 1, app.mail.sent)

	cookie := tokenCookie(t, rec)
	require.Equal(t, env.Token, cookie.Value)
	require.True(t, cookie.HttpOnly)

	// Password hash and OTP fields never appear in the response body.
	var raw struct {
		Data struct {
			User map[string]any `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	for key := range raw.Data.User {
		require.NotContains(t, []string{"password", "passwordHash", "otp", "resetOtp"}, key)
	}
}

func TestSignupMailFailure(t *testing.T) {
	app := newTestApp(t)
	app.mail.err = fmt.Errorf("smtp unreachable")

	rec, env := app.post(t, "/api/v1/users/signup", signupBody())

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "error", env.Status)
	require.Equal(t, "Failed to send OTP email. Please try signing up again.", env.Message)

	// Retry works once mail delivery recovers.
	app.mail.err = nil
	rec, _ = app.post(t, "/api/v1/users/signup", signupBody())
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestVerifyEndpoint(t *testing.T) {
	app := newTestApp(t)

	rec, _ := app.post(t, "/api/v1/users/signup", signupBody())
	cookie := tokenCookie(t, rec)

	stored, err := app.users.GetUserByEmail("a@x.com")
	require.NoError(t, err)

	rec, env := app.post(t, "/api/v1/users/verify", map[string]string{"otp": *stored.OTP},
		func(r *http.Request) { r.AddCookie(cookie) })

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "success", env.Status)
	require.True(t, env.Data.User.IsVerified)
}

func TestVerifyExpiredOTP(t *testing.T) {
	app := newTestApp(t)

	rec, env := app.post(t, "/api/v1/users/signup", signupBody())
	token := env.Token

	stored, err := app.users.GetUserByEmail("a@x.com")
	require.NoError(t, err)
	require.NoError(t, app.users.SetVerificationOTP(stored.ID, *stored.OTP, time.Now().Add(-time.Minute)))

	rec, env = app.post(t, "/api/v1/users/verify", map[string]string{"otp": *stored.OTP},
		func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) })

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "fail", env.Status)
	require.Equal(t, "OTP has expired. Please request a new one.", env.Message)
}

func TestVerifyRequiresAuth(t *testing.T) {
	app := newTestApp(t)

	rec, env := app.post(t, "/api/v1/users/verify", map[string]string{"otp": "1234"})

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "fail", env.Status)
}

func TestResendOTPEndpoint(t *testing.T) {
	app := newTestApp(t)

	rec, env := app.post(t, "/api/v1/users/signup", signupBody())
	token := env.Token

	rec, env = app.post(t, "/api/v1/users/resend-otp", map[string]string{},
		func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) })

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "success", env.Status)
	require.Equal(t, 2, app.mail.sent)
}

func TestLoginEndpoint(t *testing.T) {
	app := newTestApp(t)
	app.post(t, "/api/v1/users/signup", signupBody())

	rec, env := app.post(t, "/api/v1/users/login", map[string]string{
		"email": "a@x.com", "password": "longenough1",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "success", env.Status)
	require.NotEmpty(t, env.Token)
	tokenCookie(t, rec)
}

func TestLoginWrongPassword(t *testing.T) {
	app := newTestApp(t)
	app.post(t, "/api/v1/users/signup", signupBody())

	rec, env := app.post(t, "/api/v1/users/login", map[string]string{
		"email": "a@x.com", "password": "wrongpassword",
	})

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "fail", env.Status)
	require.Equal(t, "Incorrect email or password.", env.Message)
}

func TestLogoutClearsCookie(t *testing.T) {
	app := newTestApp(t)

	// Logout succeeds whether or not a valid token was presented.
	rec, env := app.post(t, "/api/v1/users/logout", map[string]string{})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "success", env.Status)

	cookie := tokenCookie(t, rec)
	require.Equal(t, "loggedout", cookie.Value)
	require.True(t, cookie.Expires.Before(time.Now().Add(time.Minute)))
}

func TestForgetAndResetPasswordFlow(t *testing.T) {
	app := newTestApp(t)
	app.post(t, "/api/v1/users/signup", signupBody())

	rec, env := app.post(t, "/api/v1/users/forget-password", map[string]string{"email": "a@x.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "success", env.Status)

	stored, err := app.users.GetUserByEmail("a@x.com")
	require.NoError(t, err)
	require.NotNil(t, stored.ResetOTP)

	rec, env = app.post(t, "/api/v1/users/reset-password", map[string]string{
		"email":           "a@x.com",
		"otp":             *stored.ResetOTP,
		"password":        "newpassword1",
		"passwordConfirm": "newpassword1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "success", env.Status)
	require.NotEmpty(t, env.Token)

	rec, _ = app.post(t, "/api/v1/users/login", map[string]string{
		"email": "a@x.com", "password": "newpassword1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestNotFoundEnvelope(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("GET", "/api/v1/users/nope", nil)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, "fail", env.Status)
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
