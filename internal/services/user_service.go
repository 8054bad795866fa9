package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmarrec/authflow-be/internal/models"
	"github.com/google/uuid"
)

// ErrUserNotFound reports that no user matched a lookup. Callers that must
// not leak which lookup condition failed check for this single sentinel.
var ErrUserNotFound = errors.New("user not found")

// UserServiceProvider defines the interface for the user store.
type UserServiceProvider interface {
	GetUserByID(id string) (models.User, error)
	GetUserByEmail(email string) (models.User, error)
	CreateUser(username, email, passwordHash string) (models.User, error)
	DeleteUser(id string) error
	SetVerificationOTP(id, code string, expiresAt time.Time) error
	ClearVerificationOTP(id string) error
	MarkVerified(id string) error
	SetResetOTP(id, code string, expiresAt time.Time) error
	ClearResetOTP(id string) error
	FindByResetOTP(email, code string, now time.Time) (models.User, error)
	UpdatePassword(id, passwordHash string) error
	PurgeExpiredOTPs(now time.Time) (int64, error)
}

// UserService provides persistence for user accounts and their OTP state.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

const userColumns = `id, username, email, password_hash, is_verified, otp, otp_expires_at, reset_otp, reset_otp_expires_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var (
		user         models.User
		otp          sql.NullString
		otpExpires   sql.NullInt64
		resetOTP     sql.NullString
		resetExpires sql.NullInt64
		createdAt    int64
		updatedAt    int64
	)
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.IsVerified, &otp, &otpExpires, &resetOTP, &resetExpires, &createdAt, &updatedAt)
	if err != nil {
		return models.User{}, err
	}

	if otp.Valid {
		user.OTP = &otp.String
	}
	if otpExpires.Valid {
		t := time.Unix(otpExpires.Int64, 0)
		user.OTPExpiresAt = &t
	}
	if resetOTP.Valid {
		user.ResetOTP = &resetOTP.String
	}
	if resetExpires.Valid {
		t := time.Unix(resetExpires.Int64, 0)
		user.ResetOTPExpiresAt = &t
	}
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(id string) (models.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("user with ID %s: %w", id, ErrUserNotFound)
		}
		return models.User{}, err
	}
	return user, nil
}

// GetUserByEmail retrieves a single user by their email, including the
// password hash and OTP state.
func (s *UserService) GetUserByEmail(email string) (models.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE email = ?", email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("user with email %s: %w", email, ErrUserNotFound)
		}
		return models.User{}, err
	}
	return user, nil
}

// CreateUser inserts a new, unverified user. The password must already be
// hashed by the caller.
func (s *UserService) CreateUser(username, email, passwordHash string) (models.User, error) {
	now := time.Now()
	user := models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := s.db.Exec(
		"INSERT INTO users(id, username, email, password_hash, is_verified, created_at, updated_at) VALUES(?, ?, ?, ?, 0, ?, ?)",
		user.ID, user.Username, user.Email, user.PasswordHash, now.Unix(), now.Unix(),
	)
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// DeleteUser removes a user from the database.
func (s *UserService) DeleteUser(id string) error {
	_, err := s.db.Exec("DELETE FROM users WHERE id = ?", id)
	return err
}

// SetVerificationOTP stores a fresh verification code and its expiry.
func (s *UserService) SetVerificationOTP(id, code string, expiresAt time.Time) error {
	return s.exec(
		"UPDATE users SET otp = ?, otp_expires_at = ?, updated_at = ? WHERE id = ?",
		code, expiresAt.Unix(), time.Now().Unix(), id,
	)
}

// ClearVerificationOTP nulls the verification pair without touching the
// verified flag. Used to roll back after a failed mail delivery.
func (s *UserService) ClearVerificationOTP(id string) error {
	return s.exec(
		"UPDATE users SET otp = NULL, otp_expires_at = NULL, updated_at = ? WHERE id = ?",
		time.Now().Unix(), id,
	)
}

// MarkVerified flips the verified flag and clears the verification pair in a
// single statement.
func (s *UserService) MarkVerified(id string) error {
	return s.exec(
		"UPDATE users SET is_verified = 1, otp = NULL, otp_expires_at = NULL, updated_at = ? WHERE id = ?",
		time.Now().Unix(), id,
	)
}

// SetResetOTP stores a fresh password-reset code and its expiry.
func (s *UserService) SetResetOTP(id, code string, expiresAt time.Time) error {
	return s.exec(
		"UPDATE users SET reset_otp = ?, reset_otp_expires_at = ?, updated_at = ? WHERE id = ?",
		code, expiresAt.Unix(), time.Now().Unix(), id,
	)
}

// ClearResetOTP nulls the reset pair. Used to roll back after a failed mail
// delivery.
func (s *UserService) ClearResetOTP(id string) error {
	return s.exec(
		"UPDATE users SET reset_otp = NULL, reset_otp_expires_at = NULL, updated_at = ? WHERE id = ?",
		time.Now().Unix(), id,
	)
}

// FindByResetOTP looks a user up by email, reset code, and an unexpired
// timestamp in one query. A miss on any of the three conditions returns the
// same ErrUserNotFound so callers cannot tell which one failed.
func (s *UserService) FindByResetOTP(email, code string, now time.Time) (models.User, error) {
	row := s.db.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE email = ? AND reset_otp = ? AND reset_otp_expires_at > ?",
		email, code, now.Unix(),
	)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

// UpdatePassword overwrites the password hash and clears the reset pair in a
// single statement.
func (s *UserService) UpdatePassword(id, passwordHash string) error {
	return s.exec(
		"UPDATE users SET password_hash = ?, reset_otp = NULL, reset_otp_expires_at = NULL, updated_at = ? WHERE id = ?",
		passwordHash, time.Now().Unix(), id,
	)
}

// PurgeExpiredOTPs nulls every expired OTP pair of either kind and returns
// how many rows were touched. Expiry is always checked logically at
// consumption time; this is housekeeping only.
func (s *UserService) PurgeExpiredOTPs(now time.Time) (int64, error) {
	res, err := s.db.Exec(`
		UPDATE users SET
			otp = CASE WHEN otp_expires_at IS NOT NULL AND otp_expires_at <= ?1 THEN NULL ELSE otp END,
			otp_expires_at = CASE WHEN otp_expires_at IS NOT NULL AND otp_expires_at <= ?1 THEN NULL ELSE otp_expires_at END,
			reset_otp = CASE WHEN reset_otp_expires_at IS NOT NULL AND reset_otp_expires_at <= ?1 THEN NULL ELSE reset_otp END,
			reset_otp_expires_at = CASE WHEN reset_otp_expires_at IS NOT NULL AND reset_otp_expires_at <= ?1 THEN NULL ELSE reset_otp_expires_at END
		WHERE (otp_expires_at IS NOT NULL AND otp_expires_at <= ?1)
		   OR (reset_otp_expires_at IS NOT NULL AND reset_otp_expires_at <= ?1)`,
		now.Unix(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *UserService) exec(query string, args ...any) error {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
