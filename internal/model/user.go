package model

import (
	"errors"
	"time"
)

// User represents a registered author.
type User struct {
	ID             int64     `db:"id" json:"id"`
	FullName       string    `db:"full_name" json:"fullName"`
	Email          string    `db:"email" json:"email"`
	PasswordHashed string    `db:"password_hashed" json:"-"` // "-" hides from JSON output
	PostCount      int       `db:"post_count" json:"postCount"`
	AvatarURL      string    `db:"avatar_url" json:"avatar"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// UserSummary is the author projection embedded in post responses.
type UserSummary struct {
	ID        int64  `db:"id" json:"id"`
	FullName  string `db:"full_name" json:"fullName"`
	AvatarURL string `db:"avatar_url" json:"avatar"`
}

// RegisterRequest represents the data needed to register a new user
type RegisterRequest struct {
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Password2 string `json:"password2"`
}

// LoginRequest represents the data needed to log in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest carries the optional profile mutations. AvatarURL is set
// by the handler after a successful upload, never taken from the client directly.
type UpdateProfileRequest struct {
	Name           string
	Email          string
	OldPassword    string
	NewPassword    string
	ConfirmNewPass string
	AvatarURL      *string
}

// MinPasswordLength is the only length rule registration enforces; names and
// emails are accepted as sent.
const MinPasswordLength = 6

var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists is returned when attempting to use an email that is already taken
	ErrEmailExists = errors.New("e-mail already exists")

	// ErrInvalidCredentials is returned when login credentials are incorrect
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrWrongOldPassword is returned when a password change fails verification
	ErrWrongOldPassword = errors.New("old password is incorrect")

	// ErrPasswordTooShort is returned when a password is under MinPasswordLength
	ErrPasswordTooShort = errors.New("password too short")

	// ErrPasswordMismatch is returned when password and confirmation differ
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrMissingFields is returned when a required field is absent
	ErrMissingFields = errors.New("missing required fields")
)
