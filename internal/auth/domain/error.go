package domain

import "errors"

var (
	ErrInvalidFirstname   = errors.New("invalid_firstname")
	ErrInvalidSurname     = errors.New("invalid_surname")
	ErrInvalidEmail       = errors.New("invalid_email")
	ErrInvalidPassword    = errors.New("invalid_password")
	ErrPasswordMismatch   = errors.New("password_mismatch")
	ErrEmailInUse         = errors.New("email_in_use")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrNotSelf            = errors.New("not_self")
	ErrSessionNotFound    = errors.New("session_not_found")
	ErrSessionExpired     = errors.New("session_expired")
	ErrSessionRevoked     = errors.New("session_revoked")
	ErrInvalidSession     = errors.New("invalid_session")
)
