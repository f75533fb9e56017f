package service

import "errors"

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidToken           = errors.New("invalid or expired token")
	ErrForbidden              = errors.New("forbidden")
	ErrProfileNotFound        = errors.New("profile not found")
	ErrCallerProfileMissing   = errors.New("token subject has no profile")
)
