package repository

import "errors"

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrSessionNotFound  = errors.New("session not found")
	ErrDuplicateEmail   = errors.New("email already exists")
	ErrDuplicateSession = errors.New("session already exists for device")
)
