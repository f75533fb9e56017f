package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash string, password string) bool
}

type TokenIssuer interface {
	IssueAccess(profileID uuid.UUID) (string, time.Duration, error)
	IssueRefresh(profileID uuid.UUID, deviceID string, notBefore time.Time) (string, time.Duration, error)
	DecodeRefresh(token string) (*RefreshFingerprint, error)
	DecodeAccess(token string) (uuid.UUID, error)
}

type PhotoStore interface {
	Save(ctx context.Context, name string, contentType string, body io.Reader) error
	Delete(ctx context.Context, name string) error
	Clear(ctx context.Context) error
	URL(ctx context.Context, name string) (string, error)
}

// AuthObserver receives one call per finished login, refresh or logout.
type AuthObserver interface {
	ObserveAuth(operation string, outcome string)
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

type BcryptPasswordHasher struct {
	Cost int
}

func (h BcryptPasswordHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func (h BcryptPasswordHasher) Verify(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
