package service

import (
	"io"
	"time"

	"profilehub/internal/entity"

	"github.com/google/uuid"
)

type LoginInput struct {
	Email      string
	Password   string
	DeviceName string
	IPAddress  string
}

type RefreshInput struct {
	RefreshToken string
	DeviceName   string
	IPAddress    string
}

type LoginResult struct {
	AccessToken      string
	ExpiresIn        int64
	RefreshToken     string
	RefreshExpiresIn int64
}

// RefreshFingerprint identifies the session generation a refresh token belongs to.
type RefreshFingerprint struct {
	ProfileID uuid.UUID
	DeviceID  string
	IssuedAt  int64
}

type Identity struct {
	ID      uuid.UUID
	IsSuper bool
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Sex       entity.Sex
	Email     string
	Password  string
}

type PhotoInput struct {
	ContentType string
	Size        int64
	Body        io.Reader
}

// ProfileChanges lists the fields a caller asked to change. PasswordHash,
// RegisteredAt and IsSuper are honoured for elevated callers only.
type ProfileChanges struct {
	FirstName    *string
	LastName     *string
	Sex          *entity.Sex
	Email        *string
	Photo        *PhotoInput
	PasswordHash *string
	RegisteredAt *time.Time
	IsSuper      *bool
}

func (c ProfileChanges) WithoutElevated() ProfileChanges {
	c.PasswordHash = nil
	c.RegisteredAt = nil
	c.IsSuper = nil
	return c
}

type ProfilePage struct {
	PagesCount int
	Page       int
	PageSize   int
	TotalCount int64
	Items      []entity.Profile
}
