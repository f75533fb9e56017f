package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is one device login. (UserID, DeviceID, RefreshTokenIssuedAt) is the
// fingerprint of the only refresh token currently accepted for the device.
type Session struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:sessions_user_device_key,priority:1"`

	DeviceID   string `gorm:"type:varchar(64);not null;uniqueIndex:sessions_user_device_key,priority:2"`
	DeviceName string `gorm:"type:varchar(255)"`
	IP         string `gorm:"column:ip;type:varchar(45)"`

	LastActiveAt time.Time `gorm:"not null"`
	// unix milliseconds of the refresh token's iat claim
	RefreshTokenIssuedAt int64 `gorm:"not null;index"`

	CreatedAt time.Time
}
