package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuthAction string

const (
	LoginSucceeded  AuthAction = "login_success"
	LoginFailed     AuthAction = "login_failed"
	TokenRefreshed  AuthAction = "token_refreshed"
	RefreshRejected AuthAction = "refresh_rejected"
	LoggedOut       AuthAction = "logout"
)

type AuthEvent struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	ProfileID *uuid.UUID `gorm:"type:uuid;index"`
	IP        *string    `gorm:"column:ip;type:varchar(45)"`
	Action    AuthAction `gorm:"type:varchar(32);not null"`

	Metadata datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time
}
