package entity

import (
	"time"

	"github.com/google/uuid"
)

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

type Profile struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	FirstName    string    `gorm:"type:varchar(40);not null"`
	LastName     string    `gorm:"type:varchar(40);not null"`
	Sex          Sex       `gorm:"type:varchar(6);not null"`
	Email        string    `gorm:"type:varchar(50);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:text;not null"`
	PhotoName    string    `gorm:"type:text;not null"`
	RegisteredAt time.Time `gorm:"not null;index"`
	IsSuper      bool      `gorm:"not null;default:false"`

	UpdatedAt time.Time

	Sessions []Session `gorm:"foreignKey:UserID"`
}

// ProfileRole is the projection the authorization checks need.
type ProfileRole struct {
	ID      uuid.UUID
	IsSuper bool
}
