package dto

import (
	"time"

	"profilehub/internal/entity"
)

type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required,max=40,person_name"`
	LastName  string `json:"lastName" validate:"required,max=40,person_name"`
	Sex       string `json:"sex" validate:"required,oneof=male female"`
	Email     string `json:"email" validate:"required,min=5,max=50,email"`
	Password  string `json:"password" validate:"required,min=6,max=20"`
}

type CreatedResponse struct {
	ID string `json:"id"`
}

// UpdateProfileRequest holds only the fields present in the request.
// PasswordHash, RegDate and IsSuper are for elevated callers.
type UpdateProfileRequest struct {
	FirstName    *string `json:"firstName" validate:"omitnil,min=1,max=40,person_name"`
	LastName     *string `json:"lastName" validate:"omitnil,min=1,max=40,person_name"`
	Sex          *string `json:"sex" validate:"omitnil,oneof=male female"`
	Email        *string `json:"email" validate:"omitnil,min=5,max=50,email"`
	PasswordHash *string `json:"passwordHash" validate:"omitnil,bcrypt_hash"`
	RegDate      *string `json:"regDate" validate:"omitnil,datetime=2006-01-02T15:04:05Z07:00"`
	IsSuper      *bool   `json:"isSuper"`
}

func (r UpdateProfileRequest) WithoutElevated() UpdateProfileRequest {
	r.PasswordHash = nil
	r.RegDate = nil
	r.IsSuper = nil
	return r
}

type ProfileView struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Sex       string    `json:"sex"`
	Email     string    `json:"email"`
	PhotoURL  string    `json:"photoUrl"`
	RegDate   time.Time `json:"regDate"`
}

func ProfileViewFromEntity(profile *entity.Profile, photoURL string) ProfileView {
	return ProfileView{
		ID:        profile.ID.String(),
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Sex:       string(profile.Sex),
		Email:     profile.Email,
		PhotoURL:  photoURL,
		RegDate:   profile.RegisteredAt,
	}
}

type ProfilePageResponse struct {
	PagesCount int           `json:"pagesCount"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalCount int64         `json:"totalCount"`
	Items      []ProfileView `json:"items"`
}
