package repository

import (
	"context"
	"errors"
	"time"

	"profilehub/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProfileRepository interface {
	Create(ctx context.Context, profile *entity.Profile) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error)
	FindByEmail(ctx context.Context, email string) (*entity.Profile, error)
	FindRole(ctx context.Context, id uuid.UUID) (*entity.ProfileRole, error)
	Update(ctx context.Context, id uuid.UUID, update ProfileUpdate) error
	List(ctx context.Context, limit, offset int) ([]entity.Profile, int64, error)
	DeleteAll(ctx context.Context) error
}

// ProfileUpdate carries the columns to overwrite; nil fields are left untouched.
type ProfileUpdate struct {
	FirstName    *string
	LastName     *string
	Sex          *entity.Sex
	Email        *string
	PhotoName    *string
	PasswordHash *string
	RegisteredAt *time.Time
	IsSuper      *bool
}

func (u ProfileUpdate) IsEmpty() bool {
	return len(u.Columns()) == 0
}

func (u ProfileUpdate) Columns() map[string]any {
	columns := make(map[string]any)
	if u.FirstName != nil {
		columns["first_name"] = *u.FirstName
	}
	if u.LastName != nil {
		columns["last_name"] = *u.LastName
	}
	if u.Sex != nil {
		columns["sex"] = *u.Sex
	}
	if u.Email != nil {
		columns["email"] = *u.Email
	}
	if u.PhotoName != nil {
		columns["photo_name"] = *u.PhotoName
	}
	if u.PasswordHash != nil {
		columns["password_hash"] = *u.PasswordHash
	}
	if u.RegisteredAt != nil {
		columns["registered_at"] = *u.RegisteredAt
	}
	if u.IsSuper != nil {
		columns["is_super"] = *u.IsSuper
	}
	return columns
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *entity.Profile) error {
	err := r.db.WithContext(ctx).Omit("Sessions").Create(profile).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *profileRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error) {
	var profile entity.Profile
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&profile).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &profile, err
}

func (r *profileRepository) FindByEmail(ctx context.Context, email string) (*entity.Profile, error) {
	var profile entity.Profile
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&profile).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &profile, err
}

func (r *profileRepository) FindRole(ctx context.Context, id uuid.UUID) (*entity.ProfileRole, error) {
	var role entity.ProfileRole
	err := r.db.WithContext(ctx).
		Model(&entity.Profile{}).
		Select("id", "is_super").
		Where("id = ?", id).
		Take(&role).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *profileRepository) Update(ctx context.Context, id uuid.UUID, update ProfileUpdate) error {
	columns := update.Columns()
	if len(columns) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).
		Model(&entity.Profile{}).
		Where("id = ?", id).
		Updates(columns)
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEmail
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *profileRepository) List(ctx context.Context, limit, offset int) ([]entity.Profile, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&entity.Profile{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var profiles []entity.Profile
	query := r.db.WithContext(ctx).Order("registered_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&profiles).Error; err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

func (r *profileRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&entity.Profile{}).
		Error
}
