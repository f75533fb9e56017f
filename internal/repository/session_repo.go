package repository

import (
	"context"
	"errors"
	"time"

	"profilehub/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	FindActive(ctx context.Context, issuedAt int64, deviceID string) (*entity.Session, error)
	Rotate(ctx context.Context, filter SessionFilter, update SessionUpdate) error
	Delete(ctx context.Context, filter SessionFilter) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Session, error)
	DeleteAll(ctx context.Context) error
}

// SessionFilter selects the session generation a refresh token was minted for.
// A match is unique per (UserID, DeviceID).
type SessionFilter struct {
	UserID   uuid.UUID
	DeviceID string
	IssuedAt int64
}

type SessionUpdate struct {
	IP           string
	DeviceName   string
	IssuedAt     int64
	LastActiveAt time.Time
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, s *entity.Session) error {
	err := r.db.WithContext(ctx).Create(s).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateSession
	}
	return err
}

func (r *sessionRepository) FindActive(ctx context.Context, issuedAt int64, deviceID string) (*entity.Session, error) {
	var session entity.Session
	err := r.db.WithContext(ctx).
		Where("device_id = ? AND refresh_token_issued_at = ?", deviceID, issuedAt).
		First(&session).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &session, err
}

// Rotate moves the fingerprint forward in a single conditional UPDATE, so a
// token that lost a concurrent rotation sees ErrSessionNotFound.
func (r *sessionRepository) Rotate(ctx context.Context, filter SessionFilter, update SessionUpdate) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Session{}).
		Where("user_id = ? AND device_id = ? AND refresh_token_issued_at = ?", filter.UserID, filter.DeviceID, filter.IssuedAt).
		Updates(map[string]any{
			"ip":                      update.IP,
			"device_name":             update.DeviceName,
			"refresh_token_issued_at": update.IssuedAt,
			"last_active_at":          update.LastActiveAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes the session whose fingerprint matches filter exactly.
func (r *sessionRepository) Delete(ctx context.Context, filter SessionFilter) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND device_id = ? AND refresh_token_issued_at = ?", filter.UserID, filter.DeviceID, filter.IssuedAt).
		Delete(&entity.Session{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *sessionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Session, error) {
	var sessions []entity.Session
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_active_at DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&entity.Session{}).
		Error
}
