package repository

import (
	"context"

	"profilehub/internal/entity"

	"gorm.io/gorm"
)

type AuthEventRepository interface {
	Log(ctx context.Context, event *entity.AuthEvent) error
	DeleteAll(ctx context.Context) error
}

type authEventRepository struct {
	db *gorm.DB
}

func NewAuthEventRepository(db *gorm.DB) AuthEventRepository {
	return &authEventRepository{db: db}
}

func (r *authEventRepository) Log(ctx context.Context, event *entity.AuthEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *authEventRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&entity.AuthEvent{}).
		Error
}
