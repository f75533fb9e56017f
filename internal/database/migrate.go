package database

import (
	"context"
	"embed"
	"errors"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

func prepare(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database provided")
	}
	goose.SetBaseFS(migrations)
	return goose.SetDialect("postgres")
}

// Up applies every pending embedded migration.
func Up(ctx context.Context, db *gorm.DB) error {
	if err := prepare(db); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return goose.UpContext(ctx, sqlDB, migrationsDir)
}

// Down rolls back the most recent migration.
func Down(ctx context.Context, db *gorm.DB) error {
	if err := prepare(db); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return goose.DownContext(ctx, sqlDB, migrationsDir)
}

// Status logs the applied state of each migration through goose's logger.
func Status(ctx context.Context, db *gorm.DB) error {
	if err := prepare(db); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return goose.StatusContext(ctx, sqlDB, migrationsDir)
}
