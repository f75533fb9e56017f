package database

import (
	"io/fs"
	"strings"
	"testing"
)

func TestMigrationsAreEmbedded(t *testing.T) {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(names) < 2 {
		t.Fatalf("expected embedded migrations, got %v", names)
	}
	for _, name := range names {
		body, err := fs.ReadFile(migrations, name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		text := string(body)
		if !strings.Contains(text, "-- +goose Up") || !strings.Contains(text, "-- +goose Down") {
			t.Fatalf("%s is missing goose annotations", name)
		}
	}
}

func TestSessionsCarryDeviceUniqueness(t *testing.T) {
	body, err := fs.ReadFile(migrations, "migrations/00001_init.sql")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(body), "sessions_user_device_key ON sessions (user_id, device_id)") {
		t.Fatalf("sessions table must be unique per profile and device")
	}
}

func TestUpRejectsNilDatabase(t *testing.T) {
	if err := Up(t.Context(), nil); err == nil {
		t.Fatalf("expected error for nil database")
	}
}
