package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewS3StoreRequiresSettings(t *testing.T) {
	tests := []S3Config{
		{Bucket: "photos", AccessKey: "a", SecretKey: "b"},
		{Endpoint: "minio:9000", AccessKey: "a", SecretKey: "b"},
		{Endpoint: "minio:9000", Bucket: "photos"},
	}
	for _, cfg := range tests {
		if _, err := NewS3Store(context.Background(), cfg); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
}

func TestS3StorePresignsPhotoURL(t *testing.T) {
	store, err := NewS3Store(context.Background(), S3Config{
		Endpoint:       "http://minio.local:9000",
		Bucket:         "photos",
		AccessKey:      "access",
		SecretKey:      "secret",
		ForcePathStyle: true,
		Prefix:         "/profiles/",
		PresignTTL:     5 * time.Minute,
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	url, err := store.URL(context.Background(), "avatar.png")
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if !strings.HasPrefix(url, "http://minio.local:9000/photos/profiles/avatar.png?") {
		t.Fatalf("unexpected url %q", url)
	}
	if !strings.Contains(url, "X-Amz-Signature=") || !strings.Contains(url, "X-Amz-Expires=300") {
		t.Fatalf("url is not presigned for 5 minutes: %q", url)
	}

	if _, err := store.URL(context.Background(), "../etc/passwd"); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}
