package service

import (
	"context"
	"fmt"

	"profilehub/internal/repository"
)

// TestingService wipes all state. It is only reachable in the test environment.
type TestingService struct {
	sessions   repository.SessionRepository
	authEvents repository.AuthEventRepository
	profiles   repository.ProfileRepository
	photos     PhotoStore
}

func NewTestingService(
	sessions repository.SessionRepository,
	authEvents repository.AuthEventRepository,
	profiles repository.ProfileRepository,
	photos PhotoStore,
) *TestingService {
	return &TestingService{sessions: sessions, authEvents: authEvents, profiles: profiles, photos: photos}
}

func (s *TestingService) Reset(ctx context.Context) error {
	if err := s.sessions.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	if s.authEvents != nil {
		if err := s.authEvents.DeleteAll(ctx); err != nil {
			return fmt.Errorf("clear auth events: %w", err)
		}
	}
	if err := s.profiles.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear profiles: %w", err)
	}
	if err := s.photos.Clear(ctx); err != nil {
		return fmt.Errorf("clear photos: %w", err)
	}
	return nil
}
