package service

import (
	"context"
	"fmt"
	"sync"

	"profilehub/internal/entity"
	"profilehub/internal/repository"
	"profilehub/internal/utils"
)

// CredentialStore checks an email/password pair against stored profiles.
// Unknown emails and wrong passwords both wrap ErrInvalidCredentials.
type CredentialStore struct {
	profiles     repository.ProfileRepository
	passwordHash PasswordHasher

	dummyOnce sync.Once
	dummyHash string
}

func NewCredentialStore(profiles repository.ProfileRepository, passwordHash PasswordHasher) *CredentialStore {
	return &CredentialStore{profiles: profiles, passwordHash: passwordHash}
}

func (c *CredentialStore) Verify(ctx context.Context, email string, password string) (*entity.Profile, error) {
	profile, err := c.profiles.FindByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if profile == nil {
		// burn a comparison so unknown emails take as long as known ones
		_ = c.passwordHash.Verify(c.dummy(), password)
		return nil, fmt.Errorf("%w: unknown email", ErrInvalidCredentials)
	}
	if !c.passwordHash.Verify(profile.PasswordHash, password) {
		return nil, fmt.Errorf("%w: password mismatch", ErrInvalidCredentials)
	}
	return profile, nil
}

func (c *CredentialStore) dummy() string {
	c.dummyOnce.Do(func() {
		if hash, err := c.passwordHash.Hash("not-a-real-password"); err == nil {
			c.dummyHash = hash
		}
	})
	return c.dummyHash
}
