package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"profilehub/internal/entity"
	"profilehub/internal/repository"
	"profilehub/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const DefaultPageSize = 10

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

type ProfileService struct {
	profiles     repository.ProfileRepository
	passwordHash PasswordHasher
	photos       PhotoStore
	clock        Clock

	PageSize int
	Logger   logrus.FieldLogger
}

func NewProfileService(
	profiles repository.ProfileRepository,
	passwordHash PasswordHasher,
	photos PhotoStore,
	clock Clock,
) *ProfileService {
	return &ProfileService{
		profiles:     profiles,
		passwordHash: passwordHash,
		photos:       photos,
		clock:        clock,
		PageSize:     DefaultPageSize,
	}
}

// Register stores the photo and creates the profile. The photo is removed
// again when the profile row cannot be written.
func (s *ProfileService) Register(ctx context.Context, input RegisterInput, photo PhotoInput) (uuid.UUID, error) {
	email := utils.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return uuid.Nil, ErrInvalidInput
	}
	existing, err := s.profiles.FindByEmail(ctx, email)
	if err != nil {
		return uuid.Nil, err
	}
	if existing != nil {
		return uuid.Nil, ErrEmailAlreadyRegistered
	}

	photoName, err := s.storePhoto(ctx, photo)
	if err != nil {
		return uuid.Nil, err
	}

	id, err := s.CreateProfile(ctx, input, photoName)
	if err != nil {
		s.discardPhoto(ctx, photoName)
		return uuid.Nil, err
	}
	return id, nil
}

// CreateProfile writes a profile that references an already stored photo.
func (s *ProfileService) CreateProfile(ctx context.Context, input RegisterInput, photoName string) (uuid.UUID, error) {
	hash, err := s.passwordHash.Hash(input.Password)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hash password: %w", err)
	}

	profile := &entity.Profile{
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Sex:          input.Sex,
		Email:        utils.NormalizeEmail(input.Email),
		PasswordHash: hash,
		PhotoName:    photoName,
		RegisteredAt: s.now(),
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return uuid.Nil, ErrEmailAlreadyRegistered
		}
		return uuid.Nil, err
	}
	return profile.ID, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, id uuid.UUID) (*entity.Profile, error) {
	profile, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (s *ProfileService) ListProfiles(ctx context.Context, page int) (*ProfilePage, error) {
	if page < 1 {
		page = 1
	}
	size := s.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	items, total, err := s.profiles.List(ctx, size, (page-1)*size)
	if err != nil {
		return nil, err
	}
	return &ProfilePage{
		PagesCount: utils.PageCount(total, size),
		Page:       page,
		PageSize:   size,
		TotalCount: total,
		Items:      items,
	}, nil
}

// UpdateProfile applies changes on behalf of caller. Ownership is checked
// before anything else, so a foreign profile is forbidden even for an empty
// change set. An empty change set on an allowed profile is a no-op.
func (s *ProfileService) UpdateProfile(ctx context.Context, caller Identity, id uuid.UUID, changes ProfileChanges) error {
	if err := AuthorizeProfileMutation(caller, id); err != nil {
		return err
	}
	if !caller.IsSuper {
		changes = changes.WithoutElevated()
	}

	current, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrProfileNotFound
	}

	update := repository.ProfileUpdate{
		FirstName:    trimmed(changes.FirstName),
		LastName:     trimmed(changes.LastName),
		Sex:          changes.Sex,
		PasswordHash: changes.PasswordHash,
		RegisteredAt: changes.RegisteredAt,
		IsSuper:      changes.IsSuper,
	}
	if changes.Email != nil {
		email := utils.NormalizeEmail(*changes.Email)
		update.Email = &email
	}
	if update.IsEmpty() && changes.Photo == nil {
		return nil
	}

	newPhoto := ""
	if changes.Photo != nil {
		newPhoto, err = s.storePhoto(ctx, *changes.Photo)
		if err != nil {
			return err
		}
		update.PhotoName = &newPhoto
	}

	if err := s.profiles.Update(ctx, id, update); err != nil {
		if newPhoto != "" {
			s.discardPhoto(ctx, newPhoto)
		}
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return ErrEmailAlreadyRegistered
		case errors.Is(err, repository.ErrProfileNotFound):
			return ErrProfileNotFound
		}
		return err
	}

	if newPhoto != "" && current.PhotoName != "" && current.PhotoName != newPhoto {
		s.discardPhoto(ctx, current.PhotoName)
	}
	return nil
}

func (s *ProfileService) PhotoURL(ctx context.Context, photoName string) (string, error) {
	if photoName == "" {
		return "", nil
	}
	return s.photos.URL(ctx, photoName)
}

func (s *ProfileService) storePhoto(ctx context.Context, photo PhotoInput) (string, error) {
	if photo.Body == nil {
		return "", ErrInvalidInput
	}
	ext, ok := photoExtensions[photo.ContentType]
	if !ok {
		return "", fmt.Errorf("%w: unsupported photo type %q", ErrInvalidInput, photo.ContentType)
	}
	name := uuid.NewString() + ext
	if err := s.photos.Save(ctx, name, photo.ContentType, photo.Body); err != nil {
		return "", fmt.Errorf("store photo: %w", err)
	}
	return name, nil
}

func (s *ProfileService) discardPhoto(ctx context.Context, name string) {
	if err := s.photos.Delete(ctx, name); err != nil {
		s.logger().WithError(err).WithField("photo", name).Warn("delete photo")
	}
}

func (s *ProfileService) logger() logrus.FieldLogger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}

func (s *ProfileService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	return &v
}
