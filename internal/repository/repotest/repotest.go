// Package repotest provides in-memory repositories with the same contracts
// as the gorm implementations, for tests of the layers above them.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"profilehub/internal/entity"
	"profilehub/internal/repository"

	"github.com/google/uuid"
)

type ProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]entity.Profile
}

func NewProfileRepo() *ProfileRepo {
	return &ProfileRepo{profiles: make(map[uuid.UUID]entity.Profile)}
}

func (r *ProfileRepo) Create(_ context.Context, profile *entity.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.profiles {
		if existing.Email == profile.Email {
			return repository.ErrDuplicateEmail
		}
	}
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	profile.UpdatedAt = time.Now()
	r.profiles[profile.ID] = *profile
	return nil
}

func (r *ProfileRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[id]
	if !ok {
		return nil, nil
	}
	return &profile, nil
}

func (r *ProfileRepo) FindByEmail(_ context.Context, email string) (*entity.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, profile := range r.profiles {
		if profile.Email == email {
			p := profile
			return &p, nil
		}
	}
	return nil, nil
}

func (r *ProfileRepo) FindRole(_ context.Context, id uuid.UUID) (*entity.ProfileRole, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[id]
	if !ok {
		return nil, nil
	}
	return &entity.ProfileRole{ID: profile.ID, IsSuper: profile.IsSuper}, nil
}

func (r *ProfileRepo) Update(_ context.Context, id uuid.UUID, update repository.ProfileUpdate) error {
	if update.IsEmpty() {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[id]
	if !ok {
		return repository.ErrProfileNotFound
	}
	if update.Email != nil {
		for otherID, other := range r.profiles {
			if otherID != id && other.Email == *update.Email {
				return repository.ErrDuplicateEmail
			}
		}
		profile.Email = *update.Email
	}
	if update.FirstName != nil {
		profile.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		profile.LastName = *update.LastName
	}
	if update.Sex != nil {
		profile.Sex = *update.Sex
	}
	if update.PhotoName != nil {
		profile.PhotoName = *update.PhotoName
	}
	if update.PasswordHash != nil {
		profile.PasswordHash = *update.PasswordHash
	}
	if update.RegisteredAt != nil {
		profile.RegisteredAt = *update.RegisteredAt
	}
	if update.IsSuper != nil {
		profile.IsSuper = *update.IsSuper
	}
	profile.UpdatedAt = time.Now()
	r.profiles[id] = profile
	return nil
}

func (r *ProfileRepo) List(_ context.Context, limit, offset int) ([]entity.Profile, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]entity.Profile, 0, len(r.profiles))
	for _, profile := range r.profiles {
		all = append(all, profile)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].RegisteredAt.Equal(all[j].RegisteredAt) {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].RegisteredAt.Before(all[j].RegisteredAt)
	})
	total := int64(len(all))
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (r *ProfileRepo) DeleteAll(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles = make(map[uuid.UUID]entity.Profile)
	return nil
}

func (r *ProfileRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.profiles)
}

// SessionRepo mirrors the conditional-update semantics of the SQL store.
// CreateErr, when set, is returned by Create instead of inserting.
type SessionRepo struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]entity.Session
	CreateErr error
}

func NewSessionRepo() *SessionRepo {
	return &SessionRepo{sessions: make(map[uuid.UUID]entity.Session)}
}

func (r *SessionRepo) Create(_ context.Context, session *entity.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateErr != nil {
		return r.CreateErr
	}
	for _, existing := range r.sessions {
		if existing.UserID == session.UserID && existing.DeviceID == session.DeviceID {
			return repository.ErrDuplicateSession
		}
	}
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.CreatedAt = time.Now()
	r.sessions[session.ID] = *session
	return nil
}

func (r *SessionRepo) FindActive(_ context.Context, issuedAt int64, deviceID string) (*entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.DeviceID == deviceID && session.RefreshTokenIssuedAt == issuedAt {
			s := session
			return &s, nil
		}
	}
	return nil, nil
}

func (r *SessionRepo) Rotate(_ context.Context, filter repository.SessionFilter, update repository.SessionUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, session := range r.sessions {
		if session.UserID != filter.UserID || session.DeviceID != filter.DeviceID || session.RefreshTokenIssuedAt != filter.IssuedAt {
			continue
		}
		session.IP = update.IP
		session.DeviceName = update.DeviceName
		session.RefreshTokenIssuedAt = update.IssuedAt
		session.LastActiveAt = update.LastActiveAt
		r.sessions[id] = session
		return nil
	}
	return repository.ErrSessionNotFound
}

func (r *SessionRepo) Delete(_ context.Context, filter repository.SessionFilter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, session := range r.sessions {
		if session.UserID == filter.UserID && session.DeviceID == filter.DeviceID && session.RefreshTokenIssuedAt == filter.IssuedAt {
			delete(r.sessions, id)
			return nil
		}
	}
	return repository.ErrSessionNotFound
}

func (r *SessionRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]entity.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sessions []entity.Session
	for _, session := range r.sessions {
		if session.UserID == userID {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastActiveAt.After(sessions[j].LastActiveAt)
	})
	return sessions, nil
}

func (r *SessionRepo) DeleteAll(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = make(map[uuid.UUID]entity.Session)
	return nil
}

func (r *SessionRepo) All() []entity.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessions := make([]entity.Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

type AuthEventRepo struct {
	mu     sync.Mutex
	events []entity.AuthEvent
}

func NewAuthEventRepo() *AuthEventRepo {
	return &AuthEventRepo{}
}

func (r *AuthEventRepo) Log(_ context.Context, event *entity.AuthEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = time.Now()
	r.events = append(r.events, *event)
	return nil
}

func (r *AuthEventRepo) DeleteAll(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	return nil
}

func (r *AuthEventRepo) Actions() []entity.AuthAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]entity.AuthAction, 0, len(r.events))
	for _, event := range r.events {
		actions = append(actions, event.Action)
	}
	return actions
}

var (
	_ repository.ProfileRepository   = (*ProfileRepo)(nil)
	_ repository.SessionRepository   = (*SessionRepo)(nil)
	_ repository.AuthEventRepository = (*AuthEventRepo)(nil)
)
