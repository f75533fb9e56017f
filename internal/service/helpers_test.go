package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"profilehub/internal/entity"
	"profilehub/internal/repository"
	"profilehub/internal/repository/repotest"
	"profilehub/internal/storage"
	"profilehub/internal/utils"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *recordingObserver) ObserveAuth(operation string, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.counts == nil {
		o.counts = make(map[string]int)
	}
	o.counts[operation+"/"+outcome]++
}

func (o *recordingObserver) count(key string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counts[key]
}

type harness struct {
	clock    *fakeClock
	profiles *repotest.ProfileRepo
	sessions *repotest.SessionRepo
	events   *repotest.AuthEventRepo
	photos   *storage.MemoryStore
	tokens   JWTTokenIssuer
	auth     *AuthService
	profile  *ProfileService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)}
	manager := &utils.JWTManager{
		AccessSecret:    []byte("access-secret"),
		RefreshSecret:   []byte("refresh-secret"),
		Issuer:          "profilehub-test",
		AccessTokenTTL:  2000 * time.Second,
		RefreshTokenTTL: 4000 * time.Second,
		Now:             clock.Now,
	}
	h := &harness{
		clock:    clock,
		profiles: repotest.NewProfileRepo(),
		sessions: repotest.NewSessionRepo(),
		events:   repotest.NewAuthEventRepo(),
		photos:   storage.NewMemoryStore(),
		tokens:   JWTTokenIssuer{Manager: manager},
	}
	hasher := BcryptPasswordHasher{Cost: bcrypt.MinCost}
	h.auth = NewAuthService(h.profiles, h.sessions, h.events, hasher, h.tokens, clock)
	h.profile = NewProfileService(h.profiles, hasher, h.photos, clock)
	return h
}

func (h *harness) seedProfile(t *testing.T, email string, password string, isSuper bool) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	id, err := h.profile.CreateProfile(ctx, RegisterInput{
		FirstName: "Lev",
		LastName:  "Landau",
		Sex:       entity.SexMale,
		Email:     email,
		Password:  password,
	}, "seed.png")
	if err != nil {
		t.Fatalf("seed profile %s: %v", email, err)
	}
	if isSuper {
		flag := true
		if err := h.profiles.Update(ctx, id, repository.ProfileUpdate{IsSuper: &flag}); err != nil {
			t.Fatalf("promote %s: %v", email, err)
		}
	}
	return id
}

func (h *harness) login(t *testing.T, email string, password string) *LoginResult {
	t.Helper()
	result, err := h.auth.Login(context.Background(), LoginInput{
		Email:      email,
		Password:   password,
		DeviceName: "test-agent",
		IPAddress:  "127.0.0.1",
	})
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return result
}

func pngPhoto() PhotoInput {
	body := "\x89PNG\r\n\x1a\nrest"
	return PhotoInput{ContentType: "image/png", Size: int64(len(body)), Body: strings.NewReader(body)}
}
