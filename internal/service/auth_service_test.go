package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"profilehub/internal/entity"
)

func TestLoginCreatesExactlyOneSession(t *testing.T) {
	h := newHarness(t)
	profileID := h.seedProfile(t, "landau@mipt.com", "Secret12", false)

	result := h.login(t, "Landau@MIPT.com ", "Secret12")
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", result)
	}
	if result.ExpiresIn != 2000 || result.RefreshExpiresIn != 4000 {
		t.Fatalf("unexpected ttl %d/%d", result.ExpiresIn, result.RefreshExpiresIn)
	}

	sessions := h.sessions.All()
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	fingerprint, err := h.tokens.DecodeRefresh(result.RefreshToken)
	if err != nil {
		t.Fatalf("decode refresh: %v", err)
	}
	session := sessions[0]
	if session.UserID != profileID || session.DeviceID != fingerprint.DeviceID || session.RefreshTokenIssuedAt != fingerprint.IssuedAt {
		t.Fatalf("session %+v does not match fingerprint %+v", session, fingerprint)
	}
	if session.IP != "127.0.0.1" || session.DeviceName != "test-agent" {
		t.Fatalf("unexpected session metadata %+v", session)
	}

	h.login(t, "landau@mipt.com", "Secret12")
	if got := len(h.sessions.All()); got != 2 {
		t.Fatalf("second login should add its own device session, got %d sessions", got)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h := newHarness(t)
	h.seedProfile(t, "landau@mipt.com", "Secret12", false)
	ctx := context.Background()

	_, unknownErr := h.auth.Login(ctx, LoginInput{Email: "a@x.com", Password: "Secret12"})
	if !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", unknownErr)
	}
	_, mismatchErr := h.auth.Login(ctx, LoginInput{Email: "landau@mipt.com", Password: "wrong-one"})
	if !errors.Is(mismatchErr, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", mismatchErr)
	}
	if unknownErr.Error() == mismatchErr.Error() {
		t.Fatalf("internal messages should tell the two failures apart")
	}
	if got := len(h.sessions.All()); got != 0 {
		t.Fatalf("expected no sessions, got %d", got)
	}

	failed := 0
	for _, action := range h.events.Actions() {
		if action == entity.LoginFailed {
			failed++
		}
	}
	if failed != 2 {
		t.Fatalf("expected 2 login_failed events, got %d", failed)
	}
}

func TestLoginFailsWhenSessionCannotBeStored(t *testing.T) {
	h := newHarness(t)
	h.seedProfile(t, "landau@mipt.com", "Secret12", false)
	h.sessions.CreateErr = errors.New("connection reset")

	result, err := h.auth.Login(context.Background(), LoginInput{Email: "landau@mipt.com", Password: "Secret12"})
	if err == nil {
		t.Fatalf("expected an error")
	}
	if result != nil {
		t.Fatalf("no tokens may be returned when the session was not stored")
	}
	if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrInvalidToken) {
		t.Fatalf("storage failure must not look like an auth failure: %v", err)
	}
}

func TestRefreshRotatesAndRejectsReplay(t *testing.T) {
	h := newHarness(t)
	h.seedProfile(t, "landau@mipt.com", "Secret12", false)
	ctx := context.Background()
	first := h.login(t, "landau@mipt.com", "Secret12")
	before := h.sessions.All()[0]

	h.clock.Advance(time.Second)
	second, err := h.auth.Refresh(ctx, RefreshInput{RefreshToken: first.RefreshToken, IPAddress: "10.0.0.2"})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if _, err := h.auth.Refresh(ctx, RefreshInput{RefreshToken: first.RefreshToken}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("replayed refresh token: expected ErrInvalidToken, got %v", err)
	}

	sessions := h.sessions.All()
	if len(sessions) != 1 {
		t.Fatalf("rotation must update in place, got %d sessions", len(sessions))
	}
	after := sessions[0]
	if after.ID != before.ID || after.DeviceID != before.DeviceID {
		t.Fatalf("rotation changed session identity: %+v -> %+v", before, after)
	}
	if after.RefreshTokenIssuedAt == before.RefreshTokenIssuedAt {
		t.Fatalf("fingerprint was not rotated")
	}
	if after.IP != "10.0.0.2" || after.DeviceName != "test-agent" {
		t.Fatalf("unexpected rotated metadata %+v", after)
	}

	h.clock.Advance(time.Second)
	if _, err := h.auth.Refresh(ctx, RefreshInput{RefreshToken: second.RefreshToken}); err != nil {
		t.Fatalf("refresh with current token: %v", err)
	}
}

func TestLogoutRevokesFingerprint(t *testing.T) {
	h := newHarness(t)
	h.seedProfile(t, "landau@mipt.com", "Secret12", false)
	ctx := context.Background()
	result := h.login(t, "landau@mipt.com", "Secret12")

	if err := h.auth.Logout(ctx, result.RefreshToken, "127.0.0.1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if got := len(h.sessions.All()); got != 0 {
		t.Fatalf("expected session to be deleted, %d left", got)
	}
	if _, err := h.auth.Refresh(ctx, RefreshInput{RefreshToken: result.RefreshToken}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh after logout: expected ErrInvalidToken, got %v", err)
	}
	if err := h.auth.Logout(ctx, result.RefreshToken, "127.0.0.1"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("second logout: expected ErrInvalidToken, got %v", err)
	}
}

func TestLogoutWithRotatedTokenKeepsSession(t *testing.T) {
	h := newHarness(t)
	h.seedProfile(t, "landau@mipt.com", "Secret12", false)
	ctx := context.Background()
	stale := h.login(t, "landau@mipt.com", "Secret12")

	h.clock.Advance(time.Second)
	current, err := h.auth.Refresh(ctx, RefreshInput{RefreshToken: stale.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if err := h.auth.Logout(ctx, stale.RefreshToken, ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("logout with rotated token: expected ErrInvalidToken, got %v", err)
	}
	if got := len(h.sessions.All()); got != 1 {
		t.Fatalf("active session must survive a stale logout, got %d sessions", got)
	}
	if err := h.auth.Logout(ctx, current.RefreshToken, ""); err != nil {
		t.Fatalf("logout with current token: %v", err)
	}
}

func TestRefreshWithinOneMillisecondRejectsReplay(t *testing.T) {
	h := newHarness(t)
	h.seedProfile(t, "landau@mipt.com", "Secret12", false)
	ctx := context.Background()
	first := h.login(t, "landau@mipt.com", "Secret12")
	before := h.sessions.All()[0]

	second, err := h.auth.Refresh(ctx, RefreshInput{RefreshToken: first.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if after := h.sessions.All()[0]; after.RefreshTokenIssuedAt <= before.RefreshTokenIssuedAt {
		t.Fatalf("fingerprint must advance without a clock tick: %d -> %d", before.RefreshTokenIssuedAt, after.RefreshTokenIssuedAt)
	}
	if _, err := h.auth.Refresh(ctx, RefreshInput{RefreshToken: first.RefreshToken}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("replayed refresh token: expected ErrInvalidToken, got %v", err)
	}

	third, err := h.auth.Refresh(ctx, RefreshInput{RefreshToken: second.RefreshToken})
	if err != nil {
		t.Fatalf("refresh with current token: %v", err)
	}
	if _, err := h.auth.Refresh(ctx, RefreshInput{RefreshToken: second.RefreshToken}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("replayed second token: expected ErrInvalidToken, got %v", err)
	}
	if err := h.auth.Logout(ctx, third.RefreshToken, ""); err != nil {
		t.Fatalf("logout with current token: %v", err)
	}
}

func TestLogoutOnlyRemovesOwnDevice(t *testing.T) {
	h := newHarness(t)
	h.seedProfile(t, "landau@mipt.com", "Secret12", false)
	ctx := context.Background()
	laptop := h.login(t, "landau@mipt.com", "Secret12")
	phone := h.login(t, "landau@mipt.com", "Secret12")

	sessions := h.sessions.All()
	if len(sessions) != 2 || sessions[0].RefreshTokenIssuedAt != sessions[1].RefreshTokenIssuedAt {
		t.Fatalf("expected two sessions sharing one issuedAt, got %+v", sessions)
	}

	if err := h.auth.Logout(ctx, laptop.RefreshToken, ""); err != nil {
		t.Fatalf("logout: %v", err)
	}
	remaining := h.sessions.All()
	if len(remaining) != 1 {
		t.Fatalf("logout must remove exactly one session, %d left", len(remaining))
	}
	if _, err := h.auth.Refresh(ctx, RefreshInput{RefreshToken: phone.RefreshToken}); err != nil {
		t.Fatalf("other device must keep refreshing: %v", err)
	}
}

func TestRefreshOutlivesAccessToken(t *testing.T) {
	h := newHarness(t)
	h.seedProfile(t, "landau@mipt.com", "Secret12", false)
	ctx := context.Background()
	result := h.login(t, "landau@mipt.com", "Secret12")

	h.clock.Advance(2001 * time.Second)
	if _, err := h.tokens.DecodeAccess(result.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired access token, got %v", err)
	}

	refreshed, err := h.auth.Refresh(ctx, RefreshInput{RefreshToken: result.RefreshToken})
	if err != nil {
		t.Fatalf("refresh after access expiry: %v", err)
	}
	if _, err := h.tokens.DecodeAccess(refreshed.AccessToken); err != nil {
		t.Fatalf("new access token should be valid: %v", err)
	}
}

func TestRefreshRejectsExpiredRefreshToken(t *testing.T) {
	h := newHarness(t)
	h.seedProfile(t, "landau@mipt.com", "Secret12", false)
	result := h.login(t, "landau@mipt.com", "Secret12")

	h.clock.Advance(4001 * time.Second)
	if _, err := h.auth.Refresh(context.Background(), RefreshInput{RefreshToken: result.RefreshToken}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	h := newHarness(t)
	for _, token := range []string{"", "   ", "garbage"} {
		if _, err := h.auth.Refresh(context.Background(), RefreshInput{RefreshToken: token}); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Refresh(%q): expected ErrInvalidToken, got %v", token, err)
		}
	}
}

// Both requests may pass the fingerprint probe, but the conditional rotation
// lets only one of them move the session forward.
func TestConcurrentRefreshWithSameTokenHasSingleWinner(t *testing.T) {
	h := newHarness(t)
	h.seedProfile(t, "landau@mipt.com", "Secret12", false)
	result := h.login(t, "landau@mipt.com", "Secret12")
	h.clock.Advance(time.Second)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		rejected  int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.auth.Refresh(context.Background(), RefreshInput{RefreshToken: result.RefreshToken})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrInvalidToken):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || rejected != attempts-1 {
		t.Fatalf("successes=%d rejected=%d, want 1/%d", successes, rejected, attempts-1)
	}
}

func TestResolveCaller(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	profileID := h.seedProfile(t, "root@mipt.com", "Secret12", true)
	result := h.login(t, "root@mipt.com", "Secret12")

	identity, err := h.auth.ResolveCaller(ctx, result.AccessToken)
	if err != nil {
		t.Fatalf("resolve caller: %v", err)
	}
	if identity.ID != profileID || !identity.IsSuper {
		t.Fatalf("unexpected identity %+v", identity)
	}

	if _, err := h.auth.ResolveCaller(ctx, result.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh token as bearer: expected ErrInvalidToken, got %v", err)
	}

	if err := h.profiles.DeleteAll(ctx); err != nil {
		t.Fatalf("delete profiles: %v", err)
	}
	_, err = h.auth.ResolveCaller(ctx, result.AccessToken)
	if !errors.Is(err, ErrCallerProfileMissing) {
		t.Fatalf("expected ErrCallerProfileMissing, got %v", err)
	}
	if errors.Is(err, ErrInvalidToken) {
		t.Fatalf("a missing profile must not be reported as unauthenticated")
	}
}

func TestSessionsListsCallerDevices(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	landau := h.seedProfile(t, "landau@mipt.com", "Secret12", false)
	h.seedProfile(t, "kapitsa@mipt.com", "Secret12", false)
	h.login(t, "landau@mipt.com", "Secret12")
	h.login(t, "landau@mipt.com", "Secret12")
	h.login(t, "kapitsa@mipt.com", "Secret12")

	sessions, err := h.auth.Sessions(ctx, landau)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
}

func TestObserverSeesOutcomes(t *testing.T) {
	h := newHarness(t)
	observer := &recordingObserver{}
	h.auth.Observer = observer
	h.seedProfile(t, "landau@mipt.com", "Secret12", false)
	ctx := context.Background()

	result := h.login(t, "landau@mipt.com", "Secret12")
	_, _ = h.auth.Login(ctx, LoginInput{Email: "landau@mipt.com", Password: "nope-nope"})
	_ = h.auth.Logout(ctx, result.RefreshToken, "")
	_ = h.auth.Logout(ctx, result.RefreshToken, "")

	checks := map[string]int{
		"login/success":   1,
		"login/rejected":  1,
		"logout/success":  1,
		"logout/rejected": 1,
	}
	for key, want := range checks {
		if got := observer.count(key); got != want {
			t.Errorf("%s = %d, want %d", key, got, want)
		}
	}
}
