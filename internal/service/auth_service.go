package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"profilehub/internal/entity"
	"profilehub/internal/repository"
	"profilehub/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

const (
	OperationLogin   = "login"
	OperationRefresh = "refresh"
	OperationLogout  = "logout"

	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"

	maxFingerprintAttempts = 3
)

type AuthService struct {
	profiles   repository.ProfileRepository
	sessions   repository.SessionRepository
	authEvents repository.AuthEventRepository

	credentials *CredentialStore
	tokens      TokenIssuer
	clock       Clock

	Observer AuthObserver
	Logger   logrus.FieldLogger
}

func NewAuthService(
	profiles repository.ProfileRepository,
	sessions repository.SessionRepository,
	authEvents repository.AuthEventRepository,
	passwordHash PasswordHasher,
	tokens TokenIssuer,
	clock Clock,
) *AuthService {
	return &AuthService{
		profiles:    profiles,
		sessions:    sessions,
		authEvents:  authEvents,
		credentials: NewCredentialStore(profiles, passwordHash),
		tokens:      tokens,
		clock:       clock,
	}
}

// Login opens a new device session and returns its first token pair.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (result *LoginResult, err error) {
	defer func() { s.observe(OperationLogin, err) }()

	profile, err := s.credentials.Verify(ctx, input.Email, input.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.logEvent(ctx, nil, input.IPAddress, entity.LoginFailed, map[string]any{
				"email":  utils.NormalizeEmail(input.Email),
				"reason": err.Error(),
			})
		}
		return nil, err
	}

	deviceID := uuid.NewString()
	result, fingerprint, err := s.issuePair(profile.ID, deviceID, 0)
	if err != nil {
		return nil, err
	}

	session := &entity.Session{
		UserID:               profile.ID,
		DeviceID:             deviceID,
		DeviceName:           input.DeviceName,
		IP:                   input.IPAddress,
		LastActiveAt:         s.now(),
		RefreshTokenIssuedAt: fingerprint.IssuedAt,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logEvent(ctx, &profile.ID, input.IPAddress, entity.LoginSucceeded, map[string]any{"device_id": deviceID})
	return result, nil
}

// VerifyRefresh accepts a refresh token only while its fingerprint is the
// current one of an existing session.
func (s *AuthService) VerifyRefresh(ctx context.Context, refreshToken string) (*entity.Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrInvalidToken
	}
	fingerprint, err := s.tokens.DecodeRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	session, err := s.sessions.FindActive(ctx, fingerprint.IssuedAt, fingerprint.DeviceID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.UserID != fingerprint.ProfileID {
		return nil, ErrInvalidToken
	}
	return session, nil
}

// Refresh rotates the session to a new token pair. The presented token stops
// being accepted as soon as the rotation lands.
func (s *AuthService) Refresh(ctx context.Context, input RefreshInput) (result *LoginResult, err error) {
	defer func() { s.observe(OperationRefresh, err) }()

	session, err := s.VerifyRefresh(ctx, input.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			s.logEvent(ctx, nil, input.IPAddress, entity.RefreshRejected, nil)
		}
		return nil, err
	}

	result, fingerprint, err := s.issuePair(session.UserID, session.DeviceID, session.RefreshTokenIssuedAt)
	if err != nil {
		return nil, err
	}

	deviceName := input.DeviceName
	if deviceName == "" {
		deviceName = session.DeviceName
	}
	err = s.sessions.Rotate(ctx, repository.SessionFilter{
		UserID:   session.UserID,
		DeviceID: session.DeviceID,
		IssuedAt: session.RefreshTokenIssuedAt,
	}, repository.SessionUpdate{
		IP:           input.IPAddress,
		DeviceName:   deviceName,
		IssuedAt:     fingerprint.IssuedAt,
		LastActiveAt: s.now(),
	})
	if errors.Is(err, repository.ErrSessionNotFound) {
		s.logEvent(ctx, &session.UserID, input.IPAddress, entity.RefreshRejected, map[string]any{"device_id": session.DeviceID})
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("rotate session: %w", err)
	}

	s.logEvent(ctx, &session.UserID, input.IPAddress, entity.TokenRefreshed, map[string]any{"device_id": session.DeviceID})
	return result, nil
}

// Logout deletes the session the refresh token belongs to. A token that was
// already rotated away or logged out is rejected.
func (s *AuthService) Logout(ctx context.Context, refreshToken string, ipAddress string) (err error) {
	defer func() { s.observe(OperationLogout, err) }()

	session, err := s.VerifyRefresh(ctx, refreshToken)
	if err != nil {
		return err
	}
	err = s.sessions.Delete(ctx, repository.SessionFilter{
		UserID:   session.UserID,
		DeviceID: session.DeviceID,
		IssuedAt: session.RefreshTokenIssuedAt,
	})
	if errors.Is(err, repository.ErrSessionNotFound) {
		return ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	s.logEvent(ctx, &session.UserID, ipAddress, entity.LoggedOut, map[string]any{"device_id": session.DeviceID})
	return nil
}

func (s *AuthService) Sessions(ctx context.Context, profileID uuid.UUID) ([]entity.Session, error) {
	return s.sessions.ListByUser(ctx, profileID)
}

// ResolveCaller maps a bearer access token to the caller's identity. A valid
// token whose profile is gone is a server-side inconsistency, not a 401.
func (s *AuthService) ResolveCaller(ctx context.Context, accessToken string) (*Identity, error) {
	profileID, err := s.tokens.DecodeAccess(accessToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	role, err := s.profiles.FindRole(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, fmt.Errorf("%w: %s", ErrCallerProfileMissing, profileID)
	}
	return &Identity{ID: role.ID, IsSuper: role.IsSuper}, nil
}

// issuePair mints an access/refresh pair. The refresh fingerprint is strictly
// greater than previousIssuedAt (unix ms), so a rotation never reproduces the
// fingerprint it replaces even within one millisecond.
func (s *AuthService) issuePair(profileID uuid.UUID, deviceID string, previousIssuedAt int64) (*LoginResult, *RefreshFingerprint, error) {
	accessToken, accessTTL, err := s.tokens.IssueAccess(profileID)
	if err != nil {
		return nil, nil, fmt.Errorf("issue access token: %v", err)
	}

	var (
		refreshToken string
		refreshTTL   time.Duration
		fingerprint  *RefreshFingerprint
	)
	for attempt := int64(1); attempt <= maxFingerprintAttempts; attempt++ {
		var notBefore time.Time
		if previousIssuedAt > 0 {
			notBefore = time.UnixMilli(previousIssuedAt + attempt)
		}
		refreshToken, refreshTTL, err = s.tokens.IssueRefresh(profileID, deviceID, notBefore)
		if err != nil {
			return nil, nil, fmt.Errorf("issue refresh token: %v", err)
		}
		// read iat back from the signed token so it matches what decoding yields later
		fingerprint, err = s.tokens.DecodeRefresh(refreshToken)
		if err != nil {
			return nil, nil, fmt.Errorf("decode issued refresh token: %v", err)
		}
		if fingerprint.IssuedAt > previousIssuedAt {
			break
		}
	}
	if fingerprint.IssuedAt <= previousIssuedAt {
		return nil, nil, errors.New("issue refresh token: fingerprint did not advance")
	}
	return &LoginResult{
		AccessToken:      accessToken,
		ExpiresIn:        int64(accessTTL / time.Second),
		RefreshToken:     refreshToken,
		RefreshExpiresIn: int64(refreshTTL / time.Second),
	}, fingerprint, nil
}

func (s *AuthService) logEvent(
	ctx context.Context,
	profileID *uuid.UUID,
	ipAddress string,
	action entity.AuthAction,
	metadata map[string]any,
) {
	if s.authEvents == nil {
		return
	}
	var payload datatypes.JSON
	if metadata != nil {
		bytes, err := json.Marshal(metadata)
		if err != nil {
			s.logger().WithError(err).Warn("encode auth event metadata")
			return
		}
		payload = datatypes.JSON(bytes)
	}

	event := &entity.AuthEvent{
		ProfileID: profileID,
		Action:    action,
		Metadata:  payload,
	}
	if ipAddress != "" {
		event.IP = &ipAddress
	}
	if err := s.authEvents.Log(ctx, event); err != nil {
		s.logger().WithError(err).WithField("action", action).Warn("write auth event")
	}
}

func (s *AuthService) observe(operation string, err error) {
	if s.Observer == nil {
		return
	}
	outcome := OutcomeSuccess
	switch {
	case err == nil:
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidToken):
		outcome = OutcomeRejected
	default:
		outcome = OutcomeError
	}
	s.Observer.ObserveAuth(operation, outcome)
}

func (s *AuthService) logger() logrus.FieldLogger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}

func (s *AuthService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}
