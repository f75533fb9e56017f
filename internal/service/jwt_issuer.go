package service

import (
	"time"

	"profilehub/internal/utils"

	"github.com/google/uuid"
)

type JWTTokenIssuer struct {
	Manager *utils.JWTManager
}

func (j JWTTokenIssuer) IssueAccess(profileID uuid.UUID) (string, time.Duration, error) {
	if j.Manager == nil {
		return "", 0, ErrInvalidToken
	}
	return j.Manager.IssueAccessToken(profileID.String())
}

func (j JWTTokenIssuer) IssueRefresh(profileID uuid.UUID, deviceID string, notBefore time.Time) (string, time.Duration, error) {
	if j.Manager == nil {
		return "", 0, ErrInvalidToken
	}
	return j.Manager.IssueRefreshToken(profileID.String(), deviceID, notBefore)
}

func (j JWTTokenIssuer) DecodeRefresh(token string) (*RefreshFingerprint, error) {
	if j.Manager == nil {
		return nil, ErrInvalidToken
	}
	info, err := j.Manager.DecodeRefreshToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	profileID, err := uuid.Parse(info.ProfileID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &RefreshFingerprint{
		ProfileID: profileID,
		DeviceID:  info.DeviceID,
		IssuedAt:  info.IssuedAt,
	}, nil
}

func (j JWTTokenIssuer) DecodeAccess(token string) (uuid.UUID, error) {
	if j.Manager == nil {
		return uuid.Nil, ErrInvalidToken
	}
	claims, err := j.Manager.ParseAccessToken(token)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	profileID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return profileID, nil
}
