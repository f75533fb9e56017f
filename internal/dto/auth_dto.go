package dto

import (
	"time"

	"profilehub/internal/entity"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}

type SessionResponse struct {
	ID                   string    `json:"id"`
	IP                   string    `json:"ip"`
	DeviceID             string    `json:"deviceId"`
	DeviceName           string    `json:"deviceName"`
	UserID               string    `json:"userId"`
	LastActiveDate       time.Time `json:"lastActiveDate"`
	RefreshTokenIssuedAt int64     `json:"refreshTokenIssuedAt"`
}

func SessionResponseFromEntity(session *entity.Session) SessionResponse {
	return SessionResponse{
		ID:                   session.ID.String(),
		IP:                   session.IP,
		DeviceID:             session.DeviceID,
		DeviceName:           session.DeviceName,
		UserID:               session.UserID.String(),
		LastActiveDate:       session.LastActiveAt,
		RefreshTokenIssuedAt: session.RefreshTokenIssuedAt,
	}
}

func SessionResponsesFromEntities(sessions []entity.Session) []SessionResponse {
	responses := make([]SessionResponse, 0, len(sessions))
	for i := range sessions {
		responses = append(responses, SessionResponseFromEntity(&sessions[i]))
	}
	return responses
}

type FieldError struct {
	Message string `json:"message"`
	Field   string `json:"field"`
}

// APIErrorResult is the body of every 400 caused by bad input.
type APIErrorResult struct {
	ErrorsMessages []FieldError `json:"errorsMessages"`
}
