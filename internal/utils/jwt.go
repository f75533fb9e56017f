package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

const (
	accessTokenType  = "access"
	refreshTokenType = "refresh"

	defaultAccessTokenTTL  = 2000 * time.Second
	defaultRefreshTokenTTL = 4000 * time.Second
)

func init() {
	// iat doubles as the session fingerprint; second precision would make two
	// refreshes within the same second indistinguishable.
	jwt.TimePrecision = time.Millisecond
}

type JWTManager struct {
	AccessSecret    []byte
	RefreshSecret   []byte
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Now             func() time.Time
}

type AccessClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	DeviceID string `json:"deviceId"`
	Type     string `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshInfo is what a verified refresh token says about its session.
type RefreshInfo struct {
	ProfileID string
	DeviceID  string
	IssuedAt  int64
}

func (m JWTManager) IssueAccessToken(profileID string) (string, time.Duration, error) {
	ttl := m.accessTTL()
	now := m.now()
	claims := AccessClaims{
		Type:             accessTokenType,
		RegisteredClaims: m.registered(profileID, now, ttl),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.AccessSecret)
	if err != nil {
		return "", 0, err
	}
	return signed, ttl, nil
}

// IssueRefreshToken mints a refresh token whose iat is the later of now and
// notBefore. Expiry always counts from now.
func (m JWTManager) IssueRefreshToken(profileID string, deviceID string, notBefore time.Time) (string, time.Duration, error) {
	if deviceID == "" {
		return "", 0, errors.New("device id is required")
	}
	ttl := m.refreshTTL()
	now := m.now()
	registered := m.registered(profileID, now, ttl)
	if notBefore.After(now) {
		registered.IssuedAt = jwt.NewNumericDate(notBefore)
	}
	claims := RefreshClaims{
		DeviceID:         deviceID,
		Type:             refreshTokenType,
		RegisteredClaims: registered,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.refreshSecret())
	if err != nil {
		return "", 0, err
	}
	return signed, ttl, nil
}

func (m JWTManager) ParseAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.parse(tokenString, claims, m.AccessSecret); err != nil {
		return nil, err
	}
	if claims.Type != accessTokenType || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// DecodeRefreshToken verifies signature and expiry. Every failure collapses
// into ErrInvalidToken.
func (m JWTManager) DecodeRefreshToken(tokenString string) (*RefreshInfo, error) {
	claims := &RefreshClaims{}
	if err := m.parse(tokenString, claims, m.refreshSecret()); err != nil {
		return nil, err
	}
	if claims.Type != refreshTokenType || claims.Subject == "" || claims.DeviceID == "" || claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}
	return &RefreshInfo{
		ProfileID: claims.Subject,
		DeviceID:  claims.DeviceID,
		IssuedAt:  claims.IssuedAt.UnixMilli(),
	}, nil
}

func (m JWTManager) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.Issuer))
	}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, options...)
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}

func (m JWTManager) registered(subject string, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    m.Issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (m JWTManager) refreshSecret() []byte {
	if len(m.RefreshSecret) > 0 {
		return m.RefreshSecret
	}
	return m.AccessSecret
}

func (m JWTManager) accessTTL() time.Duration {
	if m.AccessTokenTTL > 0 {
		return m.AccessTokenTTL
	}
	return defaultAccessTokenTTL
}

func (m JWTManager) refreshTTL() time.Duration {
	if m.RefreshTokenTTL > 0 {
		return m.RefreshTokenTTL
	}
	return defaultRefreshTokenTTL
}

func (m JWTManager) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}
