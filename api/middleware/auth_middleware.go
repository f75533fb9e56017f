package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"profilehub/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type CallerResolver interface {
	ResolveCaller(ctx context.Context, accessToken string) (*service.Identity, error)
}

type AuthMiddleware struct {
	Resolver CallerResolver
	Logger   logrus.FieldLogger
}

func (m AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if m.Resolver == nil {
			return unauthorized(c)
		}
		token := extractBearerToken(c.Request())
		if token == "" {
			return unauthorized(c)
		}
		caller, err := m.Resolver.ResolveCaller(c.Request().Context(), token)
		if errors.Is(err, service.ErrInvalidToken) {
			return unauthorized(c)
		}
		if err != nil {
			if m.Logger != nil {
				m.Logger.WithError(err).Error("resolve caller")
			}
			return c.JSON(http.StatusInternalServerError, map[string]string{"message": "internal server error"})
		}
		SetCaller(c, *caller)
		return next(c)
	}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
}

func extractBearerToken(r *http.Request) string {
	authorization := r.Header.Get("Authorization")
	if authorization == "" {
		return ""
	}
	parts := strings.SplitN(authorization, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
