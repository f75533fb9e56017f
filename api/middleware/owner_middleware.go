package middleware

import (
	"errors"
	"net/http"

	"profilehub/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequireOwnerOrElevated lets the request through when the caller owns the
// profile named by the path parameter or holds the elevated role.
func RequireOwnerOrElevated(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, ok := CallerFromContext(c)
			if !ok {
				return unauthorized(c)
			}
			ownerID, err := uuid.Parse(c.Param(param))
			if err != nil {
				return c.JSON(http.StatusNotFound, map[string]string{"message": "profile not found"})
			}
			if err := service.AuthorizeProfileMutation(caller, ownerID); err != nil {
				if errors.Is(err, service.ErrForbidden) {
					return c.JSON(http.StatusForbidden, map[string]string{"message": "forbidden"})
				}
				return err
			}
			return next(c)
		}
	}
}
