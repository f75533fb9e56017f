package middleware

import (
	"profilehub/internal/service"

	"github.com/labstack/echo/v4"
)

const contextCallerKey = "auth_caller"

func SetCaller(c echo.Context, caller service.Identity) {
	c.Set(contextCallerKey, caller)
}

func CallerFromContext(c echo.Context) (service.Identity, bool) {
	caller, ok := c.Get(contextCallerKey).(service.Identity)
	return caller, ok
}
