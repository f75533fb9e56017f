package routes

import (
	"net/http"
	"time"

	"profilehub/api/handler"
	"profilehub/api/middleware"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type Router struct {
	Echo           *echo.Echo
	Auth           *handler.AuthHandler
	Profiles       *handler.ProfileHandler
	Testing        *handler.TestingHandler
	AuthMiddleware middleware.AuthMiddleware
	AuthRate       *middleware.RateLimiter
	LoginRate      *middleware.RateLimiter
	UploadDir      string
	Metrics        http.Handler
}

func NewRouter(
	e *echo.Echo,
	authHandler *handler.AuthHandler,
	profileHandler *handler.ProfileHandler,
	authMiddleware middleware.AuthMiddleware,
) *Router {
	return &Router{
		Echo:           e,
		Auth:           authHandler,
		Profiles:       profileHandler,
		AuthMiddleware: authMiddleware,
		AuthRate:       middleware.NewRateLimiter(rate.Limit(5), 10, 5*time.Minute),
		LoginRate:      middleware.NewRateLimiter(rate.Limit(2), 4, 10*time.Minute),
	}
}

func (r *Router) RegisterRoutes() {
	e := r.Echo

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if r.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(r.Metrics))
	}
	if r.UploadDir != "" {
		e.Static("/uploads", r.UploadDir)
	}

	e.POST("/auth/register", r.Profiles.Register, r.AuthRate.Middleware(), r.Profiles.UploadLimit())
	e.POST("/auth/login", r.Auth.Login, r.LoginRate.Middleware())
	e.POST("/auth/refresh-token", r.Auth.Refresh, r.AuthRate.Middleware())
	e.POST("/auth/logout", r.Auth.Logout, r.AuthRate.Middleware())
	e.GET("/auth/sessions", r.Auth.Sessions, r.AuthMiddleware.RequireAuth)

	e.GET("/profiles", r.Profiles.List)
	e.GET("/profile/:id", r.Profiles.Get)
	e.PUT("/profile/:id", r.Profiles.Update,
		r.Profiles.UploadLimit(),
		r.AuthMiddleware.RequireAuth,
		middleware.RequireOwnerOrElevated("id"),
	)

	if r.Testing != nil {
		e.DELETE("/testing/all-data", r.Testing.Reset)
	}
}
