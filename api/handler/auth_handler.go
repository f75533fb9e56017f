package handler

import (
	"errors"
	"net/http"
	"time"

	"profilehub/api/middleware"
	"profilehub/internal/dto"
	"profilehub/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const RefreshCookieName = "refreshToken"

type AuthHandler struct {
	Service           *service.AuthService
	Validate          *validator.Validate
	Logger            logrus.FieldLogger
	RefreshCookieName string
	CookieDomain      string
	SecureCookies     bool
	SameSite          http.SameSite
}

func NewAuthHandler(svc *service.AuthService, validate *validator.Validate) *AuthHandler {
	return &AuthHandler{
		Service:           svc,
		Validate:          validate,
		RefreshCookieName: RefreshCookieName,
		SecureCookies:     true,
		SameSite:          http.SameSiteStrictMode,
	}
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := decodeJSON(c, &req); err != nil {
		return writeError(c, http.StatusBadRequest, err)
	}
	if fieldErrors := validationErrors(h.Validate, req); len(fieldErrors) > 0 {
		return writeFieldErrors(c, fieldErrors)
	}
	result, err := h.Service.Login(c.Request().Context(), service.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		DeviceName: c.Request().UserAgent(),
		IPAddress:  c.RealIP(),
	})
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	h.setRefreshCookie(c, result.RefreshToken, result.RefreshExpiresIn)
	return c.JSON(http.StatusOK, dto.LoginResponse{AccessToken: result.AccessToken})
}

// Refresh reads the refresh token from the cookie only.
func (h *AuthHandler) Refresh(c echo.Context) error {
	refreshToken := h.readRefreshCookie(c)
	if refreshToken == "" {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	result, err := h.Service.Refresh(c.Request().Context(), service.RefreshInput{
		RefreshToken: refreshToken,
		DeviceName:   c.Request().UserAgent(),
		IPAddress:    c.RealIP(),
	})
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	h.setRefreshCookie(c, result.RefreshToken, result.RefreshExpiresIn)
	return c.JSON(http.StatusOK, dto.LoginResponse{AccessToken: result.AccessToken})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	refreshToken := h.readRefreshCookie(c)
	if refreshToken == "" {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	if err := h.Service.Logout(c.Request().Context(), refreshToken, c.RealIP()); err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	h.clearRefreshCookie(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Sessions(c echo.Context) error {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	}
	sessions, err := h.Service.Sessions(c.Request().Context(), caller.ID)
	if err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, dto.SessionResponsesFromEntities(sessions))
}

func (h *AuthHandler) setRefreshCookie(c echo.Context, token string, expiresIn int64) {
	if token == "" {
		return
	}
	maxAge := int(expiresIn)
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetCookie(&http.Cookie{
		Name:     h.RefreshCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.CookieDomain,
		MaxAge:   maxAge,
		Expires:  time.Now().Add(time.Duration(expiresIn) * time.Second),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: h.SameSite,
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     h.RefreshCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: h.SameSite,
	})
}

func (h *AuthHandler) readRefreshCookie(c echo.Context) string {
	cookie, err := c.Cookie(h.RefreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
