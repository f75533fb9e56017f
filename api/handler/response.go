package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"profilehub/internal/dto"
	"profilehub/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

func decodeJSON(c echo.Context, target any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

// decodeOptionalJSON tolerates an empty body and unknown fields.
func decodeOptionalJSON(c echo.Context, target any) error {
	err := json.NewDecoder(c.Request().Body).Decode(target)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeError(c echo.Context, status int, err error) error {
	return c.JSON(status, map[string]string{"message": err.Error()})
}

func writeFieldErrors(c echo.Context, fieldErrors []dto.FieldError) error {
	return c.JSON(http.StatusBadRequest, dto.APIErrorResult{ErrorsMessages: fieldErrors})
}

// writeServiceError maps service errors to statuses. Anything unrecognised is
// logged and answered with a generic 500.
func writeServiceError(c echo.Context, logger logrus.FieldLogger, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		return writeError(c, http.StatusUnauthorized, errors.New("unauthorized"))
	case errors.Is(err, service.ErrForbidden):
		return writeError(c, http.StatusForbidden, errors.New("forbidden"))
	case errors.Is(err, service.ErrProfileNotFound):
		return writeError(c, http.StatusNotFound, errors.New("profile not found"))
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		return writeFieldErrors(c, []dto.FieldError{{Message: "email is already registered", Field: "email"}})
	case errors.Is(err, service.ErrInvalidInput):
		return writeFieldErrors(c, []dto.FieldError{{Message: err.Error()}})
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger.WithError(err).WithFields(logrus.Fields{
		"method": c.Request().Method,
		"uri":    c.Request().RequestURI,
	}).Error("request failed")
	return writeError(c, http.StatusInternalServerError, errors.New("internal server error"))
}

// absoluteURL turns a store-relative photo path into a URL on this host.
func absoluteURL(c echo.Context, url string) string {
	if !strings.HasPrefix(url, "/") {
		return url
	}
	return c.Scheme() + "://" + c.Request().Host + url
}
