package handler

import (
	"net/http"

	"profilehub/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type TestingHandler struct {
	Service *service.TestingService
	Logger  logrus.FieldLogger
}

func NewTestingHandler(svc *service.TestingService) *TestingHandler {
	return &TestingHandler{Service: svc}
}

func (h *TestingHandler) Reset(c echo.Context) error {
	if err := h.Service.Reset(c.Request().Context()); err != nil {
		return writeServiceError(c, h.Logger, err)
	}
	return c.NoContent(http.StatusNoContent)
}
