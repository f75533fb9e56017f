package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), "profilehub", "")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitRejectsEndpointWithoutHost(t *testing.T) {
	if _, err := Init(context.Background(), "profilehub", "http://"); err == nil {
		t.Fatalf("expected invalid endpoint error")
	}
}

func TestMiddlewarePassesThrough(t *testing.T) {
	e := echo.New()
	e.Use(Middleware("profilehub"))
	e.GET("/ping", func(c echo.Context) error {
		return c.String(http.StatusTeapot, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot || rec.Body.String() != "pong" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}

func TestTraceIDEmptyWithoutSpan(t *testing.T) {
	if id := TraceID(context.Background()); id != "" {
		t.Fatalf("expected empty trace id, got %q", id)
	}
}
