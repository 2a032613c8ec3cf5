package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flowpay/helpdesk/internal/observability"
	apperrors "github.com/flowpay/helpdesk/pkg/util"
)

func newTestApp() *fiber.App {
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), time.Second)
	return app
}

func decodeErrorEnvelope(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var envelope struct {
		Error map[string]any `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope.Error
}

func TestErrorMiddlewareRendersDomainError(t *testing.T) {
	app := newTestApp()
	app.Post("/tickets/:id/complete", func(c *fiber.Ctx) error {
		return apperrors.NewInvalidTransition("ticket is not in progress", map[string]any{
			"ticket_id": c.Params("id"),
		})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/tickets/abc/complete", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	errBody := decodeErrorEnvelope(t, resp)
	assert.Equal(t, "INVALID_TRANSITION", errBody["code"])
	assert.Equal(t, "ticket is not in progress", errBody["message"])
	details := errBody["details"].(map[string]any)
	assert.Equal(t, "abc", details["ticket_id"])
}

func TestErrorMiddlewareMapsUnknownErrorsToInternal(t *testing.T) {
	app := newTestApp()
	app.Get("/broken", func(c *fiber.Ctx) error {
		return io.ErrUnexpectedEOF
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/broken", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	errBody := decodeErrorEnvelope(t, resp)
	assert.Equal(t, "INTERNAL_ERROR", errBody["code"])
}

func TestErrorMiddlewareRecoversPanics(t *testing.T) {
	app := newTestApp()
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("unexpected state")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	errBody := decodeErrorEnvelope(t, resp)
	assert.Equal(t, "INTERNAL_ERROR", errBody["code"])
}

func TestSuccessfulRequestPassesThrough(t *testing.T) {
	app := newTestApp()
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"data": "ok"})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
