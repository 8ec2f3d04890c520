package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiddlewareApp(t *testing.T) *fiber.App {
	t.Helper()
	srv := &Server{config: testConfig()}
	app := fiber.New()
	srv.SetupMiddleware(app)
	app.All("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })
	return app
}

func hit(t *testing.T, app *fiber.App, method string, header map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, "/ping", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestSetupMiddleware_SecurityHeadersAndRequestID(t *testing.T) {
	app := newMiddlewareApp(t)
	resp := hit(t, app, http.MethodGet, nil)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Frame-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
}

func TestSetupMiddleware_LimiterKeepsCORSAndSkipsPreflight(t *testing.T) {
	app := newMiddlewareApp(t)
	origin := map[string]string{"Origin": "http://localhost:5173"}

	for i := 0; i < 100; i++ {
		require.Equal(t, fiber.StatusOK, hit(t, app, http.MethodPost, origin).StatusCode)
	}

	limited := hit(t, app, http.MethodPost, origin)
	assert.Equal(t, fiber.StatusTooManyRequests, limited.StatusCode)
	assert.Equal(t, "http://localhost:5173", limited.Header.Get("Access-Control-Allow-Origin"))

	preflight := hit(t, app, http.MethodOptions, map[string]string{
		"Origin":                        "http://localhost:5173",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Equal(t, fiber.StatusNoContent, preflight.StatusCode)
	assert.Contains(t, preflight.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
}
