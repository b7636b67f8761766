package observability

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/user-service/internal/config"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

func TestNewLogger_LevelFallback(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "DEBUG"}, "user-service")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLogger(config.LoggerConfig{Level: "chatty"}, "")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestMetrics_RecordAndExpose(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/users/:id", "PUT", 200, 15*time.Millisecond)
	m.RecordRequest("/users/:id", "PUT", 200, 5*time.Millisecond)
	m.RecordError("/login", "POST", "ERR_INVALID_CREDENTIALS")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("/users/:id", "PUT", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("/login", "POST", "ERR_INVALID_CREDENTIALS")))

	size := 3.0
	require.NoError(t, m.RegisterGauge("denylist_entries", "Revoked tokens held in memory.", func() float64 { return size }))
	assert.Error(t, m.RegisterGauge("denylist_entries", "duplicate", func() float64 { return 0 }))

	app := fiber.New()
	app.Get("/metrics", m.Handler())
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `usersvc_http_requests_total{method="PUT",route="/users/:id",status="200"} 2`)
	assert.Contains(t, string(body), "usersvc_denylist_entries 3")
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	assert.NoError(t, m.RegisterGauge("x", "x", func() float64 { return 0 }))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	metrics := NewMetrics()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(RequestIDKey, "req-1")
		return c.Next()
	})
	app.Use(RequestLogger(zap.New(core), metrics))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/denied", func(c *fiber.Ctx) error {
		return apperrors.NewForbidden("ROLE_FORBIDDEN", "Forbidden", "auth")
	})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("boom") })

	for _, path := range []string{"/ok", "/denied", "/boom"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
	}

	entries := logs.All()
	require.Len(t, entries, 3)

	levels := map[string]zapcore.Level{}
	for _, entry := range entries {
		fields := entry.ContextMap()
		assert.Equal(t, "req-1", fields["request_id"])
		levels[fields["path"].(string)] = entry.Level
	}
	assert.Equal(t, zapcore.InfoLevel, levels["/ok"])
	assert.Equal(t, zapcore.WarnLevel, levels["/denied"])
	assert.Equal(t, zapcore.ErrorLevel, levels["/boom"])

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("/denied", "GET", "403")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("/boom", "GET", "500")))
	assert.True(t, strings.HasPrefix(entries[0].Message, "request"))
}

func TestRequestLogger_LabelsAreCopied(t *testing.T) {
	metrics := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), metrics))
	app.Get("/a", func(c *fiber.Ctx) error { return c.SendString("a") })
	app.Post("/b", func(c *fiber.Ctx) error { return c.SendString("b") })
	app.Delete("/c", func(c *fiber.Ctx) error { return c.SendString("c") })

	for _, req := range [][2]string{{http.MethodGet, "/a"}, {http.MethodPost, "/b"}, {http.MethodDelete, "/c"}} {
		resp, err := app.Test(httptest.NewRequest(req[0], req[1], nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
	}

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)

	var series []string
	for _, family := range families {
		if family.GetName() != "usersvc_http_requests_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range m.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			series = append(series, labels["method"]+" "+labels["route"])
		}
	}
	assert.ElementsMatch(t, []string{"GET /a", "POST /b", "DELETE /c"}, series)
}
