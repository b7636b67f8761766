package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/auth"
	apperrors "github.com/spec-kit/user-service/pkg/util"
)

// RequestIDKey is the fiber Locals key the requestid middleware writes to.
const RequestIDKey = "requestid"

// RequestLogger logs one line per request and feeds request metrics. Errors
// returned by later handlers are passed through untouched.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)

		status := c.Response().StatusCode()
		if err != nil {
			status = apperrors.ToDomainError(err).HTTPStatus
		}

		// Method and path alias the request buffer fiber reuses after the handler returns.
		method := utils.CopyString(c.Method())
		path := utils.CopyString(c.Path())
		metrics.RecordRequest(c.Route().Path, method, status, latency)

		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
		}
		if id, ok := c.Locals(RequestIDKey).(string); ok && id != "" {
			fields = append(fields, zap.String("request_id", utils.CopyString(id)))
		}
		if identity, ok := auth.IdentityFromContext(c); ok {
			fields = append(fields, zap.String("user_id", identity.ID))
		}

		switch {
		case status >= 500:
			logger.Error("request", fields...)
		case status >= 400:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
		return err
	}
}
