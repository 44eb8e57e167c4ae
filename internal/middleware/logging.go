// Package middleware provides request-scoped middleware: logging, metrics,
// rate limiting and tracing.
package middleware

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logger is the shared structured logger. Lower layers (database, cache) log
// through it so every line carries the request correlation attributes.
var Logger *slog.Logger

type contextKey string

// Context keys under which request correlation values travel. AuthRequired
// and ContextMiddleware populate them; the logger handler reads them back.
const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
	TraceIDKey   contextKey = "trace_id"
)

// correlatedHandler decorates a slog.Handler with the request correlation
// attributes found in the record's context.
type correlatedHandler struct {
	slog.Handler
}

func (h *correlatedHandler) Handle(ctx context.Context, r slog.Record) error {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		r.AddAttrs(slog.String("request_id", requestID))
	}
	if userID, ok := ctx.Value(UserIDKey).(uint); ok {
		r.AddAttrs(slog.Any("user_id", userID))
	}
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		r.AddAttrs(slog.String("trace_id", traceID))
	}
	return h.Handler.Handle(ctx, r)
}

func init() {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	// JSON in production for log shippers, text locally for readability.
	var base slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if os.Getenv("APP_ENV") == "production" {
		base = slog.NewJSONHandler(os.Stdout, opts)
	}

	Logger = slog.New(&correlatedHandler{base})
}

// ContextMiddleware copies the request ID (set by the requestid middleware)
// and any authenticated identity from Fiber locals into the request context,
// so services and repositories logging with that context stay correlated.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		if requestID, ok := c.Locals("requestid").(string); ok {
			ctx = context.WithValue(ctx, RequestIDKey, requestID)
		}
		if userID, ok := c.Locals("userID").(uint); ok {
			ctx = context.WithValue(ctx, UserIDKey, userID)
		}
		if traceID, ok := c.Locals("traceID").(string); ok {
			ctx = context.WithValue(ctx, TraceIDKey, traceID)
		}

		c.SetUserContext(ctx)
		return c.Next()
	}
}

// StructuredLogger logs one line per completed request with method, path,
// status and latency. Errors returned by downstream handlers are logged at
// error level and re-raised for the Fiber error handler.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		attrs := []any{
			slog.Int("status", c.Response().StatusCode()),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
			slog.String("user_agent", c.Get("User-Agent")),
		}

		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
			Logger.ErrorContext(c.UserContext(), "request failed", attrs...)
			return err
		}

		Logger.InfoContext(c.UserContext(), "request processed", attrs...)
		return nil
	}
}
