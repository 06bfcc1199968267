package middleware

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// PollingPaths são consultados em intervalos curtos pelo painel e pelo
// monitor da câmera; respostas 2xx neles vão para debug.
var PollingPaths = []string{"/health", "/ready", "/api/system-status", "/preview.jpg", "/status"}

// Logger writes one access line per request. The level follows the status:
// 5xx error, 4xx warn, polling endpoints debug, everything else info.
func Logger(logger *slog.Logger, quiet ...string) fiber.Handler {
	if len(quiet) == 0 {
		quiet = PollingPaths
	}
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		level := accessLevel(status, c.Path(), quiet)
		if !logger.Enabled(c.UserContext(), level) {
			return err
		}

		attrs := []slog.Attr{
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.IP()),
			slog.Any("request_id", c.Locals(requestid.ConfigDefault.ContextKey)),
		}
		if user, ok := c.Locals(LocalUsername).(string); ok && user != "" {
			attrs = append(attrs, slog.String("username", user))
		}
		logger.LogAttrs(c.UserContext(), level, "http request", attrs...)

		return err
	}
}

func accessLevel(status int, path string, quiet []string) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	}
	for _, p := range quiet {
		if path == p || strings.HasPrefix(path, p+"/") {
			return slog.LevelDebug
		}
	}
	return slog.LevelInfo
}
