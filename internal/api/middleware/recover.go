package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
)

// Recover converts a handler panic into ErrInternal so the response goes
// through ErrorHandler like any other failure.
func Recover(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Error("panic in handler",
				slog.String("panic", fmt.Sprint(r)),
				slog.String("route", c.Method()+" "+c.Path()),
				slog.Any("request_id", c.Locals(requestid.ConfigDefault.ContextKey)),
				slog.String("stack", string(debug.Stack())),
			)
			err = domain.ErrInternal.WithError(fmt.Errorf("panic: %v", r))
		}()
		return c.Next()
	}
}
