package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/chamada/internal/admin"
	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
)

const (
	// SessionCookie guarda o JWT da sessão do dashboard.
	SessionCookie = "chamada_session"
	// LocalUsername is the key to retrieve the logged in user from context
	LocalUsername = "username"
)

type SessionDependencies struct {
	JWTService *admin.JWTService
	Logger     *slog.Logger
	// Secure marca o cookie como HTTPS-only.
	Secure bool
}

// RequireSession rejects requests without a valid session cookie with 401.
func RequireSession(deps SessionDependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookie)
		if token == "" {
			deps.Logger.Debug("missing session cookie", "path", c.Path())
			return domain.ErrUnauthorized
		}

		claims, err := deps.JWTService.ValidateToken(token)
		if err != nil {
			deps.Logger.Warn("invalid session", "error", err, "path", c.Path())
			ClearSession(c, deps.Secure)
			return domain.ErrUnauthorized
		}

		c.Locals(LocalUsername, claims.Username)
		return c.Next()
	}
}

func SetSession(c *fiber.Ctx, token string, ttl time.Duration, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func ClearSession(c *fiber.Ctx, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Username retrieves the logged in user from context
func Username(c *fiber.Ctx) (string, error) {
	user, ok := c.Locals(LocalUsername).(string)
	if !ok || user == "" {
		return "", domain.ErrUnauthorized
	}
	return user, nil
}
