// Package tokenauth provides fiber middleware that authenticates requests
// with an opaque bearer token looked up through a caller-supplied resolver.
// It is transport glue only: it knows how to pull a key out of the
// Authorization header, not what the key means.
package tokenauth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	// DefaultContextKey is where the resolved principal is stored in Locals.
	DefaultContextKey = "account"
	// DefaultKeyContextKey is where the raw token key is stored in Locals.
	DefaultKeyContextKey = "auth_token_key"
)

// ErrMissingToken is passed to the error handler when no usable
// Authorization header is present.
var ErrMissingToken = fiber.NewError(fiber.StatusUnauthorized, "missing or malformed authorization header")

// Config holds middleware settings.
type Config struct {
	// Resolver maps a bearer key to the principal stored in Locals.
	// Returning an error rejects the request.
	Resolver func(ctx context.Context, key string) (any, error)

	// ContextKey overrides where the principal is stored. Defaults to
	// DefaultContextKey.
	ContextKey string

	// AuthSchemes lists accepted Authorization schemes. Defaults to
	// "Token" and "Bearer".
	AuthSchemes []string

	// ErrorHandler renders rejections. Defaults to a 401 JSON body.
	ErrorHandler func(c *fiber.Ctx, err error) error
}

// New creates the middleware from cfg. Resolver is required.
func New(cfg Config) fiber.Handler {
	if cfg.Resolver == nil {
		panic("tokenauth: Config.Resolver is required")
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if len(cfg.AuthSchemes) == 0 {
		cfg.AuthSchemes = []string{"Token", "Bearer"}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	return func(c *fiber.Ctx) error {
		key := extractKey(c.Get(fiber.HeaderAuthorization), cfg.AuthSchemes)
		if key == "" {
			return cfg.ErrorHandler(c, ErrMissingToken)
		}

		principal, err := cfg.Resolver(c.UserContext(), key)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, principal)
		c.Locals(DefaultKeyContextKey, key)

		return c.Next()
	}
}

// TokenKey returns the raw bearer key stored by the middleware, if any.
func TokenKey(c *fiber.Ctx) string {
	if key, ok := c.Locals(DefaultKeyContextKey).(string); ok {
		return key
	}
	return ""
}

func extractKey(header string, schemes []string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}

	for _, scheme := range schemes {
		if strings.EqualFold(parts[0], scheme) {
			return strings.TrimSpace(parts[1])
		}
	}

	return ""
}

func defaultErrorHandler(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "invalid or missing authentication token",
	})
}
