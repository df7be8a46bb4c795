package users

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// ClaimsLocalKey is where the bearer middleware stores validated claims on
// the request.
const ClaimsLocalKey = "claims"

const bearerScheme = "Bearer"

// bearerToken extracts the raw token from an Authorization header value.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, bearerScheme+" ") {
		return strings.TrimSpace(header[len(bearerScheme)+1:])
	}
	return header
}

// TokenProtected validates the bearer token on every request and makes the
// claims available to handlers via Locals and the request context.
func TokenProtected(validator TokenValidator, onError func(*fiber.Ctx, error) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			return onError(c, ErrInvalidToken)
		}

		claims, err := validator.Validate(raw)
		if err != nil {
			return onError(c, err)
		}

		c.Locals(ClaimsLocalKey, claims)
		c.SetUserContext(WithClaimsContext(c.UserContext(), claims))

		return c.Next()
	}
}

// ClaimsFromCtx returns the claims stored by TokenProtected.
func ClaimsFromCtx(c *fiber.Ctx) (*TokenClaims, bool) {
	claims, ok := c.Locals(ClaimsLocalKey).(*TokenClaims)
	return claims, ok
}

// CallerFromCtx reconstructs the policy caller for the current request.
func CallerFromCtx(c *fiber.Ctx) (Caller, bool) {
	claims, ok := ClaimsFromCtx(c)
	if !ok {
		return Caller{}, false
	}
	return claims.Caller(), true
}
