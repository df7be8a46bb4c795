package users

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClaims is the identity snapshot embedded in every bearer token: the
// numeric user id, the email (carried as username), and the admin flag at
// issuance time. Role changes after issuance are not reflected until a new
// token is issued.
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Admin    bool   `json:"admin"`
}

// Caller reconstructs the policy caller from the claims.
func (c *TokenClaims) Caller() Caller {
	return Caller{ID: c.UserID, Admin: c.Admin}
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAtTime returns the issued at time
func (c *TokenClaims) IssuedAtTime() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// ensureDecodedClaims is the typed decode guard: a signed token whose payload
// is missing required identity fields is treated as invalid, an absent or
// zero id claim included.
func ensureDecodedClaims(c *TokenClaims) error {
	if c == nil || c.UserID == 0 {
		return ErrInvalidToken
	}
	if c.Username == "" {
		return ErrInvalidToken
	}
	return nil
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
