package users

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvConfig is the env-backed Config implementation. Values are loaded once
// at startup and read-only afterwards; there is no hidden mutable state.
type EnvConfig struct {
	SigningKey      string
	TokenExpiration int
	Issuer          string
	Audience        []string
	ServerPort      string
	DatabaseDSN     string
}

var _ Config = (*EnvConfig)(nil)

// LoadConfig reads configuration from the environment, layering a local
// .env file underneath when present.
func LoadConfig() *EnvConfig {
	if os.Getenv("ENV") != "prod" {
		// Missing .env is fine; the environment may carry everything.
		_ = godotenv.Load()
	}

	return &EnvConfig{
		SigningKey:      os.Getenv("JWT_SECRET"),
		TokenExpiration: envInt("JWT_EXPIRATION_HOURS", 24),
		Issuer:          os.Getenv("JWT_ISSUER"),
		Audience:        envList("JWT_AUDIENCE"),
		ServerPort:      envDefault("SERVER_PORT", "3000"),
		DatabaseDSN:     envDefault("DATABASE_DSN", "file:users.db?cache=shared&_pragma=foreign_keys(1)"),
	}
}

func (c *EnvConfig) GetSigningKey() string   { return c.SigningKey }
func (c *EnvConfig) GetTokenExpiration() int { return c.TokenExpiration }
func (c *EnvConfig) GetIssuer() string       { return c.Issuer }
func (c *EnvConfig) GetAudience() []string   { return c.Audience }

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
