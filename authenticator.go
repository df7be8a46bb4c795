package users

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// Auther combines the credential store and the token service into the
// password authentication flow.
type Auther struct {
	repo            RepositoryManager
	signingKey      []byte
	tokenExpiration int
	issuer          string
	audience        []string
	logger          Logger
	tokenService    TokenService
}

// NewAuthenticator returns a new Authenticator backed by the given
// repository manager and configured token settings.
func NewAuthenticator(repo RepositoryManager, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		repo:            repo,
		signingKey:      []byte(opts.GetSigningKey()),
		tokenExpiration: opts.GetTokenExpiration(),
		issuer:          opts.GetIssuer(),
		audience:        opts.GetAudience(),
		logger:          defLogger{},
		tokenService:    tokenService,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	s.tokenService = NewTokenService(
		s.signingKey,
		s.tokenExpiration,
		s.issuer,
		s.audience,
		logger,
	)
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

var _ Authenticator = (*Auther)(nil)

// Authenticate reports whether email and password identify an active
// account. An unknown email or a soft-deleted account is a clean false, not
// a fault; only infrastructure failures surface as errors.
func (s *Auther) Authenticate(ctx context.Context, email, password string) (bool, error) {
	user, err := s.lookup(ctx, email)
	if err != nil {
		if IsRecordNotFound(err) {
			// Burn a compare so unknown emails take as long as bad passwords.
			ComparePasswordAndHash(password, RandomPasswordHash())
			return false, nil
		}
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during verification")
	}

	if !user.CanAuthenticate() || user.Credentials == nil {
		return false, nil
	}

	return VerifyPassword(password, user.Credentials.Hash), nil
}

// Login verifies the credentials and issues a signed bearer token carrying
// the identity snapshot {id, username, admin}.
func (s *Auther) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.lookup(ctx, email)
	if err != nil {
		if IsRecordNotFound(err) {
			ComparePasswordAndHash(password, RandomPasswordHash())
			return "", ErrMismatchedHashAndPassword
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during login")
	}

	if !user.CanAuthenticate() || user.Credentials == nil {
		return "", ErrMismatchedHashAndPassword
	}

	if err := ComparePasswordAndHash(password, user.Credentials.Hash); err != nil {
		s.logger.Debug("login password mismatch", "email", email)
		return "", ErrMismatchedHashAndPassword
	}

	token, err := s.tokenService.Generate(user)
	if err != nil {
		s.logger.Error("login token generation failed", "error", err)
		return "", err
	}

	return token, nil
}

// SessionFromToken validates a raw bearer token and returns its claims.
func (s *Auther) SessionFromToken(raw string) (*TokenClaims, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	return claims, nil
}

func (s *Auther) lookup(ctx context.Context, email string) (*User, error) {
	return s.repo.Users().FindOne(ctx, UserLookup{
		Email:              email,
		IncludeCredentials: true,
	})
}
