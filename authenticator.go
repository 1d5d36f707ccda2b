package accounts

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Authenticator verifies credentials and manages bearer tokens. It is the
// credential-verifier collaborator for every authenticated operation.
type Authenticator struct {
	repo   RepositoryManager
	logger Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager) *Authenticator {
	return &Authenticator{
		repo:   repo,
		logger: defLogger{},
	}
}

func (a *Authenticator) WithLogger(logger Logger) *Authenticator {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// Login verifies the username/password pair and returns the account's
// bearer key, minting one on first login. Unknown usernames and wrong
// passwords collapse into the same generic error so responses never reveal
// whether the username exists. A correct password against an unconfirmed
// account is rejected with an explicit error: the caller proved the
// password, so the disclosure is acceptable and actionable.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, error) {
	acct, err := a.repo.Accounts().GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if goerrors.IsNotFound(err) {
			return "", ErrMismatchedHashAndPassword
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account during login")
	}

	if err := ComparePasswordAndHash(password, acct.PasswordHash); err != nil {
		return "", ErrMismatchedHashAndPassword
	}

	if !acct.Active {
		return "", ErrAccountNotConfirmed
	}

	token, err := a.repo.AuthTokens().GetOrCreate(ctx, acct.ID)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue auth token")
	}

	return token.Key, nil
}

// Logout revokes the bearer key. The key stops authenticating immediately;
// the account record is untouched.
func (a *Authenticator) Logout(ctx context.Context, key string) error {
	if err := a.repo.AuthTokens().Revoke(ctx, key); err != nil {
		if goerrors.IsNotFound(err) {
			return ErrInvalidAuthToken
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to revoke auth token")
	}
	return nil
}

// AccountFromToken resolves a bearer key to its owning account.
func (a *Authenticator) AccountFromToken(ctx context.Context, key string) (*Account, error) {
	if key == "" {
		return nil, ErrInvalidAuthToken
	}

	token, err := a.repo.AuthTokens().GetByKey(ctx, key)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrInvalidAuthToken
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up auth token")
	}

	if token.Account == nil {
		a.logger.Error("auth token has no joined account", "key_prefix", keyPrefix(token.Key))
		return nil, ErrInvalidAuthToken
	}

	return token.Account, nil
}

func keyPrefix(key string) string {
	if len(key) <= 8 {
		return key
	}
	return key[:8]
}
