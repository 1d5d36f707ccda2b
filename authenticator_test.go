package accounts_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	accounts "github.com/revenuehive/accounts"
)

func activeAccountWithPassword(t *testing.T, password string) *accounts.Account {
	t.Helper()

	hash, err := accounts.HashPassword(password)
	require.NoError(t, err)

	return &accounts.Account{
		ID:           uuid.New(),
		Username:     "pepe",
		Email:        "pepe@example.com",
		PasswordHash: hash,
		Active:       true,
	}
}

func TestLoginReturnsBearerKey(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	users := &MockAccounts{}
	tokens := &MockAuthTokens{}

	acct := activeAccountWithPassword(t, "password12345")
	token := &accounts.AuthToken{Key: "abcdef0123456789abcdef0123456789abcdef01", AccountID: acct.ID}

	repo.On("Accounts").Return(users).Once()
	repo.On("AuthTokens").Return(tokens).Once()
	users.On("GetByUsername", mock.Anything, "pepe").Return(acct, nil).Once()
	tokens.On("GetOrCreate", mock.Anything, acct.ID).Return(token, nil).Once()

	auther := accounts.NewAuthenticator(repo).WithLogger(testLogger{})

	key, err := auther.Login(ctx, "pepe", "password12345")
	require.NoError(t, err)
	assert.Equal(t, token.Key, key)

	repo.AssertExpectations(t)
	users.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestLoginTrimsUsername(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	users := &MockAccounts{}
	tokens := &MockAuthTokens{}

	acct := activeAccountWithPassword(t, "password12345")

	repo.On("Accounts").Return(users).Once()
	repo.On("AuthTokens").Return(tokens).Once()
	users.On("GetByUsername", mock.Anything, "pepe").Return(acct, nil).Once()
	tokens.On("GetOrCreate", mock.Anything, acct.ID).
		Return(&accounts.AuthToken{Key: "k", AccountID: acct.ID}, nil).Once()

	auther := accounts.NewAuthenticator(repo).WithLogger(testLogger{})

	_, err := auther.Login(ctx, "  pepe  ", "password12345")
	require.NoError(t, err)
	users.AssertExpectations(t)
}

func TestLoginWrongPassword(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	users := &MockAccounts{}

	acct := activeAccountWithPassword(t, "password12345")

	repo.On("Accounts").Return(users).Once()
	users.On("GetByUsername", mock.Anything, "pepe").Return(acct, nil).Once()

	auther := accounts.NewAuthenticator(repo).WithLogger(testLogger{})

	_, err := auther.Login(ctx, "pepe", "nope")
	assert.ErrorIs(t, err, accounts.ErrMismatchedHashAndPassword)
}

// Unknown usernames collapse into the same generic error as wrong passwords
// so login responses never reveal whether an account exists.
func TestLoginUnknownUsername(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	users := &MockAccounts{}

	repo.On("Accounts").Return(users).Once()
	users.On("GetByUsername", mock.Anything, "ghost").
		Return(nil, notFoundErr()).Once()

	auther := accounts.NewAuthenticator(repo).WithLogger(testLogger{})

	_, err := auther.Login(ctx, "ghost", "whatever")
	assert.ErrorIs(t, err, accounts.ErrMismatchedHashAndPassword)
}

// A correct password against an unconfirmed account gets the explicit
// rejection; the caller proved the password so the disclosure is actionable.
func TestLoginUnconfirmedAccount(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	users := &MockAccounts{}

	acct := activeAccountWithPassword(t, "password12345")
	acct.Active = false

	repo.On("Accounts").Return(users).Once()
	users.On("GetByUsername", mock.Anything, "pepe").Return(acct, nil).Once()

	auther := accounts.NewAuthenticator(repo).WithLogger(testLogger{})

	_, err := auther.Login(ctx, "pepe", "password12345")
	assert.ErrorIs(t, err, accounts.ErrAccountNotConfirmed)
}

func TestLogoutRevokesToken(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	tokens := &MockAuthTokens{}

	repo.On("AuthTokens").Return(tokens).Once()
	tokens.On("Revoke", mock.Anything, "some-key").Return(nil).Once()

	auther := accounts.NewAuthenticator(repo).WithLogger(testLogger{})

	require.NoError(t, auther.Logout(ctx, "some-key"))
	tokens.AssertExpectations(t)
}

func TestLogoutUnknownKey(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	tokens := &MockAuthTokens{}

	repo.On("AuthTokens").Return(tokens).Once()
	tokens.On("Revoke", mock.Anything, "gone").Return(notFoundErr()).Once()

	auther := accounts.NewAuthenticator(repo).WithLogger(testLogger{})

	err := auther.Logout(ctx, "gone")
	assert.ErrorIs(t, err, accounts.ErrInvalidAuthToken)
}

func TestAccountFromToken(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	tokens := &MockAuthTokens{}

	acct := activeAccountWithPassword(t, "password12345")
	token := &accounts.AuthToken{Key: "live-key", AccountID: acct.ID, Account: acct}

	repo.On("AuthTokens").Return(tokens).Once()
	tokens.On("GetByKey", mock.Anything, "live-key").Return(token, nil).Once()

	auther := accounts.NewAuthenticator(repo).WithLogger(testLogger{})

	got, err := auther.AccountFromToken(ctx, "live-key")
	require.NoError(t, err)
	assert.Equal(t, acct.ID, got.ID)
}

func TestAccountFromTokenRejectsEmptyAndRevoked(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	tokens := &MockAuthTokens{}

	auther := accounts.NewAuthenticator(repo).WithLogger(testLogger{})

	_, err := auther.AccountFromToken(ctx, "")
	assert.ErrorIs(t, err, accounts.ErrInvalidAuthToken)

	repo.On("AuthTokens").Return(tokens).Once()
	tokens.On("GetByKey", mock.Anything, "revoked").Return(nil, notFoundErr()).Once()

	_, err = auther.AccountFromToken(ctx, "revoked")
	assert.ErrorIs(t, err, accounts.ErrInvalidAuthToken)
}

func TestGenerateTokenKey(t *testing.T) {
	a, err := accounts.GenerateTokenKey()
	require.NoError(t, err)
	b, err := accounts.GenerateTokenKey()
	require.NoError(t, err)

	assert.Len(t, a, 40)
	assert.Len(t, b, 40)
	assert.NotEqual(t, a, b)
}
