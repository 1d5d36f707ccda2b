package accounts_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	accounts "github.com/revenuehive/accounts"
)

type controllerFixture struct {
	app      *fiber.App
	repo     *MockRepositoryManager
	users    *MockAccounts
	profiles *MockProfiles
	tokens   *MockAuthTokens
	notifier *MockNotifier
}

func newControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()

	f := &controllerFixture{
		repo:     &MockRepositoryManager{},
		users:    &MockAccounts{},
		profiles: &MockProfiles{},
		tokens:   &MockAuthTokens{},
		notifier: &MockNotifier{},
	}

	codec := accounts.NewConfirmationCodec([]byte("test-secret"))
	auther := accounts.NewAuthenticator(f.repo).WithLogger(testLogger{})

	controller := accounts.NewAPIController(
		accounts.WithRepository(f.repo),
		accounts.WithAuthenticator(auther),
		accounts.WithConfirmationCodec(codec),
		accounts.WithNotifier(f.notifier),
		accounts.WithControllerLogger(testLogger{}),
		accounts.WithMailSettings("http://localhost:8080", "no-reply@localhost", "ops@localhost"),
	)

	f.app = fiber.New()
	controller.RegisterRoutes(f.app)

	return f
}

func jsonBody(t *testing.T, payload any) io.Reader {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func decodeBody(t *testing.T, resp io.Reader) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.NewDecoder(resp).Decode(&out))
	return out
}

// bearerToken wires the token lookup the auth middleware performs.
func (f *controllerFixture) bearerToken(key string, acct *accounts.Account) {
	f.repo.On("AuthTokens").Return(f.tokens)
	f.tokens.On("GetByKey", mock.Anything, key).
		Return(&accounts.AuthToken{Key: key, AccountID: acct.ID, Account: acct}, nil)
}

func TestRegisterEndpointValidatesPayload(t *testing.T) {
	f := newControllerFixture(t)

	req := httptest.NewRequest("POST", "/register", jsonBody(t, fiber.Map{
		"username": "ab",
		"email":    "not-an-email",
		"password": "short",
	}))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	errs, ok := body["errors"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, errs, "username")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")

	f.repo.AssertNotCalled(t, "Accounts")
}

func TestLoginEndpointReturnsToken(t *testing.T) {
	f := newControllerFixture(t)

	hash, err := accounts.HashPassword("password12345")
	require.NoError(t, err)

	acct := &accounts.Account{
		ID:           uuid.New(),
		Username:     "pepe",
		PasswordHash: hash,
		Active:       true,
	}

	f.repo.On("Accounts").Return(f.users).Once()
	f.repo.On("AuthTokens").Return(f.tokens).Once()
	f.users.On("GetByUsername", mock.Anything, "pepe").Return(acct, nil).Once()
	f.tokens.On("GetOrCreate", mock.Anything, acct.ID).
		Return(&accounts.AuthToken{Key: "issued-key", AccountID: acct.ID}, nil).Once()

	req := httptest.NewRequest("POST", "/login", jsonBody(t, fiber.Map{
		"username": "pepe",
		"password": "password12345",
	}))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, "issued-key", body["token"])
}

func TestLoginEndpointUnconfirmedAccount(t *testing.T) {
	f := newControllerFixture(t)

	hash, err := accounts.HashPassword("password12345")
	require.NoError(t, err)

	acct := &accounts.Account{
		ID:           uuid.New(),
		Username:     "pepe",
		PasswordHash: hash,
		Active:       false,
	}

	f.repo.On("Accounts").Return(f.users).Once()
	f.users.On("GetByUsername", mock.Anything, "pepe").Return(acct, nil).Once()

	req := httptest.NewRequest("POST", "/login", jsonBody(t, fiber.Map{
		"username": "pepe",
		"password": "password12345",
	}))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, accounts.TextCodeNotConfirmed, body["code"])
}

func TestLoginEndpointBadCredentials(t *testing.T) {
	f := newControllerFixture(t)

	f.repo.On("Accounts").Return(f.users).Once()
	f.users.On("GetByUsername", mock.Anything, "ghost").
		Return(nil, notFoundErr()).Once()

	req := httptest.NewRequest("POST", "/login", jsonBody(t, fiber.Map{
		"username": "ghost",
		"password": "whatever123",
	}))
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, accounts.TextCodeInvalidCreds, body["code"])
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	f := newControllerFixture(t)

	resp, err := f.app.Test(httptest.NewRequest("GET", "/profile", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestProfileShowReturnsCallerProfile(t *testing.T) {
	f := newControllerFixture(t)

	acct := &accounts.Account{ID: uuid.New(), Username: "pepe", Active: true}
	f.bearerToken("live-key", acct)

	f.repo.On("Profiles").Return(f.profiles).Once()
	f.profiles.On("GetByAccountID", mock.Anything, acct.ID).
		Return(&accounts.Profile{AccountID: acct.ID, DisplayName: "Pepe"}, nil).Once()

	req := httptest.NewRequest("GET", "/profile", nil)
	req.Header.Set("Authorization", "Token live-key")

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Equal(t, "Pepe", body["user_name"])
}

func TestLogoutRevokesBearerKey(t *testing.T) {
	f := newControllerFixture(t)

	acct := &accounts.Account{ID: uuid.New(), Username: "pepe", Active: true}
	f.bearerToken("live-key", acct)
	f.tokens.On("Revoke", mock.Anything, "live-key").Return(nil).Once()

	req := httptest.NewRequest("POST", "/logout", nil)
	req.Header.Set("Authorization", "Token live-key")

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	f.tokens.AssertExpectations(t)
}

func TestUsersCollectionIsAdminOnly(t *testing.T) {
	f := newControllerFixture(t)

	member := &accounts.Account{ID: uuid.New(), Role: accounts.RoleMember, Active: true}
	f.bearerToken("member-key", member)

	req := httptest.NewRequest("GET", "/users", nil)
	req.Header.Set("Authorization", "Token member-key")

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	f.users.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestUsersCollectionForAdmin(t *testing.T) {
	f := newControllerFixture(t)

	admin := &accounts.Account{ID: uuid.New(), Role: accounts.RoleAdmin, Active: true}
	f.bearerToken("admin-key", admin)

	f.repo.On("Accounts").Return(f.users).Once()
	f.users.On("List", mock.Anything, 50, 0).
		Return([]*accounts.Account{admin}, nil).Once()

	req := httptest.NewRequest("GET", "/users", nil)
	req.Header.Set("Authorization", "Token admin-key")

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	assert.Contains(t, body, "users")
}

func TestQuestionnaireEndpointValidatesPresence(t *testing.T) {
	f := newControllerFixture(t)

	acct := &accounts.Account{ID: uuid.New(), Username: "pepe", Active: true}
	f.bearerToken("live-key", acct)

	req := httptest.NewRequest("POST", "/questionnaire", jsonBody(t, fiber.Map{
		"employment_status": "Employed full-time",
	}))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token live-key")

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp.Body)
	errs, ok := body["errors"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, errs, "job_title")
	assert.Contains(t, errs, "industry")
	assert.Contains(t, errs, "reason_for_joining")
}
