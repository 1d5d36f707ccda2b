package accounts_test

import (
	"context"
	"database/sql"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"

	accounts "github.com/revenuehive/accounts"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// MockRepositoryManager implements accounts.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error { return nil }

func (m *MockRepositoryManager) MustValidate() {}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	return args.Error(0)
}

func (m *MockRepositoryManager) Accounts() accounts.Accounts {
	args := m.Called()
	return args.Get(0).(accounts.Accounts)
}

func (m *MockRepositoryManager) Profiles() accounts.Profiles {
	args := m.Called()
	return args.Get(0).(accounts.Profiles)
}

func (m *MockRepositoryManager) AuthTokens() accounts.AuthTokens {
	args := m.Called()
	return args.Get(0).(accounts.AuthTokens)
}

// MockAccounts implements accounts.Accounts for the methods the tests
// exercise; the embedded interface covers the rest of the repository
// surface.
type MockAccounts struct {
	mock.Mock
	accounts.Accounts
}

func (m *MockAccounts) Register(ctx context.Context, account *accounts.Account) (*accounts.Account, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.Account), args.Error(1)
}

func (m *MockAccounts) RegisterTx(ctx context.Context, tx bun.IDB, account *accounts.Account) (*accounts.Account, error) {
	args := m.Called(ctx, tx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.Account), args.Error(1)
}

func (m *MockAccounts) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*accounts.Account, error) {
	args := m.Called(ctx, id, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.Account), args.Error(1)
}

func (m *MockAccounts) GetByUsername(ctx context.Context, username string) (*accounts.Account, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.Account), args.Error(1)
}

func (m *MockAccounts) TakenFields(ctx context.Context, username, email string) (map[string]string, error) {
	args := m.Called(ctx, username, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

func (m *MockAccounts) Activate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAccounts) ActivateTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockAccounts) List(ctx context.Context, limit, offset int) ([]*accounts.Account, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*accounts.Account), args.Error(1)
}

func (m *MockAccounts) Remove(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockProfiles implements accounts.Profiles for the methods the tests
// exercise.
type MockProfiles struct {
	mock.Mock
	accounts.Profiles
}

func (m *MockProfiles) CreateTx(ctx context.Context, tx bun.IDB, record *accounts.Profile, criteria ...repository.InsertCriteria) (*accounts.Profile, error) {
	args := m.Called(ctx, tx, record, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.Profile), args.Error(1)
}

func (m *MockProfiles) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*accounts.Profile, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.Profile), args.Error(1)
}

func (m *MockProfiles) Replace(ctx context.Context, record *accounts.Profile) (*accounts.Profile, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.Profile), args.Error(1)
}

func (m *MockProfiles) SetImage(ctx context.Context, accountID uuid.UUID, imageRef string) error {
	args := m.Called(ctx, accountID, imageRef)
	return args.Error(0)
}

func (m *MockProfiles) SetQuestionnaireComplete(ctx context.Context, accountID uuid.UUID) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

func (m *MockProfiles) List(ctx context.Context, limit, offset int) ([]*accounts.Profile, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*accounts.Profile), args.Error(1)
}

// MockAuthTokens implements accounts.AuthTokens
type MockAuthTokens struct {
	mock.Mock
}

func (m *MockAuthTokens) GetByKey(ctx context.Context, key string) (*accounts.AuthToken, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.AuthToken), args.Error(1)
}

func (m *MockAuthTokens) GetOrCreate(ctx context.Context, accountID uuid.UUID) (*accounts.AuthToken, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.AuthToken), args.Error(1)
}

func (m *MockAuthTokens) Revoke(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func notFoundErr() error {
	return repository.NewRecordNotFound()
}

// MockNotifier implements accounts.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, msg accounts.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
