package accounts

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AuthTokens is the credential-store surface for bearer tokens. It is built
// directly on bun rather than the generic repository layer: the primary key
// is the opaque key string, not a uuid, and the only operations are
// get-by-key, get-or-create, and revoke.
type AuthTokens interface {
	GetByKey(ctx context.Context, key string) (*AuthToken, error)
	GetOrCreate(ctx context.Context, accountID uuid.UUID) (*AuthToken, error)
	Revoke(ctx context.Context, key string) error
}

type authTokensStore struct {
	db *bun.DB
}

var _ AuthTokens = (*authTokensStore)(nil)

// NewAuthTokensRepository builds the AuthTokens repository over bun.
func NewAuthTokensRepository(db *bun.DB) AuthTokens {
	return &authTokensStore{db: db}
}

// GenerateTokenKey returns a new opaque 40-hex-char bearer key.
func GenerateTokenKey() (string, error) {
	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

// GetByKey loads a token and its owning account.
func (t *authTokensStore) GetByKey(ctx context.Context, key string) (*AuthToken, error) {
	record := &AuthToken{}
	err := t.db.NewSelect().
		Model(record).
		Relation("Account").
		Where("?TableAlias.key = ?", key).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}

	return record, nil
}

// GetOrCreate returns the account's live token, minting one if none exists.
// The unique user_id constraint resolves concurrent first logins: the insert
// is a no-op for the loser, and the follow-up select returns the winner's
// row.
func (t *authTokensStore) GetOrCreate(ctx context.Context, accountID uuid.UUID) (*AuthToken, error) {
	existing, err := t.getByAccountID(ctx, accountID)
	if err == nil {
		return existing, nil
	}
	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	key, err := GenerateTokenKey()
	if err != nil {
		return nil, err
	}

	record := &AuthToken{
		Key:       key,
		AccountID: accountID,
	}

	_, err = t.db.NewInsert().
		Model(record).
		On("CONFLICT (user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	return t.getByAccountID(ctx, accountID)
}

// Revoke deletes the token row; the key stops authenticating immediately.
func (t *authTokensStore) Revoke(ctx context.Context, key string) error {
	res, err := t.db.NewDelete().
		Model((*AuthToken)(nil)).
		Where("?TableAlias.key = ?", key).
		Exec(ctx)
	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound()
	}

	return nil
}

func (t *authTokensStore) getByAccountID(ctx context.Context, accountID uuid.UUID) (*AuthToken, error) {
	record := &AuthToken{}
	err := t.db.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", accountID.String()).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"user_id": accountID.String()})
		}
		return nil, err
	}

	return record, nil
}
