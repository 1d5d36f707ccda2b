package accounts

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// replaceExcludedColumns are owned by dedicated operations (avatar upload,
// questionnaire) or immutable, and never touched by a profile replace.
var replaceExcludedColumns = []string{
	"id",
	"user_id",
	"image",
	"has_completed_questionnaire",
	"created_at",
}

// Profiles is the identity-store surface for Profile records.
type Profiles interface {
	repository.Repository[*Profile]

	Create(ctx context.Context, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error)

	GetByAccountID(ctx context.Context, accountID uuid.UUID) (*Profile, error)

	Replace(ctx context.Context, record *Profile) (*Profile, error)
	SetImage(ctx context.Context, accountID uuid.UUID, imageRef string) error
	SetQuestionnaireComplete(ctx context.Context, accountID uuid.UUID) error

	List(ctx context.Context, limit, offset int) ([]*Profile, error)
}

type profilesStore struct {
	repository.Repository[*Profile]
	db *bun.DB
}

var (
	_ Profiles                        = (*profilesStore)(nil)
	_ repository.Repository[*Profile] = (*profilesStore)(nil)
)

// NewProfilesRepository builds the Profiles repository over bun.
func NewProfilesRepository(db *bun.DB) Profiles {
	repo := repository.NewRepository[*Profile](db, repository.ModelHandlers[*Profile]{
		NewRecord: func() *Profile { return &Profile{} },
		GetID: func(p *Profile) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Profile, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	return &profilesStore{
		Repository: repo,
		db:         db,
	}
}

func (p *profilesStore) Create(ctx context.Context, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error) {
	return p.CreateTx(ctx, p.db, record, criteria...)
}

func (p *profilesStore) CreateTx(ctx context.Context, tx bun.IDB, record *Profile, criteria ...repository.InsertCriteria) (*Profile, error) {
	prepareProfileDefaults(record)
	return p.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (p *profilesStore) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*Profile, error) {
	record := &Profile{}
	err := p.db.NewSelect().
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

// Replace performs a full-record update of the editable profile fields.
// Fields absent from the incoming record are written as their zero values;
// this is a replace, not a merge.
func (p *profilesStore) Replace(ctx context.Context, record *Profile) (*Profile, error) {
	if record == nil || record.ID == uuid.Nil {
		return nil, repository.NewRecordNotFound()
	}

	now := time.Now()
	record.UpdatedAt = &now

	res, err := p.db.NewUpdate().
		Model(record).
		ExcludeColumn(replaceExcludedColumns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": record.ID.String()})
	}

	return p.GetByAccountID(ctx, record.AccountID)
}

func (p *profilesStore) SetImage(ctx context.Context, accountID uuid.UUID, imageRef string) error {
	return p.setColumn(ctx, accountID, "image", imageRef)
}

func (p *profilesStore) SetQuestionnaireComplete(ctx context.Context, accountID uuid.UUID) error {
	return p.setColumn(ctx, accountID, "has_completed_questionnaire", true)
}

func (p *profilesStore) setColumn(ctx context.Context, accountID uuid.UUID, column string, value any) error {
	res, err := p.db.NewUpdate().
		Model((*Profile)(nil)).
		Set("? = ?", bun.Ident(column), value).
		Set("updated_at = ?", time.Now()).
		Where("?TableAlias.user_id = ?", accountID.String()).
		Exec(ctx)
	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"user_id": accountID.String()})
	}

	return nil
}

func (p *profilesStore) List(ctx context.Context, limit, offset int) ([]*Profile, error) {
	var records []*Profile
	err := p.db.NewSelect().
		Model(&records).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}
