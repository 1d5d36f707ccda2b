package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountRole is the account's role
type AccountRole = string

const (
	// RoleMember is a regular account (i.e. owns and edits its profile)
	RoleMember AccountRole = "member"
	// RoleAdmin is an operator account (i.e. list, read, delete any record)
	RoleAdmin AccountRole = "admin"
)

// Account is the authentication identity. It starts inactive and is
// activated only through a validated confirmation token.
type Account struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID   `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role          AccountRole `bun:"user_role,notnull" json:"user_role,omitempty"`
	Username      string      `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string      `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string      `bun:"password_hash" json:"-"`
	Active        bool        `bun:"is_active" json:"is_active"`
	ActivatedAt   *time.Time  `bun:"activated_at,nullzero" json:"activated_at,omitempty"`
	CreatedAt     *time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time  `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`

	Profile *Profile `bun:"rel:has-one,join:id=user_id" json:"profile,omitempty"`
}

// IsAdmin reports whether the account has the operator role.
func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

// Profile holds the extended, mostly optional information owned by exactly
// one Account. It is created empty in the same transaction as its account.
type Profile struct {
	bun.BaseModel             `bun:"table:profiles,alias:prf"`
	ID                        uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	AccountID                 uuid.UUID  `bun:"user_id,notnull,unique,type:uuid" json:"user_id,omitempty"`
	Account                   *Account   `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	DisplayName               string     `bun:"user_name" json:"user_name"`
	CompanyName               string     `bun:"company_name" json:"company_name"`
	JobTitle                  string     `bun:"job_title" json:"job_title"`
	YearsOfExperience         int        `bun:"years_of_experience" json:"years_of_experience"`
	Bio                       string     `bun:"bio" json:"bio"`
	Phone                     string     `bun:"phone" json:"phone"`
	Image                     string     `bun:"image" json:"image"`
	Email                     string     `bun:"email" json:"email"`
	HasCompletedQuestionnaire bool       `bun:"has_completed_questionnaire" json:"has_completed_questionnaire"`
	CreatedAt                 *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt                 *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// AuthToken is the opaque bearer credential. One live token per account,
// created lazily on first login and deleted on logout. No expiry.
type AuthToken struct {
	bun.BaseModel `bun:"table:auth_tokens,alias:tok"`
	Key           string     `bun:"key,pk" json:"key"`
	AccountID     uuid.UUID  `bun:"user_id,notnull,unique,type:uuid" json:"user_id"`
	Account       *Account   `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = RoleMember
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

func prepareProfileDefaults(record *Profile) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
