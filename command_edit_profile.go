package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type EditProfileMessage struct {
	// AccountID is the authenticated caller; the edit is always scoped to
	// the profile this account owns.
	AccountID uuid.UUID `json:"-"`

	DisplayName       string `json:"user_name"`
	CompanyName       string `json:"company_name"`
	JobTitle          string `json:"job_title"`
	YearsOfExperience int    `json:"years_of_experience"`
	Bio               string `json:"bio"`
	Phone             string `json:"phone"`
	Email             string `json:"email"`

	OnResponse func(p *Profile)
}

func (e EditProfileMessage) Type() string { return "profile.edit" }

// EditProfileHandler replaces the editable fields of the caller's own
// profile. Replace, not merge: omitted fields arrive as zero values and are
// written as such. Avatar and questionnaire state are owned by their
// dedicated operations and never touched here.
type EditProfileHandler struct {
	repo RepositoryManager
}

// NewEditProfileHandler wires the profile edit operation.
func NewEditProfileHandler(repo RepositoryManager) *EditProfileHandler {
	return &EditProfileHandler{repo: repo}
}

func (h *EditProfileHandler) Execute(ctx context.Context, event EditProfileMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during profile edit")
	default:
		return h.execute(ctx, event)
	}
}

func (h *EditProfileHandler) execute(ctx context.Context, event EditProfileMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	profile, err := h.repo.Profiles().GetByAccountID(ctx, event.AccountID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryNotFound, "profile not found")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve profile")
	}

	profile.DisplayName = event.DisplayName
	profile.CompanyName = event.CompanyName
	profile.JobTitle = event.JobTitle
	profile.YearsOfExperience = event.YearsOfExperience
	profile.Bio = event.Bio
	profile.Phone = event.Phone
	profile.Email = event.Email

	updated, err := h.repo.Profiles().Replace(ctx, profile)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update profile")
	}

	if event.OnResponse != nil {
		event.OnResponse(updated)
	}

	return nil
}
