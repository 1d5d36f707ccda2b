package accounts

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type QuestionnaireMessage struct {
	AccountID uuid.UUID `json:"-"`
	Username  string    `json:"-"`

	EmploymentStatus string `json:"employment_status"`
	JobTitle         string `json:"job_title"`
	Industry         string `json:"industry"`
	ReasonForJoining string `json:"reason_for_joining"`
}

func (e QuestionnaireMessage) Type() string { return "profile.questionnaire" }

// QuestionnaireHandler forwards the raw answers to a fixed operational
// address and flips the profile's completion flag. Answers are an internal
// operational signal, not user-facing data, so only presence is validated.
type QuestionnaireHandler struct {
	repo     RepositoryManager
	notifier Notifier
	logger   Logger

	// From is the sender address; OpsEmail receives the submissions.
	From     string
	OpsEmail string
}

// NewQuestionnaireHandler wires the questionnaire operation.
func NewQuestionnaireHandler(repo RepositoryManager, notifier Notifier, from, opsEmail string) *QuestionnaireHandler {
	return &QuestionnaireHandler{
		repo:     repo,
		notifier: notifier,
		logger:   defLogger{},
		From:     from,
		OpsEmail: opsEmail,
	}
}

func (h *QuestionnaireHandler) WithLogger(logger Logger) *QuestionnaireHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *QuestionnaireHandler) Execute(ctx context.Context, event QuestionnaireMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during questionnaire submission")
	default:
		return h.execute(ctx, event)
	}
}

func (h *QuestionnaireHandler) execute(ctx context.Context, event QuestionnaireMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	// the profile must exist; it was created at registration
	if _, err := h.repo.Profiles().GetByAccountID(ctx, event.AccountID); err != nil {
		if goerrors.IsNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryNotFound, "profile not found")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve profile")
	}

	msg := Message{
		Subject: fmt.Sprintf("Questionnaire Submission for %s", event.Username),
		Body: fmt.Sprintf(
			"1. Are you currently: %s\n"+
				"2. Which job title most accurately identifies you?: %s\n"+
				"3. What industry do you work in?: %s\n"+
				"4. What brought you here?: %s",
			event.EmploymentStatus,
			event.JobTitle,
			event.Industry,
			event.ReasonForJoining,
		),
		From: h.From,
		To:   []string{h.OpsEmail},
	}

	if err := h.notifier.Send(ctx, msg); err != nil {
		h.logger.Error("failed to send questionnaire email", "account_id", event.AccountID.String(), "error", err)
	}

	if err := h.repo.Profiles().SetQuestionnaireComplete(ctx, event.AccountID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark questionnaire complete")
	}

	return nil
}
