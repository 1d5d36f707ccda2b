package accounts

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type RegisterAccountMessage struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

// RegisterAccountHandler creates an inactive account with its empty profile
// in one transaction, then mails a confirmation link. Mail delivery is
// fire-and-forget: a failed send is logged and the registration still
// succeeds, so the account may stay unconfirmed until the user retries.
type RegisterAccountHandler struct {
	repo     RepositoryManager
	codec    *ConfirmationCodec
	notifier Notifier
	logger   Logger

	// BaseURL is the public origin embedded in confirmation links.
	BaseURL string
	// From is the sender address for confirmation mail.
	From string
}

// NewRegisterAccountHandler wires the register operation.
func NewRegisterAccountHandler(repo RepositoryManager, codec *ConfirmationCodec, notifier Notifier, baseURL, from string) *RegisterAccountHandler {
	return &RegisterAccountHandler{
		repo:     repo,
		codec:    codec,
		notifier: notifier,
		logger:   defLogger{},
		BaseURL:  baseURL,
		From:     from,
	}
}

func (h *RegisterAccountHandler) WithLogger(logger Logger) *RegisterAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	account := &Account{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	taken, err := h.repo.Accounts().TakenFields(ctx, event.Username, event.Email)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check account uniqueness")
	}
	if len(taken) > 0 {
		return NewFieldValidationError(taken)
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		account.Username = event.Username
		account.Email = event.Email
		account.PasswordHash = hash
		account.Active = false

		if account, err = h.repo.Accounts().RegisterTx(ctx, tx, account); err != nil {
			// the uniqueness pre-check can lose a race; the constraint is
			// the authority and the loser lands here
			return WrapDuplicateAccount(err)
		}

		profile := &Profile{
			AccountID: account.ID,
			Email:     account.Email,
		}

		if _, err = h.repo.Profiles().CreateTx(ctx, tx, profile); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create profile")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "account registration transaction failed")
	}

	h.sendConfirmation(ctx, account)

	return nil
}

func (h *RegisterAccountHandler) sendConfirmation(ctx context.Context, account *Account) {
	token, err := h.codec.MakeToken(account)
	if err != nil {
		h.logger.Error("failed to mint confirmation token", "account_id", account.ID.String(), "error", err)
		return
	}

	link := fmt.Sprintf("%s/confirm-email/%s/%s", h.BaseURL, EncodeAccountID(account.ID), token)

	msg := Message{
		Subject: "Confirm Your Registration",
		Body:    fmt.Sprintf("Please confirm your registration by clicking the following link: %s", link),
		From:    h.From,
		To:      []string{account.Email},
	}

	if err := h.notifier.Send(ctx, msg); err != nil {
		h.logger.Error("failed to send confirmation email", "account_id", account.ID.String(), "error", err)
	}
}
