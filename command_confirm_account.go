package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type ConfirmAccountMessage struct {
	// UID is the base64url-encoded account identifier from the link path.
	UID string `json:"uid"`
	// Token is the signed confirmation token from the link path.
	Token string `json:"token"`
}

func (e ConfirmAccountMessage) Type() string { return "account.confirm" }

// ConfirmAccountHandler activates an account from a confirmation link. Every
// failure mode (malformed uid, unknown account, tampered or expired token)
// collapses into the same error so the endpoint never reveals whether an
// account exists. Activation rotates the derived signing key, so a link is
// single-use: replaying it reports an invalid link while the account stays
// active.
type ConfirmAccountHandler struct {
	repo   RepositoryManager
	codec  *ConfirmationCodec
	logger Logger
}

// NewConfirmAccountHandler wires the confirm operation.
func NewConfirmAccountHandler(repo RepositoryManager, codec *ConfirmationCodec) *ConfirmAccountHandler {
	return &ConfirmAccountHandler{
		repo:   repo,
		codec:  codec,
		logger: defLogger{},
	}
}

func (h *ConfirmAccountHandler) WithLogger(logger Logger) *ConfirmAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ConfirmAccountHandler) Execute(ctx context.Context, event ConfirmAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during account confirmation")
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConfirmAccountHandler) execute(ctx context.Context, event ConfirmAccountMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	id, err := DecodeAccountID(event.UID)
	if err != nil {
		return ErrInvalidConfirmation
	}

	account, err := h.repo.Accounts().GetByID(ctx, id.String())
	if err != nil {
		if goerrors.IsNotFound(err) {
			return ErrInvalidConfirmation
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for confirmation")
	}

	if err := h.codec.CheckToken(account, event.Token); err != nil {
		return ErrInvalidConfirmation
	}

	if account.Active {
		return nil
	}

	if err := h.repo.Accounts().Activate(ctx, account.ID); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to activate account")
	}

	h.logger.Info("account activated", "account_id", account.ID.String())

	return nil
}
