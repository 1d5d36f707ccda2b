package accounts

import (
	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeInvalidCreds identifies generic credential failures
	TextCodeInvalidCreds = "INVALID_CREDENTIALS"
	// TextCodeNotConfirmed identifies logins blocked on an unconfirmed account
	TextCodeNotConfirmed = "ACCOUNT_NOT_CONFIRMED"
	// TextCodeInvalidConfirmation identifies bad confirmation links
	TextCodeInvalidConfirmation = "INVALID_CONFIRMATION_LINK"
	// TextCodeInvalidToken identifies missing or revoked bearer tokens
	TextCodeInvalidToken = "INVALID_AUTH_TOKEN"
	// TextCodeDuplicateAccount identifies username/email uniqueness violations
	TextCodeDuplicateAccount = "DUPLICATE_ACCOUNT"
)

// ErrMismatchedHashAndPassword is the generic credential error. It covers
// unknown usernames too, so responses never leak account existence.
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeBadRequest)

// ErrAccountNotConfirmed is returned when a correct password hits an account
// that has not confirmed its email yet.
var ErrAccountNotConfirmed = goerrors.New("account email has not been confirmed", goerrors.CategoryAuth).
	WithTextCode(TextCodeNotConfirmed).
	WithCode(goerrors.CodeForbidden)

// ErrInvalidConfirmation is the single undifferentiated error for the
// confirm operation: bad encoding, unknown account, tampered or expired
// token all collapse into it.
var ErrInvalidConfirmation = goerrors.New("invalid confirmation link", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidConfirmation).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidAuthToken is returned for missing, malformed, or revoked bearer
// tokens on authenticated routes.
var ErrInvalidAuthToken = goerrors.New("invalid or missing authentication token", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrAdminRequired rejects collection access for non-operator accounts.
var ErrAdminRequired = goerrors.New("operator role required", goerrors.CategoryAuth).
	WithCode(goerrors.CodeForbidden)

// ErrNoEmptyString rejects empty secrets before hashing
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest)

// WrapDuplicateAccount maps a store uniqueness violation to the validation
// error the register path reports. The store resolves same-username races;
// the loser surfaces here.
func WrapDuplicateAccount(err error) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryConflict, "username or email already registered").
		WithTextCode(TextCodeDuplicateAccount).
		WithCode(goerrors.CodeConflict)
}

// NewFieldValidationError builds a validation error carrying per-field
// messages in metadata, for 400 responses.
func NewFieldValidationError(fields map[string]string) *goerrors.Error {
	return goerrors.New("validation failed", goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{"fields": fields})
}

// FormatValidationErrorToMap flattens an ozzo validation error into
// field -> message pairs suitable for a 400 response body.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["error"] = err.Error()
	return out
}
