package accounts

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// confirmationPurpose scopes tokens so they cannot be replayed against a
// different signed-token flow later on.
const confirmationPurpose = "account-confirmation"

// DefaultConfirmationTTL bounds how long a registration email stays usable.
var DefaultConfirmationTTL = 72 * time.Hour

// EncodeAccountID produces the URL-safe uid segment of a confirmation link.
func EncodeAccountID(id uuid.UUID) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id.String()))
}

// DecodeAccountID is the inverse of EncodeAccountID. A decode failure is a
// malformed link, not a signature problem; signature validity is checked
// separately once the account has been loaded.
func DecodeAccountID(encoded string) (uuid.UUID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryValidation, "malformed account identifier")
	}

	id, err := uuid.Parse(string(raw))
	if err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryValidation, "malformed account identifier")
	}

	return id, nil
}

type confirmationClaims struct {
	jwt.RegisteredClaims
	Purpose string `json:"purpose"`
}

// ConfirmationCodec mints and validates the signed leg of a confirmation
// link. The signing key is derived from the account's mutable state, so
// activating the account (or changing its password) invalidates every token
// issued before the change. That is what makes a used token single-use in
// effect without a token store.
type ConfirmationCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger Logger
}

// ConfirmationCodecOption customizes codec construction.
type ConfirmationCodecOption func(*ConfirmationCodec)

// WithConfirmationTTL overrides the token lifetime.
func WithConfirmationTTL(ttl time.Duration) ConfirmationCodecOption {
	return func(c *ConfirmationCodec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithConfirmationClock injects a custom clock (useful for tests).
func WithConfirmationClock(clock func() time.Time) ConfirmationCodecOption {
	return func(c *ConfirmationCodec) {
		if clock != nil {
			c.now = clock
		}
	}
}

// WithConfirmationLogger overrides the codec logger.
func WithConfirmationLogger(l Logger) ConfirmationCodecOption {
	return func(c *ConfirmationCodec) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewConfirmationCodec creates a codec from the application secret.
func NewConfirmationCodec(secret []byte, opts ...ConfirmationCodecOption) *ConfirmationCodec {
	c := &ConfirmationCodec{
		secret: secret,
		ttl:    DefaultConfirmationTTL,
		now:    time.Now,
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// MakeToken issues a signed, time-bound token for the account's current
// state.
func (c *ConfirmationCodec) MakeToken(acct *Account) (string, error) {
	if acct == nil || acct.ID == uuid.Nil {
		return "", goerrors.New("cannot issue a confirmation token without an account", goerrors.CategoryInternal)
	}

	now := c.now()
	claims := &confirmationClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acct.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		Purpose: confirmationPurpose,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(c.signingKey(acct))
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign confirmation token")
	}

	return signed, nil
}

// CheckToken validates a token against the given account's current state.
// Expired, tampered, or stale (state-changed) tokens all fail.
func (c *ConfirmationCodec) CheckToken(acct *Account, tokenString string) error {
	if acct == nil {
		return ErrInvalidConfirmation
	}

	token, err := jwt.ParseWithClaims(tokenString, &confirmationClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.signingKey(acct), nil
	}, jwt.WithTimeFunc(c.now))

	if err != nil {
		c.logger.Debug("confirmation token rejected", "account_id", acct.ID.String(), "error", err)
		return ErrInvalidConfirmation
	}

	claims, ok := token.Claims.(*confirmationClaims)
	if !ok || !token.Valid {
		return ErrInvalidConfirmation
	}

	if claims.Purpose != confirmationPurpose || claims.Subject != acct.ID.String() {
		return ErrInvalidConfirmation
	}

	return nil
}

// signingKey derives a per-account key over the state a confirmation must
// not outlive. The fields mirror what the activation writes.
func (c *ConfirmationCodec) signingKey(acct *Account) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(acct.ID.String()))
	mac.Write([]byte{0})
	mac.Write([]byte(acct.PasswordHash))
	mac.Write([]byte{0})
	if acct.Active {
		mac.Write([]byte("active"))
	} else {
		mac.Write([]byte("inactive"))
	}
	return mac.Sum(nil)
}
