package tokenizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/layer-3/encore/core"
	"github.com/layer-3/encore/ports"
)

const AudienceAccess = "encore:access"

// DefaultValidity is how long an issued token stays valid
const DefaultValidity = time.Hour

// JWTTokenizer implements the Tokenizer interface using HMAC-signed JWTs
type JWTTokenizer struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

// Option configures a JWTTokenizer
type Option func(*JWTTokenizer)

// WithValidity overrides the token lifetime
func WithValidity(d time.Duration) Option {
	return func(j *JWTTokenizer) {
		j.validity = d
	}
}

// WithClock replaces the time source used for issuing and expiry checks
func WithClock(now func() time.Time) Option {
	return func(j *JWTTokenizer) {
		j.now = now
	}
}

// NewJWTTokenizer creates a new JWT tokenizer signing with the given secret
func NewJWTTokenizer(secret []byte, opts ...Option) ports.Tokenizer {
	j := &JWTTokenizer{
		secret:   secret,
		validity: DefaultValidity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Issue creates a signed access token for the subject
func (j *JWTTokenizer) Issue(subject string) (*core.Token, error) {
	// NumericDate has second precision, so truncate to keep the
	// returned token identical to what Verify will decode.
	now := j.now().Truncate(time.Second)
	t := &core.Token{
		ID:        uuid.New().String(),
		Subject:   subject,
		IssuedAt:  now,
		ExpiresAt: now.Add(j.validity),
	}

	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   t.Subject,
			ID:        t.ID,
			IssuedAt:  jwt.NewNumericDate(t.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(t.ExpiresAt),
			Audience:  jwt.ClaimStrings{AudienceAccess},
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	t.Raw = signed

	return t, nil
}

// Verify checks the structure, then the signature, then the validity window
func (j *JWTTokenizer) Verify(tokenStr string) (*core.Token, error) {
	claims := &AccessClaims{}

	// Claims are validated separately below so that a bad signature is
	// always reported ahead of an expired one.
	_, err := jwt.ParseWithClaims(tokenStr, claims, j.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, classify(err)
	}

	validator := jwt.NewValidator(
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
		jwt.WithAudience(AudienceAccess),
	)
	if err := validator.Validate(claims); err != nil {
		return nil, classify(err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("missing subject: %w", core.ErrTokenMalformed)
	}

	t := &core.Token{
		ID:        claims.ID,
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
		Raw:       tokenStr,
	}
	if claims.IssuedAt != nil {
		t.IssuedAt = claims.IssuedAt.Time
	}

	return t, nil
}

func (j *JWTTokenizer) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return j.secret, nil
}

// classify maps jwt library errors onto the domain token errors
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", core.ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", core.ErrTokenSignatureInvalid, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", core.ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", core.ErrTokenMalformed, err)
	}
}
