package tokenizer

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/encore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTokenizer(secret string, clock *fakeClock) *JWTTokenizer {
	return NewJWTTokenizer([]byte(secret), WithClock(clock.Now)).(*JWTTokenizer)
}

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	tok := newTestTokenizer("super-secret-signing-key", clock)

	issued, err := tok.Issue("1")
	require.NoError(t, err)
	assert.Equal(t, "1", issued.Subject)
	assert.NotEmpty(t, issued.ID)
	assert.Equal(t, clock.t, issued.IssuedAt)
	assert.Equal(t, clock.t.Add(time.Hour), issued.ExpiresAt)
	assert.Len(t, strings.Split(issued.Raw, "."), 3)

	verified, err := tok.Verify(issued.Raw)
	require.NoError(t, err)
	assert.Equal(t, "1", verified.Subject)
	assert.Equal(t, issued.ID, verified.ID)
	assert.True(t, issued.ExpiresAt.Equal(verified.ExpiresAt))
}

func TestVerify_Expired(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	tok := newTestTokenizer("super-secret-signing-key", clock)

	issued, err := tok.Issue("1")
	require.NoError(t, err)

	clock.Advance(59*time.Minute + 59*time.Second)
	_, err = tok.Verify(issued.Raw)
	require.NoError(t, err, "token must still be valid one second before expiry")

	clock.Advance(time.Second)
	_, err = tok.Verify(issued.Raw)
	assert.ErrorIs(t, err, core.ErrTokenExpired, "token must be rejected at expiresAt")

	clock.Advance(24 * time.Hour)
	_, err = tok.Verify(issued.Raw)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestVerify_WrongSecret(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	signer := newTestTokenizer("right-secret-right-secret", clock)
	verifier := newTestTokenizer("wrong-secret-wrong-secret", clock)

	issued, err := signer.Issue("u2")
	require.NoError(t, err)

	_, err = verifier.Verify(issued.Raw)
	assert.ErrorIs(t, err, core.ErrTokenSignatureInvalid)
}

func TestVerify_SignatureCheckedBeforeExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	signer := newTestTokenizer("right-secret-right-secret", clock)
	verifier := newTestTokenizer("wrong-secret-wrong-secret", clock)

	issued, err := signer.Issue("u2")
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	_, err = verifier.Verify(issued.Raw)
	assert.ErrorIs(t, err, core.ErrTokenSignatureInvalid)
}

func TestVerify_Malformed(t *testing.T) {
	tok := newTestTokenizer("k-k-k-k-k-k-k-k", &fakeClock{t: time.Now()})

	for _, raw := range []string{"", "not.a.jwt", "abc", "a.b"} {
		_, err := tok.Verify(raw)
		assert.ErrorIs(t, err, core.ErrTokenMalformed, "input %q", raw)
	}
}

func TestVerify_RejectsOtherSigningMethods(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	tok := newTestTokenizer("super-secret-signing-key", clock)

	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
			Audience:  jwt.ClaimStrings{AudienceAccess},
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tok.Verify(unsigned)
	assert.ErrorIs(t, err, core.ErrTokenSignatureInvalid)
}

func TestVerify_MissingSubject(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	tok := newTestTokenizer("super-secret-signing-key", clock)

	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
			Audience:  jwt.ClaimStrings{AudienceAccess},
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("super-secret-signing-key"))
	require.NoError(t, err)

	_, err = tok.Verify(raw)
	assert.ErrorIs(t, err, core.ErrTokenMalformed)
}

func TestWithValidity(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	tok := NewJWTTokenizer([]byte("super-secret-signing-key"), WithClock(clock.Now), WithValidity(time.Minute))

	issued, err := tok.Issue("7")
	require.NoError(t, err)
	assert.Equal(t, clock.t.Add(time.Minute), issued.ExpiresAt)

	clock.Advance(time.Minute)
	_, err = tok.Verify(issued.Raw)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}
