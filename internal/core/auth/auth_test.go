package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTer(now time.Time) *JWTer {
	return &JWTer{
		Secret:   []byte("test-secret-that-is-long-enough-000"),
		Issuer:   "wms-admin",
		Audience: "wms-clients",
		TTL:      time.Hour,
		Now:      func() time.Time { return now },
	}
}

func TestPasswordHashIsSaltedAndVerifies(t *testing.T) {
	h := PasswordHasher{Cost: 4}
	for _, plain := range []string{"Passw0rd!", "", "çãõ-unicode-9", strings.Repeat("a", 72)} {
		h1, err := h.Hash(plain)
		require.NoError(t, err)
		h2, err := h.Hash(plain)
		require.NoError(t, err)

		assert.NotEqual(t, h1, h2, "hashes of %q must differ", plain)
		assert.True(t, h.Verify(plain, h1))
		assert.True(t, h.Verify(plain, h2))
		assert.False(t, h.Verify(plain+"x", h1))
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	assert.False(t, VerifyPassword("secret", ""))
	assert.False(t, VerifyPassword("secret", "not-a-bcrypt-hash"))
	assert.False(t, VerifyPassword("secret", "$2a$10$short"))
}

func TestHashPasswordTooLong(t *testing.T) {
	_, err := PasswordHasher{Cost: 4}.Hash(strings.Repeat("a", 73))
	require.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestIssueAndParseAccessToken(t *testing.T) {
	now := time.Now()
	j := testJWTer(now)
	tenant := "7a0d2c1e-2f4b-4c55-9a55-3a8f3c1d2e10"

	tok, exp, err := j.IssueAccess(Subject{UserID: "u-1", TenantID: &tenant, Username: "alice", Roles: []string{"Admin"}})
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Hour), exp, time.Second)

	c, err := j.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", c.Subject)
	require.NotNil(t, c.TenantID)
	assert.Equal(t, tenant, *c.TenantID)
	assert.Equal(t, []string{"Admin"}, c.Roles)
	assert.NotEmpty(t, c.ID)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	now := time.Now()
	tok, _, err := testJWTer(now.Add(-2*time.Hour)).IssueAccess(Subject{UserID: "u-1"})
	require.NoError(t, err)

	_, err = testJWTer(now).Parse(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsWrongIssuerAudienceAndKey(t *testing.T) {
	now := time.Now()
	tok, _, err := testJWTer(now).IssueAccess(Subject{UserID: "u-1"})
	require.NoError(t, err)

	other := testJWTer(now)
	other.Issuer = "someone-else"
	_, err = other.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other = testJWTer(now)
	other.Audience = "another-audience"
	_, err = other.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other = testJWTer(now)
	other.Secret = []byte("a-different-secret-of-enough-length")
	_, err = other.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsNoneAlgorithm(t *testing.T) {
	now := time.Now()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u-1",
		Issuer:    "wms-admin",
		Audience:  jwt.ClaimStrings{"wms-clients"},
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = testJWTer(now).Parse(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokensAreRandomAndHashed(t *testing.T) {
	a, err := NewRefreshToken()
	require.NoError(t, err)
	b, err := NewRefreshToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
	assert.Equal(t, HashRefreshToken(a), HashRefreshToken(a))
	assert.NotEqual(t, HashRefreshToken(a), HashRefreshToken(b))
	assert.Len(t, HashRefreshToken(a), 64)
}
