package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	"blogengine/internal/pkg/apperror"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(opts ...Option) *Service {
	return New("access-secret", "refresh-secret", 30*time.Minute, 30*24*time.Hour, opts...)
}

func TestIssuePair_RoundTrip(t *testing.T) {
	s := newTestService()

	pair, err := s.IssuePair("user-1")
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	access, ok := s.VerifyAccess(pair.AccessToken)
	require.True(t, ok)
	assert.Equal(t, "user-1", access.UserID)

	refresh, err := s.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", refresh.UserID)
}

func TestIssuePair_SecretsAreIndependent(t *testing.T) {
	s := newTestService()
	pair, err := s.IssuePair("user-1")
	require.NoError(t, err)

	_, ok := s.VerifyAccess(pair.RefreshToken)
	assert.False(t, ok, "refresh token must not pass as access token")

	_, err = s.VerifyRefresh(pair.AccessToken)
	assert.True(t, errors.Is(err, apperror.Forbidden))
}

func TestIssuePair_SameSecondPairsDiffer(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newTestService(WithClock(func() time.Time { return fixed }))

	a, err := s.IssuePair("user-1")
	require.NoError(t, err)
	b, err := s.IssuePair("user-1")
	require.NoError(t, err)

	assert.NotEqual(t, a.RefreshToken, b.RefreshToken)
	assert.NotEqual(t, a.AccessToken, b.AccessToken)
}

func TestVerifyAccess_Expired(t *testing.T) {
	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := issuedAt
	s := newTestService(WithClock(func() time.Time { return now }))

	pair, err := s.IssuePair("user-1")
	require.NoError(t, err)

	now = issuedAt.Add(31 * time.Minute)
	_, ok := s.VerifyAccess(pair.AccessToken)
	assert.False(t, ok)

	_, err = s.VerifyRefresh(pair.RefreshToken)
	assert.NoError(t, err, "refresh token outlives access token")

	now = issuedAt.Add(31 * 24 * time.Hour)
	_, err = s.VerifyRefresh(pair.RefreshToken)
	assert.True(t, errors.Is(err, apperror.Forbidden))
}

func TestVerify_Tampered(t *testing.T) {
	s := newTestService()
	pair, err := s.IssuePair("user-1")
	require.NoError(t, err)

	forged, err := s.IssuePair("user-2")
	require.NoError(t, err)

	parts := strings.Split(pair.AccessToken, ".")
	parts[1] = strings.Split(forged.AccessToken, ".")[1]
	_, ok := s.VerifyAccess(strings.Join(parts, "."))
	assert.False(t, ok)

	_, ok = s.VerifyAccess("")
	assert.False(t, ok)
}

func TestVerify_RejectsForeignSecretAndAlgorithm(t *testing.T) {
	s := newTestService()
	other := New("other-access", "other-refresh", time.Minute, time.Hour)

	pair, err := other.IssuePair("user-1")
	require.NoError(t, err)
	_, ok := s.VerifyAccess(pair.AccessToken)
	assert.False(t, ok)

	none := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, Claims{
		UserID: "user-1",
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	unsigned, err := none.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, ok = s.VerifyAccess(unsigned)
	assert.False(t, ok)
}
