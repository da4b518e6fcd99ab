package token

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(now time.Time) *Manager {
	m := NewManager("secret", 24*time.Hour, 7*24*time.Hour)
	m.now = func() time.Time { return now }
	return m
}

func TestManager_AccessToken_Roundtrip(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(now)

	raw, err := m.IssueAccessToken("user-1", "jane@example.com")
	require.NoError(t, err)

	id, err := m.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.UserID)
	assert.Equal(t, "jane@example.com", id.Email)
	assert.Equal(t, KindAccess, id.Kind)
	assert.Equal(t, now.Add(24*time.Hour).Unix(), id.ExpiresAt.Unix())
}

func TestManager_RefreshToken_Roundtrip(t *testing.T) {
	m := newTestManager(time.Now())

	raw, err := m.IssueRefreshToken("user-2", "joe@example.com")
	require.NoError(t, err)

	id, err := m.VerifyKind(raw, KindRefresh)
	require.NoError(t, err)
	assert.Equal(t, "user-2", id.UserID)
	assert.Equal(t, KindRefresh, id.Kind)
}

func TestManager_KindMismatch(t *testing.T) {
	m := newTestManager(time.Now())

	access, err := m.IssueAccessToken("user-1", "a@b.c")
	require.NoError(t, err)
	_, err = m.VerifyKind(access, KindRefresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	refresh, err := m.IssueRefreshToken("user-1", "a@b.c")
	require.NoError(t, err)
	_, err = m.VerifyKind(refresh, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_Expiry(t *testing.T) {
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(issued)

	access, err := m.IssueAccessToken("user-1", "a@b.c")
	require.NoError(t, err)
	refresh, err := m.IssueRefreshToken("user-1", "a@b.c")
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(23 * time.Hour) }
	_, err = m.Verify(access)
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(25 * time.Hour) }
	_, err = m.Verify(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = m.Verify(refresh)
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(8 * 24 * time.Hour) }
	_, err = m.Verify(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_RejectsGarbage(t *testing.T) {
	m := newTestManager(time.Now())
	other := NewManager("other-secret", time.Hour, time.Hour)

	foreign, err := other.IssueAccessToken("user-1", "a@b.c")
	require.NoError(t, err)

	unsigned := base64.StdEncoding.EncodeToString([]byte(`{"user_id":"u","token_type":"access"}`))

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u", TokenType: KindAccess}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"empty":          "",
		"not a jwt":      "hello",
		"base64 payload": unsigned,
		"foreign secret": foreign,
		"alg none":       noneAlg,
		"truncated":      strings.TrimSuffix(foreign, foreign[len(foreign)-4:]),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.Verify(raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestManager_RejectsUnknownKindAndMissingUser(t *testing.T) {
	now := time.Now()
	m := newTestManager(now)

	sign := func(c Claims) string {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(time.Hour))
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("secret"))
		require.NoError(t, err)
		return s
	}

	_, err := m.Verify(sign(Claims{UserID: "u", TokenType: "session"}))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Verify(sign(Claims{TokenType: KindAccess}))
	assert.ErrorIs(t, err, ErrInvalidToken)
}
