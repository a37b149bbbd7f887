package auth

import (
	"testing"
	"time"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTokens(t *testing.T) *Tokens {
	t.Helper()
	tk, err := NewTokens("test-secret")
	require.NoError(t, err)
	return tk
}

func TestNewTokensRejectsEmptySecret(t *testing.T) {
	_, err := NewTokens("")
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestUserTokenRoundTrip(t *testing.T) {
	tk := newTokens(t)
	token, err := tk.IssueUser(&domain.User{ID: "u1", Email: "ana@example.com", Name: "Ana", CanHost: true})
	require.NoError(t, err)

	p, err := tk.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, &core.Principal{
		Kind:    core.PrincipalUser,
		UserID:  "u1",
		Email:   "ana@example.com",
		Name:    "Ana",
		CanHost: true,
	}, p)
}

func TestTVTokenNormalizesRoomCode(t *testing.T) {
	tk := newTokens(t)
	token, err := tk.sign(Claims{Type: core.PrincipalTV, RoomCode: "abcde"}, TVTokenTTL)
	require.NoError(t, err)

	p, err := tk.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, core.PrincipalTV, p.Kind)
	assert.Equal(t, domain.RoomCode("ABCDE"), p.RoomCode)
}

func TestVerifyRejects(t *testing.T) {
	tk := newTokens(t)

	other, err := NewTokens("other-secret")
	require.NoError(t, err)
	foreign, err := other.IssueTV("ABCDE")
	require.NoError(t, err)

	expiredIssuer := newTokens(t)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expired, err := expiredIssuer.IssueUser(&domain.User{ID: "u1"})
	require.NoError(t, err)

	noUser, err := tk.sign(Claims{Type: core.PrincipalUser}, UserTokenTTL)
	require.NoError(t, err)
	noRoom, err := tk.sign(Claims{Type: core.PrincipalTV}, TVTokenTTL)
	require.NoError(t, err)
	unknown, err := tk.sign(Claims{Type: "admin", UserID: "u1"}, UserTokenTTL)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Type: core.PrincipalTV, RoomCode: "ABCDE"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"expired":      expired,
		"no user id":   noUser,
		"no room code": noRoom,
		"unknown type": unknown,
		"alg none":     none,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := tk.Verify(token)
			assert.Error(t, err)
		})
	}
}

func TestPasswords(t *testing.T) {
	p := Passwords{Cost: bcrypt.MinCost}
	hash, err := p.Hash("segredo")
	require.NoError(t, err)

	assert.True(t, p.Compare(hash, "segredo"))
	assert.False(t, p.Compare(hash, "outro"))
	assert.False(t, p.Compare("", "segredo"))
}
