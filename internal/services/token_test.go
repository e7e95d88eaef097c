package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/ediary-backend/internal/diary"
)

func TestTokenIssueVerify(t *testing.T) {
	ctx := context.Background()
	svc := NewTokenService("secret", time.Hour, nil)

	token, err := svc.Issue("user-1")
	require.NoError(t, err)

	claims, err := svc.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenVerifyRejects(t *testing.T) {
	ctx := context.Background()
	svc := NewTokenService("secret", time.Hour, nil)

	_, err := svc.Verify(ctx, "")
	assert.ErrorIs(t, err, diary.ErrAuthRequired)
	_, err = svc.Verify(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, diary.ErrAuthRequired)

	other := NewTokenService("other-secret", time.Hour, nil)
	token, err := other.Issue("user-1")
	require.NoError(t, err)
	_, err = svc.Verify(ctx, token)
	assert.ErrorIs(t, err, diary.ErrAuthRequired)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, unsigned)
	assert.ErrorIs(t, err, diary.ErrAuthRequired)
}

func TestTokenExpiry(t *testing.T) {
	ctx := context.Background()
	svc := NewTokenService("secret", time.Hour, nil)
	issuedAt := time.Now()
	svc.now = func() time.Time { return issuedAt }

	token, err := svc.Issue("user-1")
	require.NoError(t, err)

	svc.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }
	_, err = svc.Verify(ctx, token)
	assert.ErrorIs(t, err, diary.ErrAuthRequired)
}

func TestTokenRevoke(t *testing.T) {
	ctx := context.Background()
	revoker := newMemRevoker()
	svc := NewTokenService("secret", time.Hour, revoker)

	token, err := svc.Issue("user-1")
	require.NoError(t, err)
	claims, err := svc.Verify(ctx, token)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, claims))
	ttl, ok := revoker.revoked[claims.ID]
	require.True(t, ok)
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)

	_, err = svc.Verify(ctx, token)
	assert.ErrorIs(t, err, diary.ErrAuthRequired)
}
