package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/admin-platform/internal/testutil"
	"github.com/iliyamo/admin-platform/internal/utils"
)

func TestRevocationStore_RecordLivesUntilTokenExpiry(t *testing.T) {
	e := newAuthEnv(t)
	ctx := context.Background()

	tok, _, err := e.issuer.Sign(e.alice.Identity(), utils.TokenRefresh, time.Hour)
	require.NoError(t, err)

	require.NoError(t, e.revs.Revoke(ctx, tok))
	revoked, err := e.revs.IsRevoked(ctx, tok)
	require.NoError(t, err)
	assert.True(t, revoked)

	e.clk.Add(time.Hour)
	revoked, err = e.revs.IsRevoked(ctx, tok)
	require.NoError(t, err)
	assert.False(t, revoked, "a record past its expiry never matches")

	n, err := e.revs.Prune(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Zero(t, e.blacklist.Len())
}

func TestRevocationStore_RevokeDoesNotNeedValidSignature(t *testing.T) {
	e := newAuthEnv(t)
	ctx := context.Background()

	tok, _, err := e.issuer.Sign(e.alice.Identity(), utils.TokenRefresh, time.Hour)
	require.NoError(t, err)
	tampered := tok[:len(tok)-2] + "xx"

	require.NoError(t, e.revs.Revoke(ctx, tampered))
	revoked, _ := e.revs.IsRevoked(ctx, tampered)
	assert.True(t, revoked)
	revoked, _ = e.revs.IsRevoked(ctx, tok)
	assert.False(t, revoked, "records match the exact token string only")
}

func TestRevocationStore_Errors(t *testing.T) {
	e := newAuthEnv(t)
	ctx := context.Background()

	assert.NoError(t, e.revs.Revoke(ctx, ""))
	assert.ErrorIs(t, e.revs.Revoke(ctx, "garbage"), utils.ErrTokenInvalid)

	e.blacklist.Err = testutil.ErrBoom
	_, err := e.revs.IsRevoked(ctx, "x")
	assert.ErrorIs(t, err, testutil.ErrBoom)
	_, err = e.revs.Prune(ctx)
	assert.ErrorIs(t, err, testutil.ErrBoom)
}

func TestRevocationStore_JanitorStopsOnCancel(t *testing.T) {
	e := newAuthEnv(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		e.revs.RunJanitor(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
