package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(expiry time.Duration) *Service {
	return NewService("test-secret", expiry, NewMemoryRegistry())
}

func TestIssueAndVerify(t *testing.T) {
	svc := newTestService(time.Hour)

	tok, err := svc.Issue(42)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := svc.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestVerifyExpired(t *testing.T) {
	svc := newTestService(-time.Minute)

	tok, err := svc.Issue(42)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), tok)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyTampered(t *testing.T) {
	svc := newTestService(time.Hour)

	tok, err := svc.Issue(42)
	require.NoError(t, err)

	tampered := tok[:len(tok)-2] + "xx"
	_, err = svc.Verify(context.Background(), tampered)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewService("secret-a", time.Hour, NewMemoryRegistry())
	verifier := NewService("secret-b", time.Hour, NewMemoryRegistry())

	tok, err := issuer.Issue(1)
	require.NoError(t, err)

	_, err = verifier.Verify(context.Background(), tok)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyGarbage(t *testing.T) {
	svc := newTestService(time.Hour)

	for _, bad := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.Verify(context.Background(), bad)
		assert.ErrorIs(t, err, ErrInvalid, "input %q", bad)
	}
}

func TestRevoke(t *testing.T) {
	svc := newTestService(time.Hour)
	ctx := context.Background()

	tok, err := svc.Issue(7)
	require.NoError(t, err)

	_, err = svc.Verify(ctx, tok)
	require.NoError(t, err)

	assert.True(t, svc.Revoke(ctx, tok))

	_, err = svc.Verify(ctx, tok)
	assert.ErrorIs(t, err, ErrInvalid)

	// A second token for the same user is unaffected.
	other, err := svc.Issue(7)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, other)
	assert.NoError(t, err)
}

func TestRevokeEmptyToken(t *testing.T) {
	svc := newTestService(time.Hour)
	assert.False(t, svc.Revoke(context.Background(), ""))
}

type failingRegistry struct{}

func (failingRegistry) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("registry down")
}

func (failingRegistry) Revoke(context.Context, string) error {
	return errors.New("registry down")
}

func TestRegistryFailureIsInvalid(t *testing.T) {
	svc := NewService("test-secret", time.Hour, failingRegistry{})

	tok, err := svc.Issue(1)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), tok)
	assert.ErrorIs(t, err, ErrInvalid)

	assert.False(t, svc.Revoke(context.Background(), tok))
}

func TestMemoryRegistry(t *testing.T) {
	reg := NewMemoryRegistry()
	ctx := context.Background()

	revoked, err := reg.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, reg.Revoke(ctx, "abc"))

	revoked, err = reg.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)
}
