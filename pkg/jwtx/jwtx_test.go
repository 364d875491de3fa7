package jwtx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	signer, verifier, err := NewEphemeralKeypair("caremypark-test")
	require.NoError(t, err)
	require.NoError(t, signer.Validate())

	now := time.Now().UTC()
	claims := NewSessionClaims("user-1", "visitor@example.com", "visitor", time.Hour, "caremypark-test", now)

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "visitor", got.Role)
	require.Equal(t, "visitor@example.com", got.Email)
	require.NotEmpty(t, got.ID)
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	t.Parallel()

	signer, _, err := NewEphemeralKeypair("caremypark-test")
	require.NoError(t, err)
	_, otherVerifier, err := NewEphemeralKeypair("caremypark-test")
	require.NoError(t, err)

	claims := NewSessionClaims("user-1", "a@b.com", "visitor", time.Hour, "caremypark-test", time.Now().UTC())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = otherVerifier.Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsIssuerMismatch(t *testing.T) {
	t.Parallel()

	signer, verifier, err := NewEphemeralKeypair("expected-issuer")
	require.NoError(t, err)

	claims := NewSessionClaims("user-1", "a@b.com", "visitor", time.Hour, "someone-else", time.Now().UTC())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, ErrIssuer)
}

func TestVerifyRejectsExpired(t *testing.T) {
	t.Parallel()

	signer, verifier, err := NewEphemeralKeypair("caremypark-test")
	require.NoError(t, err)

	past := time.Now().UTC().Add(-2 * time.Hour)
	claims := NewSessionClaims("user-1", "a@b.com", "visitor", time.Hour, "caremypark-test", past)
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, verifier, err := NewEphemeralKeypair("caremypark-test")
	require.NoError(t, err)

	_, err = verifier.Verify("not.a.token")
	require.Error(t, err)
}
