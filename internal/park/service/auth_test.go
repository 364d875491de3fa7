package service

import (
	"context"
	"testing"
	"time"

	"github.com/caremypark/caremypark/internal/park/domain"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("creates visitor account", func(t *testing.T) {
		user, err := env.auth.Register(ctx, "Alice@Example.COM", "a-long-password")
		require.NoError(t, err)
		require.Equal(t, "alice@example.com", user.Email)
		require.Equal(t, domain.RoleVisitor, user.Role)
		require.NotEmpty(t, user.ID)
	})

	t.Run("rejects duplicate email case-insensitively", func(t *testing.T) {
		_, err := env.auth.Register(ctx, "ALICE@example.com", "another-password")
		require.ErrorIs(t, err, ErrAlreadyRegistered)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		_, err := env.auth.Register(ctx, "not-an-email", "a-long-password")
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("rejects short password", func(t *testing.T) {
		_, err := env.auth.Register(ctx, "bob@example.com", "short")
		require.ErrorIs(t, err, ErrValidation)
	})
}

func TestBootstrap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.auth.Bootstrap(ctx, "admin@example.com", "bootstrap-password"))

	user, err := env.store.Users().GetUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAuthority, user.Role)

	// Second bootstrap is a no-op once users exist.
	require.NoError(t, env.auth.Bootstrap(ctx, "other@example.com", "bootstrap-password"))
	_, err = env.store.Users().GetUserByEmail(ctx, "other@example.com")
	require.Error(t, err)
}

func TestLoginWithoutTwoFactor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, "alice@example.com", "a-long-password")
	require.NoError(t, err)

	t.Run("issues session on valid credentials", func(t *testing.T) {
		result, err := env.auth.Login(ctx, "alice@example.com", "a-long-password")
		require.NoError(t, err)
		require.False(t, result.TwoFactorRequired)
		require.NotEmpty(t, result.Token)

		claims, err := env.verifier.Verify(result.Token)
		require.NoError(t, err)
		require.Equal(t, "alice@example.com", claims.Email)
		require.Equal(t, string(domain.RoleVisitor), claims.Role)

		user, err := env.store.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.NotNil(t, user.LastLogin)
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		_, err := env.auth.Login(ctx, "alice@example.com", "wrong-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("rejects unknown email with the same error", func(t *testing.T) {
		_, err := env.auth.Login(ctx, "nobody@example.com", "a-long-password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestEnableTwoFactor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, "alice@example.com", "a-long-password")
	require.NoError(t, err)

	enrollment, err := env.auth.EnableTwoFactor(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, enrollment.Secret)
	require.Contains(t, enrollment.ProvisioningURI, "otpauth://totp/")

	_, err = env.auth.EnableTwoFactor(ctx, user.ID)
	require.ErrorIs(t, err, ErrTwoFactorAlreadyEnabled)

	_, err = env.auth.EnableTwoFactor(ctx, "no-such-user")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoginWithTwoFactor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, "alice@example.com", "a-long-password")
	require.NoError(t, err)
	enrollment, err := env.auth.EnableTwoFactor(ctx, user.ID)
	require.NoError(t, err)

	t.Run("password step returns challenge marker", func(t *testing.T) {
		result, err := env.auth.Login(ctx, "alice@example.com", "a-long-password")
		require.NoError(t, err)
		require.True(t, result.TwoFactorRequired)
		require.Empty(t, result.Token)
	})

	t.Run("valid passcode completes login", func(t *testing.T) {
		code, err := totp.GenerateCode(enrollment.Secret, time.Now().UTC())
		require.NoError(t, err)

		result, err := env.auth.VerifyTwoFactor(ctx, "alice@example.com", code)
		require.NoError(t, err)
		require.False(t, result.TwoFactorRequired)
		require.NotEmpty(t, result.Token)

		claims, err := env.verifier.Verify(result.Token)
		require.NoError(t, err)
		require.Equal(t, user.ID, claims.Subject)
	})

	t.Run("passcode without pending challenge is rejected", func(t *testing.T) {
		code, err := totp.GenerateCode(enrollment.Secret, time.Now().UTC())
		require.NoError(t, err)

		_, err = env.auth.VerifyTwoFactor(ctx, "alice@example.com", code)
		require.ErrorIs(t, err, ErrChallengeExpired)
	})
}

func TestVerifyTwoFactorAttemptsExhausted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, "alice@example.com", "a-long-password")
	require.NoError(t, err)
	enrollment, err := env.auth.EnableTwoFactor(ctx, user.ID)
	require.NoError(t, err)

	result, err := env.auth.Login(ctx, "alice@example.com", "a-long-password")
	require.NoError(t, err)
	require.True(t, result.TwoFactorRequired)

	bad := wrongCode(t, enrollment.Secret)

	for i := 1; i < MaxOTPAttempts; i++ {
		_, err := env.auth.VerifyTwoFactor(ctx, "alice@example.com", bad)
		require.ErrorIs(t, err, ErrInvalidOTP, "attempt %d", i)
	}

	// The final attempt voids the challenge.
	_, err = env.auth.VerifyTwoFactor(ctx, "alice@example.com", bad)
	require.ErrorIs(t, err, ErrOTPExhausted)

	// Even a valid code is refused now; login must restart.
	code, err := totp.GenerateCode(enrollment.Secret, time.Now().UTC())
	require.NoError(t, err)
	_, err = env.auth.VerifyTwoFactor(ctx, "alice@example.com", code)
	require.ErrorIs(t, err, ErrChallengeExpired)

	// A fresh password step resets the attempt counter.
	result, err = env.auth.Login(ctx, "alice@example.com", "a-long-password")
	require.NoError(t, err)
	require.True(t, result.TwoFactorRequired)

	code, err = totp.GenerateCode(enrollment.Secret, time.Now().UTC())
	require.NoError(t, err)
	_, err = env.auth.VerifyTwoFactor(ctx, "alice@example.com", code)
	require.NoError(t, err)
}

// wrongCode returns a six digit code guaranteed not to verify against the
// secret in the current skew window.
func wrongCode(t *testing.T, secret string) string {
	t.Helper()

	now := time.Now().UTC()
	candidates := []string{"000000", "111111", "222222", "333333"}
	for _, c := range candidates {
		ok, err := totp.ValidateCustom(c, secret, now, totpOpts)
		require.NoError(t, err)
		if !ok {
			return c
		}
	}
	t.Fatal("no invalid candidate code found")
	return ""
}
