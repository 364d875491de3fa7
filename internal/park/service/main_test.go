package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/caremypark/caremypark/internal/park/blob"
	"github.com/caremypark/caremypark/internal/park/blob/drivers/fs"
	"github.com/caremypark/caremypark/internal/park/domain"
	"github.com/caremypark/caremypark/internal/park/policy"
	"github.com/caremypark/caremypark/internal/park/store"
	"github.com/caremypark/caremypark/internal/park/store/drivers/sqlite"
	"github.com/caremypark/caremypark/pkg/cryptox"
	"github.com/caremypark/caremypark/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// The pepper is package-global; point it at a scratch file once for the
	// whole test binary.
	dir, err := os.MkdirTemp("", "cryptox-pepper")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

type testEnv struct {
	store    store.Store
	blobs    blob.Store
	auth     *AuthService
	reports  *ReportService
	verifier *jwtx.Verifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, verifier, err := jwtx.NewEphemeralKeypair("caremypark-test")
	require.NoError(t, err)

	auth, err := NewAuthService(st, signer, "caremypark-test", 0, 0)
	require.NoError(t, err)

	blobs, err := fs.NewStore(t.TempDir())
	require.NoError(t, err)

	return &testEnv{
		store:    st,
		blobs:    blobs,
		auth:     auth,
		verifier: verifier,
		reports: &ReportService{
			Store:  st,
			Blobs:  blobs,
			Policy: policy.Engine{AnonymousTracking: true},
		},
	}
}

// registerVisitor creates a visitor account and returns its principal.
func (e *testEnv) registerVisitor(t *testing.T, email string) policy.Principal {
	t.Helper()

	user, err := e.auth.Register(context.Background(), email, "visitor-password")
	require.NoError(t, err)
	return policy.Principal{UserID: user.ID, Role: user.Role}
}

// provisionAuthority bootstraps (or directly inserts) an authority account.
func (e *testEnv) provisionAuthority(t *testing.T, email string) policy.Principal {
	t.Helper()
	ctx := context.Background()

	hash, err := cryptox.HashPassword("authority-password")
	require.NoError(t, err)

	user := domain.User{
		ID:           "authority-" + email,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAuthority,
	}
	require.NoError(t, e.store.Users().CreateUser(ctx, user))
	return policy.Principal{UserID: user.ID, Role: user.Role}
}
