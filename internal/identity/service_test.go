package identity

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/engvault/engvault/internal/rbac"
	"github.com/engvault/engvault/internal/shared"
)

type memoryRepo struct {
	accounts map[int64]*Account
	byEmail  map[string]*Account
}

func newMemoryRepo(accounts ...*Account) *memoryRepo {
	r := &memoryRepo{accounts: make(map[int64]*Account), byEmail: make(map[string]*Account)}
	for _, acc := range accounts {
		r.accounts[acc.ID] = acc
		r.byEmail[acc.Email] = acc
	}
	return r
}

func (r *memoryRepo) AccountByID(_ context.Context, id int64) (*Account, error) {
	acc, ok := r.accounts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return acc, nil
}

func (r *memoryRepo) AccountByEmail(_ context.Context, email string) (*Account, error) {
	acc, ok := r.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return acc, nil
}

func (r *memoryRepo) RolesByID(_ context.Context, id int64) ([]string, error) {
	acc, ok := r.accounts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return acc.Roles, nil
}

func testSessionStore(t *testing.T) *SessionStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(client, time.Hour)
}

func testService(t *testing.T) *Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := newMemoryRepo(
		&Account{ID: 1, Email: "tania@example.com", FullName: "Tania Perrin", Roles: []string{"admin"}, PasswordHash: string(hash), IsActive: true},
		&Account{ID: 2, Email: "gone@example.com", FullName: "Revoked", Roles: []string{"user"}, PasswordHash: string(hash), IsActive: false},
	)
	policy := rbac.NewPolicy(rbac.RoleGraph{
		"user":  {Permissions: []string{"document.read"}},
		"admin": {Inherits: "user", Permissions: []string{"user.create"}},
	})
	return NewService(repo, testSessionStore(t), policy, nil)
}

func TestLoginAndResolve(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	principal, token, err := svc.Login(ctx, "tania@example.com", "s3cret")
	require.NoError(t, err)
	require.Equal(t, int64(1), principal.AccountID)
	require.Equal(t, []string{"document.read", "user.create"}, principal.Permissions)
	require.NotEmpty(t, token)

	resolved, err := svc.PrincipalFromToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, principal, resolved)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	_, _, err := svc.Login(ctx, "tania@example.com", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "s3cret")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "gone@example.com", "s3cret")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	_, token, err := svc.Login(ctx, "tania@example.com", "s3cret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, token))

	_, err = svc.PrincipalFromToken(ctx, token)
	require.ErrorIs(t, err, shared.ErrSessionExpired)
}
