package identity

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/engvault/engvault/internal/authz"
	"github.com/engvault/engvault/internal/rbac"
	"github.com/engvault/engvault/internal/shared"
)

// RepositoryPort abstracts account persistence for the service.
type RepositoryPort interface {
	AccountByID(ctx context.Context, id int64) (*Account, error)
	AccountByEmail(ctx context.Context, email string) (*Account, error)
	RolesByID(ctx context.Context, id int64) ([]string, error)
}

// Service authenticates accounts and derives principals from sessions.
type Service struct {
	repo     RepositoryPort
	sessions *SessionStore
	policy   *rbac.Policy
	logger   *slog.Logger
}

// NewService constructs a Service. policy is the account-domain role policy.
func NewService(repo RepositoryPort, sessions *SessionStore, policy *rbac.Policy, logger *slog.Logger) *Service {
	return &Service{repo: repo, sessions: sessions, policy: policy, logger: logger}
}

// Login validates credentials and opens a session. The returned principal
// carries the permissions resolved from the account's roles.
func (s *Service) Login(ctx context.Context, email, password string) (authz.Principal, string, error) {
	acc, err := s.repo.AccountByEmail(ctx, email)
	if err != nil {
		return authz.Principal{}, "", shared.ErrInvalidCredentials
	}
	if !acc.IsActive {
		return authz.Principal{}, "", shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return authz.Principal{}, "", shared.ErrInvalidCredentials
	}

	principal, err := s.PrincipalFor(ctx, acc.ID)
	if err != nil {
		return authz.Principal{}, "", err
	}
	token, err := s.sessions.Create(ctx, acc.ID)
	if err != nil {
		return authz.Principal{}, "", err
	}
	if s.logger != nil {
		s.logger.Info("login", slog.Int64("account_id", acc.ID))
	}
	return principal, token, nil
}

// Logout closes a session.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Destroy(ctx, token)
}

// PrincipalFromToken resolves a session token into a principal.
func (s *Service) PrincipalFromToken(ctx context.Context, token string) (authz.Principal, error) {
	accountID, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return authz.Principal{}, err
	}
	return s.PrincipalFor(ctx, accountID)
}

// PrincipalFor loads an account's roles and resolves them into the
// account-wide permission set.
func (s *Service) PrincipalFor(ctx context.Context, accountID int64) (authz.Principal, error) {
	roles, err := s.repo.RolesByID(ctx, accountID)
	if err != nil {
		return authz.Principal{}, err
	}
	perms, err := s.policy.Permissions(roles)
	if err != nil {
		return authz.Principal{}, err
	}
	return authz.Principal{AccountID: accountID, Permissions: perms}, nil
}
