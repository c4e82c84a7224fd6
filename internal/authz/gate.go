package authz

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/engvault/engvault/internal/rbac"
)

// Principal is the authenticated caller: the account id plus the
// permissions resolved from the account's roles at session time.
type Principal struct {
	AccountID   int64
	Permissions []string
}

// Has reports whether perm is among the principal's account-wide permissions.
func (p Principal) Has(perm string) bool {
	for _, granted := range p.Permissions {
		if granted == perm {
			return true
		}
	}
	return false
}

// ForbiddenError reports a denied operation and the permission it lacked.
type ForbiddenError struct {
	Permission string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("authz: missing permission %q", e.Permission)
}

// MembershipSource returns the project roles an account holds on a project.
// An account with no membership yields an empty slice, not an error.
type MembershipSource interface {
	ProjectRoles(ctx context.Context, projectID uuid.UUID, accountID int64) ([]string, error)
}

// Gate decides whether an operation is allowed. Account-wide permissions
// are checked first; project-scoped checks additionally consult the
// caller's membership roles resolved through the project policy.
type Gate struct {
	project *rbac.Policy
	members MembershipSource
}

// NewGate constructs a Gate over the project role policy and a membership
// source.
func NewGate(project *rbac.Policy, members MembershipSource) *Gate {
	return &Gate{project: project, members: members}
}

// Require allows the operation iff perm is in the principal's account-wide
// permissions. This is the cheap path: no membership lookup happens here.
func (g *Gate) Require(p Principal, perm string) error {
	if p.Has(perm) {
		return nil
	}
	return &ForbiddenError{Permission: perm}
}

// RequireProject allows the operation when perm is granted account-wide,
// or when the principal's roles on the project resolve to a permission set
// containing perm. Not being a member denies the same way as membership
// roles that grant nothing.
func (g *Gate) RequireProject(ctx context.Context, p Principal, projectID uuid.UUID, perm string) error {
	if p.Has(perm) {
		return nil
	}
	roles, err := g.members.ProjectRoles(ctx, projectID, p.AccountID)
	if err != nil {
		return err
	}
	if len(roles) > 0 {
		ok, err := g.project.HasPermission(roles, perm)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return &ForbiddenError{Permission: perm}
}
