package authz

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/engvault/engvault/internal/rbac"
)

type memberMap map[string][]string

func (m memberMap) ProjectRoles(_ context.Context, projectID uuid.UUID, accountID int64) ([]string, error) {
	return m[key(projectID, accountID)], nil
}

func key(projectID uuid.UUID, accountID int64) string {
	return fmt.Sprintf("%s/%d", projectID, accountID)
}

func projectPolicy() *rbac.Policy {
	return rbac.NewPolicy(rbac.RoleGraph{
		"designer": {Permissions: []string{"part.revise"}},
		"leader":   {Inherits: "designer", Permissions: []string{"project.update"}},
	})
}

func TestRequireAccountWide(t *testing.T) {
	gate := NewGate(projectPolicy(), memberMap{})
	p := Principal{AccountID: 1, Permissions: []string{"doc.read", "project.update"}}

	require.NoError(t, gate.Require(p, "project.update"))

	err := gate.Require(p, "user.create")
	var forbidden *ForbiddenError
	require.ErrorAs(t, err, &forbidden)
	require.Equal(t, "user.create", forbidden.Permission)
}

func TestRequireProjectAccountWideShortCircuits(t *testing.T) {
	projectID := uuid.New()
	// Membership source would grant nothing; the account-wide permission
	// must allow without consulting it.
	gate := NewGate(projectPolicy(), memberMap{})
	p := Principal{AccountID: 1, Permissions: []string{"project.update"}}

	require.NoError(t, gate.RequireProject(context.Background(), p, projectID, "project.update"))
}

func TestRequireProjectViaMembership(t *testing.T) {
	projectID := uuid.New()
	members := memberMap{key(projectID, 2): {"leader"}}
	gate := NewGate(projectPolicy(), members)
	p := Principal{AccountID: 2, Permissions: []string{"doc.read"}}

	require.NoError(t, gate.RequireProject(context.Background(), p, projectID, "project.update"))
	// leader inherits designer
	require.NoError(t, gate.RequireProject(context.Background(), p, projectID, "part.revise"))
}

func TestRequireProjectDenies(t *testing.T) {
	projectID := uuid.New()
	members := memberMap{key(projectID, 2): {"designer"}}
	gate := NewGate(projectPolicy(), members)

	// member whose roles do not grant the permission
	err := gate.RequireProject(context.Background(), Principal{AccountID: 2}, projectID, "project.update")
	var forbidden *ForbiddenError
	require.ErrorAs(t, err, &forbidden)

	// not a member at all: same denial
	err = gate.RequireProject(context.Background(), Principal{AccountID: 3}, projectID, "project.update")
	require.ErrorAs(t, err, &forbidden)
	require.Equal(t, "project.update", forbidden.Permission)
}

func TestPrincipalContextRoundTrip(t *testing.T) {
	p := Principal{AccountID: 7, Permissions: []string{"doc.read"}}
	ctx := ContextWithPrincipal(context.Background(), p)

	got, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, p, got)

	_, ok = PrincipalFromContext(context.Background())
	require.False(t, ok)
}
