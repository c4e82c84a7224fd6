package project

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/engvault/engvault/internal/authz"
	"github.com/engvault/engvault/internal/rbac"
	"github.com/engvault/engvault/internal/shared"
)

type memoryRepo struct {
	projects    map[uuid.UUID]Project
	memberships map[uuid.UUID]Membership
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		projects:    make(map[uuid.UUID]Project),
		memberships: make(map[uuid.UUID]Membership),
	}
}

func (r *memoryRepo) CreateProject(_ context.Context, in ProjectInput) (Project, error) {
	p := Project{ID: uuid.New(), Name: in.Name, Code: in.Code, Description: in.Description, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	r.projects[p.ID] = p
	return p, nil
}

func (r *memoryRepo) ProjectByID(_ context.Context, id uuid.UUID) (Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return Project{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) ProjectByCode(_ context.Context, code string) (Project, error) {
	for _, p := range r.projects {
		if p.Code == code {
			return p, nil
		}
	}
	return Project{}, shared.ErrNotFound
}

func (r *memoryRepo) UpdateProject(_ context.Context, id uuid.UUID, in ProjectInput) (Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return Project{}, shared.ErrNotFound
	}
	p.Name, p.Description = in.Name, in.Description
	r.projects[id] = p
	return p, nil
}

func (r *memoryRepo) CreateMembership(_ context.Context, projectID uuid.UUID, accountID int64, roles []string) (Membership, error) {
	m := Membership{ID: uuid.New(), ProjectID: projectID, AccountID: accountID, Roles: roles}
	r.memberships[m.ID] = m
	return m, nil
}

func (r *memoryRepo) MembershipByID(_ context.Context, id uuid.UUID) (Membership, error) {
	m, ok := r.memberships[id]
	if !ok {
		return Membership{}, shared.ErrNotFound
	}
	return m, nil
}

func (r *memoryRepo) MembershipsByProject(_ context.Context, projectID uuid.UUID) ([]Membership, error) {
	var out []Membership
	for _, m := range r.memberships {
		if m.ProjectID == projectID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memoryRepo) UpdateMembershipRoles(_ context.Context, id uuid.UUID, roles []string) (Membership, error) {
	m, ok := r.memberships[id]
	if !ok {
		return Membership{}, shared.ErrNotFound
	}
	m.Roles = roles
	r.memberships[id] = m
	return m, nil
}

func (r *memoryRepo) DeleteMembership(_ context.Context, id uuid.UUID) error {
	if _, ok := r.memberships[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.memberships, id)
	return nil
}

func (r *memoryRepo) ProjectRoles(_ context.Context, projectID uuid.UUID, accountID int64) ([]string, error) {
	for _, m := range r.memberships {
		if m.ProjectID == projectID && m.AccountID == accountID {
			return m.Roles, nil
		}
	}
	return nil, nil
}

func testService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	policy := rbac.NewPolicy(rbac.RoleGraph{
		"designer": {Permissions: []string{"part.revise"}},
		"leader":   {Inherits: "designer", Permissions: []string{"project.update", "member.create", "member.update", "member.delete"}},
	})
	gate := authz.NewGate(policy, repo)
	return NewService(repo, gate), repo
}

var (
	admin  = authz.Principal{AccountID: 1, Permissions: []string{"project.create", "project.read", "project.update", "member.create", "member.read", "member.update", "member.delete"}}
	plain  = authz.Principal{AccountID: 2, Permissions: []string{"project.read", "member.read"}}
	member = authz.Principal{AccountID: 3, Permissions: []string{"project.read"}}
)

func TestCreateRequiresAccountPermission(t *testing.T) {
	svc, _ := testService()
	ctx := context.Background()

	p, err := svc.Create(ctx, admin, ProjectInput{Name: "Injector", Code: "INJ"})
	require.NoError(t, err)
	require.Equal(t, "INJ", p.Code)

	_, err = svc.Create(ctx, plain, ProjectInput{Name: "Nope", Code: "NO"})
	var forbidden *authz.ForbiddenError
	require.ErrorAs(t, err, &forbidden)
}

func TestUpdateViaProjectLeaderRole(t *testing.T) {
	svc, _ := testService()
	ctx := context.Background()

	proj, err := svc.Create(ctx, admin, ProjectInput{Name: "Injector", Code: "INJ"})
	require.NoError(t, err)

	// account 3 has no account-wide update grant; as leader it may update
	_, err = svc.AddMember(ctx, admin, proj.ID, member.AccountID, []string{"leader"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, member, proj.ID, ProjectInput{Name: "Injector Mk2", Description: "revised"})
	require.NoError(t, err)
	require.Equal(t, "Injector Mk2", updated.Name)

	// a non-member with only read permissions is denied
	_, err = svc.Update(ctx, plain, proj.ID, ProjectInput{Name: "x"})
	var forbidden *authz.ForbiddenError
	require.ErrorAs(t, err, &forbidden)
}

func TestMembershipLifecycle(t *testing.T) {
	svc, _ := testService()
	ctx := context.Background()

	proj, err := svc.Create(ctx, admin, ProjectInput{Name: "Pump", Code: "PMP"})
	require.NoError(t, err)

	mem, err := svc.AddMember(ctx, admin, proj.ID, 5, []string{"designer"})
	require.NoError(t, err)

	mem, err = svc.UpdateMemberRoles(ctx, admin, mem.ID, []string{"designer", "leader"})
	require.NoError(t, err)
	require.Equal(t, []string{"designer", "leader"}, mem.Roles)

	members, err := svc.Members(ctx, plain, proj.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)

	require.NoError(t, svc.RemoveMember(ctx, admin, mem.ID))
	require.ErrorIs(t, svc.RemoveMember(ctx, admin, mem.ID), shared.ErrNotFound)
}
