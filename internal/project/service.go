package project

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/engvault/engvault/internal/authz"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	CreateProject(ctx context.Context, in ProjectInput) (Project, error)
	ProjectByID(ctx context.Context, id uuid.UUID) (Project, error)
	ProjectByCode(ctx context.Context, code string) (Project, error)
	UpdateProject(ctx context.Context, id uuid.UUID, in ProjectInput) (Project, error)
	CreateMembership(ctx context.Context, projectID uuid.UUID, accountID int64, roles []string) (Membership, error)
	MembershipByID(ctx context.Context, id uuid.UUID) (Membership, error)
	MembershipsByProject(ctx context.Context, projectID uuid.UUID) ([]Membership, error)
	UpdateMembershipRoles(ctx context.Context, id uuid.UUID, roles []string) (Membership, error)
	DeleteMembership(ctx context.Context, id uuid.UUID) error
}

// Service coordinates project and membership operations behind the
// authorization gate. Project-scoped mutations accept either an
// account-wide grant or one earned through membership roles.
type Service struct {
	repo RepositoryPort
	gate *authz.Gate
}

// NewService builds Service.
func NewService(repo RepositoryPort, gate *authz.Gate) *Service {
	return &Service{repo: repo, gate: gate}
}

// Create inserts a new project. Requires the account-wide "project.create".
func (s *Service) Create(ctx context.Context, p authz.Principal, in ProjectInput) (Project, error) {
	if err := s.gate.Require(p, "project.create"); err != nil {
		return Project{}, err
	}
	in.Code = strings.TrimSpace(in.Code)
	if in.Code == "" {
		return Project{}, errors.New("project: code required")
	}
	return s.repo.CreateProject(ctx, in)
}

// ByID fetches a project.
func (s *Service) ByID(ctx context.Context, p authz.Principal, id uuid.UUID) (Project, error) {
	if err := s.gate.Require(p, "project.read"); err != nil {
		return Project{}, err
	}
	return s.repo.ProjectByID(ctx, id)
}

// ByCode fetches a project by code.
func (s *Service) ByCode(ctx context.Context, p authz.Principal, code string) (Project, error) {
	if err := s.gate.Require(p, "project.read"); err != nil {
		return Project{}, err
	}
	return s.repo.ProjectByCode(ctx, code)
}

// Update updates a project. Grantable account-wide or through a project
// role such as leader.
func (s *Service) Update(ctx context.Context, p authz.Principal, id uuid.UUID, in ProjectInput) (Project, error) {
	if err := s.gate.RequireProject(ctx, p, id, "project.update"); err != nil {
		return Project{}, err
	}
	return s.repo.UpdateProject(ctx, id, in)
}

// AddMember adds an account to a project with the given project roles.
func (s *Service) AddMember(ctx context.Context, p authz.Principal, projectID uuid.UUID, accountID int64, roles []string) (Membership, error) {
	if err := s.gate.RequireProject(ctx, p, projectID, "member.create"); err != nil {
		return Membership{}, err
	}
	return s.repo.CreateMembership(ctx, projectID, accountID, roles)
}

// Members lists a project's memberships.
func (s *Service) Members(ctx context.Context, p authz.Principal, projectID uuid.UUID) ([]Membership, error) {
	if err := s.gate.Require(p, "member.read"); err != nil {
		return nil, err
	}
	return s.repo.MembershipsByProject(ctx, projectID)
}

// UpdateMemberRoles replaces a membership's project roles.
func (s *Service) UpdateMemberRoles(ctx context.Context, p authz.Principal, membershipID uuid.UUID, roles []string) (Membership, error) {
	mem, err := s.repo.MembershipByID(ctx, membershipID)
	if err != nil {
		return Membership{}, err
	}
	if err := s.gate.RequireProject(ctx, p, mem.ProjectID, "member.update"); err != nil {
		return Membership{}, err
	}
	return s.repo.UpdateMembershipRoles(ctx, membershipID, roles)
}

// RemoveMember deletes a membership.
func (s *Service) RemoveMember(ctx context.Context, p authz.Principal, membershipID uuid.UUID) error {
	mem, err := s.repo.MembershipByID(ctx, membershipID)
	if err != nil {
		return err
	}
	if err := s.gate.RequireProject(ctx, p, mem.ProjectID, "member.delete"); err != nil {
		return err
	}
	return s.repo.DeleteMembership(ctx, membershipID)
}
