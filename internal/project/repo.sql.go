package project

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/engvault/engvault/internal/shared"
)

// Repository provides PostgreSQL backed persistence for projects and
// memberships.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const projectColumns = `id, name, code, description, created_at, updated_at`

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Name, &p.Code, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Project{}, shared.ErrNotFound
		}
		return Project{}, err
	}
	return p, nil
}

// CreateProject inserts a new project.
func (r *Repository) CreateProject(ctx context.Context, in ProjectInput) (Project, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO projects (id, name, code, description, created_at, updated_at)
VALUES ($1, $2, $3, $4, NOW(), NOW())
RETURNING `+projectColumns, uuid.New(), in.Name, in.Code, in.Description)
	return scanProject(row)
}

// ProjectByID fetches one project.
func (r *Repository) ProjectByID(ctx context.Context, id uuid.UUID) (Project, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=$1`, id)
	return scanProject(row)
}

// ProjectByCode fetches one project by its unique code.
func (r *Repository) ProjectByCode(ctx context.Context, code string) (Project, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE code=$1`, code)
	return scanProject(row)
}

// UpdateProject updates name/description of a project.
func (r *Repository) UpdateProject(ctx context.Context, id uuid.UUID, in ProjectInput) (Project, error) {
	row := r.pool.QueryRow(ctx, `UPDATE projects SET name=$2, description=$3, updated_at=NOW()
WHERE id=$1
RETURNING `+projectColumns, id, in.Name, in.Description)
	return scanProject(row)
}

const membershipColumns = `id, project_id, account_id, roles, created_at, updated_at`

func scanMembership(row pgx.Row) (Membership, error) {
	var m Membership
	err := row.Scan(&m.ID, &m.ProjectID, &m.AccountID, &m.Roles, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Membership{}, shared.ErrNotFound
		}
		return Membership{}, err
	}
	return m, nil
}

// CreateMembership inserts a membership row. One row per (project, account).
func (r *Repository) CreateMembership(ctx context.Context, projectID uuid.UUID, accountID int64, roles []string) (Membership, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO project_members (id, project_id, account_id, roles, created_at, updated_at)
VALUES ($1, $2, $3, $4, NOW(), NOW())
RETURNING `+membershipColumns, uuid.New(), projectID, accountID, roles)
	return scanMembership(row)
}

// MembershipByID fetches one membership.
func (r *Repository) MembershipByID(ctx context.Context, id uuid.UUID) (Membership, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+membershipColumns+` FROM project_members WHERE id=$1`, id)
	return scanMembership(row)
}

// MembershipsByProject lists a project's members.
func (r *Repository) MembershipsByProject(ctx context.Context, projectID uuid.UUID) ([]Membership, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+membershipColumns+` FROM project_members WHERE project_id=$1 ORDER BY created_at`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

// UpdateMembershipRoles replaces the role list of a membership.
func (r *Repository) UpdateMembershipRoles(ctx context.Context, id uuid.UUID, roles []string) (Membership, error) {
	row := r.pool.QueryRow(ctx, `UPDATE project_members SET roles=$2, updated_at=NOW()
WHERE id=$1
RETURNING `+membershipColumns, id, roles)
	return scanMembership(row)
}

// DeleteMembership removes a membership.
func (r *Repository) DeleteMembership(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM project_members WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ProjectRoles returns the project roles an account holds on a project.
// No membership yields an empty list, satisfying authz.MembershipSource.
func (r *Repository) ProjectRoles(ctx context.Context, projectID uuid.UUID, accountID int64) ([]string, error) {
	var roles []string
	err := r.pool.QueryRow(ctx, `SELECT roles FROM project_members WHERE project_id=$1 AND account_id=$2`,
		projectID, accountID).Scan(&roles)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return roles, nil
}
