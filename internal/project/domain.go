package project

import (
	"time"

	"github.com/google/uuid"
)

// Project groups parts, documents and members under one code.
type Project struct {
	ID          uuid.UUID
	Name        string
	Code        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Membership ties an account to a project with project-level roles. The
// role namespace is distinct from account roles.
type Membership struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	AccountID int64
	Roles     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProjectInput carries fields for creating or updating a project.
type ProjectInput struct {
	Name        string
	Code        string
	Description string
}
