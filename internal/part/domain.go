package part

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PartFamily groups parts under a reference prefix and owns the counter
// used to derive new part references.
type PartFamily struct {
	ID      uuid.UUID
	Name    string
	Code    string
	Counter int
}

// Part is a checkout-able engineering part owning a gapless sequence of
// revisions.
type Part struct {
	ID          uuid.UUID
	FamilyID    uuid.UUID
	Ref         string
	Designation string
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedBy   int64
	UpdatedAt   time.Time
	CheckoutBy  *int64
}

// CheckedOutBy reports whether the part is currently held by accountID.
func (p Part) CheckedOutBy(accountID int64) bool {
	return p.CheckoutBy != nil && *p.CheckoutBy == accountID
}

// PartRevision is one numbered revision of a part, carrying its lifecycle
// cycle state.
type PartRevision struct {
	ID          uuid.UUID
	PartID      uuid.UUID
	Revision    int
	Designation string
	CycleState  CycleState
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedBy   int64
	UpdatedAt   time.Time
}

// Validation is a review request against one part revision. Its outcome is
// read from the individual approvals; no aggregate verdict is stored here.
type Validation struct {
	ID             uuid.UUID
	PartRevisionID uuid.UUID
	CreatedBy      int64
	CreatedAt      time.Time
	UpdatedBy      int64
	UpdatedAt      time.Time
}

// ApprovalDecision is one assignee's verdict on a validation.
type ApprovalDecision string

const (
	DecisionPending  ApprovalDecision = "PENDING"
	DecisionApproved ApprovalDecision = "APPROVED"
	DecisionRejected ApprovalDecision = "REJECTED"
	DecisionReserved ApprovalDecision = "RESERVED"
)

// Valid reports whether d is one of the known decisions.
func (d ApprovalDecision) Valid() bool {
	switch d {
	case DecisionPending, DecisionApproved, DecisionRejected, DecisionReserved:
		return true
	}
	return false
}

// Approval is one assignee's independently mutable decision record on a
// validation. Only the assignee (or an override) may change it.
type Approval struct {
	ID           uuid.UUID
	ValidationID uuid.UUID
	AssigneeID   int64
	Decision     ApprovalDecision
	Comments     *string
	CreatedBy    int64
	CreatedAt    time.Time
	UpdatedBy    int64
	UpdatedAt    time.Time
}

// CreateInput carries fields for creating a part with its first revision.
type CreateInput struct {
	FamilyID    uuid.UUID
	Designation string
}

// CheckoutConflictError reports that an operation requiring exclusive
// access found the part held by another account.
type CheckoutConflictError struct {
	PartID    uuid.UUID
	OwnerID   int64
	OwnerName string
}

func (e *CheckoutConflictError) Error() string {
	return fmt.Sprintf("part %s is checked out by %s", e.PartID, e.OwnerName)
}

// partRef derives a part reference from the family code and its bumped
// counter, e.g. "VLV007".
func partRef(fam PartFamily) string {
	return fmt.Sprintf("%s%03d", fam.Code, fam.Counter)
}
