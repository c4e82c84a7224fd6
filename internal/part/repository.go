package part

import (
	"context"

	"github.com/google/uuid"
)

// TxRepository exposes the operations the service groups inside one
// transaction. A failure in the callback rolls back every prior step,
// including a bumped family counter.
type TxRepository interface {
	// BumpFamilyCounter increments and returns the family with its new
	// counter value, locking the row for the rest of the transaction.
	BumpFamilyCounter(ctx context.Context, familyID uuid.UUID) (PartFamily, error)
	InsertPart(ctx context.Context, p Part) (Part, error)
	// PartForUpdate locks the part row, serialising revision creation.
	PartForUpdate(ctx context.Context, partID uuid.UUID) (Part, error)
	NextRevisionNumber(ctx context.Context, partID uuid.UUID) (int, error)
	InsertRevision(ctx context.Context, rev PartRevision) (PartRevision, error)
}

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	FamilyByID(ctx context.Context, id uuid.UUID) (PartFamily, error)
	PartByID(ctx context.Context, id uuid.UUID) (Part, error)
	AccountNameByID(ctx context.Context, accountID int64) (string, error)

	// Checkout and DiscardCheckout are single conditional writes returning
	// the post-update row either way.
	Checkout(ctx context.Context, id uuid.UUID, accountID int64) (Part, error)
	DiscardCheckout(ctx context.Context, id uuid.UUID, accountID int64) (Part, error)

	RevisionByID(ctx context.Context, id uuid.UUID) (PartRevision, error)
	RevisionsByPart(ctx context.Context, partID uuid.UUID) ([]PartRevision, error)
	LastRevision(ctx context.Context, partID uuid.UUID) (PartRevision, error)

	// TransitionCycleState writes the new state only when the stored state
	// still equals from, reporting whether the swap happened.
	TransitionCycleState(ctx context.Context, revisionID uuid.UUID, from, to CycleState, actorID int64) (PartRevision, bool, error)

	CreateValidation(ctx context.Context, revisionID uuid.UUID, authorID int64) (Validation, error)
	ValidationByID(ctx context.Context, id uuid.UUID) (Validation, error)
	CreateApproval(ctx context.Context, validationID uuid.UUID, assigneeID, authorID int64, decision ApprovalDecision) (Approval, error)
	ApprovalByID(ctx context.Context, id uuid.UUID) (Approval, error)
	ApprovalsByValidation(ctx context.Context, validationID uuid.UUID) ([]Approval, error)
	UpdateApprovalDecision(ctx context.Context, approvalID uuid.UUID, decision ApprovalDecision, comments *string, actorID int64) (Approval, error)
}
