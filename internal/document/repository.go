package document

import (
	"context"

	"github.com/google/uuid"
)

// RepositoryPort abstracts persistence for the service. Checkout,
// DiscardCheckout, ReportUpload and FinalizeUpload are single conditional
// writes; CreateRevision groups its statements in one transaction.
type RepositoryPort interface {
	CreateDocument(ctx context.Context, in DocumentInput, authorID int64) (Document, error)
	DocumentByID(ctx context.Context, id uuid.UUID) (Document, error)
	Search(ctx context.Context, phrase string, offset, limit int) (SearchResult, error)

	// Checkout sets the owner only if the document is currently free and
	// returns the post-update row either way.
	Checkout(ctx context.Context, id uuid.UUID, accountID int64) (Document, error)
	// DiscardCheckout clears the owner only if it equals accountID and
	// returns the post-update row either way.
	DiscardCheckout(ctx context.Context, id uuid.UUID, accountID int64) (Document, error)

	// CreateRevision appends the next-numbered revision. It fails with
	// *CheckoutConflictError when the document is held by another account,
	// and atomically releases or retains the author's checkout.
	CreateRevision(ctx context.Context, in RevisionInput, authorID int64) (Revision, error)
	RevisionByID(ctx context.Context, id uuid.UUID) (Revision, error)
	RevisionsByDocument(ctx context.Context, documentID uuid.UUID) ([]Revision, error)
	LastRevision(ctx context.Context, documentID uuid.UUID) (Revision, error)

	// ReportUpload raises the uploaded byte count, never lowering it.
	ReportUpload(ctx context.Context, revisionID uuid.UUID, uploaded int64) (Revision, error)
	// FinalizeUpload records the content digest unless one is already set.
	FinalizeUpload(ctx context.Context, revisionID uuid.UUID, sha1 string) (Revision, error)
}
