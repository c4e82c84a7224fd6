package document

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Document is a checkout-able container for an ordered list of revisions.
// A non-nil CheckoutBy marks an exclusive write lock held by that account.
type Document struct {
	ID          uuid.UUID
	Name        string
	Description string
	CreatedBy   int64
	CreatedAt   time.Time
	CheckoutBy  *int64
}

// CheckedOutBy reports whether the document is currently held by accountID.
func (d Document) CheckedOutBy(accountID int64) bool {
	return d.CheckoutBy != nil && *d.CheckoutBy == accountID
}

// Revision is one numbered content revision of a document. Revisions are
// appended, never inserted; numbers are gapless starting at 1.
type Revision struct {
	ID                uuid.UUID
	DocumentID        uuid.UUID
	Revision          int
	Filename          string
	Filesize          int64
	ChangeDescription string
	CreatedBy         int64
	CreatedAt         time.Time

	// Uploaded only ever grows; Sha1 is set once when transfer completes.
	Uploaded int64
	Sha1     *string
}

// DocumentInput carries fields for creating a document.
type DocumentInput struct {
	Name        string
	Description string
	// InitialCheckout checks the document out to its author on creation.
	InitialCheckout bool
}

// RevisionInput carries fields for creating a revision.
type RevisionInput struct {
	DocumentID        uuid.UUID
	Filename          string
	Filesize          int64
	ChangeDescription string
	// RetainCheckout keeps the author's checkout after the revision is
	// created instead of releasing it.
	RetainCheckout bool
}

// SearchResult pages through documents matching a phrase.
type SearchResult struct {
	Count     int
	Documents []Document
}

// CheckoutConflictError reports that an operation requiring exclusive
// access found the document held by another account.
type CheckoutConflictError struct {
	DocumentID uuid.UUID
	OwnerID    int64
	OwnerName  string
}

func (e *CheckoutConflictError) Error() string {
	return fmt.Sprintf("document %s is checked out by %s", e.DocumentID, e.OwnerName)
}
