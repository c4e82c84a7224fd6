package document

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/engvault/engvault/internal/platform/db"
	"github.com/engvault/engvault/internal/shared"
)

// Repository persists documents and revisions in PostgreSQL. Conditional
// updates run as single statements so concurrent callers cannot observe a
// read-modify-write window.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RepositoryPort = (*Repository)(nil)

const documentColumns = `id, name, description, created_by, created_at, checkout_by`

func scanDocument(row pgx.Row) (Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.CreatedBy, &d.CreatedAt, &d.CheckoutBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, shared.ErrNotFound
		}
		return Document{}, err
	}
	return d, nil
}

// CreateDocument inserts a document, optionally checked out to its author.
func (r *Repository) CreateDocument(ctx context.Context, in DocumentInput, authorID int64) (Document, error) {
	var checkout *int64
	if in.InitialCheckout {
		checkout = &authorID
	}
	row := r.pool.QueryRow(ctx, `INSERT INTO documents (id, name, description, created_by, created_at, checkout_by)
VALUES ($1, $2, $3, $4, NOW(), $5)
RETURNING `+documentColumns, uuid.New(), in.Name, in.Description, authorID, checkout)
	return scanDocument(row)
}

// DocumentByID fetches one document.
func (r *Repository) DocumentByID(ctx context.Context, id uuid.UUID) (Document, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id=$1`, id)
	return scanDocument(row)
}

// Search pages through documents whose name or description matches phrase.
func (r *Repository) Search(ctx context.Context, phrase string, offset, limit int) (SearchResult, error) {
	if limit <= 0 {
		limit = 100
	}
	pattern := "%" + strings.ReplaceAll(phrase, " ", "%") + "%"
	rows, err := r.pool.Query(ctx, `SELECT `+documentColumns+` FROM documents
WHERE ($1 = '' OR name ILIKE $2 OR description ILIKE $2)
ORDER BY created_at
LIMIT $3 OFFSET $4`, phrase, pattern, limit, offset)
	if err != nil {
		return SearchResult{}, err
	}
	defer rows.Close()
	var result SearchResult
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return SearchResult{}, err
		}
		result.Documents = append(result.Documents, d)
	}
	if err := rows.Err(); err != nil {
		return SearchResult{}, err
	}
	result.Count = offset + len(result.Documents)
	if len(result.Documents) == limit {
		err := r.pool.QueryRow(ctx, `SELECT COUNT(id) FROM documents
WHERE ($1 = '' OR name ILIKE $2 OR description ILIKE $2)`, phrase, pattern).Scan(&result.Count)
		if err != nil {
			return SearchResult{}, err
		}
	}
	return result, nil
}

// Checkout acquires the lock iff currently free. The post-update row is
// returned either way; callers compare CheckoutBy with their own id.
func (r *Repository) Checkout(ctx context.Context, id uuid.UUID, accountID int64) (Document, error) {
	row := r.pool.QueryRow(ctx, `UPDATE documents SET checkout_by = COALESCE(checkout_by, $2)
WHERE id=$1
RETURNING `+documentColumns, id, accountID)
	return scanDocument(row)
}

// DiscardCheckout releases the lock iff held by accountID.
func (r *Repository) DiscardCheckout(ctx context.Context, id uuid.UUID, accountID int64) (Document, error) {
	row := r.pool.QueryRow(ctx, `UPDATE documents
SET checkout_by = CASE WHEN checkout_by = $2 THEN NULL ELSE checkout_by END
WHERE id=$1
RETURNING `+documentColumns, id, accountID)
	return scanDocument(row)
}

const revisionColumns = `id, document_id, revision, filename, filesize, change_description, created_by, created_at, uploaded, sha1`

func scanRevision(row pgx.Row) (Revision, error) {
	var rev Revision
	err := row.Scan(&rev.ID, &rev.DocumentID, &rev.Revision, &rev.Filename, &rev.Filesize,
		&rev.ChangeDescription, &rev.CreatedBy, &rev.CreatedAt, &rev.Uploaded, &rev.Sha1)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Revision{}, shared.ErrNotFound
		}
		return Revision{}, err
	}
	return rev, nil
}

// CreateRevision appends the next revision inside one transaction. The
// document row is locked first so the revision number is reserved and the
// checkout release happens atomically with the insert; any failure rolls
// the whole sequence back.
func (r *Repository) CreateRevision(ctx context.Context, in RevisionInput, authorID int64) (Revision, error) {
	var created Revision
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var checkoutBy *int64
		err := tx.QueryRow(ctx, `SELECT checkout_by FROM documents WHERE id=$1 FOR UPDATE`, in.DocumentID).Scan(&checkoutBy)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrNotFound
			}
			return err
		}
		if checkoutBy != nil && *checkoutBy != authorID {
			var ownerName string
			if err := tx.QueryRow(ctx, `SELECT full_name FROM accounts WHERE id=$1`, *checkoutBy).Scan(&ownerName); err != nil {
				return err
			}
			return &CheckoutConflictError{DocumentID: in.DocumentID, OwnerID: *checkoutBy, OwnerName: ownerName}
		}

		var next int
		err = tx.QueryRow(ctx, `SELECT COALESCE(MAX(revision), 0) + 1 FROM document_revisions WHERE document_id=$1`, in.DocumentID).Scan(&next)
		if err != nil {
			return err
		}

		row := tx.QueryRow(ctx, `INSERT INTO document_revisions
(id, document_id, revision, filename, filesize, change_description, created_by, created_at, uploaded, sha1)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), 0, NULL)
RETURNING `+revisionColumns,
			uuid.New(), in.DocumentID, next, in.Filename, in.Filesize, in.ChangeDescription, authorID)
		created, err = scanRevision(row)
		if err != nil {
			return err
		}

		var retained *int64
		if in.RetainCheckout {
			retained = &authorID
		}
		_, err = tx.Exec(ctx, `UPDATE documents SET checkout_by=$2 WHERE id=$1`, in.DocumentID, retained)
		return err
	})
	if err != nil {
		return Revision{}, err
	}
	return created, nil
}

// RevisionByID fetches one revision.
func (r *Repository) RevisionByID(ctx context.Context, id uuid.UUID) (Revision, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+revisionColumns+` FROM document_revisions WHERE id=$1`, id)
	return scanRevision(row)
}

// RevisionsByDocument lists revisions ordered by revision number ascending.
func (r *Repository) RevisionsByDocument(ctx context.Context, documentID uuid.UUID) ([]Revision, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+revisionColumns+` FROM document_revisions
WHERE document_id=$1 ORDER BY revision ASC`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var revs []Revision
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return revs, nil
}

// LastRevision returns the highest-numbered revision of a document.
func (r *Repository) LastRevision(ctx context.Context, documentID uuid.UUID) (Revision, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+revisionColumns+` FROM document_revisions
WHERE document_id=$1 ORDER BY revision DESC LIMIT 1`, documentID)
	return scanRevision(row)
}

// ReportUpload raises uploaded monotonically; a stale or repeated report
// can never lower the stored value.
func (r *Repository) ReportUpload(ctx context.Context, revisionID uuid.UUID, uploaded int64) (Revision, error) {
	row := r.pool.QueryRow(ctx, `UPDATE document_revisions SET uploaded = GREATEST(uploaded, $2)
WHERE id=$1
RETURNING `+revisionColumns, revisionID, uploaded)
	return scanRevision(row)
}

// FinalizeUpload sets the digest at most once.
func (r *Repository) FinalizeUpload(ctx context.Context, revisionID uuid.UUID, sha1 string) (Revision, error) {
	row := r.pool.QueryRow(ctx, `UPDATE document_revisions SET sha1 = COALESCE(sha1, $2)
WHERE id=$1
RETURNING `+revisionColumns, revisionID, sha1)
	return scanRevision(row)
}
