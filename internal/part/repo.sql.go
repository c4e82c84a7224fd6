package part

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/engvault/engvault/internal/shared"
)

// Repository persists parts, revisions, validations and approvals in
// PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ RepositoryPort = (*Repository)(nil)

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction; any
// error rolls back every statement issued through the TxRepository.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const familyColumns = `id, name, code, counter`

func scanFamily(row pgx.Row) (PartFamily, error) {
	var fam PartFamily
	err := row.Scan(&fam.ID, &fam.Name, &fam.Code, &fam.Counter)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PartFamily{}, shared.ErrNotFound
		}
		return PartFamily{}, err
	}
	return fam, nil
}

// FamilyByID fetches one part family.
func (r *Repository) FamilyByID(ctx context.Context, id uuid.UUID) (PartFamily, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+familyColumns+` FROM part_families WHERE id=$1`, id)
	return scanFamily(row)
}

func (t *txRepo) BumpFamilyCounter(ctx context.Context, familyID uuid.UUID) (PartFamily, error) {
	row := t.tx.QueryRow(ctx, `UPDATE part_families SET counter = counter + 1
WHERE id=$1
RETURNING `+familyColumns, familyID)
	return scanFamily(row)
}

const partColumns = `id, family_id, ref, designation, created_by, created_at, updated_by, updated_at, checkout_by`

func scanPart(row pgx.Row) (Part, error) {
	var p Part
	err := row.Scan(&p.ID, &p.FamilyID, &p.Ref, &p.Designation, &p.CreatedBy, &p.CreatedAt, &p.UpdatedBy, &p.UpdatedAt, &p.CheckoutBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Part{}, shared.ErrNotFound
		}
		return Part{}, err
	}
	return p, nil
}

func (t *txRepo) InsertPart(ctx context.Context, p Part) (Part, error) {
	row := t.tx.QueryRow(ctx, `INSERT INTO parts (id, family_id, ref, designation, created_by, created_at, updated_by, updated_at, checkout_by)
VALUES ($1, $2, $3, $4, $5, NOW(), $6, NOW(), NULL)
RETURNING `+partColumns, p.ID, p.FamilyID, p.Ref, p.Designation, p.CreatedBy, p.UpdatedBy)
	return scanPart(row)
}

func (t *txRepo) PartForUpdate(ctx context.Context, partID uuid.UUID) (Part, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+partColumns+` FROM parts WHERE id=$1 FOR UPDATE`, partID)
	return scanPart(row)
}

func (t *txRepo) NextRevisionNumber(ctx context.Context, partID uuid.UUID) (int, error) {
	var next int
	err := t.tx.QueryRow(ctx, `SELECT COALESCE(MAX(revision), 0) + 1 FROM part_revisions WHERE part_id=$1`, partID).Scan(&next)
	return next, err
}

const revisionColumns = `id, part_id, revision, designation, cycle_state, created_by, created_at, updated_by, updated_at`

func scanRevision(row pgx.Row) (PartRevision, error) {
	var rev PartRevision
	err := row.Scan(&rev.ID, &rev.PartID, &rev.Revision, &rev.Designation, &rev.CycleState, &rev.CreatedBy, &rev.CreatedAt, &rev.UpdatedBy, &rev.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PartRevision{}, shared.ErrNotFound
		}
		return PartRevision{}, err
	}
	return rev, nil
}

func (t *txRepo) InsertRevision(ctx context.Context, rev PartRevision) (PartRevision, error) {
	row := t.tx.QueryRow(ctx, `INSERT INTO part_revisions (id, part_id, revision, designation, cycle_state, created_by, created_at, updated_by, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW(), $7, NOW())
RETURNING `+revisionColumns, rev.ID, rev.PartID, rev.Revision, rev.Designation, rev.CycleState, rev.CreatedBy, rev.UpdatedBy)
	return scanRevision(row)
}

// PartByID fetches one part.
func (r *Repository) PartByID(ctx context.Context, id uuid.UUID) (Part, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+partColumns+` FROM parts WHERE id=$1`, id)
	return scanPart(row)
}

// AccountNameByID returns an account's display name for conflict messages.
func (r *Repository) AccountNameByID(ctx context.Context, accountID int64) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `SELECT full_name FROM accounts WHERE id=$1`, accountID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return name, nil
}

// Checkout acquires the lock iff currently free.
func (r *Repository) Checkout(ctx context.Context, id uuid.UUID, accountID int64) (Part, error) {
	row := r.pool.QueryRow(ctx, `UPDATE parts SET checkout_by = COALESCE(checkout_by, $2)
WHERE id=$1
RETURNING `+partColumns, id, accountID)
	return scanPart(row)
}

// DiscardCheckout releases the lock iff held by accountID.
func (r *Repository) DiscardCheckout(ctx context.Context, id uuid.UUID, accountID int64) (Part, error) {
	row := r.pool.QueryRow(ctx, `UPDATE parts
SET checkout_by = CASE WHEN checkout_by = $2 THEN NULL ELSE checkout_by END
WHERE id=$1
RETURNING `+partColumns, id, accountID)
	return scanPart(row)
}

// RevisionByID fetches one revision.
func (r *Repository) RevisionByID(ctx context.Context, id uuid.UUID) (PartRevision, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+revisionColumns+` FROM part_revisions WHERE id=$1`, id)
	return scanRevision(row)
}

// RevisionsByPart lists revisions ordered by revision number ascending.
func (r *Repository) RevisionsByPart(ctx context.Context, partID uuid.UUID) ([]PartRevision, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+revisionColumns+` FROM part_revisions
WHERE part_id=$1 ORDER BY revision ASC`, partID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var revs []PartRevision
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

// LastRevision returns the highest-numbered revision of a part.
func (r *Repository) LastRevision(ctx context.Context, partID uuid.UUID) (PartRevision, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+revisionColumns+` FROM part_revisions
WHERE part_id=$1 ORDER BY revision DESC LIMIT 1`, partID)
	return scanRevision(row)
}

// TransitionCycleState swaps the cycle state iff it still equals from. The
// compare is part of the statement, so concurrent transitions cannot both
// win.
func (r *Repository) TransitionCycleState(ctx context.Context, revisionID uuid.UUID, from, to CycleState, actorID int64) (PartRevision, bool, error) {
	row := r.pool.QueryRow(ctx, `UPDATE part_revisions
SET cycle_state=$3, updated_by=$4, updated_at=NOW()
WHERE id=$1 AND cycle_state=$2
RETURNING `+revisionColumns, revisionID, from, to, actorID)
	rev, err := scanRevision(row)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return PartRevision{}, false, nil
		}
		return PartRevision{}, false, err
	}
	return rev, true, nil
}

const validationColumns = `id, part_revision_id, created_by, created_at, updated_by, updated_at`

func scanValidation(row pgx.Row) (Validation, error) {
	var val Validation
	err := row.Scan(&val.ID, &val.PartRevisionID, &val.CreatedBy, &val.CreatedAt, &val.UpdatedBy, &val.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Validation{}, shared.ErrNotFound
		}
		return Validation{}, err
	}
	return val, nil
}

// CreateValidation opens a review request against a revision.
func (r *Repository) CreateValidation(ctx context.Context, revisionID uuid.UUID, authorID int64) (Validation, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO part_validations (id, part_revision_id, created_by, created_at, updated_by, updated_at)
VALUES ($1, $2, $3, NOW(), $3, NOW())
RETURNING `+validationColumns, uuid.New(), revisionID, authorID)
	return scanValidation(row)
}

// ValidationByID fetches one validation.
func (r *Repository) ValidationByID(ctx context.Context, id uuid.UUID) (Validation, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+validationColumns+` FROM part_validations WHERE id=$1`, id)
	return scanValidation(row)
}

const approvalColumns = `id, validation_id, assignee_id, decision, comments, created_by, created_at, updated_by, updated_at`

func scanApproval(row pgx.Row) (Approval, error) {
	var app Approval
	err := row.Scan(&app.ID, &app.ValidationID, &app.AssigneeID, &app.Decision, &app.Comments, &app.CreatedBy, &app.CreatedAt, &app.UpdatedBy, &app.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Approval{}, shared.ErrNotFound
		}
		return Approval{}, err
	}
	return app, nil
}

// CreateApproval adds one assignee's pending record to a validation.
func (r *Repository) CreateApproval(ctx context.Context, validationID uuid.UUID, assigneeID, authorID int64, decision ApprovalDecision) (Approval, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO part_approvals (id, validation_id, assignee_id, decision, comments, created_by, created_at, updated_by, updated_at)
VALUES ($1, $2, $3, $4, NULL, $5, NOW(), $5, NOW())
RETURNING `+approvalColumns, uuid.New(), validationID, assigneeID, decision, authorID)
	return scanApproval(row)
}

// ApprovalByID fetches one approval.
func (r *Repository) ApprovalByID(ctx context.Context, id uuid.UUID) (Approval, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+approvalColumns+` FROM part_approvals WHERE id=$1`, id)
	return scanApproval(row)
}

// ApprovalsByValidation lists a validation's approvals, oldest first.
func (r *Repository) ApprovalsByValidation(ctx context.Context, validationID uuid.UUID) ([]Approval, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+approvalColumns+` FROM part_approvals
WHERE validation_id=$1 ORDER BY created_at ASC`, validationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var approvals []Approval
	for rows.Next() {
		app, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		approvals = append(approvals, app)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return approvals, nil
}

// UpdateApprovalDecision writes one assignee's verdict with its audit
// trail.
func (r *Repository) UpdateApprovalDecision(ctx context.Context, approvalID uuid.UUID, decision ApprovalDecision, comments *string, actorID int64) (Approval, error) {
	row := r.pool.QueryRow(ctx, `UPDATE part_approvals
SET decision=$2, comments=$3, updated_by=$4, updated_at=NOW()
WHERE id=$1
RETURNING `+approvalColumns, approvalID, decision, comments, actorID)
	return scanApproval(row)
}
