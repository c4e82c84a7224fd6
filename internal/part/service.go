package part

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/engvault/engvault/internal/authz"
	"github.com/engvault/engvault/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates part lifecycle operations behind the authorization
// gate: creation, revisioning, cycle states and validation approvals.
type Service struct {
	repo  RepositoryPort
	gate  *authz.Gate
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, gate *authz.Gate, audit AuditPort) *Service {
	return &Service{repo: repo, gate: gate, audit: audit}
}

// Create reserves the next family reference and creates the part together
// with its first revision in Edition state. The counter bump, part insert
// and revision insert all commit or all roll back.
func (s *Service) Create(ctx context.Context, p authz.Principal, in CreateInput) (PartRevision, error) {
	if err := s.gate.Require(p, "part.create"); err != nil {
		return PartRevision{}, err
	}
	if strings.TrimSpace(in.Designation) == "" {
		return PartRevision{}, errors.New("part: designation required")
	}

	var created PartRevision
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		fam, err := tx.BumpFamilyCounter(ctx, in.FamilyID)
		if err != nil {
			return fmt.Errorf("part: bump family counter: %w", err)
		}
		inserted, err := tx.InsertPart(ctx, Part{
			ID:          uuid.New(),
			FamilyID:    fam.ID,
			Ref:         partRef(fam),
			Designation: in.Designation,
			CreatedBy:   p.AccountID,
			UpdatedBy:   p.AccountID,
		})
		if err != nil {
			return err
		}
		created, err = tx.InsertRevision(ctx, PartRevision{
			ID:          uuid.New(),
			PartID:      inserted.ID,
			Revision:    1,
			Designation: in.Designation,
			CycleState:  CycleEdition,
			CreatedBy:   p.AccountID,
			UpdatedBy:   p.AccountID,
		})
		return err
	})
	if err != nil {
		return PartRevision{}, err
	}
	s.record(ctx, p, "part.create", created.PartID)
	return created, nil
}

// ByID fetches one part.
func (s *Service) ByID(ctx context.Context, p authz.Principal, id uuid.UUID) (Part, error) {
	if err := s.gate.Require(p, "part.read"); err != nil {
		return Part{}, err
	}
	return s.repo.PartByID(ctx, id)
}

// Checkout tries to acquire the exclusive lock for the caller.
func (s *Service) Checkout(ctx context.Context, p authz.Principal, id uuid.UUID) (Part, error) {
	if err := s.gate.Require(p, "part.revise"); err != nil {
		return Part{}, err
	}
	return s.repo.Checkout(ctx, id, p.AccountID)
}

// DiscardCheckout releases the caller's lock; a lock held by someone else
// is untouched.
func (s *Service) DiscardCheckout(ctx context.Context, p authz.Principal, id uuid.UUID) (Part, error) {
	if err := s.gate.Require(p, "part.revise"); err != nil {
		return Part{}, err
	}
	return s.repo.DiscardCheckout(ctx, id, p.AccountID)
}

// CreateRevision appends the next revision of a part in Edition state. The
// part must be free or checked out by the caller.
func (s *Service) CreateRevision(ctx context.Context, p authz.Principal, partID uuid.UUID, designation string) (PartRevision, error) {
	if err := s.gate.Require(p, "part.revise"); err != nil {
		return PartRevision{}, err
	}

	var created PartRevision
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.PartForUpdate(ctx, partID)
		if err != nil {
			return err
		}
		if locked.CheckoutBy != nil && *locked.CheckoutBy != p.AccountID {
			ownerName, err := s.repo.AccountNameByID(ctx, *locked.CheckoutBy)
			if err != nil {
				return err
			}
			return &CheckoutConflictError{PartID: partID, OwnerID: *locked.CheckoutBy, OwnerName: ownerName}
		}
		next, err := tx.NextRevisionNumber(ctx, partID)
		if err != nil {
			return err
		}
		if designation == "" {
			designation = locked.Designation
		}
		created, err = tx.InsertRevision(ctx, PartRevision{
			ID:          uuid.New(),
			PartID:      partID,
			Revision:    next,
			Designation: designation,
			CycleState:  CycleEdition,
			CreatedBy:   p.AccountID,
			UpdatedBy:   p.AccountID,
		})
		return err
	})
	if err != nil {
		return PartRevision{}, err
	}
	s.record(ctx, p, "part.revise", partID)
	return created, nil
}

// RevisionByID fetches one revision.
func (s *Service) RevisionByID(ctx context.Context, p authz.Principal, id uuid.UUID) (PartRevision, error) {
	if err := s.gate.Require(p, "part.read"); err != nil {
		return PartRevision{}, err
	}
	return s.repo.RevisionByID(ctx, id)
}

// Revisions lists a part's revisions, ascending by number.
func (s *Service) Revisions(ctx context.Context, p authz.Principal, partID uuid.UUID) ([]PartRevision, error) {
	if err := s.gate.Require(p, "part.read"); err != nil {
		return nil, err
	}
	return s.repo.RevisionsByPart(ctx, partID)
}

// LastRevision returns the highest-numbered revision.
func (s *Service) LastRevision(ctx context.Context, p authz.Principal, partID uuid.UUID) (PartRevision, error) {
	if err := s.gate.Require(p, "part.read"); err != nil {
		return PartRevision{}, err
	}
	return s.repo.LastRevision(ctx, partID)
}

// UpdateCycleState moves a revision to a new lifecycle state. Illegal
// transitions fail with *InvalidCycleTransitionError; a state changed by a
// concurrent caller is reported against the state actually stored.
func (s *Service) UpdateCycleState(ctx context.Context, p authz.Principal, revisionID uuid.UUID, to CycleState) (PartRevision, error) {
	if err := s.gate.Require(p, "part.revise"); err != nil {
		return PartRevision{}, err
	}
	rev, err := s.repo.RevisionByID(ctx, revisionID)
	if err != nil {
		return PartRevision{}, err
	}
	if err := validateTransition(rev.CycleState, to); err != nil {
		return PartRevision{}, err
	}
	updated, swapped, err := s.repo.TransitionCycleState(ctx, revisionID, rev.CycleState, to, p.AccountID)
	if err != nil {
		return PartRevision{}, err
	}
	if !swapped {
		current, err := s.repo.RevisionByID(ctx, revisionID)
		if err != nil {
			return PartRevision{}, err
		}
		return PartRevision{}, &InvalidCycleTransitionError{From: current.CycleState, To: to}
	}
	s.record(ctx, p, "part.cycle_state", revisionID)
	return updated, nil
}

// CreateValidation opens a review request against a revision.
func (s *Service) CreateValidation(ctx context.Context, p authz.Principal, revisionID uuid.UUID) (Validation, error) {
	if err := s.gate.Require(p, "partval.create"); err != nil {
		return Validation{}, err
	}
	if _, err := s.repo.RevisionByID(ctx, revisionID); err != nil {
		return Validation{}, err
	}
	val, err := s.repo.CreateValidation(ctx, revisionID, p.AccountID)
	if err != nil {
		return Validation{}, err
	}
	s.record(ctx, p, "partval.create", val.ID)
	return val, nil
}

// ValidationByID fetches one validation.
func (s *Service) ValidationByID(ctx context.Context, p authz.Principal, id uuid.UUID) (Validation, error) {
	if err := s.gate.Require(p, "partval.read"); err != nil {
		return Validation{}, err
	}
	return s.repo.ValidationByID(ctx, id)
}

// AssignApproval adds one assignee to a validation. Assignees are
// independent; several may be added to the same validation concurrently.
func (s *Service) AssignApproval(ctx context.Context, p authz.Principal, validationID uuid.UUID, assigneeID int64) (Approval, error) {
	if err := s.gate.Require(p, "partval.create"); err != nil {
		return Approval{}, err
	}
	if _, err := s.repo.ValidationByID(ctx, validationID); err != nil {
		return Approval{}, err
	}
	return s.repo.CreateApproval(ctx, validationID, assigneeID, p.AccountID, DecisionPending)
}

// RecordDecision writes one assignee's verdict. Only the assignee, or a
// caller holding "partval.override", may write it.
func (s *Service) RecordDecision(ctx context.Context, p authz.Principal, approvalID uuid.UUID, decision ApprovalDecision, comments string) (Approval, error) {
	if !decision.Valid() {
		return Approval{}, fmt.Errorf("part: unknown approval decision %q", decision)
	}
	approval, err := s.repo.ApprovalByID(ctx, approvalID)
	if err != nil {
		return Approval{}, err
	}
	if approval.AssigneeID != p.AccountID {
		if err := s.gate.Require(p, "partval.override"); err != nil {
			return Approval{}, err
		}
	}
	var commentsPtr *string
	if comments != "" {
		commentsPtr = &comments
	}
	updated, err := s.repo.UpdateApprovalDecision(ctx, approvalID, decision, commentsPtr, p.AccountID)
	if err != nil {
		return Approval{}, err
	}
	s.record(ctx, p, "partval.decision", approvalID)
	return updated, nil
}

// ApprovalsByValidation lists every assignee's record for a validation.
// Aggregate policies ("all must approve") are the caller's business.
func (s *Service) ApprovalsByValidation(ctx context.Context, p authz.Principal, validationID uuid.UUID) ([]Approval, error) {
	if err := s.gate.Require(p, "partval.read"); err != nil {
		return nil, err
	}
	return s.repo.ApprovalsByValidation(ctx, validationID)
}

func (s *Service) record(ctx context.Context, p authz.Principal, action string, entityID uuid.UUID) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  p.AccountID,
		Action:   action,
		Entity:   "part",
		EntityID: entityID.String(),
	})
}
