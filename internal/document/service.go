package document

import (
	"context"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/engvault/engvault/internal/authz"
	"github.com/engvault/engvault/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates document operations behind the authorization gate.
type Service struct {
	repo  RepositoryPort
	gate  *authz.Gate
	audit AuditPort
}

// NewService builds Service.
func NewService(repo RepositoryPort, gate *authz.Gate, audit AuditPort) *Service {
	return &Service{repo: repo, gate: gate, audit: audit}
}

// Create inserts a new document.
func (s *Service) Create(ctx context.Context, p authz.Principal, in DocumentInput) (Document, error) {
	if err := s.gate.Require(p, "document.create"); err != nil {
		return Document{}, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return Document{}, errors.New("document: name required")
	}
	doc, err := s.repo.CreateDocument(ctx, in, p.AccountID)
	if err != nil {
		return Document{}, err
	}
	s.record(ctx, p, "document.create", doc.ID)
	return doc, nil
}

// ByID fetches one document.
func (s *Service) ByID(ctx context.Context, p authz.Principal, id uuid.UUID) (Document, error) {
	if err := s.gate.Require(p, "document.read"); err != nil {
		return Document{}, err
	}
	return s.repo.DocumentByID(ctx, id)
}

// Search pages through matching documents.
func (s *Service) Search(ctx context.Context, p authz.Principal, phrase string, offset, limit int) (SearchResult, error) {
	if err := s.gate.Require(p, "document.read"); err != nil {
		return SearchResult{}, err
	}
	return s.repo.Search(ctx, phrase, offset, limit)
}

// Checkout tries to acquire the exclusive lock for the caller. Holding it
// already is a no-op success; if another account holds it the returned
// document names that owner and no error is raised.
func (s *Service) Checkout(ctx context.Context, p authz.Principal, id uuid.UUID) (Document, error) {
	if err := s.gate.Require(p, "document.revise"); err != nil {
		return Document{}, err
	}
	doc, err := s.repo.Checkout(ctx, id, p.AccountID)
	if err != nil {
		return Document{}, err
	}
	if doc.CheckedOutBy(p.AccountID) {
		s.record(ctx, p, "document.checkout", doc.ID)
	}
	return doc, nil
}

// DiscardCheckout releases the caller's lock. Held by someone else or
// already free, the document is returned unchanged.
func (s *Service) DiscardCheckout(ctx context.Context, p authz.Principal, id uuid.UUID) (Document, error) {
	if err := s.gate.Require(p, "document.revise"); err != nil {
		return Document{}, err
	}
	doc, err := s.repo.DiscardCheckout(ctx, id, p.AccountID)
	if err != nil {
		return Document{}, err
	}
	if doc.CheckoutBy == nil {
		s.record(ctx, p, "document.discard_checkout", doc.ID)
	}
	return doc, nil
}

// CreateRevision appends the next revision of a document. The document
// must be free or checked out by the caller; a *CheckoutConflictError
// names the current holder otherwise.
func (s *Service) CreateRevision(ctx context.Context, p authz.Principal, in RevisionInput) (Revision, error) {
	if err := s.gate.Require(p, "document.revise"); err != nil {
		return Revision{}, err
	}
	rev, err := s.repo.CreateRevision(ctx, in, p.AccountID)
	if err != nil {
		return Revision{}, err
	}
	s.record(ctx, p, "document.revise", rev.ID)
	return rev, nil
}

// RevisionByID fetches one revision.
func (s *Service) RevisionByID(ctx context.Context, p authz.Principal, id uuid.UUID) (Revision, error) {
	if err := s.gate.Require(p, "document.read"); err != nil {
		return Revision{}, err
	}
	return s.repo.RevisionByID(ctx, id)
}

// Revisions lists a document's revisions, ascending by number.
func (s *Service) Revisions(ctx context.Context, p authz.Principal, documentID uuid.UUID) ([]Revision, error) {
	if err := s.gate.Require(p, "document.read"); err != nil {
		return nil, err
	}
	return s.repo.RevisionsByDocument(ctx, documentID)
}

// LastRevision returns the highest-numbered revision.
func (s *Service) LastRevision(ctx context.Context, p authz.Principal, documentID uuid.UUID) (Revision, error) {
	if err := s.gate.Require(p, "document.read"); err != nil {
		return Revision{}, err
	}
	return s.repo.LastRevision(ctx, documentID)
}

// ReportUpload records transfer progress. Reports are idempotent and may
// arrive out of order; the stored count never decreases.
func (s *Service) ReportUpload(ctx context.Context, p authz.Principal, revisionID uuid.UUID, uploaded int64) (Revision, error) {
	if err := s.gate.Require(p, "document.revise"); err != nil {
		return Revision{}, err
	}
	if uploaded < 0 {
		return Revision{}, errors.New("document: uploaded bytes must not be negative")
	}
	return s.repo.ReportUpload(ctx, revisionID, uploaded)
}

// FinalizeUpload stores the content digest when transfer completes. A
// digest already present wins over any later report.
func (s *Service) FinalizeUpload(ctx context.Context, p authz.Principal, revisionID uuid.UUID, sha1 string) (Revision, error) {
	if err := s.gate.Require(p, "document.revise"); err != nil {
		return Revision{}, err
	}
	sha1 = strings.ToLower(sha1)
	if len(sha1) != 40 {
		return Revision{}, errors.New("document: sha1 must be 40 hex characters")
	}
	if _, err := hex.DecodeString(sha1); err != nil {
		return Revision{}, errors.New("document: sha1 must be 40 hex characters")
	}
	return s.repo.FinalizeUpload(ctx, revisionID, sha1)
}

func (s *Service) record(ctx context.Context, p authz.Principal, action string, entityID uuid.UUID) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  p.AccountID,
		Action:   action,
		Entity:   "document",
		EntityID: entityID.String(),
	})
}
