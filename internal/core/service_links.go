package core

import (
	"context"
	"sort"
	"time"

	"dormcore/pkg/domain"
)

// Documents ------------------------------------------------------------------

// CreateDocument persists a new document after format validation. The narrow
// uniqueness check flags only a same-number document issued on a different
// date; exact duplicates pass through.
func (s *Service) CreateDocument(ctx context.Context, document Document) (Document, Result, error) {
	var created Document
	res, err := s.run(ctx, "create_document", func(tx Transaction) error {
		view := tx.Snapshot()
		if !domain.IsDocumentUnique(document, view.ListDocuments()) {
			return domain.ConflictError{Entity: EntityDocument, Key: document.Series + document.Number}
		}
		var err error
		created, err = tx.CreateDocument(document)
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// UpdateDocumentComment replaces the free-form comment, the only mutable
// document field.
func (s *Service) UpdateDocumentComment(ctx context.Context, id, comment string) (Document, Result, error) {
	var updated Document
	res, err := s.run(ctx, "update_document", func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateDocument(id, func(doc *Document) error {
			doc.Comment = comment
			return nil
		})
		return err
	}, func() string { return updated.ID })
	return updated, res, err
}

// DeleteDocument removes a document. Links referencing it survive and are
// skipped when resolving occupant documents.
func (s *Service) DeleteDocument(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_document", func(tx Transaction) error {
		return tx.DeleteDocument(id)
	}, func() string { return id })
}

// ListDocuments returns all documents ordered by series and number.
func (s *Service) ListDocuments() []Document {
	out := s.store.ListDocuments()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Series != out[j].Series {
			return out[i].Series < out[j].Series
		}
		if out[i].Number != out[j].Number {
			return out[i].Number < out[j].Number
		}
		return out[i].IssueDate.Before(out[j].IssueDate)
	})
	return out
}

// FindDocumentByNumber retrieves documents matching a series/number pair,
// ignoring case and surrounding whitespace.
func (s *Service) FindDocumentByNumber(ctx context.Context, series, number string) ([]Document, error) {
	var out []Document
	err := s.store.View(ctx, func(view TransactionView) error {
		for _, doc := range view.ListDocuments() {
			if domain.DocumentNumberMatches(doc.Series, series) && domain.DocumentNumberMatches(doc.Number, number) {
				out = append(out, doc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssueDate.Before(out[j].IssueDate) })
	return out, nil
}

// CheckDocumentValidity reports whether the document identified by id is
// valid on the given date.
func (s *Service) CheckDocumentValidity(ctx context.Context, id string, onDate time.Time) error {
	var doc Document
	found := false
	if err := s.store.View(ctx, func(view TransactionView) error {
		doc, found = view.FindDocument(id)
		return nil
	}); err != nil {
		return err
	}
	if !found {
		return domain.NotFoundError{Entity: EntityDocument, ID: id}
	}
	return domain.CheckDocumentValidity(doc, onDate)
}

// Links ----------------------------------------------------------------------

// AttachDocument links a document to an occupant. Each pair may be linked at
// most once.
func (s *Service) AttachDocument(ctx context.Context, documentID, occupantID string) (DocumentOccupantLink, Result, error) {
	var created DocumentOccupantLink
	res, err := s.run(ctx, "attach_document", func(tx Transaction) error {
		if _, ok := tx.FindDocument(documentID); !ok {
			return domain.NotFoundError{Entity: EntityDocument, ID: documentID}
		}
		if err := verifyOccupantExists(tx, occupantID); err != nil {
			return err
		}
		var err error
		created, err = tx.CreateLink(DocumentOccupantLink{
			DocumentID: documentID,
			OccupantID: occupantID,
		})
		return err
	}, func() string { return created.ID })
	return created, res, err
}

// DetachDocument removes the link between a document and an occupant.
func (s *Service) DetachDocument(ctx context.Context, documentID, occupantID string) (Result, error) {
	return s.run(ctx, "detach_document", func(tx Transaction) error {
		view := tx.Snapshot()
		for _, link := range view.ListLinks() {
			if link.DocumentID == documentID && link.OccupantID == occupantID {
				return tx.DeleteLink(link.ID)
			}
		}
		return domain.NotFoundError{Entity: EntityDocumentLink, ID: documentID + "/" + occupantID}
	}, func() string { return documentID + "/" + occupantID })
}

// ListOccupantDocuments resolves the documents linked to an occupant. Links
// whose document no longer exists are skipped.
func (s *Service) ListOccupantDocuments(ctx context.Context, occupantID string) ([]Document, error) {
	var out []Document
	err := s.store.View(ctx, func(view TransactionView) error {
		for _, link := range view.ListLinks() {
			if link.OccupantID != occupantID {
				continue
			}
			if doc, ok := view.FindDocument(link.DocumentID); ok {
				out = append(out, doc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Series != out[j].Series {
			return out[i].Series < out[j].Series
		}
		return out[i].Number < out[j].Number
	})
	return out, nil
}

// ListDocumentOccupants resolves the occupants linked to a document. Links
// whose occupant no longer exists are skipped.
func (s *Service) ListDocumentOccupants(ctx context.Context, documentID string) ([]Occupant, error) {
	var out []Occupant
	err := s.store.View(ctx, func(view TransactionView) error {
		for _, link := range view.ListLinks() {
			if link.DocumentID != documentID {
				continue
			}
			if r, ok := view.FindResident(link.OccupantID); ok {
				out = append(out, r)
				continue
			}
			if c, ok := view.FindChild(link.OccupantID); ok {
				out = append(out, c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccupantName() < out[j].OccupantName() })
	return out, nil
}
