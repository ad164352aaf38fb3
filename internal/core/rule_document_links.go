package core

import (
	"context"
	"fmt"

	"dormcore/pkg/domain"
)

// NewDocumentLinksRule returns the in-transaction rule enforcing uniqueness of
// document to occupant pairings.
func NewDocumentLinksRule() domain.Rule {
	return documentLinksRule{}
}

type documentLinksRule struct{}

func (documentLinksRule) Name() string { return "document_links" }

func (documentLinksRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	seen := make(map[string]string)
	for _, link := range view.ListLinks() {
		key := link.DocumentID + "/" + link.OccupantID
		if otherID, dup := seen[key]; dup {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "document_links",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("document %s linked to occupant %s more than once (links %s, %s)", link.DocumentID, link.OccupantID, otherID, link.ID),
				Entity:   domain.EntityDocumentLink,
				EntityID: link.ID,
			})
			continue
		}
		seen[key] = link.ID
	}
	return res, nil
}
