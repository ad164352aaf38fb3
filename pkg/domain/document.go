package domain

import (
	"regexp"
	"strings"
	"time"
)

// Document validation constants. The validity window and age bound are fixed
// policy, not configuration.
const (
	DocumentValidityYears = 10
	DocumentMaxAgeYears   = 100
	DocumentMinTitleLen   = 3
	DocumentMinIssuerLen  = 3
	DocumentMaxCommentLen = 500
)

var documentNumberPattern = regexp.MustCompile(`^[0-9]{6}$`)

// ValidateDocumentFormat checks the shape of a document's fields against the
// given reference time. It rejects before any mutation and reports the first
// offending field.
func ValidateDocumentFormat(doc Document, now time.Time) error {
	if strings.TrimSpace(doc.Series) == "" {
		return ValidationError{Field: "series", Reason: "must not be empty"}
	}
	if !documentNumberPattern.MatchString(doc.Number) {
		return ValidationError{Field: "number", Reason: "must be exactly 6 digits"}
	}
	if len(strings.TrimSpace(doc.Title)) < DocumentMinTitleLen {
		return ValidationError{Field: "title", Reason: "must be at least 3 characters"}
	}
	if doc.IssueDate.IsZero() {
		return ValidationError{Field: "issue_date", Reason: "must be set"}
	}
	if doc.IssueDate.After(now) {
		return ValidationError{Field: "issue_date", Reason: "must not be in the future"}
	}
	if doc.IssueDate.Before(now.AddDate(-DocumentMaxAgeYears, 0, 0)) {
		return ValidationError{Field: "issue_date", Reason: "must not be older than 100 years"}
	}
	if len(strings.TrimSpace(doc.IssuedBy)) < DocumentMinIssuerLen {
		return ValidationError{Field: "issued_by", Reason: "must be at least 3 characters"}
	}
	if len(doc.Comment) > DocumentMaxCommentLen {
		return ValidationError{Field: "comment", Reason: "exceeds maximum length"}
	}
	return nil
}

// CheckDocumentValidity reports whether the document is valid on the given
// date: the format must pass, the document must already be issued, and the
// date must fall inside the fixed ten-year validity window.
func CheckDocumentValidity(doc Document, onDate time.Time) error {
	if err := ValidateDocumentFormat(doc, onDate); err != nil {
		return err
	}
	if onDate.Before(doc.IssueDate) {
		return ValidationError{Field: "issue_date", Reason: "document not yet issued on requested date"}
	}
	if onDate.After(doc.IssueDate.AddDate(DocumentValidityYears, 0, 0)) {
		return ValidationError{Field: "issue_date", Reason: "document expired on requested date"}
	}
	return nil
}

// DocumentNumberMatches compares document numbers using the natural-key
// comparison rules: case-insensitive, surrounding whitespace ignored.
func DocumentNumberMatches(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// IsDocumentUnique applies the narrow uniqueness heuristic: among documents
// sharing the candidate's (series, number), the candidate is flagged as
// non-unique only when one of them carries a different issue date. Two
// documents with identical series, number, and issue date pass. This exact
// semantics is preserved for compatibility with existing records; it is not
// general duplicate detection.
func IsDocumentUnique(candidate Document, existing []Document) bool {
	for _, doc := range existing {
		if doc.ID == candidate.ID {
			continue
		}
		if !strings.EqualFold(doc.Series, candidate.Series) || !DocumentNumberMatches(doc.Number, candidate.Number) {
			continue
		}
		if !doc.IssueDate.Equal(candidate.IssueDate) {
			return false
		}
	}
	return true
}
