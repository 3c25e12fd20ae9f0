package models

import "fmt"

// ContentType tags the kind of content a vote or report points at.
// Targets are referenced by (type, id) rather than a navigable relation
// because the same ledger row shape serves both posts and comments.
type ContentType string

const (
	ContentTypePost    ContentType = "post"
	ContentTypeComment ContentType = "comment"
)

// ParseContentType resolves a target type tag, failing closed on unknown tags.
func ParseContentType(s string) (ContentType, error) {
	switch ContentType(s) {
	case ContentTypePost:
		return ContentTypePost, nil
	case ContentTypeComment:
		return ContentTypeComment, nil
	default:
		return "", NewInvalidInputError(fmt.Sprintf("Unknown target type %q", s))
	}
}
