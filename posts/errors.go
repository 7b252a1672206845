package posts

import (
	"errors"
	"fmt"
)

// ErrInvalidSlug is reported when a file name does not yield a usable slug,
// for example a file named just ".org".
var ErrInvalidSlug = errors.New("invalid slug")

// ParseError is returned when a document cannot be turned into a Post.
// Missing or malformed metadata never produces a ParseError.
type ParseError struct {
	Name string // Source path of the document
	Err  error  // Underlying cause
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Name, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// DuplicateSlugError reports two documents that map to the same slug.
// The document that sorts later wins.
type DuplicateSlugError struct {
	Slug    string // The shared slug
	Kept    string // Source path of the post that was kept
	Dropped string // Source path of the post that was dropped
}

// Error implements error.
func (e *DuplicateSlugError) Error() string {
	return fmt.Sprintf("duplicate slug %q: %s replaces %s", e.Slug, e.Kept, e.Dropped)
}
