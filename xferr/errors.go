// Package xferr defines the error taxonomy shared across the transfer core.
package xferr

import (
	"errors"
	"fmt"
)

// Category buckets an error into one of the taxonomy groups the coordinator
// and CLI surface to the user.
type Category int

const (
	// InputInvalid covers absolute paths, dotted paths, non-UTF-8 paths, too
	// many files, or an oversized file. Always reported before any network
	// activity.
	InputInvalid Category = iota
	// MetadataTransient covers network failure, timeout, or 5xx from the
	// metadata service.
	MetadataTransient
	// MetadataRejected covers 4xx from the metadata service, enriched with
	// message/details/hint when the service provides them.
	MetadataRejected
	// ObjectStoreTransient covers network failure, timeout, 5xx, MD5
	// mismatch, or a missing ETag in a response. A missing VersionId is a
	// Protocol error.
	ObjectStoreTransient
	// ObjectStoreRejected covers 4xx from the object store (auth, quota, bad
	// key).
	ObjectStoreRejected
	// LocalIO covers file open/read/write/mkdir failure.
	LocalIO
	// Protocol covers malformed JSON, missing required fields, or any other
	// violation of an assumed wire contract.
	Protocol
)

func (c Category) String() string {
	switch c {
	case InputInvalid:
		return "InputInvalid"
	case MetadataTransient:
		return "MetadataTransient"
	case MetadataRejected:
		return "MetadataRejected"
	case ObjectStoreTransient:
		return "ObjectStoreTransient"
	case ObjectStoreRejected:
		return "ObjectStoreRejected"
	case LocalIO:
		return "LocalIO"
	case Protocol:
		return "Protocol"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying error with a taxonomy Category so call sites can
// branch on category without string-matching messages.
type Error struct {
	Category Category
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Category, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a categorized error from a format string, mirroring the
// teacher's functional-constructor idiom (file_rule.go's ErrMaxFileSizeExceeded).
func New(category Category, format string, args ...any) error {
	return &Error{Category: category, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches a category to an existing error.
func Wrap(category Category, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Category: category, Err: err}
}

// CategoryOf extracts the Category from err, returning ok=false if err (or
// anything it wraps) is not a *Error.
func CategoryOf(err error) (Category, bool) {
	var xe *Error
	if errors.As(err, &xe) {
		return xe.Category, true
	}
	return 0, false
}

// Is reports whether err carries the given category.
func Is(err error, category Category) bool {
	c, ok := CategoryOf(err)
	return ok && c == category
}
