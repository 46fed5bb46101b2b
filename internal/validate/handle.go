package validate

import (
	"errors"
	"regexp"
	"strings"
)

// Handle format rules: 3-15 characters, letters/digits/underscore only.
// Uniqueness is case-insensitive, so handles are normalized to lowercase
// before they touch storage.

var handlePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

var (
	ErrHandleTooShort   = errors.New("handle must be at least 3 characters long")
	ErrHandleTooLong    = errors.New("handle must be less than 16 characters long")
	ErrHandleBadCharset = errors.New("handle can only contain letters, numbers, and underscores")
)

// Handle checks the format of a raw handle. It does not check availability.
func Handle(handle string) error {
	if len(handle) < 3 {
		return ErrHandleTooShort
	}
	if len(handle) > 15 {
		return ErrHandleTooLong
	}
	if !handlePattern.MatchString(handle) {
		return ErrHandleBadCharset
	}
	return nil
}

// NormalizeHandle lowercases a handle for storage and comparison.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

// IsHandleError reports whether err is a handle format violation, so handlers
// can map it to field-level feedback instead of a generic failure.
func IsHandleError(err error) bool {
	return errors.Is(err, ErrHandleTooShort) ||
		errors.Is(err, ErrHandleTooLong) ||
		errors.Is(err, ErrHandleBadCharset)
}
