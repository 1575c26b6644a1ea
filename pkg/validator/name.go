package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmptyName indicates the name is empty after trimming
	ErrEmptyName = errors.New("name cannot be empty")

	// ErrNameTooLong indicates the name exceeds the maximum length
	ErrNameTooLong = errors.New("name cannot exceed 50 characters")

	// ErrInvalidName indicates the name contains characters other than letters and spaces
	ErrInvalidName = errors.New("name can only contain letters and spaces")
)

// MaxNameLength is the maximum accepted visitor name length
const MaxNameLength = 50

// nameRegex matches letters and spaces only
var nameRegex = regexp.MustCompile(`^[A-Za-z ]+$`)

// NameValidator handles visitor name validation
type NameValidator struct{}

// NewNameValidator creates a new name validator instance
func NewNameValidator() *NameValidator {
	return &NameValidator{}
}

// Validate validates a visitor name: non-empty after trimming, letters and
// spaces only, at most 50 characters.
// Returns the trimmed name and error if invalid
func (v *NameValidator) Validate(name string) (string, error) {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return "", ErrEmptyName
	}

	if len(trimmed) > MaxNameLength {
		return "", ErrNameTooLong
	}

	if !nameRegex.MatchString(trimmed) {
		return "", ErrInvalidName
	}

	return trimmed, nil
}

// IsValid is a convenience method that returns true if name is valid
func (v *NameValidator) IsValid(name string) bool {
	_, err := v.Validate(name)
	return err == nil
}
