package exam

import (
	"errors"
	"strings"
)

var (
	ErrExamNotFound        = errors.New("exam not found")
	ErrVersionNotFound     = errors.New("exam version not found")
	ErrNotDraft            = errors.New("exam version is not a draft")
	ErrNoPublishedVersion  = errors.New("exam has no published version")
	ErrInvalidName         = errors.New("exam name must not be empty")
	ErrPublishNotesMissing = errors.New("publish notes must not be empty")
)

// ValidationError lists every problem found in submitted draft content.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid exam content:\n" + strings.Join(e.Problems, "\n")
}
