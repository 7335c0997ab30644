package domain

import (
	"time"

	"github.com/google/uuid"
)

// VersionStatus is the lifecycle state of an exam version.
type VersionStatus int

const (
	Draft     VersionStatus = 0
	Published VersionStatus = 1
)

func (s VersionStatus) String() string {
	switch s {
	case Draft:
		return "draft"
	case Published:
		return "published"
	default:
		return "unknown"
	}
}

// Exam is the top-level container of versions. Deleted exams are hidden, not removed.
type Exam struct {
	ID          uuid.UUID
	Name        string
	Description string
	IsDeleted   bool
	CreatedAt   time.Time
}

// ExamVersion is a snapshot of a question set. Once published it is never edited.
type ExamVersion struct {
	ID            uuid.UUID
	ExamID        uuid.UUID
	VersionNumber int
	Status        VersionStatus
	Notes         string
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Questions     []Question
}

// Question is a row in one version. QuestionKey survives across versions, ID does not.
type Question struct {
	ID              uuid.UUID
	ExamVersionID   uuid.UUID
	QuestionKey     uuid.UUID
	Text            string
	Explanation     string
	OrderIndex      int
	Difficulty      *int
	CorrectOptionID uuid.UUID
	Options         []Option
}

// CorrectOption returns the option referenced by CorrectOptionID, if any.
func (q *Question) CorrectOption() (Option, bool) {
	for _, o := range q.Options {
		if o.ID == q.CorrectOptionID {
			return o, true
		}
	}
	return Option{}, false
}

// Option is an answer choice. OptionKey survives across versions, ID does not.
type Option struct {
	ID         uuid.UUID
	QuestionID uuid.UUID
	OptionKey  uuid.UUID
	Text       string
	OrderIndex int
}

// NewID returns a fresh row identifier.
func NewID() uuid.UUID {
	return uuid.New()
}

// NewKey returns a fresh cross-version identity for a question or option.
func NewKey() uuid.UUID {
	return uuid.New()
}
