package domain

import (
	"time"

	"github.com/google/uuid"
)

// QuestionStats is the mastery record of one QuestionKey, shared by every
// version that contains the question.
type QuestionStats struct {
	ID            uuid.UUID
	QuestionKey   uuid.UUID
	CorrectCount  int
	WrongCount    int
	EaseFactor    float64
	IntervalDays  int
	LastSeenAt    *time.Time
	LastCorrectAt *time.Time
	DueAt         *time.Time
}

// Total is the number of answers folded into the record.
func (s *QuestionStats) Total() int {
	return s.CorrectCount + s.WrongCount
}

// Accuracy is the share of correct answers, 0 when unseen.
func (s *QuestionStats) Accuracy() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return float64(s.CorrectCount) / float64(total)
}

// IsDue reports whether the question is eligible for review at asOf.
func (s *QuestionStats) IsDue(asOf time.Time) bool {
	return s.DueAt != nil && !s.DueAt.After(asOf)
}
