package domain

import (
	"time"

	"github.com/google/uuid"
)

// Attempt is one run through a published exam version.
type Attempt struct {
	ID              uuid.UUID
	ExamVersionID   uuid.UUID
	StartedAt       time.Time
	FinishedAt      *time.Time
	TotalCount      int
	CorrectCount    int
	ScorePercent    float64
	DurationSeconds int
}

// Finished reports whether the attempt has been closed.
func (a *Attempt) Finished() bool {
	return a.FinishedAt != nil
}

// AttemptAnswer records the option chosen for one question of an attempt.
// Both row IDs and stable keys are kept so history stays attributable across versions.
type AttemptAnswer struct {
	AttemptID         uuid.UUID
	QuestionID        uuid.UUID
	QuestionKey       uuid.UUID
	SelectedOptionID  uuid.UUID
	SelectedOptionKey uuid.UUID
	IsCorrect         bool
	AnsweredAt        time.Time
	SecondsSpent      int
	FlaggedDoubt      bool
}

// AnswerEvent is the input of the spaced-repetition updater.
type AnswerEvent struct {
	QuestionKey uuid.UUID
	IsCorrect   bool
	AnsweredAt  time.Time
}

// Event converts a stored answer into an updater input.
func (a AttemptAnswer) Event() AnswerEvent {
	return AnswerEvent{
		QuestionKey: a.QuestionKey,
		IsCorrect:   a.IsCorrect,
		AnsweredAt:  a.AnsweredAt,
	}
}
