// Package csvio reads and writes exam banks as semicolon-delimited CSV.
//
// The header is
//
//	question;option1;...;option8;answer;explanation;tags;difficulty
//
// where answer is either a 1-based option number or a letter (A = first option).
package csvio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxOptions is the number of option columns in the file format.
const MaxOptions = 8

// Item is one question row.
type Item struct {
	Question     string   `validate:"required"`
	Options      []string `validate:"min=2,max=8,dive,required"`
	CorrectIndex int      `validate:"gte=0"`
	Explanation  string
	Tags         string
	Difficulty   *int
}

// RowError describes a problem with a single file row.
type RowError struct {
	Row     int // 1-based, the header is row 1
	Message string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// RowsError aggregates every row problem found in one pass.
type RowsError struct {
	Rows []RowError
}

func (e *RowsError) Error() string {
	msgs := make([]string, len(e.Rows))
	for i, r := range e.Rows {
		msgs[i] = r.Error()
	}
	return strings.Join(msgs, "\n")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateItem reports every problem of it as a row message.
func validateItem(it Item) []string {
	var msgs []string
	if err := validate.Struct(it); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []string{err.Error()}
		}
		for _, fe := range verrs {
			msgs = append(msgs, describe(fe))
		}
	}
	if it.CorrectIndex >= len(it.Options) {
		msgs = append(msgs, "correct option is out of range")
	}
	return msgs
}

func describe(fe validator.FieldError) string {
	switch {
	case fe.Field() == "Question":
		return "question is empty"
	case fe.Field() == "Options" && fe.Tag() == "min":
		return "requires at least 2 options"
	case fe.Field() == "Options" && fe.Tag() == "max":
		return fmt.Sprintf("at most %d options", MaxOptions)
	case strings.HasPrefix(fe.Field(), "Options["):
		return "options must not be empty"
	case fe.Field() == "CorrectIndex":
		return "correct option is invalid"
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
