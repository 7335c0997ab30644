package knol

import (
	"testing"

	"github.com/conorfennell/quizzer/internal/domain"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "trims and lowercases", input: "  What is HTMX? \r\n", expected: "what is htmx?"},
		{name: "collapses whitespace", input: "Capital\tof   France", expected: "capital of france"},
		{name: "joins lines", input: "line one\r\nline two", expected: "line one line two"},
		{name: "empty", input: "   ", expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.input); got != tc.expected {
				t.Errorf("Expected normalized string to be '%s', but got '%s'", tc.expected, got)
			}
		})
	}
}

func TestHash(t *testing.T) {
	t.Run("generates correct hash", func(t *testing.T) {
		// sha256("q")
		expectedHash := "8e35c2cd3bf6641bdb0e2050b76932cbb2e6034a0ddacc1d9bea82a6ba57f7cf"
		if hash := Hash("Q"); hash != expectedHash {
			t.Errorf("Expected hash '%s', but got '%s'", expectedHash, hash)
		}
	})

	t.Run("hash is deterministic", func(t *testing.T) {
		if Hash("Test") != Hash("Test") {
			t.Error("Expected hashes for identical text to be the same")
		}
	})

	t.Run("normalization produces same hash", func(t *testing.T) {
		if Hash("  what is go? ") != Hash("What  Is Go?") {
			t.Error("Expected hashes to be the same after normalization, but they were different.")
		}
	})

	t.Run("different text has different hashes", func(t *testing.T) {
		if Hash("Card 1") == Hash("Card 2") {
			t.Error("Expected hashes for different text to be different")
		}
	})
}

func TestQuestionHashIgnoresOptions(t *testing.T) {
	q1 := domain.Question{Text: "2 + 2?", Options: []domain.Option{{Text: "4"}, {Text: "5"}}}
	q2 := domain.Question{Text: "2 + 2?", Options: []domain.Option{{Text: "four"}}}
	if QuestionHash(q1) != QuestionHash(q2) {
		t.Error("Expected question hash to depend on text only")
	}
}
