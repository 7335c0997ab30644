// Package knol derives content fingerprints used to recognize the same
// question or option across independently authored exam banks.
package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/quizzer/internal/domain"
)

// Normalize lowercases text, unifies line endings and collapses runs of
// whitespace so cosmetic edits do not change a fingerprint.
func Normalize(text string) string {
	t := strings.ReplaceAll(text, "\r\n", "\n")
	t = strings.ToLower(t)
	return strings.Join(strings.Fields(t), " ")
}

// Hash returns the SHA-256 of the normalized text as a hex string.
func Hash(text string) string {
	return ContentHash([]byte(Normalize(text)))
}

// ContentHash returns the SHA-256 of raw bytes as a hex string.
func ContentHash(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

// QuestionHash fingerprints a question by its text only, so adding or
// rewording options keeps the question's identity.
func QuestionHash(q domain.Question) string {
	return Hash(q.Text)
}
