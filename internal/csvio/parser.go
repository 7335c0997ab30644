package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const delimiter = ';'

var header = []string{
	"question",
	"option1", "option2", "option3", "option4",
	"option5", "option6", "option7", "option8",
	"answer", "explanation", "tags", "difficulty",
}

// ParseFile reads a file from the given path and extracts all items.
func ParseFile(path string) ([]Item, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads an exam bank from r.
//
// Columns are located by header name, so missing trailing columns are
// tolerated. Blank option cells are skipped. When any row is invalid the
// valid items are still returned together with a *RowsError listing every
// rejected row.
func Parse(r io.Reader) ([]Item, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	head, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols := make(map[string]int, len(head))
	for i, name := range head {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	if _, ok := cols["question"]; !ok {
		return nil, errors.New("missing 'question' column")
	}

	var items []Item
	var rowErrs []RowError
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", row, err)
		}
		if isBlank(record) {
			continue
		}

		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		item := Item{
			Question:    get("question"),
			Explanation: get("explanation"),
			Tags:        get("tags"),
		}
		if item.Question == "" {
			rowErrs = append(rowErrs, RowError{Row: row, Message: "question is empty"})
			continue
		}
		for i := 1; i <= MaxOptions; i++ {
			if opt := get("option" + strconv.Itoa(i)); opt != "" {
				item.Options = append(item.Options, opt)
			}
		}
		if len(item.Options) < 2 {
			rowErrs = append(rowErrs, RowError{Row: row, Message: "requires at least 2 options"})
			continue
		}

		answer := get("answer")
		correct, ok := ParseAnswer(answer, len(item.Options))
		if !ok {
			rowErrs = append(rowErrs, RowError{Row: row, Message: fmt.Sprintf(
				"invalid answer '%s', use 1..%d or A..%c", answer, len(item.Options), 'A'+rune(len(item.Options)-1))})
			continue
		}
		item.CorrectIndex = correct

		if d := get("difficulty"); d != "" {
			n, err := strconv.Atoi(d)
			if err != nil {
				rowErrs = append(rowErrs, RowError{Row: row, Message: fmt.Sprintf("invalid difficulty '%s'", d)})
				continue
			}
			item.Difficulty = &n
		}

		items = append(items, item)
	}

	if len(rowErrs) > 0 {
		return items, &RowsError{Rows: rowErrs}
	}
	return items, nil
}

// ParseAnswer converts an answer cell into a 0-based option index.
// It accepts a 1-based number or a letter, case-insensitive.
func ParseAnswer(raw string, optionCount int) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		idx := n - 1
		return idx, idx >= 0 && idx < optionCount
	}
	c := strings.ToUpper(raw)[0]
	if c >= 'A' && int(c-'A') < optionCount {
		return int(c - 'A'), true
	}
	return 0, false
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
