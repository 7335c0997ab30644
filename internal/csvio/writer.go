package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// WriteFile validates items and writes them to path. Nothing is written when
// validation fails.
func WriteFile(path string, items []Item) error {
	if err := Validate(items); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(file, items); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Validate checks every item and returns a *RowsError numbered as the rows
// would appear in the written file.
func Validate(items []Item) error {
	if len(items) == 0 {
		return &RowsError{Rows: []RowError{{Row: 1, Message: "no questions to export"}}}
	}
	var rowErrs []RowError
	for i, it := range items {
		for _, msg := range validateItem(it) {
			rowErrs = append(rowErrs, RowError{Row: i + 2, Message: msg})
		}
	}
	if len(rowErrs) > 0 {
		return &RowsError{Rows: rowErrs}
	}
	return nil
}

// Write encodes items with a header row. The answer column is written as a
// 1-based option number.
func Write(w io.Writer, items []Item) error {
	if err := Validate(items); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	cw.Comma = delimiter
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, it := range items {
		record := make([]string, len(header))
		record[0] = it.Question
		for j, opt := range it.Options {
			record[1+j] = opt
		}
		record[1+MaxOptions] = strconv.Itoa(it.CorrectIndex + 1)
		record[2+MaxOptions] = it.Explanation
		record[3+MaxOptions] = it.Tags
		if it.Difficulty != nil {
			record[4+MaxOptions] = strconv.Itoa(*it.Difficulty)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
