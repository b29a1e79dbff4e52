// Package roster reads the class roster file that drives a deploy run.
package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Entry is one student row from the roster. Entries are immutable once
// read; the roster file is the source of truth.
type Entry struct {
	Class     string
	LastName  string
	FirstName string
	Alias     string
}

// DisplayName returns the student's name for logs and the result file.
func (e Entry) DisplayName() string {
	return fmt.Sprintf("%s %s", e.FirstName, e.LastName)
}

// Load reads roster entries from the CSV file at path.
func Load(path string) ([]Entry, error) {
	f, err := os.Open(path) // #nosec G304 -- operator-supplied roster path
	if err != nil {
		return nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer func() { _ = f.Close() }()

	entries, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse roster %s: %w", path, err)
	}
	return entries, nil
}

// Parse reads roster entries from r. Expected columns are
// CLASS,LASTNAME,FIRSTNAME,ALIAS where ALIAS may be empty or absent.
// A header row whose first field is CLASS is skipped wherever it
// appears, as are blank rows.
// Carriage returns are stripped from every field so rosters exported
// from spreadsheet tools on Windows parse identically.
func Parse(r io.Reader) ([]Entry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var entries []Entry
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		for i := range record {
			record[i] = strings.TrimSpace(strings.ReplaceAll(record[i], "\r", ""))
		}

		if isBlank(record) {
			continue
		}
		if strings.EqualFold(record[0], "CLASS") {
			continue
		}
		if len(record) < 3 {
			return nil, fmt.Errorf("row %d: expected at least CLASS,LASTNAME,FIRSTNAME, got %d fields", line, len(record))
		}

		entry := Entry{
			Class:     record[0],
			LastName:  record[1],
			FirstName: record[2],
		}
		if len(record) > 3 {
			entry.Alias = record[3]
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func isBlank(record []string) bool {
	for _, field := range record {
		if field != "" {
			return false
		}
	}
	return true
}
