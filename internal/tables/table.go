// Package tables defines the raw tabular model produced by document
// ingestion and consumed by the coercion pass. A RawTable is an ordered set
// of textual rows keyed by their original header strings; it is never
// mutated after construction.
package tables

import "strings"

// RawTable holds an ingested spreadsheet-like table. Headers keep the
// original column order; each row maps an original header to its textual
// cell value (empty string for blank cells).
type RawTable struct {
	Headers []string
	Rows    []Row
}

// Row is a single table row keyed by original header.
type Row map[string]string

// New creates a RawTable from a header list and a sequence of records in
// column order. Short records are padded with empty cells; extra cells
// beyond the header width are dropped.
func New(headers []string, records [][]string) *RawTable {
	t := &RawTable{
		Headers: append([]string(nil), headers...),
		Rows:    make([]Row, 0, len(records)),
	}

	for _, record := range records {
		row := make(Row, len(headers))
		for i, header := range headers {
			if i < len(record) {
				row[header] = record[i]
			} else {
				row[header] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}

	return t
}

// NumRows returns the number of data rows.
func (t *RawTable) NumRows() int {
	return len(t.Rows)
}

// Cell returns the value of the named column in the given row, or an empty
// string when the row or column is absent.
func (t *RawTable) Cell(rowIdx int, header string) string {
	if rowIdx < 0 || rowIdx >= len(t.Rows) {
		return ""
	}
	return t.Rows[rowIdx][header]
}

// IsEmpty reports whether the table has no headers or no data rows.
func (t *RawTable) IsEmpty() bool {
	return len(t.Headers) == 0 || len(t.Rows) == 0
}

// HasBlankRow reports whether the given row has only empty or whitespace
// cells.
func (t *RawTable) HasBlankRow(rowIdx int) bool {
	if rowIdx < 0 || rowIdx >= len(t.Rows) {
		return true
	}
	for _, header := range t.Headers {
		if strings.TrimSpace(t.Rows[rowIdx][header]) != "" {
			return false
		}
	}
	return true
}
