package ingest

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/ralborta/cliente-centro-gestion/internal/tables"
	pkgerrors "github.com/ralborta/cliente-centro-gestion/pkg/errors"
)

// sniffDelimiter picks between comma and semicolon by counting occurrences
// in the header line. Semicolon-delimited exports are common in
// Spanish-locale spreadsheets where the comma is the decimal separator.
func sniffDelimiter(data []byte) rune {
	line := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		line = data[:idx]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

// ReadCSV decodes comma or semicolon separated text. The first record is
// the header row; ragged records are tolerated.
func ReadCSV(filename string, data []byte) (*tables.RawTable, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, pkgerrors.ParseError(pkgerrors.CodeInvalidCSV, filename, 0, err).
			WithSuggestion("check the document for unbalanced quotes or mixed delimiters")
	}
	if len(records) == 0 {
		return nil, pkgerrors.IngestError(pkgerrors.CodeEmptyDocument, filename, nil)
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	return tables.New(headers, records[1:]), nil
}
