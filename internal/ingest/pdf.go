package ingest

import (
	"bytes"
	"strings"

	"github.com/ralborta/cliente-centro-gestion/internal/tables"
	pkgerrors "github.com/ralborta/cliente-centro-gestion/pkg/errors"
	"github.com/ralborta/cliente-centro-gestion/pkg/logger"

	"github.com/ledongthuc/pdf"
)

// ReadPDF extracts tabular rows from a PDF bank statement. Extraction is
// best effort: text fragments on the same line are grouped into cells by
// their horizontal gaps, pages that cannot be read are skipped, and the
// first extracted row becomes the header. Only a document with no usable
// rows at all is an error.
func ReadPDF(filename string, data []byte) (*tables.RawTable, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, pkgerrors.IngestError(pkgerrors.CodeCorruptDocument, filename, err).
			WithSuggestion("the PDF may be encrypted or scanned; export the statement as CSV or XLSX instead")
	}

	log := logger.WithComponent("ingest")
	var records [][]string
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			log.WithFields(logger.Fields{
				"document": filename,
				"page":     pageNum,
			}).WithError(err).Warn("Skipping unreadable PDF page")
			continue
		}

		for _, row := range rows {
			cells := splitCells(row.Content)
			if len(cells) > 0 {
				records = append(records, cells)
			}
		}
	}

	if len(records) == 0 {
		return nil, pkgerrors.IngestError(pkgerrors.CodeEmptyDocument, filename, nil).
			WithSuggestion("no text rows found; export the statement as CSV or XLSX instead")
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}

	return tables.New(headers, records[1:]), nil
}

// splitCells groups the fragments of one text row into cells. A new cell
// starts when the horizontal gap to the previous fragment exceeds the
// fragment's font size; smaller gaps are treated as spacing inside the same
// cell.
func splitCells(fragments []pdf.Text) []string {
	var cells []string
	var current strings.Builder
	var prevEnd float64

	flush := func() {
		if text := strings.TrimSpace(current.String()); text != "" {
			cells = append(cells, text)
		}
		current.Reset()
	}

	for i, frag := range fragments {
		if i > 0 {
			gap := frag.X - prevEnd
			threshold := frag.FontSize
			if threshold <= 0 {
				threshold = 4
			}
			if gap > threshold {
				flush()
			} else if gap > threshold/4 {
				current.WriteByte(' ')
			}
		}
		current.WriteString(frag.S)
		prevEnd = frag.X + frag.W
	}
	flush()

	return cells
}
