package ingest

import (
	"bytes"
	"strings"

	"github.com/ralborta/cliente-centro-gestion/internal/tables"
	pkgerrors "github.com/ralborta/cliente-centro-gestion/pkg/errors"

	"github.com/xuri/excelize/v2"
)

// preferredSheets lists the conventional sheet names for each document
// kind, in preference order. Comparison is case-insensitive; when none
// match, the first sheet wins.
var preferredSheets = map[Kind][]string{
	KindStatement: {"movimientos", "extracto", "sheet1", "hoja1"},
	KindSales:     {"hoja1", "ventas", "sheet1"},
	KindPurchases: {"hoja1", "compras", "sheet1"},
}

// ReadExcel decodes one sheet of an XLSX workbook. The first non-empty row
// is the header row.
func ReadExcel(filename string, data []byte, kind Kind) (*tables.RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, pkgerrors.IngestError(pkgerrors.CodeCorruptDocument, filename, err).
			WithSuggestion("re-export the document as .xlsx and try again")
	}
	defer f.Close()

	sheet := pickSheet(f.GetSheetList(), kind)
	if sheet == "" {
		return nil, pkgerrors.ParseError(pkgerrors.CodeInvalidSheet, filename, 0, nil)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, pkgerrors.ParseError(pkgerrors.CodeInvalidSheet, filename, 0, err).
			WithContext("sheet", sheet)
	}

	// Skip leading blank rows so title banners above the real header do not
	// become column names.
	start := 0
	for start < len(rows) && isBlank(rows[start]) {
		start++
	}
	if start >= len(rows) {
		return nil, pkgerrors.IngestError(pkgerrors.CodeEmptyDocument, filename, nil).
			WithContext("sheet", sheet)
	}

	headers := make([]string, len(rows[start]))
	for i, h := range rows[start] {
		headers[i] = strings.TrimSpace(h)
	}

	return tables.New(headers, rows[start+1:]), nil
}

func pickSheet(sheets []string, kind Kind) string {
	if len(sheets) == 0 {
		return ""
	}
	for _, want := range preferredSheets[kind] {
		for _, name := range sheets {
			if strings.EqualFold(name, want) {
				return name
			}
		}
	}
	return sheets[0]
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
