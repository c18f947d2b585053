// Package ingest reads uploaded documents into RawTables. It understands
// CSV, XLSX workbooks and, best effort, PDF bank statements. Format is
// decided by filename extension first and content magic second, so a
// mislabeled upload still lands on the right reader.
package ingest

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/ralborta/cliente-centro-gestion/internal/tables"
	pkgerrors "github.com/ralborta/cliente-centro-gestion/pkg/errors"
	"github.com/ralborta/cliente-centro-gestion/pkg/logger"
)

// Kind identifies which of the three uploads a document is. The Excel
// reader uses it to prefer the conventional sheet name for each document.
type Kind string

const (
	KindStatement Kind = "extracto"
	KindSales     Kind = "ventas"
	KindPurchases Kind = "compras"
)

// Format is a detected document container format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "xlsx"
	FormatPDF   Format = "pdf"
)

// zipMagic is shared by xlsx and every other zip container.
var zipMagic = []byte("PK")

var pdfMagic = []byte("%PDF")

// Sniff decides the document format from the filename extension, falling
// back to content magic for unknown or missing extensions. Anything that is
// neither a zip container nor a PDF is treated as CSV; the CSV reader is
// the forgiving path.
func Sniff(filename string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return FormatCSV
	case ".xlsx", ".xls", ".xlsm":
		return FormatExcel
	case ".pdf":
		return FormatPDF
	}

	if bytes.HasPrefix(data, zipMagic) {
		return FormatExcel
	}
	if bytes.HasPrefix(data, pdfMagic) {
		return FormatPDF
	}
	return FormatCSV
}

// Read ingests one uploaded document into a RawTable.
func Read(filename string, data []byte, kind Kind) (*tables.RawTable, error) {
	if len(data) == 0 {
		return nil, pkgerrors.IngestError(pkgerrors.CodeEmptyDocument, filename, nil).
			WithSuggestion("upload a non-empty CSV, XLSX or PDF document")
	}

	format := Sniff(filename, data)
	logger.WithComponent("ingest").WithFields(logger.Fields{
		"document": filename,
		"format":   string(format),
		"kind":     string(kind),
		"bytes":    len(data),
	}).Debug("Reading document")

	switch format {
	case FormatExcel:
		return ReadExcel(filename, data, kind)
	case FormatPDF:
		return ReadPDF(filename, data)
	default:
		return ReadCSV(filename, data)
	}
}
