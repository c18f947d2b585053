package report

import (
	"encoding/csv"
	"io"

	pkgerrors "github.com/ralborta/cliente-centro-gestion/pkg/errors"
)

// WriteCSV renders the report as comma-separated text with a header row.
func WriteCSV(w io.Writer, rows []ReportRow) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Headers()); err != nil {
		return pkgerrors.RenderError("csv", err)
	}
	for _, row := range rows {
		if err := writer.Write(row.values()); err != nil {
			return pkgerrors.RenderError("csv", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return pkgerrors.RenderError("csv", err)
	}
	return nil
}
