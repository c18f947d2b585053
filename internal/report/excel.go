package report

import (
	"io"

	pkgerrors "github.com/ralborta/cliente-centro-gestion/pkg/errors"

	"github.com/xuri/excelize/v2"
)

// statementSheet is the sheet name carrying the annotated output table.
const statementSheet = "Extracto"

// maxSheetName is the spreadsheet format's sheet name length cap.
const maxSheetName = 31

// Sheet is one named table for the multi-sheet writer.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// WriteExcel renders the report as a workbook with a single Extracto sheet.
func WriteExcel(w io.Writer, rows []ReportRow) error {
	grid := make([][]string, len(rows))
	for i, r := range rows {
		grid[i] = r.values()
	}
	return WriteExcelSheets(w, []Sheet{{
		Name:    statementSheet,
		Headers: Headers(),
		Rows:    grid,
	}})
}

// WriteExcelSheets renders one or more named tables into a workbook. Sheet
// names longer than the format cap are truncated.
func WriteExcelSheets(w io.Writer, sheets []Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		name := sheet.Name
		if len(name) > maxSheetName {
			name = name[:maxSheetName]
		}

		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return pkgerrors.RenderError("xlsx", err)
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return pkgerrors.RenderError("xlsx", err)
			}
		}

		if err := writeSheetRows(f, name, sheet); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return pkgerrors.RenderError("xlsx", err)
	}
	return nil
}

func writeSheetRows(f *excelize.File, name string, sheet Sheet) error {
	writeRow := func(rowIdx int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowIdx)
		if err != nil {
			return pkgerrors.RenderError("xlsx", err)
		}
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = v
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return pkgerrors.RenderError("xlsx", err)
		}
		return nil
	}

	if err := writeRow(1, sheet.Headers); err != nil {
		return err
	}
	for i, values := range sheet.Rows {
		if err := writeRow(i+2, values); err != nil {
			return err
		}
	}
	return nil
}
