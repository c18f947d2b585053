// Package report turns match decisions into the annotated output table and
// renders it. The assembler merges statement fields with the matched ledger
// row and computes the derived columns; decisions are final and never
// re-scored here. Rendering to XLSX or CSV is plain serialization with no
// knowledge of how the rows were produced.
package report

import (
	"strconv"
	"strings"

	"github.com/ralborta/cliente-centro-gestion/internal/coerce"
	"github.com/ralborta/cliente-centro-gestion/internal/matcher"
	"github.com/ralborta/cliente-centro-gestion/pkg/logger"
)

// Config holds assembler options.
type Config struct {
	// TaxTerms is the lexicon behind the PosibleImpuesto flag. Matching is
	// a case-insensitive substring test against the statement description.
	TaxTerms []string
}

// DefaultConfig returns the assembler defaults with the standard tax and
// fee lexicon.
func DefaultConfig() *Config {
	return &Config{
		TaxTerms: []string{
			"iva",
			"impuesto",
			"percepcion",
			"retencion",
			"comision",
			"iibb",
			"sircreb",
			"sellos",
			"debito fiscal",
		},
	}
}

// ReportRow is one output record, one-to-one with statement rows. Ledger
// fields stay empty when the row is unmatched or when the matched ledger
// value did not parse.
type ReportRow struct {
	ID              int
	Fecha           string
	Monto           string
	Direccion       string
	Descripcion     string
	Conciliado      string
	Origen          string
	Comprobante     string
	FechaLibro      string
	MontoLibro      string
	Diferencia      string
	ReglaAplicada   string
	PosibleImpuesto string
}

// Headers returns the output column names in render order.
func Headers() []string {
	return []string{
		"ID", "Fecha", "Monto", "Direccion", "Descripcion",
		"Conciliado", "Origen", "Comprobante", "FechaLibro", "MontoLibro",
		"Diferencia", "ReglaAplicada", "PosibleImpuesto",
	}
}

func (r ReportRow) values() []string {
	return []string{
		strconv.Itoa(r.ID), r.Fecha, r.Monto, r.Direccion, r.Descripcion,
		r.Conciliado, r.Origen, r.Comprobante, r.FechaLibro, r.MontoLibro,
		r.Diferencia, r.ReglaAplicada, r.PosibleImpuesto,
	}
}

// Assembler builds ReportRows from decisions and the ledger indexes.
type Assembler struct {
	config *Config
	log    logger.Logger
}

// NewAssembler creates an assembler. A nil config uses the defaults.
func NewAssembler(config *Config) *Assembler {
	if config == nil {
		config = DefaultConfig()
	}
	return &Assembler{
		config: config,
		log:    logger.WithComponent("report"),
	}
}

// Assemble produces one ReportRow per statement record, in statement order.
func (a *Assembler) Assemble(statement []*coerce.Record, decisions map[int]matcher.MatchDecision, sales, purchases *matcher.LedgerIndex) []ReportRow {
	rows := make([]ReportRow, 0, len(statement))
	reconciled := 0

	for _, rec := range statement {
		row := a.buildRow(rec, decisions[rec.ID], sales, purchases)
		if row.Conciliado == "Si" {
			reconciled++
		}
		rows = append(rows, row)
	}

	a.log.WithFields(logger.Fields{
		"rows":       len(rows),
		"reconciled": reconciled,
	}).Info("Report assembled")

	return rows
}

func (a *Assembler) buildRow(rec *coerce.Record, decision matcher.MatchDecision, sales, purchases *matcher.LedgerIndex) ReportRow {
	row := ReportRow{
		ID:              rec.ID,
		Descripcion:     rec.Description,
		Direccion:       rec.Direction.String(),
		Conciliado:      "No",
		PosibleImpuesto: boolMark(a.looksLikeTax(rec.Description)),
	}
	if rec.Date != nil {
		row.Fecha = rec.Date.Format("2006-01-02")
	}
	if rec.Amount.Valid {
		row.Monto = rec.Amount.Decimal.StringFixed(2)
	}

	if !decision.Matched {
		return row
	}

	ledgerRec := lookupOrigin(decision, sales, purchases)
	if ledgerRec == nil {
		// Decision points at a row the indexes no longer know; keep the
		// statement side and report unmatched.
		a.log.WithFields(logger.Fields{
			"row_id":    rec.ID,
			"ledger_id": decision.LedgerID,
			"origin":    string(decision.Origin),
		}).Warn("Matched ledger row not found in index")
		return row
	}

	row.Conciliado = "Si"
	row.Origen = string(decision.Origin)
	row.Comprobante = ledgerRec.Voucher
	row.ReglaAplicada = string(decision.Rule)
	if ledgerRec.Date != nil {
		row.FechaLibro = ledgerRec.Date.Format("2006-01-02")
	}
	if ledgerRec.Amount.Valid {
		row.MontoLibro = ledgerRec.Amount.Decimal.StringFixed(2)
	}
	if rec.Amount.Valid && ledgerRec.Amount.Valid {
		row.Diferencia = rec.Amount.Decimal.Sub(ledgerRec.Amount.Decimal).Abs().StringFixed(2)
	}

	return row
}

// looksLikeTax reports whether the description mentions any lexicon term.
func (a *Assembler) looksLikeTax(description string) bool {
	lowered := strings.ToLower(description)
	for _, term := range a.config.TaxTerms {
		if term != "" && strings.Contains(lowered, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

func lookupOrigin(decision matcher.MatchDecision, sales, purchases *matcher.LedgerIndex) *coerce.Record {
	var idx *matcher.LedgerIndex
	switch decision.Origin {
	case coerce.OriginSales:
		idx = sales
	case coerce.OriginPurchases:
		idx = purchases
	}
	if idx == nil {
		return nil
	}
	return idx.Lookup(decision.LedgerID)
}

func boolMark(b bool) string {
	if b {
		return "Si"
	}
	return "No"
}
