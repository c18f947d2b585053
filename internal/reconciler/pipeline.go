// Package reconciler orchestrates the end-to-end reconciliation workflow:
// ingest the three uploaded documents, coerce them into records, match the
// statement against both ledgers and assemble the annotated report. The CLI
// and the HTTP server both run this pipeline; neither adds matching logic
// of its own.
package reconciler

import (
	"context"

	"github.com/ralborta/cliente-centro-gestion/internal/coerce"
	"github.com/ralborta/cliente-centro-gestion/internal/ingest"
	"github.com/ralborta/cliente-centro-gestion/internal/matcher"
	"github.com/ralborta/cliente-centro-gestion/internal/report"
	"github.com/ralborta/cliente-centro-gestion/pkg/logger"
)

// Document is one uploaded input: a filename (used for format sniffing and
// error messages) and its raw bytes.
type Document struct {
	Name string
	Data []byte
}

// Inputs are the three documents of a reconciliation run.
type Inputs struct {
	Statement Document
	Sales     Document
	Purchases Document
}

// Result carries the assembled report and the run's counters.
type Result struct {
	Rows          []report.ReportRow
	StatementRows int
	SalesRows     int
	PurchasesRows int
	Reconciled    int
}

// Pipeline wires the stages together. Construct once, run per batch.
type Pipeline struct {
	matcherConfig *matcher.Config
	reportConfig  *report.Config
	ranker        matcher.Ranker
	log           logger.Logger
}

// New creates a pipeline. Nil configs use the package defaults; a nil
// ranker leaves candidate order as scored.
func New(matcherConfig *matcher.Config, reportConfig *report.Config, ranker matcher.Ranker) *Pipeline {
	if matcherConfig == nil {
		matcherConfig = matcher.DefaultConfig()
	}
	if reportConfig == nil {
		reportConfig = report.DefaultConfig()
	}
	return &Pipeline{
		matcherConfig: matcherConfig,
		reportConfig:  reportConfig,
		ranker:        ranker,
		log:           logger.WithComponent("reconciler"),
	}
}

// Run executes one reconciliation batch to completion. Ingestion failures
// are the only fatal errors; malformed rows inside a readable document
// degrade to unmatched report rows.
func (p *Pipeline) Run(ctx context.Context, inputs Inputs) (*Result, error) {
	stmtTable, err := ingest.Read(inputs.Statement.Name, inputs.Statement.Data, ingest.KindStatement)
	if err != nil {
		return nil, err
	}
	salesTable, err := ingest.Read(inputs.Sales.Name, inputs.Sales.Data, ingest.KindSales)
	if err != nil {
		return nil, err
	}
	purchasesTable, err := ingest.Read(inputs.Purchases.Name, inputs.Purchases.Data, ingest.KindPurchases)
	if err != nil {
		return nil, err
	}

	statement, _ := coerce.CoerceStatement(stmtTable)
	sales, _ := coerce.CoerceLedger(salesTable, coerce.OriginSales)
	purchases, _ := coerce.CoerceLedger(purchasesTable, coerce.OriginPurchases)

	salesIdx := matcher.NewLedgerIndex(sales, coerce.OriginSales)
	purchasesIdx := matcher.NewLedgerIndex(purchases, coerce.OriginPurchases)

	engine := matcher.NewEngine(p.matcherConfig, salesIdx, purchasesIdx, p.ranker)
	decisions := engine.Reconcile(ctx, statement)

	rows := report.NewAssembler(p.reportConfig).Assemble(statement, decisions, salesIdx, purchasesIdx)

	result := &Result{
		Rows:          rows,
		StatementRows: len(statement),
		SalesRows:     len(sales),
		PurchasesRows: len(purchases),
	}
	for _, row := range rows {
		if row.Conciliado == "Si" {
			result.Reconciled++
		}
	}

	p.log.WithFields(logger.Fields{
		"statement_rows": result.StatementRows,
		"sales_rows":     result.SalesRows,
		"purchases_rows": result.PurchasesRows,
		"reconciled":     result.Reconciled,
	}).Info("Reconciliation run completed")

	return result, nil
}
