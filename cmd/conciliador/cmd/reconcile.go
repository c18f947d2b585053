package cmd

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/ralborta/cliente-centro-gestion/cmd/conciliador/config"
	"github.com/ralborta/cliente-centro-gestion/internal/reconciler"
	"github.com/ralborta/cliente-centro-gestion/internal/report"
	pkgerrors "github.com/ralborta/cliente-centro-gestion/pkg/errors"
	"github.com/ralborta/cliente-centro-gestion/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command
var (
	statementFile string
	salesFile     string
	purchasesFile string
	outputFile    string
	outputFormat  string

	toleranceFlag  string
	dateWindowDays int
	topN           int
	extraTaxTerms  []string

	rankerAPIKey  string
	rankerBaseURL string
	rankerModel   string
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile a bank statement against sales and purchases ledgers",
	Long: `Reconcile reads the bank statement and both ledgers, matches every
statement movement against the ledgers and writes the annotated report.

Input documents may be CSV, XLSX or PDF; the format is detected from the
filename and content.

Examples:
  # Basic reconciliation to conciliado.xlsx
  conciliador reconcile --extracto extracto.xlsx --ventas ventas.xlsx --compras compras.xlsx

  # CSV output to stdout
  conciliador reconcile --extracto e.csv --ventas v.csv --compras c.csv --output-format csv -o -

  # Wider matching window
  conciliador reconcile --extracto e.csv --ventas v.csv --compras c.csv \
    --tolerance 100 --date-window 5`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringVarP(&statementFile, "extracto", "e", "", "path to the bank statement document (required)")
	reconcileCmd.Flags().StringVar(&salesFile, "ventas", "", "path to the sales ledger document (required)")
	reconcileCmd.Flags().StringVar(&purchasesFile, "compras", "", "path to the purchases ledger document (required)")

	reconcileCmd.Flags().StringVarP(&outputFile, "output", "o", "conciliado.xlsx", "output file path ('-' for stdout)")
	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "xlsx", "output format: xlsx, csv")

	reconcileCmd.Flags().StringVar(&toleranceFlag, "tolerance", "", "amount tolerance in currency units (default 50)")
	reconcileCmd.Flags().IntVar(&dateWindowDays, "date-window", -1, "date window in days (default 2)")
	reconcileCmd.Flags().IntVar(&topN, "top-n", 0, "candidate short-list size (default 5)")
	reconcileCmd.Flags().StringSliceVar(&extraTaxTerms, "tax-terms", nil, "additional tax lexicon terms, comma separated")

	reconcileCmd.Flags().StringVar(&rankerAPIKey, "ai-api-key", "", "API key for the ranking collaborator (or OPENAI_API_KEY)")
	reconcileCmd.Flags().StringVar(&rankerBaseURL, "ai-base-url", "", "base URL for the ranking collaborator")
	reconcileCmd.Flags().StringVar(&rankerModel, "ai-model", "", "model name for the ranking collaborator")

	viper.BindPFlag("ai-api-key", reconcileCmd.Flags().Lookup("ai-api-key"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	if statementFile == "" || salesFile == "" || purchasesFile == "" {
		return pkgerrors.ConfigError("inputs", "", nil).
			WithSuggestion("provide --extracto, --ventas and --compras")
	}
	switch strings.ToLower(outputFormat) {
	case "xlsx", "csv":
	default:
		return pkgerrors.ConfigError("output-format", outputFormat, nil).
			WithSuggestion("use xlsx or csv")
	}
	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	matcherConfig, err := config.CreateMatcherConfig(toleranceFlag, dateWindowDays, topN)
	if err != nil {
		return err
	}
	reportConfig := config.CreateReportConfig(extraTaxTerms)
	ranker := config.CreateRanker(rankerAPIKey, rankerBaseURL, rankerModel)

	inputs, err := readInputs()
	if err != nil {
		return err
	}

	pipeline := reconciler.New(matcherConfig, reportConfig, ranker)
	result, err := pipeline.Run(context.Background(), inputs)
	if err != nil {
		return err
	}

	if err := writeReport(result.Rows); err != nil {
		return err
	}

	logger.WithComponent("cli").WithFields(logger.Fields{
		"statement_rows": result.StatementRows,
		"reconciled":     result.Reconciled,
		"output":         outputFile,
	}).Info("Report written")
	return nil
}

func readInputs() (reconciler.Inputs, error) {
	read := func(path string) (reconciler.Document, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return reconciler.Document{}, pkgerrors.IngestError(pkgerrors.CodeMissingUpload, path, err).
				WithSuggestion("check that the file exists and is readable")
		}
		return reconciler.Document{Name: path, Data: data}, nil
	}

	var inputs reconciler.Inputs
	var err error
	if inputs.Statement, err = read(statementFile); err != nil {
		return inputs, err
	}
	if inputs.Sales, err = read(salesFile); err != nil {
		return inputs, err
	}
	if inputs.Purchases, err = read(purchasesFile); err != nil {
		return inputs, err
	}
	return inputs, nil
}

func writeReport(rows []report.ReportRow) error {
	var out io.Writer = os.Stdout
	if outputFile != "-" {
		f, err := os.Create(outputFile)
		if err != nil {
			return pkgerrors.RenderError(outputFormat, err).
				WithSuggestion("check that the output path is writable")
		}
		defer f.Close()
		out = f
	}

	if strings.EqualFold(outputFormat, "csv") {
		return report.WriteCSV(out, rows)
	}
	return report.WriteExcel(out, rows)
}
