package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ralborta/cliente-centro-gestion/cmd/conciliador/config"
	"github.com/ralborta/cliente-centro-gestion/internal/reconciler"
	"github.com/ralborta/cliente-centro-gestion/internal/server"
	"github.com/ralborta/cliente-centro-gestion/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the serve command
var (
	servePort      int
	serveOrigins   []string
	serveTolerance string
	serveWindow    int
	serveTopN      int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reconciliation HTTP service",
	Long: `Serve exposes reconciliation over HTTP: POST three documents to
/reconcile (form fields extracto, ventas, compras) and receive the annotated
workbook as an attachment. GET /health reports liveness.

The ranking collaborator is enabled automatically when OPENAI_API_KEY (or
CONCILIADOR_AI_API_KEY) is set.

Examples:
  conciliador serve
  conciliador serve --port 9090 --allowed-origin https://conciliador.example.com`,

	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "listen port")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "allowed-origin", nil, "additional allowed CORS origins")
	serveCmd.Flags().StringVar(&serveTolerance, "tolerance", "", "amount tolerance in currency units (default 50)")
	serveCmd.Flags().IntVar(&serveWindow, "date-window", -1, "date window in days (default 2)")
	serveCmd.Flags().IntVar(&serveTopN, "top-n", 0, "candidate short-list size (default 5)")

	viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
}

func runServe(cmd *cobra.Command, args []string) error {
	matcherConfig, err := config.CreateMatcherConfig(serveTolerance, serveWindow, serveTopN)
	if err != nil {
		return err
	}
	ranker := config.CreateRanker(viper.GetString("ai-api-key"), "", "")

	pipeline := reconciler.New(matcherConfig, config.CreateReportConfig(nil), ranker)
	srv := server.NewServer(config.CreateServerConfig(servePort, serveOrigins), pipeline)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.WithComponent("cli").WithField("signal", sig.String()).Info("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
