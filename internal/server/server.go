// Package server exposes the reconciliation pipeline over HTTP. The
// surface is deliberately small: one upload endpoint returning the
// annotated workbook and a health probe. All matching behavior lives in
// the pipeline; this package only moves bytes.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ralborta/cliente-centro-gestion/internal/reconciler"
	"github.com/ralborta/cliente-centro-gestion/internal/report"
	pkgerrors "github.com/ralborta/cliente-centro-gestion/pkg/errors"
	"github.com/ralborta/cliente-centro-gestion/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Config holds HTTP server options.
type Config struct {
	Port           int
	AllowedOrigins []string
	MaxUploadBytes int64
}

// DefaultConfig returns the server defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000"},
		MaxUploadBytes: 32 << 20,
	}
}

// Server is the HTTP front of the conciliador.
type Server struct {
	config     *Config
	router     chi.Router
	pipeline   *reconciler.Pipeline
	httpServer *http.Server
	log        logger.Logger
}

// NewServer creates the server around an assembled pipeline.
func NewServer(config *Config, pipeline *reconciler.Pipeline) *Server {
	if config == nil {
		config = DefaultConfig()
	}

	s := &Server{
		config:   config,
		router:   chi.NewRouter(),
		pipeline: pipeline,
		log:      logger.WithComponent("server"),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.cors)

	s.router.Get("/health", s.handleHealth)
	s.router.Post("/reconcile", s.handleReconcile)

	return s
}

// Handler returns the routing tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks serving HTTP until Shutdown is called or the listener
// fails.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.WithField("port", s.config.Port).Info("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// cors answers preflight requests and stamps the allow headers for
// configured origins. Any *.vercel.app origin is accepted so preview
// deployments of the frontend keep working.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.config.AllowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return strings.HasPrefix(origin, "https://") && strings.HasSuffix(origin, ".vercel.app")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReconcile accepts a multipart form with exactly three files
// (extracto, ventas, compras) and responds with the annotated workbook as
// an attachment.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest,
			pkgerrors.IngestError(pkgerrors.CodeCorruptDocument, "request body", err).
				WithSuggestion("send a multipart form with files extracto, ventas and compras"))
		return
	}

	statement, err := formDocument(r, "extracto")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	sales, err := formDocument(r, "ventas")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	purchases, err := formDocument(r, "compras")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.pipeline.Run(r.Context(), reconciler.Inputs{
		Statement: statement,
		Sales:     sales,
		Purchases: purchases,
	})
	if err != nil {
		status := http.StatusUnprocessableEntity
		if pkgerrors.GetCategory(err) == pkgerrors.CategoryInternal {
			status = http.StatusInternalServerError
		}
		s.writeError(w, status, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="conciliado.xlsx"`)
	if err := report.WriteExcel(w, result.Rows); err != nil {
		// Headers are already out; all that is left is logging.
		s.log.WithError(err).Error("Failed to stream workbook")
	}
}

// formDocument pulls one named upload out of the parsed form.
func formDocument(r *http.Request, field string) (reconciler.Document, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return reconciler.Document{}, pkgerrors.IngestError(pkgerrors.CodeMissingUpload, field, err).
			WithSuggestion(fmt.Sprintf("attach a file under the form field %q", field))
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return reconciler.Document{}, pkgerrors.IngestError(pkgerrors.CodeCorruptDocument, header.Filename, err)
	}

	return reconciler.Document{Name: header.Filename, Data: data}, nil
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.log.WithField("status", status).WithError(err).Warn("Request failed")
	writeJSON(w, status, map[string]string{"error": pkgerrors.FormatUserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
