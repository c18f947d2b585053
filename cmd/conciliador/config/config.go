// Package config translates CLI flags and environment settings into the
// component configurations used by the pipeline.
package config

import (
	"os"
	"strings"

	"github.com/ralborta/cliente-centro-gestion/internal/matcher"
	"github.com/ralborta/cliente-centro-gestion/internal/report"
	"github.com/ralborta/cliente-centro-gestion/internal/rerank"
	"github.com/ralborta/cliente-centro-gestion/internal/server"
	pkgerrors "github.com/ralborta/cliente-centro-gestion/pkg/errors"
	"github.com/ralborta/cliente-centro-gestion/pkg/logger"

	"github.com/shopspring/decimal"
)

// CreateMatcherConfig builds a matcher configuration from CLI overrides.
// The tolerance arrives as text so fractional currency values survive
// exactly.
func CreateMatcherConfig(tolerance string, dateWindowDays, topN int) (*matcher.Config, error) {
	config := matcher.DefaultConfig()

	if tolerance != "" {
		d, err := decimal.NewFromString(tolerance)
		if err != nil {
			return nil, pkgerrors.ConfigError("tolerance", tolerance, err).
				WithSuggestion("use a plain decimal number, e.g. 50 or 0.50")
		}
		config.AmountTolerance = d
	}
	if dateWindowDays >= 0 {
		config.DateWindowDays = dateWindowDays
	}
	if topN > 0 {
		config.TopN = topN
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// CreateReportConfig builds the assembler configuration. Extra tax terms
// extend the default lexicon rather than replacing it.
func CreateReportConfig(extraTaxTerms []string) *report.Config {
	config := report.DefaultConfig()
	for _, term := range extraTaxTerms {
		if term = strings.TrimSpace(term); term != "" {
			config.TaxTerms = append(config.TaxTerms, term)
		}
	}
	return config
}

// CreateRanker selects the tie-break variant. With an API key configured
// the external collaborator is used; without one candidates keep their
// scored order. Absence of a key is a normal state, not an error.
func CreateRanker(apiKey, baseURL, model string) matcher.Ranker {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		logger.WithComponent("config").Debug("No ranking API key configured; using pass-through order")
		return rerank.NewPassThrough()
	}

	cfg := rerank.DefaultExternalConfig()
	cfg.APIKey = apiKey
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model != "" {
		cfg.Model = model
	}
	return rerank.NewExternalRanker(cfg)
}

// CreateServerConfig builds the HTTP server configuration.
func CreateServerConfig(port int, origins []string) *server.Config {
	config := server.DefaultConfig()
	if port > 0 {
		config.Port = port
	}
	if len(origins) > 0 {
		config.AllowedOrigins = origins
	}
	return config
}

// CreateLoggerConfig builds the logger configuration from the verbosity
// flag.
func CreateLoggerConfig(verbose bool) *logger.Config {
	if verbose {
		return logger.DebugConfig()
	}
	return logger.DefaultConfig()
}
