// Package matcher implements the record-linkage engine: candidate retrieval
// over bucket-indexed ledgers, composite similarity scoring, ranking, and
// per-row match decisions.
//
// The engine processes one statement row at a time:
//  1. Candidate selection from the amount-bucket index of the routed ledger
//  2. Tolerance and date-window filtering
//  3. Text-similarity scoring discounted by date distance
//  4. Stable ranking and top-N capping
//  5. Optional re-ranking through an external collaborator
//
// Ledger tables are read-only during a run, so per-row work shares no
// mutable state.
package matcher

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Config holds the tunable parameters of a matching pass. The defaults are
// the values of the most mature reconciliation pass: tolerance of 50
// currency units and a two-day window. Callers override them per table
// pair.
type Config struct {
	// AmountTolerance is the maximum absolute gap between a statement
	// amount and a ledger total, in currency units.
	AmountTolerance decimal.Decimal `json:"amount_tolerance"`

	// DateWindowDays bounds the date distance between statement and ledger
	// rows. Applied only when both rows carry a parsed date.
	DateWindowDays int `json:"date_window_days"`

	// TopN caps the short-list handed to the re-ranker.
	TopN int `json:"top_n"`
}

// DefaultConfig returns the reference matching configuration.
func DefaultConfig() *Config {
	return &Config{
		AmountTolerance: decimal.NewFromInt(50),
		DateWindowDays:  2,
		TopN:            5,
	}
}

// Validate checks the configuration bounds.
func (c *Config) Validate() error {
	if c.AmountTolerance.IsNegative() {
		return fmt.Errorf("amount tolerance cannot be negative: %s", c.AmountTolerance.String())
	}
	if c.DateWindowDays < 0 {
		return fmt.Errorf("date window days cannot be negative: %d", c.DateWindowDays)
	}
	if c.TopN <= 0 {
		return fmt.Errorf("top-n must be positive: %d", c.TopN)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// String returns a human-readable description of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Tolerance: %s, DateWindow: %d days, TopN: %d}",
		c.AmountTolerance.String(), c.DateWindowDays, c.TopN)
}
