package matcher

import (
	"context"

	"github.com/ralborta/cliente-centro-gestion/internal/coerce"
	"github.com/ralborta/cliente-centro-gestion/pkg/logger"
)

// Ranker is the tie-break capability consulted with the top-N short-list.
// Implementations return a permutation of candidate indices and must never
// fail: any internal problem degrades to identity order.
type Ranker interface {
	Rank(ctx context.Context, query string, candidates []RankItem) []int
}

// RankItem is the bounded candidate summary handed to a Ranker.
type RankItem struct {
	Description string
	Amount      string
	Date        string
}

// Rule tags the reasoning behind a match decision; it surfaces in the
// report as ReglaAplicada.
type Rule string

const (
	RuleExactAmount     Rule = "monto_exacto"
	RuleAmountTolerance Rule = "monto_tolerancia"
	RuleReranked        Rule = "reordenado_ia"
	RuleNone            Rule = ""
)

// MatchDecision is the final, per-statement-row outcome. Exactly one
// decision exists per statement row; once built it is never revised.
type MatchDecision struct {
	StatementID int
	Matched     bool
	LedgerID    int
	Origin      coerce.Origin
	Score       float64
	Rule        Rule
}

// Engine runs the matching pass for a statement against the two ledgers.
type Engine struct {
	Config    *Config
	Sales     *LedgerIndex
	Purchases *LedgerIndex

	ranker Ranker
	log    logger.Logger
}

// NewEngine creates a matching engine. A nil config uses the defaults; a
// nil ranker disables tie-breaking (retrieval order stands).
func NewEngine(config *Config, sales, purchases *LedgerIndex, ranker Ranker) *Engine {
	if config == nil {
		config = DefaultConfig()
	}

	return &Engine{
		Config:    config,
		Sales:     sales,
		Purchases: purchases,
		ranker:    ranker,
		log:       logger.WithComponent("matcher"),
	}
}

// Reconcile produces one MatchDecision per statement record. Rows are
// independent: ledger indexes are read-only for the whole run.
func (e *Engine) Reconcile(ctx context.Context, statement []*coerce.Record) map[int]MatchDecision {
	decisions := make(map[int]MatchDecision, len(statement))

	for _, row := range statement {
		decisions[row.ID] = e.matchRow(ctx, row)
	}

	matched := 0
	for _, d := range decisions {
		if d.Matched {
			matched++
		}
	}
	e.log.WithFields(logger.Fields{
		"rows":    len(statement),
		"matched": matched,
	}).Info("Matching pass completed")

	return decisions
}

// matchRow runs retrieval, scoring, ranking and tie-break for one row.
func (e *Engine) matchRow(ctx context.Context, row *coerce.Record) MatchDecision {
	unmatched := MatchDecision{StatementID: row.ID}

	if !row.Amount.Valid {
		e.log.WithField("row_id", row.ID).Debug("Statement row has no parseable amount; unmatched")
		return unmatched
	}

	candidates := e.retrieveRouted(row)
	if len(candidates) == 0 {
		return unmatched
	}

	for i := range candidates {
		candidates[i].Score = Score(row.Description, candidates[i].Record.Description, dateDiffDays(row, candidates[i].Record))
	}
	top := Rank(candidates, e.Config.TopN)

	winner := 0
	if e.ranker != nil {
		if perm := e.rerank(ctx, row, top); len(perm) > 0 {
			winner = perm[0]
		}
	}

	chosen := top[winner]
	rule := e.decideRule(row, chosen, winner != 0)

	return MatchDecision{
		StatementID: row.ID,
		Matched:     true,
		LedgerID:    chosen.Record.ID,
		Origin:      chosen.Record.Origin,
		Score:       chosen.Score,
		Rule:        rule,
	}
}

// retrieveRouted applies direction routing: credits search the sales ledger
// first, debits the purchases ledger first, and the second ledger is only
// consulted when the first yields nothing. Unknown direction searches both
// with no preference.
func (e *Engine) retrieveRouted(row *coerce.Record) []Candidate {
	switch row.Direction {
	case coerce.DirectionCredit:
		if c := e.Retrieve(row, e.Sales); len(c) > 0 {
			return c
		}
		return e.Retrieve(row, e.Purchases)
	case coerce.DirectionDebit:
		if c := e.Retrieve(row, e.Purchases); len(c) > 0 {
			return c
		}
		return e.Retrieve(row, e.Sales)
	default:
		return append(e.Retrieve(row, e.Sales), e.Retrieve(row, e.Purchases)...)
	}
}

// Retrieve narrows one ledger to the rows within amount tolerance and,
// when both dates are present, within the date window. Only the bucket of
// the statement's rounded amount is scanned. The result keeps ledger order
// and carries no scores yet.
func (e *Engine) Retrieve(row *coerce.Record, ledger *LedgerIndex) []Candidate {
	if ledger == nil || !row.Amount.Valid {
		return nil
	}

	var result []Candidate
	for _, rec := range ledger.Bucket(row.Amount.Decimal) {
		diff := rec.Amount.Decimal.Sub(row.Amount.Decimal).Abs()
		if diff.GreaterThan(e.Config.AmountTolerance) {
			continue
		}

		if row.Date != nil && rec.Date != nil {
			if days := dateDiffDays(row, rec); days > e.Config.DateWindowDays {
				continue
			}
		}

		result = append(result, Candidate{Record: rec})
	}

	return result
}

// rerank consults the tie-break collaborator with the short-list.
func (e *Engine) rerank(ctx context.Context, row *coerce.Record, top []Candidate) []int {
	items := make([]RankItem, len(top))
	for i, c := range top {
		item := RankItem{Description: c.Record.Description}
		if c.Record.Amount.Valid {
			item.Amount = c.Record.Amount.Decimal.StringFixed(2)
		}
		if c.Record.Date != nil {
			item.Date = c.Record.Date.Format("2006-01-02")
		}
		items[i] = item
	}

	return e.ranker.Rank(ctx, row.Description, items)
}

func (e *Engine) decideRule(row *coerce.Record, chosen Candidate, reordered bool) Rule {
	if reordered {
		return RuleReranked
	}
	if chosen.Record.Amount.Valid && chosen.Record.Amount.Decimal.Equal(row.Amount.Decimal) {
		return RuleExactAmount
	}
	return RuleAmountTolerance
}
