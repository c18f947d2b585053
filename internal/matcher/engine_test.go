package matcher

import (
	"context"
	"testing"

	"github.com/ralborta/cliente-centro-gestion/internal/coerce"

	"github.com/shopspring/decimal"
)

// stubRanker returns a fixed permutation regardless of input.
type stubRanker struct {
	perm []int
}

func (s *stubRanker) Rank(ctx context.Context, query string, candidates []RankItem) []int {
	return s.perm
}

func tolerance(t *testing.T, s string) *Config {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.AmountTolerance = d
	return cfg
}

func TestRetrieveToleranceBoundary(t *testing.T) {
	// Fractional tolerance keeps all rows in the same integer bucket, so
	// only the tolerance filter decides.
	cfg := tolerance(t, "0.30")
	ledger := NewLedgerIndex([]*coerce.Record{
		ledgerRecord(1, "al limite", "100.30", ""),
		ledgerRecord(2, "fuera por un centavo", "100.31", ""),
		ledgerRecord(3, "exacto", "100.00", ""),
	}, coerce.OriginSales)
	engine := NewEngine(cfg, ledger, nil, nil)

	row := statementRecord(1, "pago", "100.00", "", coerce.DirectionCredit)
	candidates := engine.Retrieve(row, ledger)

	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Record.ID != 1 || candidates[1].Record.ID != 3 {
		t.Errorf("Expected candidates [1 3], got [%d %d]", candidates[0].Record.ID, candidates[1].Record.ID)
	}
}

func TestRetrieveDateWindowBoundary(t *testing.T) {
	cfg := DefaultConfig() // window = 2 days
	ledger := NewLedgerIndex([]*coerce.Record{
		ledgerRecord(1, "en ventana", "100", "2024-03-12"),
		ledgerRecord(2, "fuera de ventana", "100", "2024-03-13"),
		ledgerRecord(3, "mismo dia", "100", "2024-03-10"),
	}, coerce.OriginSales)
	engine := NewEngine(cfg, ledger, nil, nil)

	row := statementRecord(1, "pago", "100", "2024-03-10", coerce.DirectionCredit)
	candidates := engine.Retrieve(row, ledger)

	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(candidates))
	}
	for _, c := range candidates {
		if c.Record.ID == 2 {
			t.Error("Row at dateWindow+1 days must be excluded")
		}
	}
}

func TestRetrieveSkipsDateFilterWhenDateMissing(t *testing.T) {
	ledger := NewLedgerIndex([]*coerce.Record{
		ledgerRecord(1, "sin fecha", "100", ""),
	}, coerce.OriginSales)
	engine := NewEngine(nil, ledger, nil, nil)

	row := statementRecord(1, "pago", "100", "2024-03-10", coerce.DirectionCredit)
	if got := engine.Retrieve(row, ledger); len(got) != 1 {
		t.Errorf("Expected ledger row without date to pass the filter, got %d candidates", len(got))
	}
}

func TestDirectionRoutingPrefersSalesForCredit(t *testing.T) {
	sales := NewLedgerIndex([]*coerce.Record{
		ledgerRecord(1, "sin relacion alguna", "1000", "2024-03-10"),
	}, coerce.OriginSales)

	// The purchases candidate would score higher on text, but a credit must
	// never take a purchases match while a sales candidate exists.
	purchases := []*coerce.Record{
		ledgerRecord(1, "pago cliente acme", "1000", "2024-03-10"),
	}
	for _, r := range purchases {
		r.Origin = coerce.OriginPurchases
	}
	purchasesIdx := NewLedgerIndex(purchases, coerce.OriginPurchases)

	engine := NewEngine(nil, sales, purchasesIdx, nil)
	row := statementRecord(1, "pago cliente acme", "1000", "2024-03-10", coerce.DirectionCredit)

	decision := engine.Reconcile(context.Background(), []*coerce.Record{row})[1]

	if !decision.Matched {
		t.Fatal("Expected a match")
	}
	if decision.Origin != coerce.OriginSales {
		t.Errorf("Expected sales origin, got %s", decision.Origin)
	}
}

func TestDirectionRoutingFallsBackToSecondLedger(t *testing.T) {
	sales := NewLedgerIndex(nil, coerce.OriginSales)
	purchases := []*coerce.Record{ledgerRecord(1, "compra", "500", "")}
	purchases[0].Origin = coerce.OriginPurchases
	purchasesIdx := NewLedgerIndex(purchases, coerce.OriginPurchases)

	engine := NewEngine(nil, sales, purchasesIdx, nil)
	row := statementRecord(1, "compra", "500", "", coerce.DirectionCredit)

	decision := engine.Reconcile(context.Background(), []*coerce.Record{row})[1]

	if !decision.Matched || decision.Origin != coerce.OriginPurchases {
		t.Errorf("Expected fallback to purchases, got %+v", decision)
	}
}

func TestUnknownDirectionSearchesBothLedgers(t *testing.T) {
	sales := NewLedgerIndex([]*coerce.Record{
		ledgerRecord(1, "venta lejana", "100", ""),
	}, coerce.OriginSales)
	purchases := []*coerce.Record{ledgerRecord(1, "pago exacto acme", "100", "")}
	purchases[0].Origin = coerce.OriginPurchases
	purchasesIdx := NewLedgerIndex(purchases, coerce.OriginPurchases)

	engine := NewEngine(nil, sales, purchasesIdx, nil)
	row := statementRecord(1, "pago exacto acme", "100", "", coerce.DirectionUnknown)

	decision := engine.Reconcile(context.Background(), []*coerce.Record{row})[1]

	if !decision.Matched {
		t.Fatal("Expected a match")
	}
	if decision.Origin != coerce.OriginPurchases {
		t.Errorf("Expected the better-scoring purchases candidate, got %s", decision.Origin)
	}
}

func TestNullAmountRowIsUnmatched(t *testing.T) {
	sales := NewLedgerIndex([]*coerce.Record{ledgerRecord(1, "algo", "100", "")}, coerce.OriginSales)
	engine := NewEngine(nil, sales, nil, nil)

	row := statementRecord(1, "sin importe", "", "", coerce.DirectionUnknown)
	decision := engine.Reconcile(context.Background(), []*coerce.Record{row})[1]

	if decision.Matched {
		t.Error("Expected unmatched decision for null amount")
	}
	if decision.Rule != RuleNone {
		t.Errorf("Expected empty rule, got %s", decision.Rule)
	}
}

func TestZeroTextOverlapStillMatches(t *testing.T) {
	// Matching is accepted on amount/date proximity alone; a zero text
	// score does not reject the closest candidate.
	sales := NewLedgerIndex([]*coerce.Record{
		ledgerRecord(1, "texto totalmente distinto", "100", "2024-03-10"),
	}, coerce.OriginSales)
	engine := NewEngine(nil, sales, nil, nil)

	row := statementRecord(1, "pago acme", "100", "2024-03-10", coerce.DirectionCredit)
	decision := engine.Reconcile(context.Background(), []*coerce.Record{row})[1]

	if !decision.Matched {
		t.Fatal("Expected match despite zero text similarity")
	}
	if decision.Score != 0.0 {
		t.Errorf("Expected zero score, got %f", decision.Score)
	}
	if decision.Rule != RuleExactAmount {
		t.Errorf("Expected exact amount rule, got %s", decision.Rule)
	}
}

func TestAcmeScenario(t *testing.T) {
	sales := []*coerce.Record{
		ledgerRecord(1, "ACME pago", "1000.00", "2024-03-11"),
		ledgerRecord(2, "otro", "1000.00", "2024-04-01"),
	}
	sales[0].Voucher = "F-001"
	salesIdx := NewLedgerIndex(sales, coerce.OriginSales)

	engine := NewEngine(nil, salesIdx, nil, nil)
	row := statementRecord(1, "pago cliente ACME", "1000.00", "2024-03-10", coerce.DirectionCredit)

	decision := engine.Reconcile(context.Background(), []*coerce.Record{row})[1]

	if !decision.Matched {
		t.Fatal("Expected a match")
	}
	if decision.LedgerID != 1 {
		t.Errorf("Expected voucher F-001 row (id 1), got id %d", decision.LedgerID)
	}

	matched := salesIdx.Lookup(decision.LedgerID)
	diff := matched.Amount.Decimal.Sub(decimal.RequireFromString("1000.00")).Abs()
	if !diff.IsZero() {
		t.Errorf("Expected Diferencia 0.00, got %s", diff.String())
	}
}

func TestReconcileIsDeterministic(t *testing.T) {
	sales := NewLedgerIndex([]*coerce.Record{
		ledgerRecord(1, "pago acme", "100", "2024-03-10"),
		ledgerRecord(2, "pago acme", "100", "2024-03-10"), // identical twin
	}, coerce.OriginSales)
	engine := NewEngine(nil, sales, nil, nil)
	row := statementRecord(1, "pago acme", "100", "2024-03-10", coerce.DirectionCredit)

	first := engine.Reconcile(context.Background(), []*coerce.Record{row})[1]
	for i := 0; i < 20; i++ {
		again := engine.Reconcile(context.Background(), []*coerce.Record{row})[1]
		if again != first {
			t.Fatalf("Decision changed between runs: %+v vs %+v", first, again)
		}
	}
	if first.LedgerID != 1 {
		t.Errorf("Expected stable sort to keep retrieval order, got id %d", first.LedgerID)
	}
}

func TestRankerReordersWinner(t *testing.T) {
	sales := NewLedgerIndex([]*coerce.Record{
		ledgerRecord(1, "pago acme", "100", ""),
		ledgerRecord(2, "acme transferencia", "100", ""),
	}, coerce.OriginSales)

	engine := NewEngine(nil, sales, nil, &stubRanker{perm: []int{1, 0}})
	row := statementRecord(1, "pago acme", "100", "", coerce.DirectionCredit)

	decision := engine.Reconcile(context.Background(), []*coerce.Record{row})[1]

	if decision.LedgerID != 2 {
		t.Errorf("Expected reranked winner id 2, got %d", decision.LedgerID)
	}
	if decision.Rule != RuleReranked {
		t.Errorf("Expected rerank rule, got %s", decision.Rule)
	}
}

func TestIdentityRankerKeepsRetrievalWinner(t *testing.T) {
	sales := NewLedgerIndex([]*coerce.Record{
		ledgerRecord(1, "pago acme", "100", ""),
		ledgerRecord(2, "acme transferencia", "100", ""),
	}, coerce.OriginSales)

	withRanker := NewEngine(nil, sales, nil, &stubRanker{perm: []int{0, 1}})
	withoutRanker := NewEngine(nil, sales, nil, nil)
	row := statementRecord(1, "pago acme", "100", "", coerce.DirectionCredit)

	a := withRanker.Reconcile(context.Background(), []*coerce.Record{row})[1]
	b := withoutRanker.Reconcile(context.Background(), []*coerce.Record{row})[1]

	if a.LedgerID != b.LedgerID {
		t.Errorf("Identity ranker must match no-ranker outcome: %d vs %d", a.LedgerID, b.LedgerID)
	}
	if a.LedgerID != 1 {
		t.Errorf("Expected highest-scored retrieval candidate, got %d", a.LedgerID)
	}
}
