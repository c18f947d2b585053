package matcher

import (
	"github.com/ralborta/cliente-centro-gestion/internal/coerce"

	"github.com/shopspring/decimal"
)

// LedgerIndex buckets a ledger's records by their total rounded to the
// nearest integer. A statement row only scans the bucket of its own rounded
// amount, bounding per-row work to one bucket instead of the whole ledger.
//
// The bucketing is a coarse approximation: a true match whose total rounds
// to a neighbouring bucket is missed even when it sits within tolerance.
// That trade-off is accepted; the tolerance filter inside the bucket is the
// real gate.
type LedgerIndex struct {
	Origin  coerce.Origin
	buckets map[int64][]*coerce.Record
	all     []*coerce.Record
}

// NewLedgerIndex builds the bucket index once per ledger per run. Records
// without a parseable total are excluded: they can never pass the amount
// filter. Bucket slices keep the ledger's original row order, which is what
// makes downstream ranking ties deterministic.
func NewLedgerIndex(records []*coerce.Record, origin coerce.Origin) *LedgerIndex {
	idx := &LedgerIndex{
		Origin:  origin,
		buckets: make(map[int64][]*coerce.Record),
		all:     records,
	}

	for _, rec := range records {
		if !rec.Amount.Valid {
			continue
		}
		key := bucketKey(rec.Amount.Decimal)
		idx.buckets[key] = append(idx.buckets[key], rec)
	}

	return idx
}

// bucketKey rounds an amount to the nearest integer bucket.
func bucketKey(amount decimal.Decimal) int64 {
	return amount.Round(0).IntPart()
}

// Bucket returns the records whose totals round to the same integer as the
// given amount, in original ledger order.
func (idx *LedgerIndex) Bucket(amount decimal.Decimal) []*coerce.Record {
	return idx.buckets[bucketKey(amount)]
}

// Len returns the number of indexed records, including those without a
// parseable total.
func (idx *LedgerIndex) Len() int {
	return len(idx.all)
}

// NumBuckets returns the number of distinct amount buckets.
func (idx *LedgerIndex) NumBuckets() int {
	return len(idx.buckets)
}

// Lookup returns the indexed record with the given id, or nil. Used by the
// output assembler to resolve a decision back to ledger fields.
func (idx *LedgerIndex) Lookup(id int) *coerce.Record {
	for _, rec := range idx.all {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}
