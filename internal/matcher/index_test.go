package matcher

import (
	"testing"
	"time"

	"github.com/ralborta/cliente-centro-gestion/internal/coerce"

	"github.com/shopspring/decimal"
)

// ledgerRecord builds a ledger record for tests. amount and date may be
// empty.
func ledgerRecord(id int, desc, amount, date string) *coerce.Record {
	rec := &coerce.Record{
		ID:          id,
		Description: desc,
		Origin:      coerce.OriginSales,
	}
	if amount != "" {
		d, err := decimal.NewFromString(amount)
		if err != nil {
			panic(err)
		}
		rec.Amount = decimal.NewNullDecimal(d)
	}
	if date != "" {
		t, err := time.Parse("2006-01-02", date)
		if err != nil {
			panic(err)
		}
		rec.Date = &t
	}
	return rec
}

func statementRecord(id int, desc, amount, date string, dir coerce.Direction) *coerce.Record {
	rec := ledgerRecord(id, desc, amount, date)
	rec.Origin = ""
	rec.Direction = dir
	rec.Voucher = ""
	return rec
}

func TestNewLedgerIndexBuckets(t *testing.T) {
	records := []*coerce.Record{
		ledgerRecord(1, "a", "100.20", ""),
		ledgerRecord(2, "b", "99.80", ""), // rounds to 100
		ledgerRecord(3, "c", "250.00", ""),
		ledgerRecord(4, "d", "", ""), // no parseable total
	}

	idx := NewLedgerIndex(records, coerce.OriginSales)

	if idx.Len() != 4 {
		t.Errorf("Expected 4 records indexed, got %d", idx.Len())
	}
	if idx.NumBuckets() != 2 {
		t.Errorf("Expected 2 buckets, got %d", idx.NumBuckets())
	}

	bucket := idx.Bucket(decimal.NewFromFloat(100.10))
	if len(bucket) != 2 {
		t.Fatalf("Expected 2 records in bucket 100, got %d", len(bucket))
	}
	if bucket[0].ID != 1 || bucket[1].ID != 2 {
		t.Errorf("Expected insertion order [1 2], got [%d %d]", bucket[0].ID, bucket[1].ID)
	}
}

func TestBucketMissForDistantAmount(t *testing.T) {
	idx := NewLedgerIndex([]*coerce.Record{ledgerRecord(1, "a", "100", "")}, coerce.OriginSales)

	if got := idx.Bucket(decimal.NewFromInt(200)); got != nil {
		t.Errorf("Expected empty bucket, got %d records", len(got))
	}
}

func TestLookup(t *testing.T) {
	idx := NewLedgerIndex([]*coerce.Record{
		ledgerRecord(1, "a", "100", ""),
		ledgerRecord(2, "b", "200", ""),
	}, coerce.OriginSales)

	if rec := idx.Lookup(2); rec == nil || rec.Description != "b" {
		t.Errorf("Expected record b, got %v", rec)
	}
	if rec := idx.Lookup(99); rec != nil {
		t.Errorf("Expected nil for unknown id, got %v", rec)
	}
}
