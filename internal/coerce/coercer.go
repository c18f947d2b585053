// Package coerce turns raw ingested tables into normalized records ready
// for matching. The coercion pass runs the column detector, parses dates
// and amounts into canonical types, derives the signed direction of
// statement movements, and assigns stable per-table identifiers.
//
// Coercion never rejects a row: a cell that cannot be parsed becomes a null
// date, a null amount or an empty string, and downstream stages degrade
// accordingly. The input table is never mutated.
package coerce

import (
	"strconv"
	"strings"
	"time"

	"github.com/ralborta/cliente-centro-gestion/internal/columns"
	"github.com/ralborta/cliente-centro-gestion/internal/tables"
	"github.com/ralborta/cliente-centro-gestion/pkg/logger"

	"github.com/shopspring/decimal"
)

// Direction classifies a statement movement.
type Direction int

const (
	DirectionUnknown Direction = iota
	DirectionCredit
	DirectionDebit
)

// String returns the string representation of Direction.
func (d Direction) String() string {
	switch d {
	case DirectionCredit:
		return "Credito"
	case DirectionDebit:
		return "Debito"
	default:
		return "Desconocido"
	}
}

// Origin identifies which ledger a record came from.
type Origin string

const (
	OriginSales     Origin = "Ventas"
	OriginPurchases Origin = "Compras"
)

// Record is one coerced table row. Statement records carry Amount as an
// unsigned magnitude plus Direction; ledger records carry the signed total
// in Amount, the voucher number and their Origin. Records are read-only
// once produced by a coercion pass.
type Record struct {
	ID          int
	Date        *time.Time
	Amount      decimal.NullDecimal
	Direction   Direction
	Description string
	Voucher     string
	Origin      Origin
}

// idColumn is the slug of a pre-assigned identifier column. Tables that
// went through a previous coercion ("__id__" in exported sheets) keep their
// ids so reprocessing an output file never reassigns them.
const idColumn = "id"

// CoerceStatement coerces a bank statement table using the statement
// profile.
func CoerceStatement(table *tables.RawTable) ([]*Record, columns.RoleMap) {
	return coerce(table, columns.StatementProfile(), "")
}

// CoerceLedger coerces a sales or purchases ledger table using the ledger
// profile and tags every record with its origin.
func CoerceLedger(table *tables.RawTable, origin Origin) ([]*Record, columns.RoleMap) {
	return coerce(table, columns.LedgerProfile(), origin)
}

func coerce(table *tables.RawTable, profile columns.Profile, origin Origin) ([]*Record, columns.RoleMap) {
	log := logger.WithComponent("coerce").WithField("profile", profile.Name)

	slugged, slugByOriginal := slugHeaders(table.Headers)
	roles := columns.Detect(slugged, profile)

	log.WithFields(logger.Fields{
		"headers": len(table.Headers),
		"rows":    table.NumRows(),
		"roles":   len(roles),
	}).Debug("Coercing table")

	for _, role := range profile.Roles {
		if !roles.Has(role) {
			log.WithField("role", string(role)).Warn("Column not detected; dependent stages will degrade")
		}
	}

	presetIDs := existingIDs(table, slugByOriginal)

	records := make([]*Record, 0, table.NumRows())
	for i := range table.Rows {
		if table.HasBlankRow(i) {
			continue
		}

		rec := &Record{Origin: origin}

		if presetIDs != nil {
			rec.ID = presetIDs[i]
		} else {
			rec.ID = len(records) + 1
		}

		rec.Date = ParseDate(cellForRole(table, slugByOriginal, roles, i, columns.RoleDate))
		rec.Description = CleanText(cellForRole(table, slugByOriginal, roles, i, columns.RoleDescription))

		if profile.Name == columns.StatementProfile().Name {
			coerceStatementAmount(table, slugByOriginal, roles, i, rec, log)
		} else {
			rec.Amount = ParseAmount(cellForRole(table, slugByOriginal, roles, i, columns.RoleTotal))
			rec.Voucher = CleanText(cellForRole(table, slugByOriginal, roles, i, columns.RoleVoucher))
		}

		records = append(records, rec)
	}

	return records, roles
}

// coerceStatementAmount derives the unsigned magnitude and direction from
// the credit/debit pair. Credit wins when both cells are non-zero; that
// almost certainly means malformed input, so it is logged rather than
// silently absorbed.
func coerceStatementAmount(table *tables.RawTable, slugs map[string]string, roles columns.RoleMap, rowIdx int, rec *Record, log logger.Logger) {
	credit := ParseAmount(cellForRole(table, slugs, roles, rowIdx, columns.RoleCredit))
	debit := ParseAmount(cellForRole(table, slugs, roles, rowIdx, columns.RoleDebit))

	creditSet := credit.Valid && !credit.Decimal.IsZero()
	debitSet := debit.Valid && !debit.Decimal.IsZero()

	switch {
	case creditSet && debitSet:
		log.WithField("row_id", rec.ID).Warn("Both credit and debit are non-zero; taking credit")
		rec.Amount = decimal.NewNullDecimal(credit.Decimal.Abs())
		rec.Direction = DirectionCredit
	case creditSet:
		rec.Amount = decimal.NewNullDecimal(credit.Decimal.Abs())
		rec.Direction = DirectionCredit
	case debitSet:
		rec.Amount = decimal.NewNullDecimal(debit.Decimal.Abs())
		rec.Direction = DirectionDebit
	case credit.Valid || debit.Valid:
		// Parseable zeros on both sides: a zero-amount movement.
		rec.Amount = decimal.NewNullDecimal(decimal.Zero)
		rec.Direction = DirectionUnknown
	default:
		rec.Amount = decimal.NullDecimal{}
		rec.Direction = DirectionUnknown
	}
}

// slugHeaders returns the slug-normalized header list plus the original ->
// slug mapping used to read cells by role.
func slugHeaders(headers []string) ([]string, map[string]string) {
	slugged := make([]string, len(headers))
	byOriginal := make(map[string]string, len(headers))
	for i, h := range headers {
		slugged[i] = Slug(h)
		byOriginal[h] = slugged[i]
	}
	return slugged, byOriginal
}

// cellForRole reads the raw cell backing a detected role for the given row.
func cellForRole(table *tables.RawTable, slugs map[string]string, roles columns.RoleMap, rowIdx int, role columns.Role) string {
	target := roles.Column(role)
	if target == "" {
		return ""
	}
	for _, original := range table.Headers {
		if slugs[original] == target {
			return table.Cell(rowIdx, original)
		}
	}
	return ""
}

// existingIDs returns per-row identifiers when the table already carries a
// valid id column: every non-blank row holds a unique positive integer.
// Returns nil when ids must be assigned fresh.
func existingIDs(table *tables.RawTable, slugs map[string]string) map[int]int {
	var idHeader string
	for _, original := range table.Headers {
		if slugs[original] == idColumn {
			idHeader = original
			break
		}
	}
	if idHeader == "" {
		return nil
	}

	ids := make(map[int]int, table.NumRows())
	seen := make(map[int]bool, table.NumRows())
	for i := range table.Rows {
		if table.HasBlankRow(i) {
			continue
		}
		raw := strings.TrimSpace(table.Cell(i, idHeader))
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 || seen[id] {
			return nil
		}
		seen[id] = true
		ids[i] = id
	}

	if len(ids) == 0 {
		return nil
	}
	return ids
}
