// Package columns maps raw spreadsheet headers to canonical semantic roles.
//
// Bank statements and accounting ledgers arrive with free-form Spanish
// headers ("Fecha Valor", "Crédito", "Nro. Comprobante"...). The detector
// assigns each canonical role the first header matching one of its patterns,
// trying patterns in priority order. Headers must already be slug-normalized
// (lowercase, accents stripped, non-alphanumerics collapsed to underscores);
// the coerce package owns that normalization.
//
// Detection is a pure function over a static pattern table: no caches, no
// shared state. A role with no matching header is simply absent from the
// resulting RoleMap; detection never fails.
package columns

import "regexp"

// Role is a canonical semantic meaning assigned to a raw column.
type Role string

const (
	RoleDate        Role = "date"
	RoleAmount      Role = "amount"
	RoleDescription Role = "description"
	RoleCredit      Role = "credit"
	RoleDebit       Role = "debit"
	RoleTotal       Role = "total"
	RoleVoucher     Role = "voucher"
)

// RoleMap maps a role to the slug-normalized header detected for it in a
// given table. Roles without a matching header are absent. Built once per
// table and never mutated afterwards.
type RoleMap map[Role]string

// Has reports whether the role was detected.
func (rm RoleMap) Has(role Role) bool {
	_, ok := rm[role]
	return ok
}

// Column returns the header detected for the role, or an empty string.
func (rm RoleMap) Column(role Role) string {
	return rm[role]
}

// Profile selects which roles a detection pass looks for. The statement
// profile deliberately excludes the plain amount role: statement direction
// must be inferable, so only signed credit/debit columns are accepted there.
type Profile struct {
	Name  string
	Roles []Role
}

// StatementProfile detects the columns of a bank statement (extracto).
func StatementProfile() Profile {
	return Profile{
		Name:  "statement",
		Roles: []Role{RoleDate, RoleCredit, RoleDebit, RoleDescription},
	}
}

// LedgerProfile detects the columns of a sales or purchases ledger.
func LedgerProfile() Profile {
	return Profile{
		Name:  "ledger",
		Roles: []Role{RoleDate, RoleTotal, RoleVoucher, RoleDescription},
	}
}

// rolePattern is one entry of the static pattern table. Entries for a role
// are consulted in declaration order; the first pattern with any matching
// header wins, and among headers the leftmost column wins.
type rolePattern struct {
	role    Role
	pattern *regexp.Regexp
}

// patternTable is ordered by priority within each role. Patterns are matched
// against slug-normalized headers, so they only need to handle lowercase
// ASCII and underscores.
var patternTable = []rolePattern{
	// Dates: exact names first, generic substrings last.
	{RoleDate, regexp.MustCompile(`^fecha$`)},
	{RoleDate, regexp.MustCompile(`^fecha_(valor|operacion|mov|movimiento|emision|cbte|comprobante)`)},
	{RoleDate, regexp.MustCompile(`^f_`)},
	{RoleDate, regexp.MustCompile(`fecha`)},
	{RoleDate, regexp.MustCompile(`^dia$`)},
	{RoleDate, regexp.MustCompile(`date`)},

	// Statement credit column.
	{RoleCredit, regexp.MustCompile(`^credito(s)?$`)},
	{RoleCredit, regexp.MustCompile(`^haber$`)},
	{RoleCredit, regexp.MustCompile(`credito`)},
	{RoleCredit, regexp.MustCompile(`deposito`)},
	{RoleCredit, regexp.MustCompile(`ingreso`)},
	{RoleCredit, regexp.MustCompile(`^cr$`)},

	// Statement debit column.
	{RoleDebit, regexp.MustCompile(`^debito(s)?$`)},
	{RoleDebit, regexp.MustCompile(`^debe$`)},
	{RoleDebit, regexp.MustCompile(`debito`)},
	{RoleDebit, regexp.MustCompile(`extraccion`)},
	{RoleDebit, regexp.MustCompile(`egreso`)},
	{RoleDebit, regexp.MustCompile(`retiro`)},
	{RoleDebit, regexp.MustCompile(`^db$`)},

	// Ledger total.
	{RoleTotal, regexp.MustCompile(`^total$`)},
	{RoleTotal, regexp.MustCompile(`^importe_total$`)},
	{RoleTotal, regexp.MustCompile(`^total_`)},
	{RoleTotal, regexp.MustCompile(`total`)},

	// Plain amount (unsigned). Never requested by the statement profile.
	{RoleAmount, regexp.MustCompile(`^importe$`)},
	{RoleAmount, regexp.MustCompile(`^monto$`)},
	{RoleAmount, regexp.MustCompile(`importe`)},
	{RoleAmount, regexp.MustCompile(`monto`)},

	// Voucher / comprobante number.
	{RoleVoucher, regexp.MustCompile(`comprobante`)},
	{RoleVoucher, regexp.MustCompile(`^cbte`)},
	{RoleVoucher, regexp.MustCompile(`^nro_(comp|cbte|factura)`)},
	{RoleVoucher, regexp.MustCompile(`factura`)},
	{RoleVoucher, regexp.MustCompile(`voucher`)},
	{RoleVoucher, regexp.MustCompile(`^numero$`)},

	// Free-text description.
	{RoleDescription, regexp.MustCompile(`^descripcion$`)},
	{RoleDescription, regexp.MustCompile(`^concepto$`)},
	{RoleDescription, regexp.MustCompile(`descripcion`)},
	{RoleDescription, regexp.MustCompile(`concepto`)},
	{RoleDescription, regexp.MustCompile(`detalle`)},
	{RoleDescription, regexp.MustCompile(`leyenda`)},
	{RoleDescription, regexp.MustCompile(`referencia`)},
	{RoleDescription, regexp.MustCompile(`observacion`)},
	{RoleDescription, regexp.MustCompile(`razon_social`)},
	{RoleDescription, regexp.MustCompile(`cliente`)},
	{RoleDescription, regexp.MustCompile(`proveedor`)},
}

// Detect maps slug-normalized headers to the roles requested by the profile.
// For each role, patterns are tried in table order; the first pattern that
// matches any header selects the leftmost matching header. Pattern priority,
// not column position, breaks ambiguity between patterns of the same role.
func Detect(headers []string, profile Profile) RoleMap {
	roles := make(RoleMap)

	for _, role := range profile.Roles {
		if header, ok := detectRole(headers, role); ok {
			roles[role] = header
		}
	}

	return roles
}

func detectRole(headers []string, role Role) (string, bool) {
	for _, entry := range patternTable {
		if entry.role != role {
			continue
		}
		for _, header := range headers {
			if entry.pattern.MatchString(header) {
				return header, true
			}
		}
	}
	return "", false
}
