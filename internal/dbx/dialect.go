package dbx

import (
	"strconv"
	"strings"
)

// Dialect selects driver name, placeholder style and migration set.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	default:
		return "unknown"
	}
}

// Driver is the database/sql driver name registered for d.
// PostgreSQL goes through pgx's stdlib adapter.
func (d Dialect) Driver() string {
	if d == Postgres {
		return "pgx"
	}
	return "sqlite"
}

// DialectFor picks the dialect from a DSN: postgres:// and postgresql://
// URLs mean PostgreSQL, anything else is a SQLite path or DSN.
func DialectFor(dsn string) Dialect {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return Postgres
	}
	return SQLite
}

// Rebind rewrites "?" placeholders to "$1", "$2"... for PostgreSQL and
// returns the query untouched for SQLite. Queries must not contain a
// literal "?".
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
