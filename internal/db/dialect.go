package db

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Backend identifies the concrete relational store selected at startup.
type Backend string

const (
	SQLite   Backend = "sqlite"
	Postgres Backend = "postgres"
)

// String implements fmt.Stringer.
func (b Backend) String() string {
	return string(b)
}

// IsValid returns true if the backend is supported.
func (b Backend) IsValid() bool {
	switch b {
	case SQLite, Postgres:
		return true
	default:
		return false
	}
}

// rewritePlaceholders translates the universal `?` marker into the backend's
// native positional-parameter syntax, in strict left-to-right occurrence
// order. SQLite consumes `?` natively; PostgreSQL numbers parameters $1..$n.
// Markers inside single-quoted literals are left untouched.
func (b Backend) rewritePlaceholders(query string) string {
	if b != Postgres || !strings.Contains(query, "?") {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	inLiteral := false
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '\'':
			inLiteral = !inLiteral
			sb.WriteByte(ch)
		case ch == '?' && !inLiteral:
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
		default:
			sb.WriteByte(ch)
		}
	}
	return sb.String()
}

// Row is a field-name-keyed record with backend-independent value types:
// numeric columns surface as numbers, calendar dates as YYYY-MM-DD strings.
type Row map[string]any

// scanRows reads every row of a result set into normalized Row mappings.
func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(values[i], types[i].DatabaseTypeName())
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// normalizeValue coerces driver-specific values into the shared shape both
// backends expose to callers.
func normalizeValue(v any, dbType string) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return normalizeText(string(val), dbType)
	case string:
		return normalizeText(val, dbType)
	case time.Time:
		if strings.EqualFold(dbType, "DATE") {
			return val.Format(dateLayout)
		}
		return val.UTC().Format(time.RFC3339)
	default:
		return val
	}
}

// normalizeText converts textual representations of numeric columns (pgx
// reports NUMERIC values as strings to avoid precision loss) into numbers.
func normalizeText(s, dbType string) any {
	switch strings.ToUpper(dbType) {
	case "NUMERIC", "DECIMAL", "REAL", "FLOAT8", "DOUBLE":
		if d, err := decimal.NewFromString(s); err == nil {
			return d.InexactFloat64()
		}
	}
	return s
}

const dateLayout = "2006-01-02"
