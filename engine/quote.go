package engine

import (
	"strconv"
	"strings"
)

// QuoteIdent quotes a possibly schema-qualified identifier ("schema.table")
// with double quotes, which both supported dialects accept.
func QuoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

// QuoteLiteral returns SQL string literal with single quotes escaped for safe embedding.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Placeholder returns the n-th (1-based) bind parameter marker.
func (d Dialect) Placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Rebind rewrites '?' markers into the dialect's placeholder style. Markers
// inside single-quoted literals and double-quoted identifiers are left
// untouched.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote == 0 && (c == '\'' || c == '"'):
			quote = c
			sb.WriteByte(c)
		case quote != 0 && c == quote:
			// a doubled quote closes and reopens
			quote = 0
			sb.WriteByte(c)
		case c == '?' && quote == 0:
			n++
			sb.WriteString(d.Placeholder(n))
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// NullText returns a typed NULL usable in UNION branches.
func (d Dialect) NullText() string {
	if d == Postgres {
		return "NULL::text"
	}
	return "NULL"
}
