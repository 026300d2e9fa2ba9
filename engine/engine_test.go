package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOpenInMemory verifies that we can open an in-memory SQLite database
// using the modernc.org/sqlite driver and execute a trivial statement.
func TestOpenInMemory(t *testing.T) {
	db, err := Open(SQLite, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("CREATE TABLE t(x INTEGER)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO t(x) VALUES (1),(2),(3)")
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM t").Scan(&n))
	assert.Equal(t, 3, n)
}

func TestOpenRejectsUnknownDialect(t *testing.T) {
	_, err := Open(Dialect("oracle"), "x")
	require.Error(t, err)
}

func TestParseDialect(t *testing.T) {
	for in, want := range map[string]Dialect{
		"postgres":   Postgres,
		"PostgreSQL": Postgres,
		"pg":         Postgres,
		"sqlite3":    SQLite,
		" sqlite ":   SQLite,
	} {
		got, err := ParseDialect(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDialect("mssql")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	q := `SELECT * FROM ops WHERE collection = ? AND note = 'why?' AND version >= ?`
	assert.Equal(t, q, SQLite.Rebind(q))
	assert.Equal(t, `SELECT * FROM ops WHERE collection = $1 AND note = 'why?' AND version >= $2`, Postgres.Rebind(q))

	q = `SELECT COUNT(*) AS "fld?_count", 'it''s?' FROM "a""?b" WHERE "x" = ? AND y = ?`
	assert.Equal(t, `SELECT COUNT(*) AS "fld?_count", 'it''s?' FROM "a""?b" WHERE "x" = $1 AND y = $2`, Postgres.Rebind(q))
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"bse1"."tbl1"`, QuoteIdent("bse1.tbl1"))
	assert.Equal(t, `"a""b"`, QuoteIdent(`a"b`))
	assert.Equal(t, `'it''s'`, QuoteLiteral("it's"))
	assert.Equal(t, "NULL::text", Postgres.NullText())
	assert.Equal(t, "NULL", SQLite.NullText())
}
