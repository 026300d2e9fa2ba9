package aggregation

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/gridsync/engine"
	"github.com/viant/gridsync/errs"
	"github.com/viant/gridsync/field"
)

var testFields = []field.Field{
	{ID: "fldNum", Type: field.Number, CellValueType: field.Numeric, DbFieldType: field.Real, DbFieldName: "num"},
	{ID: "fldTxt", Type: field.SingleLineText, CellValueType: field.String, DbFieldType: field.Text, DbFieldName: "txt"},
	{ID: "fldFlag", Type: field.Checkbox, CellValueType: field.Boolean, DbFieldType: field.Bool, DbFieldName: "flag"},
	{ID: "fldDate", Type: field.Date, CellValueType: field.DateTime, DbFieldType: field.Datetime, DbFieldName: "dt"},
	{ID: "fldTags", Type: field.MultipleSelect, CellValueType: field.String, DbFieldType: field.JSON, DbFieldName: "tags", IsMultipleCellValue: true},
	{ID: "fldFiles", Type: field.Attachment, CellValueType: field.String, DbFieldType: field.JSON, DbFieldName: "files", IsMultipleCellValue: true},
	{ID: "fldOwner", Type: field.User, CellValueType: field.String, DbFieldType: field.JSON, DbFieldName: "owner"},
	{ID: "fldScores", Type: field.Rollup, CellValueType: field.Numeric, DbFieldType: field.JSON, DbFieldName: "scores", IsMultipleCellValue: true, IsLookup: true},
	{ID: "fldDates", Type: field.Date, CellValueType: field.DateTime, DbFieldType: field.JSON, DbFieldName: "dates", IsMultipleCellValue: true, IsLookup: true},
}

func openTable(t *testing.T, rows ...string) *sql.DB {
	t.Helper()
	db, err := engine.Open(engine.SQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE t(__id TEXT PRIMARY KEY, num REAL, txt TEXT, flag INTEGER, dt TEXT, tags TEXT, files TEXT, owner TEXT, scores TEXT, dates TEXT)`)
	require.NoError(t, err)
	for _, row := range rows {
		_, err = db.Exec(`INSERT INTO t VALUES ` + row)
		require.NoError(t, err, row)
	}
	return db
}

// fetchRows runs the query and returns every row keyed by column name.
func fetchRows(t *testing.T, db *sql.DB, query string, args []interface{}) []map[string]interface{} {
	t.Helper()
	rows, err := db.Query(query, args...)
	require.NoError(t, err, query)
	defer rows.Close()
	columns, err := rows.Columns()
	require.NoError(t, err)

	var out []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		require.NoError(t, rows.Scan(ptrs...))
		row := make(map[string]interface{}, len(columns))
		for i, c := range columns {
			row[c] = values[i]
		}
		out = append(out, row)
	}
	require.NoError(t, rows.Err())
	return out
}

func asFloat(t *testing.T, v interface{}) float64 {
	t.Helper()
	switch actual := v.(type) {
	case int64:
		return float64(actual)
	case float64:
		return actual
	}
	t.Fatalf("unexpected value %v (%T)", v, v)
	return 0
}

func TestBuilder_AppendSQLite(t *testing.T) {
	db := openTable(t,
		`('r1', 1, 'a', 1, '2024-01-15 10:00:00', '["x","y"]', '[{"size":10},{"size":5}]', '{"id":"usr1","title":"A"}', '[1,5]', '["2024-01-01"]')`,
		`('r2', 3, 'a', 0, '2024-03-20 09:00:00', '["y"]', NULL, '{"id":"usr1","title":"A2"}', '[7]', NULL)`,
		`('r3', NULL, NULL, NULL, '2024-02-01 00:00:00', NULL, '[{"size":1}]', '{"id":"usr2"}', NULL, '["2023-06-30"]')`,
	)

	reqs := []Request{
		{FieldID: "fldNum", Func: Count},
		{FieldID: "fldNum", Func: Sum},
		{FieldID: "fldNum", Func: Average},
		{FieldID: "fldNum", Func: Empty},
		{FieldID: "fldNum", Func: PercentFilled},
		{FieldID: "fldTxt", Func: Unique},
		{FieldID: "fldFlag", Func: Checked},
		{FieldID: "fldFlag", Func: UnChecked},
		{FieldID: "fldDate", Func: EarliestDate},
		{FieldID: "fldDate", Func: DateRangeOfDays},
		{FieldID: "fldDate", Func: DateRangeOfMonths},
		{FieldID: "fldTags", Func: Unique},
		{FieldID: "fldTags", Func: PercentUnique},
		{FieldID: "fldFiles", Func: TotalAttachmentSize},
		{FieldID: "fldOwner", Func: Unique},
		{FieldID: "fldScores", Func: Sum},
		{FieldID: "fldScores", Func: Max},
		{FieldID: "fldDates", Func: EarliestDate},
		{FieldID: "fldNum", Func: Sum},
	}
	q, err := NewBuilder(engine.SQLite).Append(NewQuery("t"), testFields, reqs, Extra{})
	require.NoError(t, err)
	query, args := q.SQL(engine.SQLite)
	assert.Empty(t, args)
	assert.Equal(t, 1, strings.Count(query, `AS "fldNum_sum"`), "duplicate request must be selected once")

	rows := fetchRows(t, db, query, args)
	require.Len(t, rows, 1)
	row := rows[0]

	expect := map[string]float64{
		"fldNum_count":                 3,
		"fldNum_sum":                   4,
		"fldNum_average":               2,
		"fldNum_empty":                 1,
		"fldTxt_unique":                1,
		"fldFlag_checked":              1,
		"fldFlag_unChecked":            2,
		"fldDate_dateRangeOfDays":      64,
		"fldDate_dateRangeOfMonths":    2,
		"fldTags_unique":               2,
		"fldFiles_totalAttachmentSize": 16,
		"fldOwner_unique":              2,
		"fldScores_sum":                13,
		"fldScores_max":                7,
	}
	for alias, want := range expect {
		assert.Equal(t, want, asFloat(t, row[alias]), alias)
	}
	assert.InDelta(t, 66.67, asFloat(t, row["fldNum_percentFilled"]), 0.01)
	assert.InDelta(t, 66.67, asFloat(t, row["fldTags_percentUnique"]), 0.01)
	assert.Equal(t, "2024-01-15 10:00:00", row["fldDate_earliestDate"])
	assert.Equal(t, "2023-06-30", row["fldDates_earliestDate"])
}

func TestBuilder_PercentOverZeroRows(t *testing.T) {
	db := openTable(t)
	reqs := []Request{
		{FieldID: "fldNum", Func: PercentEmpty},
		{FieldID: "fldNum", Func: PercentFilled},
		{FieldID: "fldTxt", Func: PercentUnique},
		{FieldID: "fldFlag", Func: PercentChecked},
	}
	q, err := NewBuilder(engine.SQLite).Append(NewQuery("t"), testFields, reqs, Extra{})
	require.NoError(t, err)
	query, args := q.SQL(engine.SQLite)
	rows := fetchRows(t, db, query, args)
	require.Len(t, rows, 1)
	for _, req := range reqs {
		assert.Equal(t, float64(0), asFloat(t, rows[0][req.Alias()]), req.Alias())
	}
}

func TestBuilder_WhereAndGroupBy(t *testing.T) {
	db := openTable(t,
		`('r1', 1, 'a', 1, NULL, '["x"]', NULL, NULL, '[1]', NULL)`,
		`('r2', 2, 'b', 1, NULL, '["y","z"]', NULL, NULL, '[100]', NULL)`,
		`('r3', 4, 'a', 0, NULL, '["x","w"]', NULL, NULL, '[5]', NULL)`,
		`('r4', 8, 'b', 0, NULL, '["q"]', NULL, NULL, '[50]', NULL)`,
		`('r5', 16, NULL, 0, NULL, '["k"]', NULL, NULL, '[3]', NULL)`,
	)
	q := NewQuery("t").AndWhere(`"__id" <> ?`, "r4")
	q, err := NewBuilder(engine.SQLite).Append(q, testFields, []Request{
		{FieldID: "fldNum", Func: Sum},
		{FieldID: "fldTags", Func: Unique},
		{FieldID: "fldScores", Func: Sum},
	}, Extra{GroupBy: []string{"fldTxt", "fldMissing"}})
	require.NoError(t, err)

	query, args := q.SQL(engine.SQLite)
	assert.Equal(t, []interface{}{"r4", "r4", "r4"}, args, "CTE arguments precede the base WHERE arguments")
	assert.Contains(t, query, `WITH "fldTags_unique" AS (SELECT "t"."txt" AS "__g0", COUNT(DISTINCT "e"."value") AS "value" FROM "t", json_each("tags") AS "e" WHERE ("__id" <> ?) GROUP BY "t"."txt")`)
	assert.Contains(t, query, `LEFT JOIN "fldTags_unique" ON "fldTags_unique"."__g0" IS "t"."txt"`)
	assert.Contains(t, query, `MAX("fldTags_unique"."value") AS "fldTags_unique"`)
	assert.True(t, strings.HasSuffix(query, `GROUP BY "t"."txt"`), query)

	rows := fetchRows(t, db, query, args)
	require.Len(t, rows, 3)
	byGroup := make(map[string]map[string]interface{}, len(rows))
	for _, row := range rows {
		key, _ := row["txt"].(string)
		byGroup[key] = row
	}
	expect := map[string][3]float64{
		"a": {5, 2, 6},
		"b": {2, 2, 100},
		"":  {16, 1, 3},
	}
	for group, want := range expect {
		row, ok := byGroup[group]
		require.True(t, ok, "group %q", group)
		assert.Equal(t, want[0], asFloat(t, row["fldNum_sum"]), "group %q sum", group)
		assert.Equal(t, want[1], asFloat(t, row["fldTags_unique"]), "group %q tags", group)
		assert.Equal(t, want[2], asFloat(t, row["fldScores_sum"]), "group %q scores", group)
	}

	q, err = NewBuilder(engine.SQLite).Append(NewQuery("t"), testFields, []Request{
		{FieldID: "fldNum", Func: Count},
		{FieldID: "fldTags", Func: Unique},
	}, Extra{GroupBy: []string{"fldMissing"}})
	require.NoError(t, err)
	query, _ = q.SQL(engine.SQLite)
	assert.NotContains(t, query, "GROUP BY")
	assert.Contains(t, query, `LEFT JOIN "fldTags_unique" ON 1 = 1`)

	q, err = NewBuilder(engine.Postgres).Append(NewQuery("t"), testFields, []Request{{FieldID: "fldTags", Func: Unique}}, Extra{GroupBy: []string{"fldTxt"}})
	require.NoError(t, err)
	query, _ = q.SQL(engine.Postgres)
	assert.Contains(t, query, `ON "fldTags_unique"."__g0" IS NOT DISTINCT FROM "t"."txt"`)
}

func TestBuilder_PostgresText(t *testing.T) {
	q := NewQuery("t").AndWhere(`"num" > ?`, 1)
	q, err := NewBuilder(engine.Postgres).Append(q, testFields, []Request{
		{FieldID: "fldNum", Func: PercentEmpty},
		{FieldID: "fldFlag", Func: Checked},
		{FieldID: "fldOwner", Func: Unique},
		{FieldID: "fldTags", Func: Unique},
		{FieldID: "fldFiles", Func: TotalAttachmentSize},
		{FieldID: "fldDate", Func: DateRangeOfMonths},
	}, Extra{})
	require.NoError(t, err)
	query, args := q.SQL(engine.Postgres)

	assert.Equal(t, []interface{}{1, 1, 1}, args)
	assert.Contains(t, query, `((COUNT(*) - COUNT("num")) * 100.0 / GREATEST(COUNT(*), 1)) AS "fldNum_percentEmpty"`)
	assert.Contains(t, query, `COUNT(CASE WHEN "flag" IS TRUE THEN 1 END) AS "fldFlag_checked"`)
	assert.Contains(t, query, `COUNT(DISTINCT ("owner" ->> 'id')) AS "fldOwner_unique"`)
	assert.Contains(t, query, `"fldTags_unique" AS (SELECT COUNT(DISTINCT "e"."value") AS "value" FROM "t", jsonb_array_elements_text(("tags")::jsonb) AS "e" WHERE ("num" > $1))`)
	assert.Contains(t, query, `jsonb_array_elements(("files")::jsonb) AS "e" WHERE ("num" > $2)`)
	assert.Contains(t, query, `AGE(MAX("dt"), MIN("dt"))`)
	assert.True(t, strings.HasSuffix(query, `WHERE ("num" > $3)`), query)
	assert.NotContains(t, query, "?")
}

func TestBuilder_Validation(t *testing.T) {
	b := NewBuilder(engine.SQLite)
	testCases := []struct {
		description string
		req         Request
		contains    []string
	}{
		{description: "sum on text", req: Request{FieldID: "fldTxt", Func: Sum}, contains: []string{"fldTxt", "sum", "allowed", "percentUnique"}},
		{description: "checked on number", req: Request{FieldID: "fldNum", Func: Checked}, contains: []string{"fldNum", "checked"}},
		{description: "date range on multiple dates", req: Request{FieldID: "fldDates", Func: DateRangeOfDays}, contains: []string{"fldDates", "dateRangeOfDays"}},
		{description: "unknown field", req: Request{FieldID: "fldNope", Func: Count}, contains: []string{"fldNope"}},
	}
	for _, testCase := range testCases {
		_, err := b.Append(NewQuery("t"), testFields, []Request{testCase.req}, Extra{})
		require.Error(t, err, testCase.description)
		assert.True(t, errs.Is(err, errs.Validation), testCase.description)
		for _, fragment := range testCase.contains {
			assert.Contains(t, err.Error(), fragment, testCase.description)
		}
	}

	_, err := b.Append(nil, testFields, nil, Extra{})
	assert.True(t, errs.Is(err, errs.Validation))
}

func TestBuilder_AllValidPairs(t *testing.T) {
	for _, d := range []engine.Dialect{engine.Postgres, engine.SQLite} {
		b := NewBuilder(d)
		for _, f := range testFields {
			for _, fn := range ValidFuncs(f) {
				q, err := b.Append(NewQuery("t"), testFields, []Request{{FieldID: f.ID, Func: fn}}, Extra{})
				require.NoError(t, err, "%s %s %s", d, f.ID, fn)
				query, _ := q.SQL(d)
				alias := `AS "` + f.ID + "_" + string(fn) + `"`
				assert.Equal(t, 1, strings.Count(query, alias), "%s %s", d, query)
			}
		}
	}
}

func TestResolve(t *testing.T) {
	var dates field.Field
	for _, f := range testFields {
		if f.ID == "fldDates" {
			dates = f
		}
	}
	set, err := Resolve(engine.Postgres, dates, "t")
	require.NoError(t, err)
	_, err = set.Generate(DateRangeOfDays)
	assert.True(t, errs.Is(err, errs.NotImplemented))
	assert.True(t, set.IsSubquery(EarliestDate))
	assert.False(t, set.IsSubquery(Count))

	_, err = Resolve(engine.Dialect("oracle"), dates, "t")
	assert.True(t, errs.Is(err, errs.NotImplemented))

	assert.Equal(t, CategoryJSON, CategoryOf(testFields[6]))
	assert.Equal(t, CategoryString, CategoryOf(testFields[1]))
	assert.Equal(t, CategoryNumber, CategoryOf(testFields[7]))
}

func TestValidFuncs(t *testing.T) {
	assert.Equal(t, []Func{Count, Checked, UnChecked, PercentChecked, PercentUnChecked}, ValidFuncs(testFields[2]))
	assert.Contains(t, ValidFuncs(testFields[3]), DateRangeOfMonths)
	assert.NotContains(t, ValidFuncs(testFields[8]), DateRangeOfMonths)
	assert.Contains(t, ValidFuncs(testFields[5]), TotalAttachmentSize)
	assert.NotContains(t, ValidFuncs(testFields[5]), Unique)
}
