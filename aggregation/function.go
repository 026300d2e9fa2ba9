package aggregation

import (
	"strconv"
	"strings"

	"github.com/viant/gridsync/engine"
	"github.com/viant/gridsync/errs"
	"github.com/viant/gridsync/field"
)

// Category is the value category a function set is chosen by.
type Category string

const (
	CategoryBoolean  Category = "boolean"
	CategoryNumber   Category = "number"
	CategoryDateTime Category = "datetime"
	CategoryString   Category = "string"
	// CategoryJSON is a string cell stored in a structured column.
	CategoryJSON Category = "json"
)

var categories = []Category{CategoryBoolean, CategoryNumber, CategoryDateTime, CategoryString, CategoryJSON}

// CategoryOf classifies f: by cell value type first, then string cells by
// their physical storage.
func CategoryOf(f field.Field) Category {
	switch f.CellValueType {
	case field.Boolean:
		return CategoryBoolean
	case field.Numeric:
		return CategoryNumber
	case field.DateTime:
		return CategoryDateTime
	}
	if f.IsStructured() {
		return CategoryJSON
	}
	return CategoryString
}

// Target is what a fragment is generated for.
type Target struct {
	// Table and Column are quoted identifiers.
	Table  string
	Column string
	// Where is empty or a leading " WHERE ..." clause applied by subqueries.
	Where string
	// Group lists qualified group-by columns. Subqueries select them as
	// GroupColumn(i) and aggregate per group.
	Group []string
	Field field.Field
}

// GroupColumn names the i-th group-by column selected by a subquery.
func GroupColumn(i int) string { return "__g" + strconv.Itoa(i) }

// Fragment renders one statistic for a target.
type Fragment func(t Target) (string, error)

// Functions is one variant of the statistic generators. A nil generator
// has no defined semantics for the variant.
type Functions struct {
	Count, Empty, Filled, Unique, Max, Min, Sum, Average           Fragment
	Checked, UnChecked, PercentEmpty, PercentFilled, PercentUnique Fragment
	PercentChecked, PercentUnChecked, EarliestDate, LatestDate     Fragment
	DateRangeOfDays, DateRangeOfMonths, TotalAttachmentSize        Fragment

	// Subqueries marks statistics rendered as complete SELECT statements.
	Subqueries map[Func]bool
}

func (f *Functions) fragment(fn Func) Fragment {
	switch fn {
	case Count:
		return f.Count
	case Empty:
		return f.Empty
	case Filled:
		return f.Filled
	case Unique:
		return f.Unique
	case Max:
		return f.Max
	case Min:
		return f.Min
	case Sum:
		return f.Sum
	case Average:
		return f.Average
	case Checked:
		return f.Checked
	case UnChecked:
		return f.UnChecked
	case PercentEmpty:
		return f.PercentEmpty
	case PercentFilled:
		return f.PercentFilled
	case PercentUnique:
		return f.PercentUnique
	case PercentChecked:
		return f.PercentChecked
	case PercentUnChecked:
		return f.PercentUnChecked
	case EarliestDate:
		return f.EarliestDate
	case LatestDate:
		return f.LatestDate
	case DateRangeOfDays:
		return f.DateRangeOfDays
	case DateRangeOfMonths:
		return f.DateRangeOfMonths
	case TotalAttachmentSize:
		return f.TotalAttachmentSize
	}
	return nil
}

// FunctionSet generates every statistic for one resolved field.
type FunctionSet interface {
	// Generate returns the SQL of fn: an expression, or a SELECT whose single
	// column is "value" when IsSubquery(fn).
	Generate(fn Func) (string, error)
	IsSubquery(fn Func) bool
}

type variantKey struct {
	dialect  engine.Dialect
	category Category
	multiple bool
}

var variants = map[variantKey]Functions{}

func init() {
	for d, g := range grammars {
		for _, c := range categories {
			variants[variantKey{d, c, false}] = single(g, c)
			variants[variantKey{d, c, true}] = multiple(g, c)
		}
	}
}

type resolved struct {
	funcs  Functions
	target Target
	key    variantKey
}

func (r resolved) Generate(fn Func) (string, error) {
	gen := r.funcs.fragment(fn)
	if gen == nil {
		return "", errs.Errorf(errs.NotImplemented, "aggregation: %s is not defined for %s %s values on %s", fn, cardinality(r.key.multiple), r.key.category, r.key.dialect)
	}
	return gen(r.target)
}

func (r resolved) IsSubquery(fn Func) bool { return r.funcs.Subqueries[fn] }

// Resolve returns the function set for f stored in table.
func Resolve(d engine.Dialect, f field.Field, table string) (FunctionSet, error) {
	return resolve(d, f, Target{Table: engine.QuoteIdent(table), Column: engine.QuoteIdent(f.DbFieldName), Field: f})
}

func resolve(d engine.Dialect, f field.Field, target Target) (resolved, error) {
	key := variantKey{dialect: d, category: CategoryOf(f), multiple: f.IsMultipleCellValue}
	funcs, ok := variants[key]
	if !ok {
		return resolved{}, errs.Errorf(errs.NotImplemented, "aggregation: unsupported dialect %q", d)
	}
	return resolved{funcs: funcs, target: target, key: key}, nil
}

func cardinality(multiple bool) string {
	if multiple {
		return "multiple"
	}
	return "single"
}

// grammar holds the dialect-specific SQL pieces the variants are built
// from. Templates use {col}, {tbl} and {where}; subqueries add {group}
// and {groupBy}.
type grammar struct {
	greatest          string
	isTrue            string
	dateRangeOfDays   string
	dateRangeOfMonths string
	jsonID            string
	jsonText          string
	jsonSize          string
	elements          string
	objects           string
	elemNumber        string
	elemDate          string
	elemSize          string
	notDistinct       string
}

var grammars = map[engine.Dialect]grammar{
	engine.Postgres: postgres,
	engine.SQLite:   sqlite,
}

func render(tpl string, t Target) string {
	var group, groupBy string
	if len(t.Group) > 0 {
		selects := make([]string, len(t.Group))
		for i, column := range t.Group {
			selects[i] = column + " AS " + engine.QuoteIdent(GroupColumn(i))
		}
		group = strings.Join(selects, ", ") + ", "
		groupBy = " GROUP BY " + strings.Join(t.Group, ", ")
	}
	return strings.NewReplacer("{col}", t.Column, "{tbl}", t.Table, "{where}", t.Where,
		"{group}", group, "{groupBy}", groupBy).Replace(tpl)
}

func template(tpl string) Fragment {
	return func(t Target) (string, error) { return render(tpl, t), nil }
}

func notImplemented(message string) Fragment {
	return func(t Target) (string, error) {
		return "", errs.Errorf(errs.NotImplemented, "aggregation: %s (field %s)", message, t.Field.ID)
	}
}

func percent(g grammar, numerator string) string {
	return "(" + numerator + " * 100.0 / " + g.greatest + "(COUNT(*), 1))"
}

func single(g grammar, c Category) Functions {
	distinct := "{col}"
	if c == CategoryJSON {
		distinct = g.jsonText
	}
	checked := "COUNT(CASE WHEN " + g.isTrue + " THEN 1 END)"
	f := Functions{
		Count:             template("COUNT(*)"),
		Empty:             template("(COUNT(*) - COUNT({col}))"),
		Filled:            template("COUNT({col})"),
		Unique:            template("COUNT(DISTINCT " + distinct + ")"),
		Max:               template("MAX({col})"),
		Min:               template("MIN({col})"),
		Sum:               template("SUM({col})"),
		Average:           template("AVG({col})"),
		PercentEmpty:      template(percent(g, "(COUNT(*) - COUNT({col}))")),
		PercentFilled:     template(percent(g, "COUNT({col})")),
		PercentUnique:     template(percent(g, "COUNT(DISTINCT "+distinct+")")),
		EarliestDate:      template("MIN({col})"),
		LatestDate:        template("MAX({col})"),
		DateRangeOfDays:   notImplemented("date range requires a datetime field"),
		DateRangeOfMonths: notImplemented("date range requires a datetime field"),
	}
	switch c {
	case CategoryBoolean:
		f.Checked = template(checked)
		f.UnChecked = template("(COUNT(*) - " + checked + ")")
		f.PercentChecked = template(percent(g, checked))
		f.PercentUnChecked = template(percent(g, "(COUNT(*) - "+checked+")"))
	case CategoryDateTime:
		f.DateRangeOfDays = template(g.dateRangeOfDays)
		f.DateRangeOfMonths = template(g.dateRangeOfMonths)
	case CategoryJSON:
		userUnique := "COUNT(DISTINCT " + g.jsonID + ")"
		f.Unique = userAware(f.Unique, template(userUnique))
		f.PercentUnique = userAware(f.PercentUnique, template(percent(g, userUnique)))
		f.TotalAttachmentSize = template("COALESCE(SUM(" + g.jsonSize + "), 0)")
	}
	return f
}

// userAware uses user for user-reference fields, which embed an object
// whose id identifies the value.
func userAware(generic, user Fragment) Fragment {
	return func(t Target) (string, error) {
		if t.Field.IsUserReference() {
			return user(t)
		}
		return generic(t)
	}
}

func multiple(g grammar, c Category) Functions {
	f := single(g, c)
	from := ` FROM {tbl}, ` + g.elements + ` AS "e"{where}{groupBy}`
	sub := func(expr string) Fragment { return template(`SELECT {group}` + expr + ` AS "value"` + from) }

	elem := `"e"."value"`
	f.Unique = sub("COUNT(DISTINCT " + elem + ")")
	f.PercentUnique = sub("(COUNT(DISTINCT " + elem + ") * 100.0 / " + g.greatest + "(COUNT(" + elem + "), 1))")
	f.Max = sub("MAX(" + g.elemNumber + ")")
	f.Min = sub("MIN(" + g.elemNumber + ")")
	f.Sum = sub("SUM(" + g.elemNumber + ")")
	f.Average = sub("AVG(" + g.elemNumber + ")")
	f.EarliestDate = sub("MIN(" + g.elemDate + ")")
	f.LatestDate = sub("MAX(" + g.elemDate + ")")
	f.TotalAttachmentSize = template(`SELECT {group}COALESCE(SUM(` + g.elemSize + `), 0) AS "value" FROM {tbl}, ` + g.objects + ` AS "e"{where}{groupBy}`)
	f.DateRangeOfDays = notImplemented("date range is not supported for multiple values")
	f.DateRangeOfMonths = notImplemented("date range is not supported for multiple values")
	f.Checked, f.UnChecked, f.PercentChecked, f.PercentUnChecked = nil, nil, nil, nil
	f.Subqueries = map[Func]bool{
		Unique: true, PercentUnique: true,
		Max: true, Min: true, Sum: true, Average: true,
		EarliestDate: true, LatestDate: true,
		TotalAttachmentSize: true,
	}
	return f
}
