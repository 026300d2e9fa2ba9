package aggregation

import (
	"strings"

	"github.com/viant/gridsync/field"
)

// Func is a statistic function name.
type Func string

const (
	Count               Func = "count"
	Empty               Func = "empty"
	Filled              Func = "filled"
	Unique              Func = "unique"
	Max                 Func = "max"
	Min                 Func = "min"
	Sum                 Func = "sum"
	Average             Func = "average"
	Checked             Func = "checked"
	UnChecked           Func = "unChecked"
	PercentEmpty        Func = "percentEmpty"
	PercentFilled       Func = "percentFilled"
	PercentUnique       Func = "percentUnique"
	PercentChecked      Func = "percentChecked"
	PercentUnChecked    Func = "percentUnChecked"
	EarliestDate        Func = "earliestDate"
	LatestDate          Func = "latestDate"
	DateRangeOfDays     Func = "dateRangeOfDays"
	DateRangeOfMonths   Func = "dateRangeOfMonths"
	TotalAttachmentSize Func = "totalAttachmentSize"
)

// Funcs lists every statistic.
var Funcs = []Func{
	Count, Empty, Filled, Unique, Max, Min, Sum, Average,
	Checked, UnChecked, PercentEmpty, PercentFilled, PercentUnique,
	PercentChecked, PercentUnChecked, EarliestDate, LatestDate,
	DateRangeOfDays, DateRangeOfMonths, TotalAttachmentSize,
}

var common = []Func{Count, Empty, Filled, Unique, PercentEmpty, PercentFilled, PercentUnique}

// ValidFuncs returns the statistics legal for f.
func ValidFuncs(f field.Field) []Func {
	if f.Type == field.Attachment {
		return []Func{Count, Empty, Filled, PercentEmpty, PercentFilled, TotalAttachmentSize}
	}
	switch f.CellValueType {
	case field.Boolean:
		if !f.IsMultipleCellValue {
			return []Func{Count, Checked, UnChecked, PercentChecked, PercentUnChecked}
		}
	case field.Numeric:
		return append(append([]Func{}, common...), Max, Min, Sum, Average)
	case field.DateTime:
		funcs := append(append([]Func{}, common...), EarliestDate, LatestDate)
		if !f.IsMultipleCellValue {
			funcs = append(funcs, DateRangeOfDays, DateRangeOfMonths)
		}
		return funcs
	}
	return append([]Func{}, common...)
}

func isValid(f field.Field, fn Func) bool {
	for _, candidate := range ValidFuncs(f) {
		if candidate == fn {
			return true
		}
	}
	return false
}

func joinFuncs(funcs []Func) string {
	names := make([]string, len(funcs))
	for i, fn := range funcs {
		names[i] = string(fn)
	}
	return strings.Join(names, ", ")
}
