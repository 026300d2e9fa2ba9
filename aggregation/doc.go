// Package aggregation generates SQL for column statistics (count, unique,
// sum, percent filled, date range, attachment size, ...).
//
// Resolve picks the function set for a field from a lookup table keyed by
// dialect, value category and cardinality. Single-valued statistics are
// plain SQL expressions; several multi-valued ones are complete
// SELECT ... AS "value" subqueries over the expanded array, which Builder
// materializes as CTEs joined back onto the base query.
package aggregation
