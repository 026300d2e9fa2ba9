// Package engine provides helpers for working with the relational backends
// supported by this module: opening connection pools for the standard
// (postgres) and embedded (modernc.org/sqlite) engines, naming the active
// Dialect, and quoting identifiers and literals for generated SQL. It
// intentionally keeps a thin surface so other packages share the same driver
// registration.
package engine
