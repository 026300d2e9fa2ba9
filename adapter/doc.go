// Package adapter defines the readonly query adapters the synchronization
// service reads through: one per collection kind, each resolving a query to
// ordered document ids and bulk-loading snapshots. Adapters own
// authorization; the caller identity travels explicitly in the context.
// StoreAdapter is a reference implementation over the snapshot cache table.
package adapter
