// Package docsync implements the document synchronization service: the
// single write path for per-entity documents and the query, poll, snapshot
// and op-log reads that real-time transports build on.
//
// Every document, identified by (collection kind, parent id, document id),
// has an append-only op log and a derived snapshot cache. Submit serializes
// mutations per document with an in-process keyed lock backed by the op-log
// primary key, rejects ops against stale versions, runs transaction hooks
// (such as dependent record propagation) inside the same transaction, and
// publishes committed ops to subscribers.
//
// Reads go through the readonly adapter registered for the collection kind.
// Ids the adapter does not know are served as version 0 snapshots so that
// first-time subscribers create rather than update.
package docsync
