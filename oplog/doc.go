// Package oplog defines the append-only operation log that is the single
// source of truth for document history. Each committed operation is stored
// under (collection, doc_id, version), where version is the document version
// the operation was applied to. Only the synchronization service writes to
// the log; everything else reads it.
package oplog
