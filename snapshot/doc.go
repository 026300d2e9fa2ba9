// Package snapshot defines document snapshots and the snapshot cache table.
// A snapshot is derived data: it can always be rebuilt by replaying the
// op-log from version 0 with Apply. Package contents:
//   - Snapshot model and the synthetic version-0 snapshot
//   - Store: SQL-backed snapshot cache
//   - Apply: json0 subset op application
//   - Projection: field filtering with the submit marker
package snapshot
