// Package propagation builds the recursive SQL that finds every record whose
// computed fields depend on a set of changed records. The caller supplies
// the topological link order (computed elsewhere, assumed acyclic) and the
// seed records; the generated query must run in the same transaction as
// the mutation it propagates from.
//
// Two strategies exist because the backends differ in capability:
// Chained emits one named CTE per hop (affected_records_0..n), each reading
// the previous one; Fixed emits a single WITH RECURSIVE relation whose
// recursive branches all read the same name, for engines that allow only
// one recursive binding per query.
package propagation
