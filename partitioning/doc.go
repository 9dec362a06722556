// Package partitioning assigns appended rows to table partitions.
//
// A Scheme is one of four kinds:
//
//   - Null: a single partition; the continuous fast path that never inspects rows.
//   - RoundRobin: rows are spread cyclically over N partitions.
//   - Range: rows go to the first partition whose upper bound is >= the value of
//     the designated column; values above every bound go to the last partition.
//   - Hash: rows go to xxhash(value) mod N.
//
// For Range and Hash, rows with NULL in the designated column land in partition 0.
//
//	s, err := partitioning.Range(0, []model.Value{model.Int(10), model.Int(20)})
//	p, err := s.Route([]model.Value{model.Int(15)}) // p == 1
package partitioning
