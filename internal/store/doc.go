// Package store provides SQLite-backed storage for baked animation samples.
//
// A bake run records one evaluation of a scene over a frame range:
//   - bake_runs: run identity, scene content hash, frame range, the hash of
//     the sample set
//   - samples: one row per (frame, entity, path, index) value
//
// # Ordering
//
// Runs are ordered by seq, a logical counter assigned on insert, never by
// wall time. Sample reads use ORDER BY frame, entity, path, idx with BINARY
// collation so repeated reads return identical slices.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Writes are idempotent: re-inserting a run or sample with the same key is
// a no-op.
package store
