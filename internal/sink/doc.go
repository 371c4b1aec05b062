// Package sink persists per-item result records incrementally.
//
// The sink is an append-only JSON array on disk. Appends perform a
// read-modify-write under an exclusive cross-process file lock so concurrent
// workers never lose records, and each write lands via write-then-rename so
// the artifact stays parseable between any two appends. Records are terminal:
// appended exactly once per attempt and never mutated.
package sink
