// Package runs names batch executions and remembers them.
//
// A Session derives its identity from a domain label and a start timestamp;
// the identity determines where the run's ledger, sink, and simplified
// projection live, which is the contract that makes resumption possible.
// The SQLite-backed Store is a convenience registry for listing prior runs;
// it never substitutes for the on-disk artifacts.
package runs
