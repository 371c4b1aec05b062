// Package ledger persists the set of completed work-item identifiers for a
// run session.
//
// The ledger is the resumption source of truth: an identifier appears here
// only after its result record has been durably appended to the sink. Every
// mark rewrites the full JSON document via write-then-rename, so a crash
// between marks never leaves an unparseable ledger behind.
package ledger
