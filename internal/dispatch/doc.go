// Package dispatch executes batches of work items on a bounded worker pool
// with crash-safe accounting.
//
// The dispatcher owns the completion sequence for every item: the terminal
// record is appended to the result sink first, and only then is a successful
// item marked complete in the progress ledger. A crash between the two
// leaves a success record without a ledger entry, which resumption resolves
// by retrying the item; the reverse ordering could silently lose results.
// Error outcomes are recorded but never marked, so interrupted and failed
// items are always retried on resume.
package dispatch
