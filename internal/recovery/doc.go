// Package recovery reconciles a progress ledger against its result sink.
//
// After an interrupted run the two artifacts can disagree in exactly two
// interesting ways: the ledger marks an identifier complete that the sink has
// no record for (results lost), or the sink holds a success record the ledger
// never marked (the crash landed between the sink append and the ledger mark).
// Inspect reports both without repairing anything.
package recovery
