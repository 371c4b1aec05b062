// Package main hosts the traceloom CLI entrypoint and command graph.
//
// The Cobra-based command tree runs reasoning-trace batches over dataset
// domains, inspects interrupted sessions for anomalies, lists the session
// registry, and scaffolds configuration. It centralizes configuration
// resolution and structured logging setup so subcommands can focus on user
// experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
