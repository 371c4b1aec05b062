// Package logging builds the slog loggers used across traceloom.
//
// It provides a console handler that renders compact key=value lines for
// interactive use, a JSON handler for machine consumption, multi-destination
// output (stdout plus a log file under the configured log directory), and the
// shared field-name constants that keep structured logs queryable.
package logging
