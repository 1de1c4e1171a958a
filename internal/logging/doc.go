// Package logging assembles structured slog loggers and formatting helpers used
// by both command line tools.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so pipeline code can tag log lines with run
// IDs, stages, and ASINs. The package also provides a no-op logger for tests.
package logging
