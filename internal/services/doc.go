// Package services defines shared utilities consumed by the reconciliation
// pipeline and the library store client.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and ASINs for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent process exit codes.
//
// Use these helpers when wiring new pipeline logic so error handling and
// observability stay uniform across both command line tools.
package services
