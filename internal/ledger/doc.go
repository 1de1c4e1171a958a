// Package ledger keeps a SQLite history of sync and resolution runs.
//
// Each run row carries the command, flags and outcome counts; each action row
// records what was done to which library record and why, including manual
// resolutions, which the library itself only marks with an empty score. The
// schema is embedded; when it changes, bump schemaVersion and delete the
// ledger file.
package ledger
