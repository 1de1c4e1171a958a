// Package main hosts the resolve-ambiguous entrypoint.
//
// Sync leaves audiobooks with several plausible library records in
// ambiguous.csv. This tool lists them, exports a mapping template, and applies
// human decisions one at a time (resolve) or from an edited mapping file
// (batch-resolve). Each decision links the audiobook to a library record by id
// or exact title, or records it as Audible only with a placeholder. Manual
// links carry no match score.
//
// Rejected entries never stop a batch; the process exits non-zero when any
// entry was rejected.
package main
