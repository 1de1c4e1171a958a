// Package main hosts the calibre-audible-sync entrypoint and command graph.
//
// The sync command reconciles an Audible library export with a Calibre
// library: confident matches are linked, unmatched audiobooks become
// placeholder records, and ambiguous matches are written to a report for the
// resolve-ambiguous tool. Supporting commands print the custom column schema,
// run readiness checks, browse the run ledger, and scaffold configuration.
//
// Exit codes follow services.ExitCode so scripts can tell a malformed export
// from a missing column or a calibredb failure.
package main
