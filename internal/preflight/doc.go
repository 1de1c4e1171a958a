// Package preflight provides readiness checks for the calibredb binary, the
// library and state directories, and the library's custom column schema.
//
// The "check" command prints every result. Sync runs the same checks before
// matching and refuses to start when any of them fails, so a missing column
// is reported before any record is touched.
package preflight
