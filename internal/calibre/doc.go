// Package calibre reads and writes the e-book library through the calibredb
// command line tool.
//
// Records carry the audiobook annotation columns (audible_asin, format_status,
// and friends) next to the core title/author fields. Writes are expressed as
// typed Patch values so only the columns a caller intends to change are sent.
// The Store interface is the seam the reconciliation and resolution packages
// depend on; Client is the production implementation and an in-memory store in
// testsupport backs the tests.
//
// The library must not be modified by other tools while a run is in progress.
// Nothing here enforces that.
package calibre
