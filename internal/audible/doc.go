// Package audible loads the audiobook ownership export produced by
// `audible-cli library export` into typed records.
//
// Structural problems (missing required columns, ragged rows, empty or
// duplicate ASINs) are reported as feed parse errors before any library work
// starts. Optional values that fail to parse, such as an unreadable runtime or
// date, are left empty and counted as warnings so one bad cell does not block a
// whole run.
package audible
