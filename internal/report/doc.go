// Package report writes and reads the per-run CSV artifacts.
//
// A sync run leaves matched.csv, ambiguous.csv, unmatched.csv and summary.txt
// in its report directory. ambiguous.csv is the hand-off to the resolution
// tool, which reads it back (ReadAmbiguous), can turn it into a mapping
// template (WriteMappingTemplate) and consumes the filled-in mapping
// (ReadMapping).
package report
