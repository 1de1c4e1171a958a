// Package identification decides which library record, if any, an audiobook
// belongs to.
//
// Titles and author names are canonicalised first (NormalizeTitle,
// CanonicalAuthors), then every eligible library record is scored against the
// audiobook (Score) and the ranked candidates are classified as confident,
// ambiguous or unmatched using a pair of thresholds (Classify). Matcher runs
// the whole pass for a feed, honouring records that already carry an ASIN.
//
// Everything in this package is pure: no I/O, no clocks, and results depend
// only on the inputs and thresholds.
package identification
