// Package textutil provides the text primitives behind title and author
// comparison.
//
// The primary use cases are:
//   - Folding text to lower-case ASCII-comparable form (diacritics removed)
//   - Splitting folded text into token sets
//   - Computing Jaccard similarity between token sets
//
// Domain rules such as noise-word stripping and author canonicalization live
// in the identification package; this package stays language-neutral.
package textutil
