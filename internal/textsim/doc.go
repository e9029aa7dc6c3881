// Package textsim provides the text normalization and similarity primitives used
// by every scorer in the bibliographic matching service.
//
// # Normalization
//
// Normalize lowercases, strips diacritics (NFKD decomposition followed by removal
// of combining marks) and collapses every run of characters outside [a-z0-9] into
// a single space:
//
//	textsim.Normalize("  Machado de Assís! ") // "machado de assis"
//	textsim.Tokenize("Dom Casmurro (1899)")    // ["dom", "casmurro", "1899"]
//
// # Similarity
//
// All similarity functions take raw strings and normalize internally, returning
// values in [0, 1]. SequenceRatio is the Ratcliff/Obershelp ratio computed with
// go-difflib and is symmetric in its arguments. Similarity is the same ratio over
// lowercased but otherwise untouched strings, which the reconciliation ranking
// relies on.
//
// # Thread Safety
//
// Every function in this package is pure and safe for concurrent use.
package textsim
