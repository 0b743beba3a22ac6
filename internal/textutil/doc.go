// Package textutil provides text processing utilities for name folding,
// token fingerprints, and similarity scoring.
//
// The primary use cases are:
//   - Folding food names so case, accents, and punctuation do not affect comparison
//   - Computing edit-distance similarity between folded names for duplicate detection
//   - Creating token fingerprints and cosine similarity for ranking reference candidates
//
// Folding decomposes text (NFKD), strips combining marks, case-folds, and
// collapses punctuation and whitespace into single spaces.
package textutil
