// Package textutil provides the text primitives the consensus engine is built
// on: comparable normalization, token and sequence similarity, duration
// proximity tiers, and stable track fingerprints.
//
// Normalization lowercases, folds diacritics, and strips punctuation so that
// catalog spellings ("Kase.O", "KASE O", "Kasé O") compare equal. Similarity
// blends token overlap with a character-sequence ratio; both operate on the
// normalized forms.
package textutil
