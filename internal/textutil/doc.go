// Package textutil provides token-based text fingerprinting and similarity.
//
// Fingerprints are term-frequency vectors over lowercased alphanumeric
// tokens. They are used to spot near-duplicate documents: a re-scan of an
// already filed document produces different bytes but nearly identical
// extracted text.
package textutil
