// Package stanza converts a monolithic Inform 7 style source file into its
// "stanza form" and back.
//
// The Splitter walks the source once and starts a new fragment file at every
// top-level heading (Volume, Book, Part, Chapter, Section by default). Each
// line is encoded so that its semantic line break becomes a visible pilcrow
// marker, tabs move onto their own physical line, and the result is
// word-wrapped for friendlier diffs. A manifest records the fragment order.
// The Combiner reads the manifest, decodes each fragment in that order and
// rebuilds the original file byte for byte.
//
// Both directions report their work as Change values so callers can keep an
// incremental index of the files they track. Failures are tagged with one of
// the sentinel errors in errors.go and should be classified with errors.Is.
package stanza
