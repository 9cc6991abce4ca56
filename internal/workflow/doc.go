// Package workflow runs extract and combine for configured documents.
//
// The Runner wraps the stanza Splitter and Combiner with the bookkeeping a
// real invocation needs: a per-destination lock so two processes never write
// the same stanza directory, a prior snapshot taken from the sync index (or
// the manifest already on disk) for removed-fragment detection, run history,
// and optional pruning of fragments that a new heading layout left behind.
// Watch re-runs extraction whenever a source file settles after a change.
package workflow
