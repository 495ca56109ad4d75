// Package pipeline sequences the document-to-video phases: parse, image
// extraction, segmentation, scripting, rendering. Every phase transition goes
// through the artifact store: the phase fingerprint is computed from the
// phase's exact inputs, a matching artifact short-circuits execution, and a
// fresh result is published atomically before downstream phases may observe
// it.
//
// Concurrent runs that land on the same (phase, fingerprint) pair share one
// execution: later callers wait on the in-flight computation instead of
// duplicating provider calls. Cancellation is honored only at phase
// boundaries; a phase that has started always runs to completion.
package pipeline
