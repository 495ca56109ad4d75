// Package segment turns parsed document structure and labeled images into a
// narrative outline. A reasoning provider proposes an ordered partition of the
// section tree; the engine validates it, repairs out-of-bound segment counts
// deterministically, and runs a scored matching pass that binds each segment
// to document images, stock images, or a generated placeholder.
//
// Everything after the proposal call is pure computation: repair and matching
// never reorder sections, never randomize, and produce identical outlines for
// identical inputs.
package segment
