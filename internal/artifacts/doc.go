// Package artifacts implements the content-addressed cache behind the
// pipeline orchestrator.
//
// Every phase output is persisted as an immutable artifact keyed by (phase,
// fingerprint). Payloads live on disk under the cache root; a SQLite index
// records metadata. Publication is atomic: payloads are written to a staging
// path, fsynced, and renamed into place before the index row appears, so no
// reader ever observes a partial artifact. A changed fingerprint always
// creates a new artifact; nothing is ever overwritten in place.
//
// Cross-process exclusivity is per fingerprint, via flock lease files. There
// is no global lock, so unrelated fingerprints never contend.
package artifacts
