// Package services defines shared utilities consumed by the pipeline phases
// and external provider integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, phase names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (validation vs provider exhaustion vs cache corruption)
//     consistent across the pipeline.
//
// Use these helpers when wiring new phase logic so operational behaviour
// (error handling, observability, retries) stays uniform across the pipeline.
package services
