// Package services defines shared utilities consumed by the workflow and the
// external integrations (audio acquisition, speech-to-text providers).
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent classifications and HTTP status codes.
//
// Use these helpers when wiring new integrations so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
