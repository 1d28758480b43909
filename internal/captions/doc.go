// Package captions turns word-level speech-to-text output into subtitle cues.
//
// Segment groups an ordered word stream into numbered captions using a greedy
// word-count and sentence-punctuation rule, FormatTimestamp renders SRT
// timestamps with truncated components, and Serialize emits the final SRT
// document. Everything here is pure and safe for concurrent use; transport,
// persistence, and provider polling live in the workflow and services
// packages.
package captions
