// Package main hosts the captionize CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the caption server, performs one-shot
// transcriptions that write an SRT file, renders offline word timings into
// SRT, inspects the job database, and scaffolds configuration. Configuration
// resolution and logger setup live in the command context so subcommands can
// focus on output.
//
// Keep this package lean: add functionality to the internal packages first,
// then surface it through dedicated commands or flags here.
package main
