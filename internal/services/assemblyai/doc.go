// Package assemblyai talks to the AssemblyAI speech-to-text REST API.
//
// The client uploads local audio, submits transcription requests, polls their
// status, and converts the provider's millisecond word timings into the
// second-based words the captions package consumes. Transient HTTP failures
// are retried with exponential backoff.
package assemblyai
