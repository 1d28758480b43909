// Package workflow drives transcription jobs from submission to finished
// captions.
//
// The Manager fetches audio through an acquire.Fetcher, hands it to the
// speech-to-text provider, and records a processing job in the jobs store.
// Refresh polls the provider once for a job: progress is mapped from the
// provider state and, on completion, the word stream runs through the caption
// Segmenter and Serializer before the captions and SRT document are persisted.
//
// A background loop started with Start refreshes every active job on the
// configured queue poll interval and fails jobs that exceed the job timeout.
// Wait blocks until a single job reaches a terminal state and backs the CLI's
// synchronous transcribe command.
package workflow
