// Package api defines transport-friendly views of jobs, captions, and
// server status shared by the HTTP server and the CLI.
//
// Conversions from store and workflow types live here so every surface
// renders the same field names and timestamp formats.
package api
