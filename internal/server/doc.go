// Package server hosts the long-running captionize process.
//
// A Server holds the single-instance lock, runs the workflow polling loop,
// and serves the HTTP API that submits media, reports job progress, and
// hands out finished SRT documents. Run wires configuration, logging, the
// job store, and signal handling around a Server for the serve command.
package server
