// Package preflight provides readiness checks for the external services,
// binaries, and filesystem paths that captionize depends on.
//
// The CLI "captionize preflight" command runs every check and reports each
// result; the server logs the same dependency snapshot at startup. Checks
// that only apply to one acquisition method are skipped for the other.
package preflight
