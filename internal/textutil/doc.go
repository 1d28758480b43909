// Package textutil provides filename helpers for caption downloads and
// staged uploads.
package textutil
