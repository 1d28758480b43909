// Package staging reclaims space in the staging directory where acquired
// audio is written before upload. Fetchers remove their own files on
// success; CleanStale sweeps whatever a crash or kill left behind.
package staging
