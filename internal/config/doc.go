// Package config loads, normalizes, and validates Captionize configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ASSEMBLY_AI_API_KEY and RAPID_API_KEY. Provider credentials and staging
// directories live here and are handed to collaborator constructors
// explicitly; no package keeps them in process-wide globals.
package config
