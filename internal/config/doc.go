// Package config loads and merges the liims client configuration from
// environment variables, command-line flags, and built-in defaults, in that
// order of precedence. The merged [StructuredConfig] is projected into the
// runtime-specific [ClientConfig] view consumed by the rest of the client.
package config
