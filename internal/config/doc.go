// Package config loads runtime configuration for the web and API servers from
// a .env file, the process environment, an optional YAML site file and command
// line overrides. Precedence: command line > environment > site file > defaults.
package config
