// Package config loads the settings of a datascript run from a YAML file,
// DATASCRIPT_* environment variables and command line flags.
package config
