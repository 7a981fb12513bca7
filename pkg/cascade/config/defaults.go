// Package config loads cascade settings from the config file and the
// environment.
package config

// Default configuration values.
const (
	// DefaultRemovalMode deletes extracted archives permanently.
	DefaultRemovalMode = RemovalDelete

	// DefaultOutput is the summary format printed after a run.
	DefaultOutput = "pretty"

	// DefaultLogLevel is the file log level.
	DefaultLogLevel = "info"

	// DefaultLogMaxSize is the size at which the log file rolls over.
	DefaultLogMaxSize = "10MB"

	// DefaultLogMaxBackups is the number of rolled-over log files kept.
	DefaultLogMaxBackups = 5

	// DefaultRetentionDays is how long run history entries are kept.
	DefaultRetentionDays = 30

	// EnvPrefix prefixes environment overrides, e.g. CASCADE_REMOVAL_MODE.
	EnvPrefix = "CASCADE"
)

// Removal modes.
const (
	RemovalDelete = "delete"
	RemovalTrash  = "trash"
)

// Output formats accepted by the output key.
var OutputFormats = []string{"pretty", "json", "yaml"}
