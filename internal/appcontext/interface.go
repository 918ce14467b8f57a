// Package appcontext provides the shared application context interface
// used by all commands. Commands depend on this interface rather than the
// concrete App so they can be tested with Mock.
package appcontext

import (
	"github.com/rs/zerolog"
)

// Settings are the configuration values commands read from the app.
// Flags on individual commands override them.
type Settings struct {
	// Format is the report output format (table, json, yaml, wide, markdown).
	Format string

	// Database is the default base dataset path.
	Database string

	// Store forces the store format (json, yaml, sqlite); empty infers it
	// from the file extension.
	Store string

	// Resolver names the default conflict resolver (prompt, base, incoming, abort).
	Resolver string

	// Atomic restores the base dataset when a merge is abandoned.
	Atomic bool
}

// Interface defines the application context interface that commands need.
type Interface interface {
	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// Settings returns the merged configuration values.
	Settings() Settings

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
