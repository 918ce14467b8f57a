// Package constants provides shared constants used throughout the favmerge codebase.
// This includes file names, permissions, and formats that should be consistent
// across the library and the CLI.
package constants

import "time"

// File name constants
const (
	// DatabaseFileName is the conventional name of the favorites database export
	DatabaseFileName = "fav_database.json"

	// ConfigFileName is the config file searched in $HOME and the working directory
	ConfigFileName = ".favmerge"
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Format constants
const (
	// TimestampLayout is the layout of user and add timestamps written by the
	// favorites exporter ("%Y-%m-%d %H:%M:%S").
	TimestampLayout = "2006-01-02 15:04:05"

	// JSONIndent is the indentation used when writing JSON datasets
	JSONIndent = "  "
)

// Timeout constants
const (
	// ShutdownTimeout bounds cleanup after a failed command
	ShutdownTimeout = 5 * time.Second
)
