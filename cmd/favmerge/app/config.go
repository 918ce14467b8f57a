package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/favmerge/internal/appcontext"
	"github.com/agentstation/favmerge/internal/config"
	"github.com/agentstation/favmerge/pkg/constants"
	"github.com/agentstation/favmerge/pkg/errors"
)

// EnvPrefix prefixes environment variables read by favmerge.
const EnvPrefix = "FAVMERGE"

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Merge configuration
	Database string
	Store    string
	Resolver string
	Atomic   bool

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (FAVMERGE_DATABASE, FAVMERGE_RESOLVER, ...)
// 3. .env files
// 4. Config file (--config, or ~/.favmerge.yaml / ./.favmerge.yaml)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.SetDefault("database", constants.DatabaseFileName)
	v.SetDefault("resolver", "prompt")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "cannot read "+configFile, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(constants.ConfigFileName)

		// A missing default config file is fine
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.NewConfigError("config", "cannot read "+v.ConfigFileUsed(), err)
			}
		}
	}

	cfg := &Config{
		// Global flags (may be overridden by cobra flags later)
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no-color") || os.Getenv("NO_COLOR") != "",
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		Database: v.GetString("database"),
		Store:    v.GetString("store"),
		Resolver: v.GetString("resolver"),
		Atomic:   v.GetBool("atomic"),

		// Logging configuration; LOG_* without the prefix matches pkg/logging
		LogLevel:  config.GetString(v, "LOG_LEVEL"),
		LogFormat: config.GetStringOrDefault(v, "LOG_FORMAT", "auto"),
		LogOutput: config.GetStringOrDefault(v, "LOG_OUTPUT", "stderr"),
	}

	return cfg, nil
}

// Settings returns the values commands read.
func (c *Config) Settings() appcontext.Settings {
	return appcontext.Settings{
		Format:   c.Format,
		Database: c.Database,
		Store:    c.Store,
		Resolver: c.Resolver,
		Atomic:   c.Atomic,
	}
}

// loadEnvFiles loads environment variables from .env files.
func loadEnvFiles() {
	// .env.local overrides .env
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// configFileFromArgs finds --config in raw arguments so the config file can
// be read before commands are built.
func configFileFromArgs(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		if value, ok := strings.CutPrefix(arg, "--config="); ok {
			return value
		}
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
