// Package config holds the gridsync process configuration. Every option is
// a command line flag; Load fills unset flags from GRIDSYNC_* environment
// variables and an optional TOML file, in that priority order.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/viant/gridsync/docsync"
	"github.com/viant/gridsync/engine"
	"github.com/viant/gridsync/errs"
)

// EnvPrefix prefixes environment variable names.
const EnvPrefix = "GRIDSYNC"

// Config is the process configuration.
type Config struct {
	Driver        string
	DSN           string
	MaxOpenConns  int
	SubmitTimeout time.Duration

	OpsTable         string
	SnapshotTable    string
	SubscriberBuffer int
	FetchConcurrency int
	Migrate          bool

	// Routes names a JSON file of propagation routes keyed by table id.
	// Without it submits propagate nothing.
	Routes     string
	DirtyTable string

	LogLevel   string
	LogFormat  string
	ListenAddr string
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		Driver:        string(engine.SQLite),
		DSN:           "gridsync.db",
		SubmitTimeout: 10 * time.Second,
		LogLevel:      "info",
		LogFormat:     "console",
		ListenAddr:    ":8080",
	}
}

// BindFlags registers every option on flags, backed by c's fields.
func (c *Config) BindFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.Driver, "driver", c.Driver, "Database backend: postgres or sqlite.")
	flags.StringVar(&c.DSN, "dsn", c.DSN, "Database connection string or SQLite path.")
	flags.IntVar(&c.MaxOpenConns, "max-open-conns", c.MaxOpenConns, "Maximum open database connections (0 = driver default).")
	flags.DurationVar(&c.SubmitTimeout, "submit-timeout", c.SubmitTimeout, "Upper bound of a single submit including lock wait.")
	flags.StringVar(&c.OpsTable, "ops-table", c.OpsTable, "Op-log table name.")
	flags.StringVar(&c.SnapshotTable, "snapshot-table", c.SnapshotTable, "Snapshot cache table name.")
	flags.IntVar(&c.SubscriberBuffer, "subscriber-buffer", c.SubscriberBuffer, "Events buffered per subscription before it is dropped.")
	flags.IntVar(&c.FetchConcurrency, "fetch-concurrency", c.FetchConcurrency, "Collections fetched concurrently by bulk fetches.")
	flags.BoolVar(&c.Migrate, "migrate", c.Migrate, "Create the op-log, snapshot and dirty-record tables on start.")
	flags.StringVar(&c.Routes, "routes", c.Routes, "JSON file of propagation routes keyed by table id.")
	flags.StringVar(&c.DirtyTable, "dirty-table", c.DirtyTable, "Table queueing records affected by propagation.")
	flags.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn or error.")
	flags.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log encoding: console or json.")
	flags.StringVar(&c.ListenAddr, "listen-addr", c.ListenAddr, "Address the serve command listens on.")
}

// Validate checks option values.
func (c *Config) Validate() error {
	if _, err := engine.ParseDialect(c.Driver); err != nil {
		return err
	}
	if c.DSN == "" {
		return errs.New(errs.Validation, "config: dsn is required")
	}
	if c.MaxOpenConns < 0 || c.SubscriberBuffer < 0 || c.FetchConcurrency < 0 {
		return errs.New(errs.Validation, "config: connection, buffer and concurrency limits must not be negative")
	}
	if c.SubmitTimeout < 0 {
		return errs.New(errs.Validation, "config: submit-timeout must not be negative")
	}
	return nil
}

// Sync returns the synchronization service configuration.
func (c *Config) Sync() docsync.Config {
	return docsync.Config{
		Driver:           c.Driver,
		DSN:              c.DSN,
		MaxOpenConns:     c.MaxOpenConns,
		SubmitTimeout:    c.SubmitTimeout,
		OpsTable:         c.OpsTable,
		SnapshotTable:    c.SnapshotTable,
		SubscriberBuffer: c.SubscriberBuffer,
		FetchConcurrency: c.FetchConcurrency,
		Migrate:          c.Migrate,
	}
}

// Load takes flags as the definition of all configuration options and
// their defaults, then applies values from the command line, the
// environment and the config file named by the "config" flag, in that
// priority order. Environment variables are the upper-cased flag names with
// dashes replaced by underscores, prefixed with EnvPrefix and an
// underscore. Unknown keys in the config file are an error.
func Load(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return err
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	validKeys := make(map[string]bool)
	flags.VisitAll(func(f *pflag.Flag) {
		validKeys[f.Name] = true
	})

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading configuration file '%s': %v", path, err)
		}
		for _, key := range v.AllKeys() {
			if !validKeys[key] {
				return fmt.Errorf("invalid option in configuration file: %v", key)
			}
		}
	}

	var flagErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if flagErr != nil || f.Changed {
			// command line values win and are already set
			return
		}
		var value string
		if f.Value.Type() == "stringSlice" {
			value = strings.Join(v.GetStringSlice(f.Name), ",")
		} else {
			value = v.GetString(f.Name)
		}
		flagErr = f.Value.Set(value)
	})
	return flagErr
}
