package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(c *Config) *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringP("config", "c", "", "Configuration file to read from.")
	c.BindFlags(flags)
	return flags
}

func TestLoad_Priority(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gridsync.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
driver = "postgres"
dsn = "postgres://file"
submit-timeout = "3s"
subscriber-buffer = 8
`), 0o600))
	t.Setenv("GRIDSYNC_DSN", "postgres://env")

	c := New()
	flags := newFlags(c)
	require.NoError(t, flags.Parse([]string{"--config", path, "--max-open-conns", "5"}))
	require.NoError(t, Load(viper.New(), flags))

	assert.Equal(t, "postgres", c.Driver, "file")
	assert.Equal(t, "postgres://env", c.DSN, "env beats file")
	assert.Equal(t, 5, c.MaxOpenConns, "flag")
	assert.Equal(t, 3*time.Second, c.SubmitTimeout)
	assert.Equal(t, 8, c.SubscriberBuffer)
	assert.Equal(t, "info", c.LogLevel, "default")
	require.NoError(t, c.Validate())

	sync := c.Sync()
	assert.Equal(t, "postgres", sync.Driver)
	assert.Equal(t, 8, sync.SubscriberBuffer)
}

func TestLoad_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte(`nope = 1`), 0o600))

	c := New()
	flags := newFlags(c)
	require.NoError(t, flags.Parse([]string{"-c", path}))
	err := Load(viper.New(), flags)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid option in configuration file: nope")
}

func TestValidate(t *testing.T) {
	c := New()
	require.NoError(t, c.Validate())

	c.Driver = "oracle"
	assert.Error(t, c.Validate())

	c = New()
	c.DSN = ""
	assert.Error(t, c.Validate())

	c = New()
	c.SubmitTimeout = -time.Second
	assert.Error(t, c.Validate())
}

func TestLogger(t *testing.T) {
	c := New()
	logger, flush, err := c.Logger()
	require.NoError(t, err)
	defer flush()
	assert.True(t, logger.Enabled())
	assert.False(t, logger.V(1).Enabled(), "debug is off at info level")

	c.LogLevel = "debug"
	c.LogFormat = "json"
	logger, flush2, err := c.Logger()
	require.NoError(t, err)
	defer flush2()
	assert.True(t, logger.V(1).Enabled())

	c.LogLevel = "loud"
	_, _, err = c.Logger()
	assert.Error(t, err)
}
