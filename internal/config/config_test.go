package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/campusmatch/campusmatch/pkg/state"
)

// isolate runs the test in an empty directory with no global config.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Precedence(t *testing.T) {
	dir := isolate(t)

	global := GlobalPath()
	require.NoError(t, os.MkdirAll(filepath.Dir(global), 0o755))
	require.NoError(t, os.WriteFile(global, []byte(`
server:
  addr: ":9000"
  shutdown_timeout: 5s
log:
  level: debug
store:
  backend: sqlite
`), 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectPath()), []byte(`
log:
  level: warn
store:
  sqlite:
    path: project.db
`), 0o644))

	t.Setenv("CAMPUSMATCH_STORE_SERIALIZER", "msgpack")
	t.Setenv("CAMPUSMATCH_SERVER_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("CAMPUSMATCH_SERVER_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.String("addr", ":8080", "")
	flags.String("log-level", "info", "")
	require.NoError(t, flags.Parse([]string{"--log-level", "error"}))

	cfg, err := Load(WithFlags(flags))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr, "unset flag must not override the file")
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout.Std())
	assert.Equal(t, "error", cfg.Log.Level, "flag beats project file")
	assert.Equal(t, state.BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, "project.db", cfg.Store.SQLite.Path)
	assert.Equal(t, "msgpack", cfg.Store.Serializer)
	assert.Equal(t, 2.5, cfg.Server.RequestsPerSecond)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "answers", cfg.Store.NATS.Bucket, "untouched keys keep defaults")
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("CAMPUSMATCH_STORE_TTL=720h\nCAMPUSMATCH_LOG_JSON=true\n"), 0o644))
	t.Setenv("CAMPUSMATCH_LOG_JSON", "false")
	// godotenv sets variables with os.Setenv; restore them afterwards.
	t.Setenv("CAMPUSMATCH_STORE_TTL", "")
	require.NoError(t, os.Unsetenv("CAMPUSMATCH_STORE_TTL"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 720*time.Hour, cfg.Store.TTL.Std())
	assert.False(t, cfg.Log.JSON, ".env must not override the environment")
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("transport:\n  codec: msgpack\n"), 0o644))

	cfg, err := Load(WithFile(path))
	require.NoError(t, err)
	assert.Equal(t, "msgpack", cfg.Transport.Codec)

	_, err = Load(WithFile(filepath.Join(dir, "missing.yml")))
	assert.Error(t, err)
}

func TestLoad_BadDuration(t *testing.T) {
	isolate(t)
	t.Setenv("CAMPUSMATCH_SERVER_SHUTDOWN_TIMEOUT", "soon")

	_, err := Load(WithoutFiles())
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad addr", func(c *Config) { c.Server.Addr = "8080" }},
		{"zero shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = 0 }},
		{"negative sessions", func(c *Config) { c.Server.MaxSessions = -1 }},
		{"negative conns per ip", func(c *Config) { c.Server.MaxConnsPerIP = -1 }},
		{"negative rate", func(c *Config) { c.Server.RequestsPerSecond = -0.5 }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad backend", func(c *Config) { c.Store.Backend = "redis" }},
		{"sqlite without path", func(c *Config) { c.Store.Backend = state.BackendSQLite; c.Store.SQLite.Path = "" }},
		{"nats without bucket", func(c *Config) { c.Store.Backend = state.BackendNATS; c.Store.NATS.Bucket = "" }},
		{"bad serializer", func(c *Config) { c.Store.Serializer = "xml" }},
		{"negative ttl", func(c *Config) { c.Store.TTL = Duration(-time.Second) }},
		{"bad codec", func(c *Config) { c.Transport.Codec = "protobuf" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
		})
	}
}

func TestWriteAndReload(t *testing.T) {
	dir := isolate(t)

	cfg := Default()
	cfg.Store.Backend = state.BackendNATS
	cfg.Store.TTL = Duration(90 * time.Minute)

	path := filepath.Join(dir, "nested", "campusmatch.yml")
	require.NoError(t, Write(path, cfg, false))

	err := Write(path, cfg, false)
	assert.True(t, errors.Is(err, fs.ErrExist), "got %v", err)
	require.NoError(t, Write(path, cfg, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))
	assert.Equal(t, "1h30m0s", raw["store"]["ttl"])

	loaded, err := Load(WithFile(path))
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestStoreSettings(t *testing.T) {
	cfg := Default()
	cfg.Store.Backend = state.BackendSQLite
	cfg.Store.TTL = Duration(time.Hour)

	sc := cfg.StateConfig()
	assert.Equal(t, state.BackendSQLite, sc.Backend)
	assert.Equal(t, "campusmatch.db", sc.SQLitePath)
	assert.Equal(t, time.Hour, sc.TTL)

	opts, err := cfg.AnswerStoreOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 3)

	cfg.Store.Serializer = "xml"
	_, err = cfg.AnswerStoreOptions()
	assert.Error(t, err)
}

func TestPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/campusmatch/campusmatch.yml", GlobalPath())
	assert.Equal(t, "campusmatch.yml", ProjectPath())
}

func TestExists(t *testing.T) {
	dir := isolate(t)
	assert.False(t, Exists())

	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectPath()), []byte("log:\n  level: info\n"), 0o644))
	assert.True(t, Exists())
}
