// Package config loads the campusmatch configuration with viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/campusmatch/campusmatch/pkg/logging"
	"github.com/campusmatch/campusmatch/pkg/state"
)

// EnvPrefix prefixes every environment override, e.g. CAMPUSMATCH_STORE_BACKEND.
const EnvPrefix = "CAMPUSMATCH"

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all configuration values for campusmatch.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Store     StoreConfig     `mapstructure:"store" yaml:"store"`
	Transport TransportConfig `mapstructure:"transport" yaml:"transport"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
	// Dev disables the WebSocket origin check and HSTS.
	Dev             bool     `mapstructure:"dev" yaml:"dev"`
	AllowedOrigins  []string `mapstructure:"allowed_origins" yaml:"allowed_origins,omitempty"`
	ShutdownTimeout Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	MaxSessions     int      `mapstructure:"max_sessions" yaml:"max_sessions"`
	// MaxConnsPerIP caps open live connections per client. Zero disables.
	MaxConnsPerIP int `mapstructure:"max_conns_per_ip" yaml:"max_conns_per_ip"`
	// RequestsPerSecond limits page loads per client. Zero disables.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	// TrustProxy keys the limits by X-Forwarded-For instead of the peer.
	TrustProxy bool `mapstructure:"trust_proxy" yaml:"trust_proxy"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	JSON  bool   `mapstructure:"json" yaml:"json"`
}

// StoreConfig selects where answers are saved.
type StoreConfig struct {
	Backend    string       `mapstructure:"backend" yaml:"backend"`
	Serializer string       `mapstructure:"serializer" yaml:"serializer"`
	KeyPrefix  string       `mapstructure:"key_prefix" yaml:"key_prefix"`
	TTL        Duration     `mapstructure:"ttl" yaml:"ttl"`
	SQLite     SQLiteConfig `mapstructure:"sqlite" yaml:"sqlite"`
	NATS       NATSConfig   `mapstructure:"nats" yaml:"nats"`
}

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// NATSConfig configures the embedded NATS backend.
type NATSConfig struct {
	Dir    string `mapstructure:"dir" yaml:"dir"`
	Bucket string `mapstructure:"bucket" yaml:"bucket"`
}

// TransportConfig configures the live socket.
type TransportConfig struct {
	Codec string `mapstructure:"codec" yaml:"codec"`
}

// Duration is a time.Duration written as "15s" in YAML and env.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// defaults are registered with viper so env overrides work for every key.
var defaults = map[string]any{
	"server.addr":                ":8080",
	"server.dev":                 false,
	"server.shutdown_timeout":    "15s",
	"server.max_sessions":        10000,
	"server.max_conns_per_ip":    20,
	"server.requests_per_second": 10,
	"server.trust_proxy":         false,
	"log.level":                  "info",
	"log.json":                   false,
	"store.backend":              state.BackendMemory,
	"store.serializer":           "json",
	"store.key_prefix":           state.DefaultKeyPrefix,
	"store.ttl":                  "0s",
	"store.sqlite.path":          "campusmatch.db",
	"store.nats.dir":             ".campusmatch/nats",
	"store.nats.bucket":          "answers",
	"transport.codec":            "json",
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"addr":       "server.addr",
	"dev":        "server.dev",
	"log-level":  "log.level",
	"log-json":   "log.json",
	"store":      "store.backend",
	"serializer": "store.serializer",
	"db":         "store.sqlite.path",
	"nats-dir":   "store.nats.dir",
	"codec":      "transport.codec",
}

type loadOptions struct {
	flags   *pflag.FlagSet
	file    string
	dotenv  string
	noFiles bool
}

// Option configures Load.
type Option func(*loadOptions)

// WithFlags lets set flags override every other source.
func WithFlags(fs *pflag.FlagSet) Option {
	return func(o *loadOptions) { o.flags = fs }
}

// WithFile reads path instead of the global and project files.
func WithFile(path string) Option {
	return func(o *loadOptions) { o.file = path }
}

// WithDotEnv loads path instead of ./.env.
func WithDotEnv(path string) Option {
	return func(o *loadOptions) { o.dotenv = path }
}

// WithoutFiles skips every config file. Env and flags still apply.
func WithoutFiles() Option {
	return func(o *loadOptions) { o.noFiles = true }
}

// Load loads configuration with full precedence:
// flags > env > project config > global config > defaults.
// A .env file is loaded into the environment first; it never overrides
// variables that are already set.
func Load(opts ...Option) (*Config, error) {
	o := loadOptions{dotenv: ".env"}
	for _, opt := range opts {
		opt(&o)
	}

	if err := LoadDotEnv(o.dotenv); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Keys without a default are invisible to AutomaticEnv.
	if err := v.BindEnv("server.allowed_origins"); err != nil {
		return nil, fmt.Errorf("binding allowed_origins env: %w", err)
	}

	if !o.noFiles {
		if err := readFiles(v, o.file); err != nil {
			return nil, err
		}
	}

	if o.flags != nil {
		for flag, key := range flagKeys {
			if f := o.flags.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", flag, err)
				}
			}
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func readFiles(v *viper.Viper, explicit string) error {
	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", explicit, err)
		}
		return nil
	}

	if path := GlobalPath(); fileExists(path) {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading global config: %w", err)
		}
	}
	if path := ProjectPath(); fileExists(path) {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return fmt.Errorf("merging project config: %w", err)
		}
	}
	return nil
}

// LoadDotEnv loads path into the environment. A missing file is fine.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ShutdownTimeout:   Duration(15 * time.Second),
			MaxSessions:       10000,
			MaxConnsPerIP:     20,
			RequestsPerSecond: 10,
		},
		Log: LogConfig{Level: "info"},
		Store: StoreConfig{
			Backend:    state.BackendMemory,
			Serializer: "json",
			KeyPrefix:  state.DefaultKeyPrefix,
			SQLite:     SQLiteConfig{Path: "campusmatch.db"},
			NATS:       NATSConfig{Dir: ".campusmatch/nats", Bucket: "answers"},
		},
		Transport: TransportConfig{Codec: "json"},
	}
}

// Validate checks names, the listen address and durations.
func (c *Config) Validate() error {
	var errs []error

	if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
		errs = append(errs, fmt.Errorf("server.addr %q: %v", c.Server.Addr, err))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout must be positive"))
	}
	if c.Server.MaxSessions < 0 {
		errs = append(errs, fmt.Errorf("server.max_sessions must not be negative"))
	}
	if c.Server.MaxConnsPerIP < 0 || c.Server.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("server.max_conns_per_ip and server.requests_per_second must not be negative"))
	}
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		errs = append(errs, fmt.Errorf("log.level %q is not debug, info, warn or error", c.Log.Level))
	}

	switch c.Store.Backend {
	case state.BackendMemory:
	case state.BackendSQLite:
		if c.Store.SQLite.Path == "" {
			errs = append(errs, fmt.Errorf("store.sqlite.path is required for the sqlite backend"))
		}
	case state.BackendNATS:
		if c.Store.NATS.Dir == "" || c.Store.NATS.Bucket == "" {
			errs = append(errs, fmt.Errorf("store.nats.dir and store.nats.bucket are required for the nats backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend %q is not memory, sqlite or nats", c.Store.Backend))
	}
	if _, err := state.SerializerByName(c.Store.Serializer); err != nil {
		errs = append(errs, fmt.Errorf("store.serializer: %v", err))
	}
	if c.Store.TTL < 0 {
		errs = append(errs, fmt.Errorf("store.ttl must not be negative"))
	}

	switch c.Transport.Codec {
	case "json", "msgpack":
	default:
		errs = append(errs, fmt.Errorf("transport.codec %q is not json or msgpack", c.Transport.Codec))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// StateConfig returns the settings state.Open needs.
func (c *Config) StateConfig() state.Config {
	return state.Config{
		Backend:    c.Store.Backend,
		SQLitePath: c.Store.SQLite.Path,
		NATSDir:    c.Store.NATS.Dir,
		NATSBucket: c.Store.NATS.Bucket,
		TTL:        c.Store.TTL.Std(),
	}
}

// AnswerStoreOptions returns the options of the answer store.
func (c *Config) AnswerStoreOptions() ([]state.AnswerStoreOption, error) {
	serializer, err := state.SerializerByName(c.Store.Serializer)
	if err != nil {
		return nil, err
	}
	opts := []state.AnswerStoreOption{
		state.WithSerializer(serializer),
		state.WithTTL(c.Store.TTL.Std()),
	}
	if c.Store.KeyPrefix != "" {
		opts = append(opts, state.WithKeyPrefix(c.Store.KeyPrefix))
	}
	return opts, nil
}

// YAML renders the config as it would be written to a file.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// Exists returns true if any config file exists (global or project).
func Exists() bool {
	return fileExists(GlobalPath()) || fileExists(ProjectPath())
}

// GlobalPath returns $XDG_CONFIG_HOME/campusmatch/campusmatch.yml, falling
// back to ~/.config.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "campusmatch", "campusmatch.yml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "campusmatch", "campusmatch.yml")
}

// ProjectPath returns the project-local config path.
func ProjectPath() string {
	return "campusmatch.yml"
}

// Write writes cfg to path, creating the directory. An existing file is
// only replaced when overwrite is set.
func Write(path string, cfg *Config, overwrite bool) error {
	if !overwrite && fileExists(path) {
		return fmt.Errorf("%s already exists: %w", path, fs.ErrExist)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := cfg.YAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
