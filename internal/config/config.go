package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/vinterp/internal/errors"
)

// ConfigFileNames are tried in order by Load.
var ConfigFileNames = []string{"vinterp.json", "vinterp.yaml", "vinterp.yml"}

const (
	// DefaultPort is the default host server port.
	DefaultPort = 7400

	// DefaultHost is the default host server bind address.
	DefaultHost = "localhost"

	// DefaultQueueSize bounds queued work per surface.
	DefaultQueueSize = 256

	// DefaultMaxMessageSize bounds one websocket message.
	DefaultMaxMessageSize = 16 * 1024 * 1024
)

// Sanitizer policy names.
const (
	SanitizeNone   = ""
	SanitizeStrict = "strict"
	SanitizeUGC    = "ugc"
)

// Config is the complete host configuration.
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Interp  InterpConfig  `json:"interp" yaml:"interp"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
	Tracing TracingConfig `json:"tracing" yaml:"tracing"`
	Log     LogConfig     `json:"log" yaml:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig configures the HTTP and websocket surface of the host.
type ServerConfig struct {
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
	Port int    `json:"port,omitempty" yaml:"port,omitempty"`

	// Durations use time.ParseDuration syntax, e.g. "30s".
	ReadTimeout       string `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`
	WriteTimeout      string `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`
	HeartbeatInterval string `json:"heartbeatInterval,omitempty" yaml:"heartbeatInterval,omitempty"`

	// MaxMessageSize is the largest websocket message accepted, in bytes.
	MaxMessageSize int64 `json:"maxMessageSize,omitempty" yaml:"maxMessageSize,omitempty"`

	// QueueSize bounds queued batches and events per surface.
	QueueSize int `json:"queueSize,omitempty" yaml:"queueSize,omitempty"`

	// AllowedOrigins lists websocket origins accepted besides same-host.
	// "*" accepts any origin.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty"`
}

// InterpConfig configures each interpreter the host creates.
type InterpConfig struct {
	// RootID is the id bound to the mount root.
	RootID uint64 `json:"rootId,omitempty" yaml:"rootId,omitempty"`

	// Sanitize selects the dangerous_inner_html policy: "", "strict" or
	// "ugc".
	Sanitize string `json:"sanitize,omitempty" yaml:"sanitize,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled" yaml:"enabled"`
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// TracingConfig configures OpenTelemetry spans.
type TracingConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	TracerName string `json:"tracerName,omitempty" yaml:"tracerName,omitempty"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is "text" or "json".
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	c := &Config{
		Metrics: MetricsConfig{Enabled: true},
	}
	c.applyDefaults()
	return c
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "60s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "10s"
	}
	if c.Server.HeartbeatInterval == "" {
		c.Server.HeartbeatInterval = "30s"
	}
	if c.Server.MaxMessageSize == 0 {
		c.Server.MaxMessageSize = DefaultMaxMessageSize
	}
	if c.Server.QueueSize == 0 {
		c.Server.QueueSize = DefaultQueueSize
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "vinterp"
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = "vinterp"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Load reads the first config file found in dir.
func Load(dir string) (*Config, error) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New(errors.CodeConfigNotFound).
		WithDetail("No vinterp.json or vinterp.yaml found in " + dir).
		WithSuggestion("Run 'vinterp serve' without --config to use defaults")
}

// LoadFile reads configuration from path. The format follows the file
// extension.
func LoadFile(path string) (*Config, error) {
	unmarshal, err := decoderFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigNotFound).
				WithDetail("No config file at " + path)
		}
		return nil, errors.New(errors.CodeConfigInvalid).Wrap(err)
	}

	cfg := &Config{Metrics: MetricsConfig{Enabled: true}}
	if err := unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.CodeConfigInvalid).
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			Wrap(err)
	}
	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decoderFor(path string) (func([]byte, any) error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return json.Unmarshal, nil
	case ".yaml", ".yml":
		return yaml.Unmarshal, nil
	}
	return nil, errors.New(errors.CodeConfigFormat).WithDetail("Unsupported config file " + path)
}

// SaveTo writes the configuration to path in the format its extension
// names.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		return errors.New(errors.CodeConfigFormat).WithDetail("Unsupported config file " + path)
	}
	if err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New(errors.CodeConfigInvalid).Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	invalid := func(detail string) error {
		return errors.New(errors.CodeConfigInvalid).WithDetail(detail)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return invalid("server.port must be between 0 and 65535")
	}
	for name, v := range map[string]string{
		"server.readTimeout":       c.Server.ReadTimeout,
		"server.writeTimeout":      c.Server.WriteTimeout,
		"server.heartbeatInterval": c.Server.HeartbeatInterval,
	} {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return invalid(fmt.Sprintf("%s must be a positive duration, got %q", name, v))
		}
	}
	if c.Server.MaxMessageSize < 0 {
		return invalid("server.maxMessageSize must not be negative")
	}
	if c.Server.QueueSize < 1 {
		return invalid("server.queueSize must be at least 1")
	}
	switch c.Interp.Sanitize {
	case SanitizeNone, SanitizeStrict, SanitizeUGC:
	default:
		return invalid(fmt.Sprintf("interp.sanitize must be %q, %q or empty, got %q",
			SanitizeStrict, SanitizeUGC, c.Interp.Sanitize))
	}
	if c.Interp.RootID > 1<<24-1 {
		return invalid("interp.rootId is beyond the largest node id")
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics.path must start with /")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return invalid(err.Error())
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid(fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// ReadTimeout returns the parsed websocket read timeout.
func (c *Config) ReadTimeout() time.Duration { return mustDuration(c.Server.ReadTimeout) }

// WriteTimeout returns the parsed websocket write timeout.
func (c *Config) WriteTimeout() time.Duration { return mustDuration(c.Server.WriteTimeout) }

// HeartbeatInterval returns the parsed websocket ping interval.
func (c *Config) HeartbeatInterval() time.Duration {
	return mustDuration(c.Server.HeartbeatInterval)
}

// mustDuration parses a validated duration; invalid input yields zero.
func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// SanitizerPolicy returns the bluemonday policy for interp.sanitize, or nil
// when markup is applied as given.
func (c *Config) SanitizerPolicy() *bluemonday.Policy {
	switch c.Interp.Sanitize {
	case SanitizeStrict:
		return bluemonday.StrictPolicy()
	case SanitizeUGC:
		return bluemonday.UGCPolicy()
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", s, err)
	}
	return level, nil
}

// NewLogger builds the slog logger described by Log, writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Exists reports whether dir holds a config file.
func Exists(dir string) bool {
	for _, name := range ConfigFileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}
