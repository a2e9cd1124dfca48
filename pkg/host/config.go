package host

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/vinterp/pkg/interp"
	"github.com/vango-dev/vinterp/pkg/protocol"
	"github.com/vango-dev/vinterp/pkg/telemetry"
)

// Config configures a Host.
type Config struct {
	// QueueSize bounds work queued for the event loop and messages buffered
	// per subscriber.
	QueueSize int

	// ReadTimeout is the websocket read deadline, renewed by pongs.
	ReadTimeout time.Duration

	// WriteTimeout bounds each websocket write.
	WriteTimeout time.Duration

	// HeartbeatInterval is the websocket ping period.
	HeartbeatInterval time.Duration

	// MaxMessageSize is the largest websocket message accepted.
	MaxMessageSize int64

	// AllowedOrigins lists websocket origins accepted besides same-host.
	// "*" accepts any origin.
	AllowedOrigins []string

	// RootID is the id bound to the surface root.
	RootID protocol.NodeID

	// Sanitizer filters dangerous_inner_html markup when set.
	Sanitizer *bluemonday.Policy

	// Observer receives interpreter telemetry.
	Observer interp.Observer

	// Metrics, when set, also tracks the interpreter lifecycle.
	Metrics *telemetry.Metrics

	// Gatherer serves GET MetricsPath when set.
	Gatherer    prometheus.Gatherer
	MetricsPath string

	// Logger is the host logger (default: slog.Default()).
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		QueueSize:         256,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		MaxMessageSize:    protocol.MaxPayloadSize + protocol.FrameHeaderSize,
		MetricsPath:       "/metrics",
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = d.HeartbeatInterval
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.MetricsPath == "" {
		c.MetricsPath = d.MetricsPath
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// checkOrigin accepts requests without an Origin header, same-host origins
// and the configured list.
func (c *Config) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
