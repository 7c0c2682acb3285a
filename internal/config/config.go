package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pskrmon/pskrmon/pkg/types"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultStatsWindow    = 15 * time.Minute
	DefaultSpotTTL        = 15 * time.Minute
	DefaultMaxSpots       = 5000
	DefaultUpdateInterval = 60 * time.Second
	DefaultSampleRate     = 1

	DefaultBroker         = "mqtt.pskreporter.info"
	DefaultTransport      = "mqtt"
	DefaultConnectTimeout = 30 * time.Second

	DefaultHTTPPort    = 8080
	DefaultGRPCPort    = 50051
	DefaultAuthHeader  = "x-api-key"
	DefaultStoragePath = "pskrmon.db"
	DefaultRetention   = 7 * 24 * time.Hour
	DefaultLogLevel    = "info"

	MinStatsWindow    = time.Minute
	MinUpdateInterval = 30 * time.Second
)

// callsignPattern accepts standard amateur callsigns with an optional /suffix.
var callsignPattern = regexp.MustCompile(`(?i)^[A-Z0-9]{1,3}[0-9][A-Z0-9]{0,4}[A-Z](?:/[A-Z0-9]+)?$`)

// Config is the top-level configuration. Fields map 1:1 to config.example.yaml.
type Config struct {
	Monitor  MonitorConfig `yaml:"monitor"`
	Feed     FeedConfig    `yaml:"feed"`
	Server   ServerConfig  `yaml:"server"`
	Alerts   AlertsConfig  `yaml:"alerts"`
	Storage  StorageConfig `yaml:"storage"`
	LogLevel string        `yaml:"log_level"`
}

// MonitorConfig describes the monitoring session.
type MonitorConfig struct {
	// Mode is personal (one callsign) or global (the whole network).
	Mode types.MonitorMode `yaml:"mode"`

	// Callsign is the station to monitor. Required in personal mode.
	Callsign string `yaml:"callsign"`

	// Direction is rx (spots of others heard by Callsign), tx (Callsign heard
	// by others) or dual.
	Direction types.Direction `yaml:"direction"`

	// StatsWindow is the span each snapshot reports on.
	StatsWindow time.Duration `yaml:"stats_window"`

	// SpotTTL is how long personal mode keeps spots in memory.
	SpotTTL time.Duration `yaml:"spot_ttl"`

	// MaxSpots caps the personal spot store.
	MaxSpots int `yaml:"max_spots"`

	// UpdateInterval controls how often snapshots are recomputed.
	UpdateInterval time.Duration `yaml:"update_interval"`

	// SampleRate processes one in N messages. Global mode only.
	SampleRate int `yaml:"sample_rate"`

	Filters types.FilterConfig `yaml:"filters"`
}

// FeedConfig describes the broker connection.
type FeedConfig struct {
	Broker string `yaml:"broker"`

	// Transport is one of: mqtt | mqtt_tls | ws | ws_tls.
	Transport string `yaml:"transport"`

	// Port overrides the transport's standard port when non-zero.
	Port int `yaml:"port"`

	// ClientID defaults to a random pskrmon-* identifier.
	ClientID string `yaml:"client_id"`

	// Modes narrows the subscription to these operating modes (FT8, CW ...).
	Modes []string `yaml:"modes"`

	// TLSInsecureSkipVerify disables broker certificate verification.
	TLSInsecureSkipVerify bool `yaml:"tls_insecure_skip_verify"`

	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// ServerConfig holds the serving surfaces.
type ServerConfig struct {
	// HTTPPort is the port the REST API, metrics and WebSocket hub listen on.
	HTTPPort int `yaml:"http_port"`

	// GRPCPort is the port of the gRPC health service. 0 disables it.
	GRPCPort int `yaml:"grpc_port"`

	Auth AuthConfig `yaml:"auth"`
	MDNS MDNSConfig `yaml:"mdns"`
}

// AuthConfig configures API key authentication for HTTP and gRPC.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// Header is the HTTP header (and gRPC metadata key) carrying the key.
	Header string `yaml:"header"`

	// KeyEnv is the name of the environment variable holding the expected key.
	KeyEnv string `yaml:"key_env"`
}

// Key returns the API key resolved from the environment.
// Returns empty string if KeyEnv is unset or the variable is not found.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// MDNSConfig controls the LAN service advertisement.
type MDNSConfig struct {
	Enabled bool `yaml:"enabled"`

	// Instance is the advertised name. Defaults to "pskrmon <callsign> (<hostname>)".
	Instance string `yaml:"instance"`
}

// AlertsConfig holds all alerting rules and webhook targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule defines a threshold-based alert condition.
type AlertRule struct {
	// Name is the human-readable alert identifier.
	Name string `yaml:"name"`

	// Condition is an expression like "messages_last_minute < 10" or
	// "feed_healthy == false".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: slack | teams | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable holding the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// StorageConfig configures the snapshot archive.
type StorageConfig struct {
	Enabled bool `yaml:"enabled"`

	// Path is the filesystem path for the SQLite database file.
	Path string `yaml:"path"`

	// Retention is how long archived snapshots are kept before deletion.
	Retention time.Duration `yaml:"retention"`
}

// Level returns the configured slog level, falling back to info for an
// unrecognised value.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	normalize(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Monitor: MonitorConfig{
			Mode:           types.ModePersonal,
			Direction:      types.DirectionRX,
			StatsWindow:    DefaultStatsWindow,
			SpotTTL:        DefaultSpotTTL,
			MaxSpots:       DefaultMaxSpots,
			UpdateInterval: DefaultUpdateInterval,
			SampleRate:     DefaultSampleRate,
		},
		Feed: FeedConfig{
			Broker:         DefaultBroker,
			Transport:      DefaultTransport,
			ConnectTimeout: DefaultConnectTimeout,
		},
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			GRPCPort: DefaultGRPCPort,
			Auth: AuthConfig{
				Mode:   "none",
				Header: DefaultAuthHeader,
			},
		},
		Storage: StorageConfig{
			Path:      DefaultStoragePath,
			Retention: DefaultRetention,
		},
		LogLevel: DefaultLogLevel,
	}
}

// normalize canonicalises case-insensitive values.
func normalize(cfg *Config) {
	m := &cfg.Monitor
	m.Mode = types.MonitorMode(strings.ToLower(strings.TrimSpace(string(m.Mode))))
	m.Direction = types.Direction(strings.ToLower(strings.TrimSpace(string(m.Direction))))
	m.Callsign = strings.ToUpper(strings.TrimSpace(m.Callsign))
	cfg.Feed.Transport = strings.ToLower(strings.TrimSpace(cfg.Feed.Transport))
	cfg.Server.Auth.Header = strings.ToLower(strings.TrimSpace(cfg.Server.Auth.Header))
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	m := cfg.Monitor
	if !m.Mode.Valid() {
		return fmt.Errorf("monitor.mode: unknown mode %q", m.Mode)
	}
	if !m.Direction.Valid() {
		return fmt.Errorf("monitor.direction: unknown direction %q", m.Direction)
	}
	if m.Mode == types.ModePersonal {
		if m.Callsign == "" {
			return fmt.Errorf("monitor.callsign is required in personal mode")
		}
		if !callsignPattern.MatchString(m.Callsign) {
			return fmt.Errorf("monitor.callsign %q is not a valid callsign", m.Callsign)
		}
		if m.StatsWindow > m.SpotTTL {
			return fmt.Errorf("monitor.stats_window (%s) must not exceed monitor.spot_ttl (%s)", m.StatsWindow, m.SpotTTL)
		}
	}
	if m.StatsWindow < MinStatsWindow {
		return fmt.Errorf("monitor.stats_window must be at least %s", MinStatsWindow)
	}
	if m.SpotTTL <= 0 {
		return fmt.Errorf("monitor.spot_ttl must be positive")
	}
	if m.MaxSpots <= 0 {
		return fmt.Errorf("monitor.max_spots must be positive")
	}
	if m.UpdateInterval < MinUpdateInterval {
		return fmt.Errorf("monitor.update_interval must be at least %s", MinUpdateInterval)
	}
	if m.SampleRate < 1 {
		return fmt.Errorf("monitor.sample_rate must be at least 1")
	}
	f := m.Filters
	if f.MinDistanceKm < 0 || f.MaxDistanceKm < 0 {
		return fmt.Errorf("monitor.filters: distances must not be negative")
	}
	if f.MaxDistanceKm > 0 && f.MinDistanceKm > f.MaxDistanceKm {
		return fmt.Errorf("monitor.filters: min_distance_km exceeds max_distance_km")
	}

	switch cfg.Feed.Transport {
	case "mqtt", "mqtt_tls", "ws", "ws_tls":
	default:
		return fmt.Errorf("feed.transport: unknown transport %q", cfg.Feed.Transport)
	}
	if cfg.Feed.Port < 0 || cfg.Feed.Port > 65535 {
		return fmt.Errorf("feed.port %d out of range", cfg.Feed.Port)
	}
	if cfg.Feed.ConnectTimeout <= 0 {
		return fmt.Errorf("feed.connect_timeout must be positive")
	}

	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d out of range", cfg.Server.HTTPPort)
	}
	if cfg.Server.GRPCPort < 0 || cfg.Server.GRPCPort > 65535 {
		return fmt.Errorf("server.grpc_port %d out of range", cfg.Server.GRPCPort)
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode: unknown mode %q", cfg.Server.Auth.Mode)
	}

	for i, r := range cfg.Alerts.Rules {
		if r.Name == "" {
			return fmt.Errorf("alerts.rules[%d]: name is required", i)
		}
		if len(strings.Fields(r.Condition)) != 3 {
			return fmt.Errorf("alerts.rules[%d] %q: condition must be \"field op value\"", i, r.Name)
		}
		switch r.Severity {
		case "critical", "warning", "info", "":
		default:
			return fmt.Errorf("alerts.rules[%d] %q: unknown severity %q", i, r.Name, r.Severity)
		}
	}
	for i, w := range cfg.Alerts.Webhooks {
		switch w.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("alerts.webhooks[%d]: unknown type %q", i, w.Type)
		}
	}

	if cfg.Storage.Enabled {
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage.path is required when storage is enabled")
		}
		if cfg.Storage.Retention <= 0 {
			return fmt.Errorf("storage.retention must be positive")
		}
	}
	return nil
}
