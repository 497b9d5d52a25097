package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Maps      MapsConfig      `mapstructure:"maps"`
	Session   SessionConfig   `mapstructure:"session"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	AllowOrigins string `mapstructure:"allow_origins"`
}

type MapsConfig struct {
	OverpassURLs   []string `mapstructure:"overpass_urls"`
	OSRMURL        string   `mapstructure:"osrm_url"`
	MapillaryURL   string   `mapstructure:"mapillary_url"`
	MapillaryToken string   `mapstructure:"mapillary_token"`
	GeoIPPath      string   `mapstructure:"geoip_path"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
	MaxAttempts    int      `mapstructure:"max_attempts"`
	BackoffMS      int      `mapstructure:"backoff_ms"`
}

func (m MapsConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

func (m MapsConfig) Backoff() time.Duration {
	return time.Duration(m.BackoffMS) * time.Millisecond
}

type SessionConfig struct {
	// SupersedePolicy is "last-wins" or "cancel-superseded".
	SupersedePolicy string `mapstructure:"supersede_policy"`
	IdleTTLMinutes  int    `mapstructure:"idle_ttl_minutes"`
	MaxSessions     int    `mapstructure:"max_sessions"`
}

func (s SessionConfig) IdleTTL() time.Duration {
	return time.Duration(s.IdleTTLMinutes) * time.Minute
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type ValkeyConfig struct {
	Addr             string `mapstructure:"addr"`
	Enabled          bool   `mapstructure:"enabled"`
	SearchTTLSeconds int    `mapstructure:"search_ttl_seconds"`
	KeyPrefix        string `mapstructure:"key_prefix"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.allow_origins", "*")
	v.SetDefault("maps.overpass_urls", []string{"https://overpass-api.de/api/interpreter"})
	v.SetDefault("maps.osrm_url", "https://router.project-osrm.org")
	v.SetDefault("maps.mapillary_url", "https://graph.mapillary.com")
	v.SetDefault("maps.mapillary_token", "")
	v.SetDefault("maps.geoip_path", "")
	v.SetDefault("maps.timeout_seconds", 15)
	v.SetDefault("maps.max_attempts", 3)
	v.SetDefault("maps.backoff_ms", 500)
	v.SetDefault("session.supersede_policy", "last-wins")
	v.SetDefault("session.idle_ttl_minutes", 30)
	v.SetDefault("session.max_sessions", 1000)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", true)
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.enabled", true)
	v.SetDefault("valkey.search_ttl_seconds", 300)
	v.SetDefault("valkey.key_prefix", "swingsandsand:")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: SWINGS_MAPS_OSRM_URL → maps.osrm_url
	v.SetEnvPrefix("SWINGS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Maps.OverpassURLs = splitList(cfg.Maps.OverpassURLs)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if len(c.Maps.OverpassURLs) == 0 {
		errs = append(errs, "maps.overpass_urls needs at least one endpoint")
	}
	if c.Maps.OSRMURL == "" {
		errs = append(errs, "maps.osrm_url is required")
	}
	if c.Maps.TimeoutSeconds <= 0 {
		errs = append(errs, "maps.timeout_seconds must be positive")
	}
	if c.Maps.MaxAttempts <= 0 {
		errs = append(errs, "maps.max_attempts must be positive")
	}
	switch c.Session.SupersedePolicy {
	case "last-wins", "cancel-superseded":
	default:
		errs = append(errs, fmt.Sprintf("session.supersede_policy must be last-wins or cancel-superseded, got %q", c.Session.SupersedePolicy))
	}
	if c.Session.IdleTTLMinutes < 0 {
		errs = append(errs, "session.idle_ttl_minutes must not be negative")
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required when nats is enabled")
	}
	if c.Valkey.Enabled && c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required when valkey is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// splitList accepts both YAML lists and a comma-separated env value.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, p := range strings.Split(item, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
