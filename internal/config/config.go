package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	MaxMessageBytes    int64    `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	SendBuffer         int      `mapstructure:"send_buffer" yaml:"send_buffer"`
	RateLimitPerSecond float64  `mapstructure:"rate_limit_per_second" yaml:"rate_limit_per_second"`
	RateLimitBurst     int      `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst"`
	AllowedOrigins     []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	MaxStrokeWidth     float64  `mapstructure:"max_stroke_width" yaml:"max_stroke_width"`

	// RoomIdleTTL enables reaping of empty rooms; zero keeps rooms for the process lifetime.
	RoomIdleTTL  time.Duration `mapstructure:"room_idle_ttl" yaml:"room_idle_ttl"`
	ReapInterval time.Duration `mapstructure:"reap_interval" yaml:"reap_interval"`

	// DatabasePath enables the sqlite activity journal when non-empty.
	DatabasePath   string `mapstructure:"database_path" yaml:"database_path"`
	ActivityBuffer int    `mapstructure:"activity_buffer" yaml:"activity_buffer"`

	MDNS MDNSConfig `mapstructure:"mdns" yaml:"mdns"`
}

// MDNSConfig controls LAN service advertisement.
type MDNSConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Instance string `mapstructure:"instance" yaml:"instance"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":8080",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		LogFormat:          "console",
		MaxMessageBytes:    64 << 10,
		SendBuffer:         256,
		RateLimitPerSecond: 120,
		RateLimitBurst:     240,
		AllowedOrigins:     []string{"*"},
		MaxStrokeWidth:     200,
		RoomIdleTTL:        0,
		ReapInterval:       time.Minute,
		ActivityBuffer:     1024,
		MDNS: MDNSConfig{
			Instance: "wireboard",
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.RoomIdleTTL != 0 {
		c.RoomIdleTTL = other.RoomIdleTTL
	}
	if other.MDNS.Enabled {
		c.MDNS.Enabled = true
	}
}
