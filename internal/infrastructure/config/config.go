package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for melsecmon.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Mock      MockConfig      `yaml:"mock"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	UI        UIConfig        `yaml:"ui"`
}

// DatabaseConfig contains SQLite database settings.
// The database only holds local settings (display format, auto-start, popup position).
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings for register history.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains file-based logging settings.
// Used when output is "file", which the terminal UI requires.
type FileLoggingConfig struct {
	Path string `yaml:"path"`
}

// MockConfig describes how to start the remote protocol mock.
type MockConfig struct {
	// IP is the listen address handed to the mock. Default: "0.0.0.0"
	IP string `yaml:"ip"`

	// TCPPort and UDPPort are the mock's protocol listener ports.
	// Defaults: 5000 and 5001
	TCPPort int `yaml:"tcp_port"`
	UDPPort int `yaml:"udp_port"`

	// TimeoutMs is the mock's await timeout in milliseconds. Default: 5000
	TimeoutMs int `yaml:"timeout_ms"`

	// RequestTimeout bounds a single request/response exchange with the mock (seconds).
	// Default: 5
	RequestTimeout int `yaml:"request_timeout"`
}

// MonitorConfig contains register monitor engine settings.
type MonitorConfig struct {
	// DefaultTarget is the register shown when no target has been entered. Default: "D0"
	DefaultTarget string `yaml:"default_target"`

	// BlockSize is the number of words read per snapshot and poll. Default: 30
	BlockSize int `yaml:"block_size"`

	// PollIntervalMs is the polling fallback period. Default: 500
	PollIntervalMs int `yaml:"poll_interval_ms"`

	// MonitorIntervalMs is the interval requested from the mock for push updates. Default: 500
	MonitorIntervalMs int `yaml:"monitor_interval_ms"`

	// SelectRetries and SelectRetryDelayMs bound how long row selection
	// waits for a row to appear. Defaults: 6 and 60
	SelectRetries      int `yaml:"select_retries"`
	SelectRetryDelayMs int `yaml:"select_retry_delay_ms"`

	// DiagLogSize is the number of diagnostic lines kept in memory. Default: 200
	DiagLogSize int `yaml:"diag_log_size"`
}

// UIConfig selects the front end.
type UIConfig struct {
	// Mode is "tui" (interactive terminal view) or "headless". Default: "tui"
	Mode string `yaml:"mode"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: MELSECMON_SECTION_KEY
// For example: MELSECMON_DATABASE_PATH, MELSECMON_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration with environment overrides applied.
// It is used when no configuration file exists.
func Default() (*Config, error) {
	cfg := defaultConfig()
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "./data/melsecmon.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "melsecmon",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Enabled: false,
			Host:    "127.0.0.1",
			Port:    8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "file",
			File: FileLoggingConfig{
				Path: "./data/melsecmon.log",
			},
		},
		Mock: MockConfig{
			IP:             "0.0.0.0",
			TCPPort:        5000,
			UDPPort:        5001,
			TimeoutMs:      5000,
			RequestTimeout: 5,
		},
		Monitor: MonitorConfig{
			DefaultTarget:      "D0",
			BlockSize:          30,
			PollIntervalMs:     500,
			MonitorIntervalMs:  500,
			SelectRetries:      6,
			SelectRetryDelayMs: 60,
			DiagLogSize:        200,
		},
		UI: UIConfig{
			Mode: "tui",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: MELSECMON_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Database
	if v := os.Getenv("MELSECMON_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("MELSECMON_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("MELSECMON_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("MELSECMON_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("MELSECMON_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Mock
	if v := os.Getenv("MELSECMON_MOCK_IP"); v != "" {
		cfg.Mock.IP = v
	}

	// InfluxDB
	if v := os.Getenv("MELSECMON_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Monitor
	if v := os.Getenv("MELSECMON_MONITOR_TARGET"); v != "" {
		cfg.Monitor.DefaultTarget = v
	}

	// UI
	if v := os.Getenv("MELSECMON_UI_MODE"); v != "" {
		cfg.UI.Mode = v
	}
}

// Validate checks the configuration for errors.
// All problems are collected so a single run reports every one of them.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if net.ParseIP(c.Mock.IP) == nil {
		errs = append(errs, "mock.ip must be a valid IP address")
	}
	if c.Mock.TCPPort < 1 || c.Mock.TCPPort > 65535 {
		errs = append(errs, "mock.tcp_port must be between 1 and 65535")
	}
	if c.Mock.UDPPort < 1 || c.Mock.UDPPort > 65535 {
		errs = append(errs, "mock.udp_port must be between 1 and 65535")
	}
	if c.Mock.TimeoutMs <= 0 {
		errs = append(errs, "mock.timeout_ms must be positive")
	}
	if c.Mock.RequestTimeout <= 0 {
		errs = append(errs, "mock.request_timeout must be positive")
	}

	if strings.TrimSpace(c.Monitor.DefaultTarget) == "" {
		errs = append(errs, "monitor.default_target is required")
	}
	if c.Monitor.BlockSize < 1 {
		errs = append(errs, "monitor.block_size must be at least 1")
	}
	if c.Monitor.PollIntervalMs < 1 {
		errs = append(errs, "monitor.poll_interval_ms must be positive")
	}
	if c.Monitor.MonitorIntervalMs < 1 {
		errs = append(errs, "monitor.monitor_interval_ms must be positive")
	}
	if c.Monitor.SelectRetries < 0 {
		errs = append(errs, "monitor.select_retries must not be negative")
	}
	if c.Monitor.DiagLogSize < 1 {
		errs = append(errs, "monitor.diag_log_size must be at least 1")
	}

	switch c.UI.Mode {
	case "tui":
		if strings.ToLower(c.Logging.Output) != "file" {
			errs = append(errs, `ui.mode "tui" requires logging.output "file"`)
		}
	case "headless":
	default:
		errs = append(errs, `ui.mode must be "tui" or "headless"`)
	}

	if strings.ToLower(c.Logging.Output) == "file" && c.Logging.File.Path == "" {
		errs = append(errs, "logging.file.path is required when logging.output is file")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// PollInterval returns the polling fallback period as a Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Monitor.PollIntervalMs) * time.Millisecond
}

// SelectRetryDelay returns the delay between row selection attempts.
func (c *Config) SelectRetryDelay() time.Duration {
	return time.Duration(c.Monitor.SelectRetryDelayMs) * time.Millisecond
}

// MockRequestTimeout returns the per-request timeout for mock calls.
func (c *Config) MockRequestTimeout() time.Duration {
	return time.Duration(c.Mock.RequestTimeout) * time.Second
}
