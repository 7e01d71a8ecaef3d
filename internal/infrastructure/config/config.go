package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MrMelker/EMS-ESP/internal/ems"
)

// Config is the root configuration of the EMS gateway.
// Values come from defaults, then the YAML file, then EMSGW_* environment variables.
type Config struct {
	Gateway GatewayConfig `yaml:"gateway"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	HTTP    HTTPConfig    `yaml:"http"`
	Logging LoggingConfig `yaml:"logging"`
}

// GatewayConfig describes this gateway's presence on the EMS bus.
type GatewayConfig struct {
	ID string `yaml:"id"`

	// BusAddress is the address used as source of written telegrams,
	// normally the service key address "0x0B".
	BusAddress string `yaml:"bus_address"`

	// HealthInterval is the health publish period in seconds.
	HealthInterval int `yaml:"health_interval"`

	// RequestVersions makes the gateway ask every reserved address for its
	// Version telegram at startup instead of waiting for traffic.
	RequestVersions bool `yaml:"request_versions"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
	TopicPrefix string              `yaml:"topic_prefix"`
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

// MQTTReconnectConfig contains MQTT reconnection delays in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// HTTPConfig contains the status/metrics HTTP server settings.
type HTTPConfig struct {
	Enabled  bool              `yaml:"enabled"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Timeouts HTTPTimeoutConfig `yaml:"timeouts"`
}

// HTTPTimeoutConfig contains HTTP timeouts in seconds.
type HTTPTimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// envPrefix prefixes every environment override.
const envPrefix = "EMSGW_"

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values
//  2. YAML file values
//  3. Environment variables (EMSGW_SECTION_KEY, e.g. EMSGW_MQTT_HOST)
//
// An empty path skips the file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			ID:             "ems-gateway",
			BusAddress:     ems.AddrServiceKey.String(),
			HealthInterval: 30, //nolint:mnd // seconds
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883, //nolint:mnd // standard MQTT port
				ClientID: "ems-gateway",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60, //nolint:mnd // seconds
			},
			TopicPrefix: "ems",
		},
		HTTP: HTTPConfig{
			Enabled: true,
			Host:    "0.0.0.0",
			Port:    8080, //nolint:mnd
			Timeouts: HTTPTimeoutConfig{
				Read:  10, //nolint:mnd
				Write: 10, //nolint:mnd
				Idle:  60, //nolint:mnd
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies EMSGW_* environment variables.
func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"GATEWAY_ID":          &cfg.Gateway.ID,
		"GATEWAY_BUS_ADDRESS": &cfg.Gateway.BusAddress,
		"MQTT_HOST":           &cfg.MQTT.Broker.Host,
		"MQTT_CLIENT_ID":      &cfg.MQTT.Broker.ClientID,
		"MQTT_USERNAME":       &cfg.MQTT.Auth.Username,
		"MQTT_PASSWORD":       &cfg.MQTT.Auth.Password,
		"MQTT_TOPIC_PREFIX":   &cfg.MQTT.TopicPrefix,
		"HTTP_HOST":           &cfg.HTTP.Host,
		"LOG_LEVEL":           &cfg.Logging.Level,
		"LOG_FORMAT":          &cfg.Logging.Format,
	}
	for key, dst := range strs {
		if v := os.Getenv(envPrefix + key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"MQTT_PORT": &cfg.MQTT.Broker.Port,
		"HTTP_PORT": &cfg.HTTP.Port,
	}
	for key, dst := range ints {
		v := os.Getenv(envPrefix + key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing %s%s: %w", envPrefix, key, err)
		}
		*dst = n
	}
	return nil
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []string

	if c.Gateway.ID == "" {
		errs = append(errs, "gateway.id is required")
	}
	if _, err := ems.ParseAddress(c.Gateway.BusAddress); err != nil {
		errs = append(errs, fmt.Sprintf("gateway.bus_address %q is not a bus address", c.Gateway.BusAddress))
	}
	if c.Gateway.HealthInterval < 1 {
		errs = append(errs, "gateway.health_interval must be at least 1 second")
	}

	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.TopicPrefix == "" || strings.ContainsAny(c.MQTT.TopicPrefix, "+#") ||
		strings.HasSuffix(c.MQTT.TopicPrefix, "/") {
		errs = append(errs, "mqtt.topic_prefix must be non-empty, without wildcards or trailing slash")
	}

	if c.HTTP.Enabled && (c.HTTP.Port < 1 || c.HTTP.Port > 65535) {
		errs = append(errs, "http.port must be between 1 and 65535")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, "logging.level must be debug, info, warn or error")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, "logging.format must be json or text")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// GatewayAddress returns the parsed bus address. Call after Validate.
func (c *Config) GatewayAddress() ems.Address {
	addr, err := ems.ParseAddress(c.Gateway.BusAddress)
	if err != nil {
		return ems.AddrServiceKey
	}
	return addr
}

// GetHealthInterval returns the health publish period.
func (c *Config) GetHealthInterval() time.Duration {
	return time.Duration(c.Gateway.HealthInterval) * time.Second
}

// GetReadTimeout returns the HTTP read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.HTTP.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the HTTP write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.HTTP.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the HTTP idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.HTTP.Timeouts.Idle) * time.Second
}
