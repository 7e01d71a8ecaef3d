package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MrMelker/EMS-ESP/internal/ems"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
gateway:
  id: "cellar"
  bus_address: "0x0B"
  health_interval: 15
mqtt:
  broker:
    host: "broker.local"
    port: 8883
    tls: true
    client_id: "ems-cellar"
  qos: 0
  topic_prefix: "home/ems"
http:
  enabled: true
  port: 9100
logging:
  level: "debug"
  format: "text"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Gateway.ID != "cellar" {
		t.Errorf("Gateway.ID = %q, want %q", cfg.Gateway.ID, "cellar")
	}
	if cfg.GatewayAddress() != ems.AddrServiceKey {
		t.Errorf("GatewayAddress() = %s, want 0x0B", cfg.GatewayAddress())
	}
	if cfg.MQTT.Broker.Host != "broker.local" || !cfg.MQTT.Broker.TLS {
		t.Errorf("MQTT.Broker = %+v", cfg.MQTT.Broker)
	}
	if cfg.MQTT.TopicPrefix != "home/ems" {
		t.Errorf("MQTT.TopicPrefix = %q", cfg.MQTT.TopicPrefix)
	}
	if cfg.GetHealthInterval() != 15*time.Second {
		t.Errorf("GetHealthInterval() = %v", cfg.GetHealthInterval())
	}
	// Unset values keep their defaults.
	if cfg.MQTT.Reconnect.MaxDelay != 60 {
		t.Errorf("MQTT.Reconnect.MaxDelay = %d, want default 60", cfg.MQTT.Reconnect.MaxDelay)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.MQTT.TopicPrefix != "ems" {
		t.Errorf("TopicPrefix = %q, want ems", cfg.MQTT.TopicPrefix)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "mqtt: [unclosed")
	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
gateway:
  bus_address: "speaker"
mqtt:
  qos: 5
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected validation error, got nil")
	}
	for _, want := range []string{"gateway.bus_address", "mqtt.qos"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", modify: func(*Config) {}},
		{name: "missing id", modify: func(c *Config) { c.Gateway.ID = "" }, wantErr: "gateway.id"},
		{name: "bad health interval", modify: func(c *Config) { c.Gateway.HealthInterval = 0 }, wantErr: "health_interval"},
		{name: "missing broker", modify: func(c *Config) { c.MQTT.Broker.Host = "" }, wantErr: "mqtt.broker.host"},
		{name: "broker port", modify: func(c *Config) { c.MQTT.Broker.Port = 70000 }, wantErr: "mqtt.broker.port"},
		{name: "negative qos", modify: func(c *Config) { c.MQTT.QoS = -1 }, wantErr: "mqtt.qos"},
		{name: "wildcard prefix", modify: func(c *Config) { c.MQTT.TopicPrefix = "ems/#" }, wantErr: "topic_prefix"},
		{name: "trailing slash prefix", modify: func(c *Config) { c.MQTT.TopicPrefix = "ems/" }, wantErr: "topic_prefix"},
		{name: "http port", modify: func(c *Config) { c.HTTP.Port = 0 }, wantErr: "http.port"},
		{name: "http port ignored when disabled", modify: func(c *Config) { c.HTTP.Enabled = false; c.HTTP.Port = 0 }},
		{name: "log level", modify: func(c *Config) { c.Logging.Level = "loud" }, wantErr: "logging.level"},
		{name: "log format", modify: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("EMSGW_MQTT_HOST", "mqtt.example")
	t.Setenv("EMSGW_MQTT_PORT", "1884")
	t.Setenv("EMSGW_MQTT_PASSWORD", "hunter2")
	t.Setenv("EMSGW_MQTT_TOPIC_PREFIX", "boiler-room")
	t.Setenv("EMSGW_GATEWAY_BUS_ADDRESS", "0x0A")

	cfg := Default()
	if err := applyEnvOverrides(cfg); err != nil {
		t.Fatalf("applyEnvOverrides() error = %v", err)
	}

	if cfg.MQTT.Broker.Host != "mqtt.example" {
		t.Errorf("MQTT.Broker.Host = %q", cfg.MQTT.Broker.Host)
	}
	if cfg.MQTT.Broker.Port != 1884 {
		t.Errorf("MQTT.Broker.Port = %d", cfg.MQTT.Broker.Port)
	}
	if cfg.MQTT.Auth.Password != "hunter2" {
		t.Error("MQTT password override not applied")
	}
	if cfg.MQTT.TopicPrefix != "boiler-room" {
		t.Errorf("TopicPrefix = %q", cfg.MQTT.TopicPrefix)
	}
	if cfg.GatewayAddress() != ems.Address(0x0A) {
		t.Errorf("GatewayAddress() = %s, want 0x0A", cfg.GatewayAddress())
	}
}

func TestApplyEnvOverrides_BadInteger(t *testing.T) {
	t.Setenv("EMSGW_HTTP_PORT", "eighty")
	if err := applyEnvOverrides(Default()); err == nil {
		t.Error("applyEnvOverrides() expected error for non-numeric port")
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := Default()
	if got := cfg.GetReadTimeout(); got != 10*time.Second {
		t.Errorf("GetReadTimeout() = %v", got)
	}
	if got := cfg.GetWriteTimeout(); got != 10*time.Second {
		t.Errorf("GetWriteTimeout() = %v", got)
	}
	if got := cfg.GetIdleTimeout(); got != 60*time.Second {
		t.Errorf("GetIdleTimeout() = %v", got)
	}
}
