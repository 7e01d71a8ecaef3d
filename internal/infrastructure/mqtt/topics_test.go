package mqtt

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/MrMelker/EMS-ESP/internal/infrastructure/config"
)

func TestTopicBuilders(t *testing.T) {
	topics := NewTopics("home/ems")

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"RawRx", topics.RawRx(), "home/ems/raw/rx"},
		{"RawTx", topics.RawTx(), "home/ems/raw/tx"},
		{"State", topics.State("0x10", "RC35StatusMessage_hc1"), "home/ems/state/0x10/RC35StatusMessage_hc1"},
		{"Command", topics.Command("0x08"), "home/ems/command/0x08"},
		{"Ack", topics.Ack("cmd-1"), "home/ems/ack/cmd-1"},
		{"Health", topics.Health(), "home/ems/health"},
		{"Discovery", topics.Discovery(), "home/ems/discovery"},
		{"Status", topics.Status(), "home/ems/status"},
		{"AllCommands", topics.AllCommands(), "home/ems/command/#"},
		{"AllStates", topics.AllStates(), "home/ems/state/#"},
	}
	for _, tt := range tests {
		if tt.got != tt.expected {
			t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.expected)
		}
	}
}

func TestNewTopicsDefaults(t *testing.T) {
	if got := NewTopics("").Health(); got != "ems/health" {
		t.Errorf("Health() = %q, want ems/health", got)
	}
	if got := NewTopics("gw/").Health(); got != "gw/health" {
		t.Errorf("Health() = %q, want gw/health", got)
	}
}

func TestParseCommandAddress(t *testing.T) {
	topics := NewTopics("ems")

	tests := []struct {
		topic   string
		want    string
		wantErr bool
	}{
		{"ems/command/0x10", "0x10", false},
		{"ems/command/", "", true},
		{"ems/command/0x10/extra", "", true},
		{"other/command/0x10", "", true},
		{"ems/state/0x10/x", "", true},
	}
	for _, tt := range tests {
		got, err := topics.ParseCommandAddress(tt.topic)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCommandAddress(%q) error = %v, wantErr %v", tt.topic, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidTopic) {
			t.Errorf("error = %v, want ErrInvalidTopic", err)
		}
		if got != tt.want {
			t.Errorf("ParseCommandAddress(%q) = %q, want %q", tt.topic, got, tt.want)
		}
	}
}

func TestValidatePublishTopic(t *testing.T) {
	for _, topic := range []string{"", "ems/state/#", "ems/+/x"} {
		if err := validatePublishTopic(topic); !errors.Is(err, ErrInvalidTopic) {
			t.Errorf("validatePublishTopic(%q) = %v, want ErrInvalidTopic", topic, err)
		}
	}
	if err := validatePublishTopic("ems/raw/tx"); err != nil {
		t.Errorf("validatePublishTopic() = %v", err)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := config.Default().MQTT
	cfg.Broker.TLS = true
	cfg.Broker.Host = "broker.local"
	cfg.Broker.Port = 8883
	cfg.Auth.Username = "ems"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "ssl://broker.local:8883" {
		t.Errorf("Servers = %v, want ssl://broker.local:8883", opts.Servers)
	}
	if opts.ClientID != cfg.Broker.ClientID {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "ems" || opts.Password != "secret" {
		t.Error("credentials not applied")
	}
	if opts.TLSConfig == nil {
		t.Error("TLS config not set")
	}
	if !opts.AutoReconnect || !opts.CleanSession {
		t.Error("expected auto-reconnect with clean session")
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(config.Default().MQTT)
	configureLWT(opts, NewTopics("ems"), "gw-1")

	if !opts.WillEnabled || !opts.WillRetained {
		t.Fatal("LWT should be enabled and retained")
	}
	if opts.WillTopic != "ems/status" {
		t.Errorf("WillTopic = %q", opts.WillTopic)
	}

	var p statusPayload
	if err := json.Unmarshal(opts.WillPayload, &p); err != nil {
		t.Fatalf("WillPayload is not JSON: %v", err)
	}
	if p.Status != "offline" || p.ClientID != "gw-1" || p.Reason != "unexpected_disconnect" {
		t.Errorf("WillPayload = %+v", p)
	}
}

func TestClosedClientIsSafe(t *testing.T) {
	var c *Client
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil client = %v", err)
	}

	c = &Client{subscriptions: make(map[string]subscription)}
	if c.IsConnected() {
		t.Error("unconnected client reports connected")
	}
	if err := c.Publish("ems/raw/tx", nil, 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
	if err := c.Subscribe("ems/raw/rx", 3, func(string, []byte) error { return nil }); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe() error = %v, want ErrInvalidQoS", err)
	}
}
