package emsmqtt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/MrMelker/EMS-ESP/internal/ems"
	"github.com/MrMelker/EMS-ESP/internal/infrastructure/config"
)

// MockMQTTClient implements MQTTClient for testing.
type MockMQTTClient struct {
	mu            sync.Mutex
	published     []mockPublish
	subscriptions []mockSubscription
	connected     bool
	handlers      map[string]func(topic string, payload []byte)
	publishErr    error
}

type mockPublish struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

type mockSubscription struct {
	Topic string
	QoS   byte
}

func NewMockMQTTClient() *MockMQTTClient {
	return &MockMQTTClient{
		connected: true,
		handlers:  make(map[string]func(topic string, payload []byte)),
	}
}

func (m *MockMQTTClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, mockPublish{
		Topic:    topic,
		Payload:  payload,
		QoS:      qos,
		Retained: retained,
	})
	return nil
}

func (m *MockMQTTClient) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = append(m.subscriptions, mockSubscription{Topic: topic, QoS: qos})
	m.handlers[topic] = handler
	return nil
}

func (m *MockMQTTClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockMQTTClient) GetPublished(topic string) []mockPublish {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []mockPublish
	for _, p := range m.published {
		if p.Topic == topic {
			out = append(out, p)
		}
	}
	return out
}

func (m *MockMQTTClient) GetSubscriptions() []mockSubscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscriptions
}

func (m *MockMQTTClient) ClearPublished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = nil
}

// SimulateMessage delivers a message to the handler whose subscription
// matches topic, honouring a trailing "#" wildcard.
func (m *MockMQTTClient) SimulateMessage(topic string, payload []byte) {
	m.mu.Lock()
	var handler func(string, []byte)
	for pattern, h := range m.handlers {
		root, wild := strings.CutSuffix(pattern, "/#")
		if pattern == topic || (wild && (topic == root || strings.HasPrefix(topic, root+"/"))) {
			handler = h
			break
		}
	}
	m.mu.Unlock()
	if handler != nil {
		handler(topic, payload)
	}
}

const (
	rc35Version   = "10 0B 02 00 56 01 05"
	boilerVersion = "08 0B 02 00 7B 03 01"
)

func createTestConfig() *config.Config {
	cfg := config.Default()
	cfg.Gateway.ID = "test-gateway"
	return cfg
}

func createTestBridge(t *testing.T, mqtt *MockMQTTClient) *Bridge {
	t.Helper()
	b, err := NewBridge(BridgeOptions{
		Config:     createTestConfig(),
		MQTTClient: mqtt,
		Version:    "test",
	})
	if err != nil {
		t.Fatalf("NewBridge() error: %v", err)
	}
	return b
}

func rawFrame(t *testing.T, hex string) []byte {
	t.Helper()
	payload, err := json.Marshal(RawFrame{Frame: hex})
	if err != nil {
		t.Fatalf("marshal raw frame: %v", err)
	}
	return payload
}

func lastState(t *testing.T, mqtt *MockMQTTClient, topic string) StateMessage {
	t.Helper()
	pubs := mqtt.GetPublished(topic)
	if len(pubs) == 0 {
		t.Fatalf("nothing published to %s", topic)
	}
	p := pubs[len(pubs)-1]
	if !p.Retained {
		t.Errorf("state on %s not retained", topic)
	}
	var raw struct {
		Address string         `json:"address"`
		Device  string         `json:"device"`
		Message string         `json:"message"`
		Type    string         `json:"type"`
		State   map[string]any `json:"state"`
	}
	if err := json.Unmarshal(p.Payload, &raw); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}
	return StateMessage{Address: raw.Address, Device: raw.Device, Message: raw.Message, Type: raw.Type, State: toValues(raw.State)}
}

// toValues keeps the JSON form of each reading so tests can compare it.
func toValues(in map[string]any) map[string]ems.Value {
	out := make(map[string]ems.Value, len(in))
	for k, v := range in {
		switch x := v.(type) {
		case float64:
			out[k] = ems.Celsius(x)
		case bool:
			out[k] = ems.Flag(x)
		case string:
			out[k] = ems.ModeNamed(x)
		}
	}
	return out
}

func TestNewBridge(t *testing.T) {
	mqtt := NewMockMQTTClient()

	tests := []struct {
		name    string
		opts    BridgeOptions
		wantErr bool
	}{
		{"valid", BridgeOptions{Config: createTestConfig(), MQTTClient: mqtt}, false},
		{"missing config", BridgeOptions{MQTTClient: mqtt}, true},
		{"missing mqtt", BridgeOptions{Config: createTestConfig()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBridge(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewBridge() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if b.health == nil || b.metrics == nil || b.devices == nil {
				t.Error("NewBridge() left collaborators nil")
			}
			if b.busAddr != ems.AddrServiceKey {
				t.Errorf("busAddr = %s, want 0x0B", b.busAddr)
			}
		})
	}
}

func TestBridgeStartSubscribes(t *testing.T) {
	mqtt := NewMockMQTTClient()
	b := createTestBridge(t, mqtt)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := b.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer b.Stop()

	want := map[string]bool{"ems/raw/rx": false, "ems/command/#": false}
	for _, s := range mqtt.GetSubscriptions() {
		if _, ok := want[s.Topic]; ok {
			want[s.Topic] = true
		}
	}
	for topic, seen := range want {
		if !seen {
			t.Errorf("not subscribed to %s", topic)
		}
	}

	if len(mqtt.GetPublished("ems/raw/tx")) != 0 {
		t.Error("version requests sent although request_versions is off")
	}
}

func TestBridgeStartRequestsVersions(t *testing.T) {
	mqtt := NewMockMQTTClient()
	cfg := createTestConfig()
	cfg.Gateway.RequestVersions = true
	b, err := NewBridge(BridgeOptions{Config: cfg, MQTTClient: mqtt})
	if err != nil {
		t.Fatalf("NewBridge() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := b.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer b.Stop()

	frames := map[string]bool{}
	for _, p := range mqtt.GetPublished("ems/raw/tx") {
		var raw RawFrame
		if err := json.Unmarshal(p.Payload, &raw); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		frames[raw.Frame] = true
	}

	for _, want := range []string{"0B 88 02 00 20", "0B 90 02 00 20", "0B B0 02 00 20"} {
		if !frames[want] {
			t.Errorf("missing version request %q in %v", want, frames)
		}
	}
	for f := range frames {
		if strings.HasPrefix(f, "0B 80 ") || strings.HasPrefix(f, "0B 8B ") {
			t.Errorf("version request to broadcast or to self: %q", f)
		}
	}
}

func TestBridgeLearnsDevices(t *testing.T) {
	mqtt := NewMockMQTTClient()
	b := createTestBridge(t, mqtt)

	b.handleRawFrame("ems/raw/rx", rawFrame(t, rc35Version))

	d, ok := b.devices.Get(ems.AddrThermostat1)
	if !ok {
		t.Fatal("RC35 not learned")
	}
	if d.Descriptor.Name != "RC35" || d.Descriptor.Generic {
		t.Errorf("descriptor = %+v, want RC35", d.Descriptor)
	}
	if d.Version != "1.05" {
		t.Errorf("version = %q, want 1.05", d.Version)
	}

	pubs := mqtt.GetPublished("ems/discovery")
	if len(pubs) != 1 {
		t.Fatalf("discovery published %d times, want 1", len(pubs))
	}
	var disc DiscoveryMessage
	if err := json.Unmarshal(pubs[0].Payload, &disc); err != nil {
		t.Fatalf("unmarshal discovery: %v", err)
	}
	if len(disc.Devices) != 1 || disc.Devices[0].Address != ems.AddrThermostat1 {
		t.Errorf("discovery devices = %+v", disc.Devices)
	}

	// The same version again changes nothing.
	b.handleRawFrame("ems/raw/rx", rawFrame(t, rc35Version))
	if n := len(mqtt.GetPublished("ems/discovery")); n != 1 {
		t.Errorf("discovery republished for unchanged device (%d)", n)
	}

	if got := b.Statistics().TelegramsReceived; got != 2 {
		t.Errorf("TelegramsReceived = %d, want 2", got)
	}
}

func TestBridgeUnlistedProductIsGeneric(t *testing.T) {
	mqtt := NewMockMQTTClient()
	b := createTestBridge(t, mqtt)

	b.handleRawFrame("ems/raw/rx", rawFrame(t, "10 0B 02 00 FE 01 00"))

	d, ok := b.devices.Get(ems.AddrThermostat1)
	if !ok {
		t.Fatal("device not learned")
	}
	if !d.Descriptor.Generic || d.Descriptor.Capabilities.Writable {
		t.Errorf("descriptor = %+v, want generic read-only", d.Descriptor)
	}
	if d.ProductID != 0xFE {
		t.Errorf("ProductID = %d, want 254", d.ProductID)
	}
}

func TestBridgePublishesState(t *testing.T) {
	mqtt := NewMockMQTTClient()
	b := createTestBridge(t, mqtt)

	b.handleRawFrame("ems/raw/rx", rawFrame(t, boilerVersion))
	b.handleRawFrame("ems/raw/rx", rawFrame(t, "08 00 18 00 4B 01 F4 3C 32"))

	state := lastState(t, mqtt, "ems/state/0x08/UBAMonitorFast")
	if state.Message != "UBAMonitorFast" || state.Type != "0x18" {
		t.Errorf("state header = %+v", state)
	}
	if v := state.State["curFlowTemp"]; v != ems.Celsius(50) {
		t.Errorf("curFlowTemp = %v, want 50.0", v)
	}
	if v := state.State["selFlowTemp"]; v != ems.Celsius(75) {
		t.Errorf("selFlowTemp = %v, want 75", v)
	}

	// Same payload: no republish.
	b.handleRawFrame("ems/raw/rx", rawFrame(t, "08 00 18 00 4B 01 F4 3C 32"))
	if n := len(mqtt.GetPublished("ems/state/0x08/UBAMonitorFast")); n != 1 {
		t.Errorf("unchanged state published %d times, want 1", n)
	}

	// A fragment at offset 1 updates one field and keeps the others.
	b.handleRawFrame("ems/raw/rx", rawFrame(t, "08 00 18 01 02 08"))
	state = lastState(t, mqtt, "ems/state/0x08/UBAMonitorFast")
	if v := state.State["curFlowTemp"]; v != ems.Celsius(52) {
		t.Errorf("curFlowTemp after fragment = %v, want 52.0", v)
	}
	if _, ok := state.State["selFlowTemp"]; !ok {
		t.Error("merged state lost selFlowTemp")
	}
}

func TestBridgeCircuitStateTopic(t *testing.T) {
	mqtt := NewMockMQTTClient()
	b := createTestBridge(t, mqtt)

	b.handleRawFrame("ems/raw/rx", rawFrame(t, rc35Version))
	b.handleRawFrame("ems/raw/rx", rawFrame(t, "10 00 48 00 00 02 96 00 D2"))

	state := lastState(t, mqtt, "ems/state/0x10/RC35StatusMessage_hc2")
	if v := state.State["setpoint"]; v != ems.Celsius(15) {
		t.Errorf("setpoint = %v, want 15.0", v)
	}
	if v := state.State["dayMode"]; v != ems.Flag(true) {
		t.Errorf("dayMode = %v, want true", v)
	}
}

func TestBridgeIgnoresFrames(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		invalid bool
	}{
		{"not json", []byte("08 00 18"), true},
		{"bad hex", []byte(`{"frame":"zz"}`), true},
		{"too short", []byte(`{"frame":"08 00"}`), true},
		{"read request", []byte(`{"frame":"0B 88 18 00 20"}`), false},
		{"own echo", []byte(`{"frame":"0B 10 3D 02 D2"}`), false},
		{"unreserved address", []byte(`{"frame":"44 00 18 00 01"}`), false},
		{"unmodelled type", []byte(`{"frame":"08 00 07 00 01 02"}`), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mqtt := NewMockMQTTClient()
			b := createTestBridge(t, mqtt)

			b.handleRawFrame("ems/raw/rx", tt.payload)

			if pubs := mqtt.GetPublished("ems/state/0x08/UBAMonitorFast"); len(pubs) != 0 {
				t.Error("state published for ignored frame")
			}
			stats := b.Statistics()
			if stats.TelegramsDecoded != 0 {
				t.Errorf("TelegramsDecoded = %d, want 0", stats.TelegramsDecoded)
			}
			if (stats.Errors == 1) != tt.invalid {
				t.Errorf("Errors = %d, invalid = %v", stats.Errors, tt.invalid)
			}
		})
	}
}

func TestBridgeDecodesBeforeVersion(t *testing.T) {
	mqtt := NewMockMQTTClient()
	b := createTestBridge(t, mqtt)

	// The boiler has not announced itself; its role still selects the layout.
	b.handleRawFrame("ems/raw/rx", rawFrame(t, "08 00 18 00 4B 01 F4"))

	state := lastState(t, mqtt, "ems/state/0x08/UBAMonitorFast")
	if state.Device != "UBAMaster" {
		t.Errorf("device = %q, want generic UBAMaster", state.Device)
	}
	if b.DeviceCount() != 0 {
		t.Errorf("DeviceCount() = %d, want 0", b.DeviceCount())
	}
}

func sendCommand(t *testing.T, mqtt *MockMQTTClient, topic string, cmd map[string]any) AckMessage {
	t.Helper()
	payload, err := json.Marshal(cmd)
	if err != nil {
		t.Fatalf("marshal command: %v", err)
	}
	mqtt.SimulateMessage(topic, payload)

	id, _ := cmd["id"].(string)
	pubs := mqtt.GetPublished("ems/ack/" + id)
	if len(pubs) != 1 {
		t.Fatalf("ack for %q published %d times, want 1", id, len(pubs))
	}
	var ack AckMessage
	if err := json.Unmarshal(pubs[0].Payload, &ack); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	return ack
}

func startedBridge(t *testing.T, mqtt *MockMQTTClient) *Bridge {
	t.Helper()
	b := createTestBridge(t, mqtt)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := b.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	t.Cleanup(b.Stop)
	return b
}

func TestBridgeCommandAccepted(t *testing.T) {
	mqtt := NewMockMQTTClient()
	b := startedBridge(t, mqtt)
	b.handleRawFrame("ems/raw/rx", rawFrame(t, rc35Version))
	mqtt.ClearPublished()

	ack := sendCommand(t, mqtt, "ems/command/0x10", map[string]any{
		"id":      "cmd-1",
		"message": "RC35Set",
		"field":   "tempDay",
		"value":   21,
	})

	if ack.Status != AckAccepted {
		t.Fatalf("ack = %+v, want accepted", ack)
	}
	if ack.Frame != "0B 10 3D 02 D2" {
		t.Errorf("ack frame = %q, want 0B 10 3D 02 D2", ack.Frame)
	}
	if ack.Message != "RC35Set_hc1" {
		t.Errorf("ack message = %q", ack.Message)
	}

	tx := mqtt.GetPublished("ems/raw/tx")
	if len(tx) != 2 {
		t.Fatalf("raw/tx published %d frames, want write and read-back", len(tx))
	}
	var write, readBack RawFrame
	_ = json.Unmarshal(tx[0].Payload, &write)
	_ = json.Unmarshal(tx[1].Payload, &readBack)
	if write.Frame != "0B 10 3D 02 D2" {
		t.Errorf("write frame = %q", write.Frame)
	}
	if readBack.Frame != "0B 90 3D 00 20" {
		t.Errorf("read-back frame = %q", readBack.Frame)
	}
	if got := b.Statistics().CommandsSent; got != 1 {
		t.Errorf("CommandsSent = %d, want 1", got)
	}
}

func TestBridgeCommandVariants(t *testing.T) {
	tests := []struct {
		name      string
		topic     string
		cmd       map[string]any
		wantFrame string
	}{
		{
			name:      "circuit suffix",
			topic:     "ems/command/0x10",
			cmd:       map[string]any{"id": "a", "message": "RC35Set_hc2", "field": "mode", "value": "auto"},
			wantFrame: "0B 10 47 07 02",
		},
		{
			name:      "circuit field",
			topic:     "ems/command/0x10",
			cmd:       map[string]any{"id": "b", "message": "RC35Set", "circuit": 3, "field": "tempNight", "value": 16.5},
			wantFrame: "0B 10 51 01 A5",
		},
		{
			name:      "type id",
			topic:     "ems/command/0x10",
			cmd:       map[string]any{"id": "c", "type": "0x3D", "field": "heatingType", "value": "floor"},
			wantFrame: "0B 10 3D 00 03",
		},
		{
			name:      "address in payload",
			topic:     "ems/command",
			cmd:       map[string]any{"id": "d", "device": "10h", "message": "RC35Set", "field": "tempHoliday", "value": 12},
			wantFrame: "0B 10 3D 03 78",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mqtt := NewMockMQTTClient()
			b := startedBridge(t, mqtt)
			b.handleRawFrame("ems/raw/rx", rawFrame(t, rc35Version))

			ack := sendCommand(t, mqtt, tt.topic, tt.cmd)
			if ack.Status != AckAccepted {
				t.Fatalf("ack = %+v, error %+v", ack, ack.Error)
			}
			if ack.Frame != tt.wantFrame {
				t.Errorf("frame = %q, want %q", ack.Frame, tt.wantFrame)
			}
		})
	}
}

func TestBridgeCommandRejected(t *testing.T) {
	tests := []struct {
		name     string
		topic    string
		cmd      map[string]any
		wantCode string
	}{
		{"unknown device", "ems/command/0x18", map[string]any{"id": "1", "message": "RC35Set", "field": "tempDay", "value": 20}, ErrCodeUnknownDevice},
		{"bad address", "ems/command/xyz", map[string]any{"id": "2", "message": "RC35Set", "field": "tempDay", "value": 20}, ErrCodeUnknownDevice},
		{"unknown message", "ems/command/0x10", map[string]any{"id": "3", "message": "Nope", "field": "tempDay", "value": 20}, ErrCodeUnknownMessage},
		{"unknown type", "ems/command/0x10", map[string]any{"id": "4", "type": "0x99", "field": "tempDay", "value": 20}, ErrCodeUnknownMessage},
		{"no message", "ems/command/0x10", map[string]any{"id": "5", "field": "tempDay", "value": 20}, ErrCodeInvalidCommand},
		{"no field", "ems/command/0x10", map[string]any{"id": "6", "message": "RC35Set", "value": 20}, ErrCodeInvalidCommand},
		{"null value", "ems/command/0x10", map[string]any{"id": "7", "message": "RC35Set", "field": "tempDay", "value": nil}, ErrCodeInvalidCommand},
		{"monitor message", "ems/command/0x10", map[string]any{"id": "8", "message": "RC35StatusMessage", "field": "setpoint", "value": 20}, ErrCodeReadOnly},
		{"other family", "ems/command/0x10", map[string]any{"id": "9", "message": "RC20Set", "field": "temp", "value": 20}, ErrCodeFamilyMismatch},
		{"unknown field", "ems/command/0x10", map[string]any{"id": "10", "message": "RC35Set", "field": "nope", "value": 20}, ErrCodeUnknownField},
		{"type mismatch", "ems/command/0x10", map[string]any{"id": "11", "message": "RC35Set", "field": "mode", "value": 2}, ErrCodeTypeMismatch},
		{"bad enum", "ems/command/0x10", map[string]any{"id": "12", "message": "RC35Set", "field": "mode", "value": "turbo"}, ErrCodeInvalidEnumValue},
		{"out of range", "ems/command/0x10", map[string]any{"id": "13", "message": "RC35Set", "field": "tempDay", "value": 30}, ErrCodeValueOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mqtt := NewMockMQTTClient()
			b := startedBridge(t, mqtt)
			b.handleRawFrame("ems/raw/rx", rawFrame(t, rc35Version))
			mqtt.ClearPublished()

			ack := sendCommand(t, mqtt, tt.topic, tt.cmd)
			if ack.Status != AckFailed || ack.Error == nil {
				t.Fatalf("ack = %+v, want failed", ack)
			}
			if ack.Error.Code != tt.wantCode {
				t.Errorf("code = %s, want %s (%s)", ack.Error.Code, tt.wantCode, ack.Error.Message)
			}
			if n := len(mqtt.GetPublished("ems/raw/tx")); n != 0 {
				t.Errorf("%d frames sent for rejected command", n)
			}
		})
	}
}

func TestBridgeCommandReadOnlyDevice(t *testing.T) {
	mqtt := NewMockMQTTClient()
	b := startedBridge(t, mqtt)
	b.handleRawFrame("ems/raw/rx", rawFrame(t, "10 0B 02 00 FE 01 00"))

	ack := sendCommand(t, mqtt, "ems/command/0x10", map[string]any{
		"id": "ro", "message": "RC35Set", "field": "tempDay", "value": 20,
	})
	if ack.Error == nil || ack.Error.Code != ErrCodeWriteNotSupported {
		t.Errorf("ack = %+v, want %s", ack, ErrCodeWriteNotSupported)
	}
}

func TestBridgeCommandGeneratesID(t *testing.T) {
	mqtt := NewMockMQTTClient()
	startedBridge(t, mqtt)

	mqtt.SimulateMessage("ems/command/0x10", []byte(`{"message":"RC35Set","field":"tempDay","value":20}`))

	mqtt.mu.Lock()
	defer mqtt.mu.Unlock()
	found := false
	for _, p := range mqtt.published {
		if strings.HasPrefix(p.Topic, "ems/ack/") && len(p.Topic) > len("ems/ack/") {
			found = true
		}
	}
	if !found {
		t.Error("no ack published for command without id")
	}
}

func TestBridgeMalformedCommand(t *testing.T) {
	mqtt := NewMockMQTTClient()
	b := startedBridge(t, mqtt)

	mqtt.SimulateMessage("ems/command/0x10", []byte(`{not json`))

	if got := b.Statistics().Errors; got != 1 {
		t.Errorf("Errors = %d, want 1", got)
	}
}

func TestMergeBitPatch(t *testing.T) {
	mqtt := NewMockMQTTClient()
	b := createTestBridge(t, mqtt)

	patch := ems.Patch{Type: 0x3E, Offset: 1, Data: []byte{0x02}, Mask: 0x02}
	if _, err := b.mergeBitPatch(ems.AddrThermostat1, patch); !errors.Is(err, ErrCurrentValueUnknown) {
		t.Fatalf("mergeBitPatch() without image error = %v, want ErrCurrentValueUnknown", err)
	}

	t1, err := ems.ParseHex("10 00 3E 00 20 01 96")
	if err != nil {
		t.Fatal(err)
	}
	b.updateImage(t1)

	merged, err := b.mergeBitPatch(ems.AddrThermostat1, patch)
	if err != nil {
		t.Fatalf("mergeBitPatch() error: %v", err)
	}
	if merged.Mask != 0xFF || len(merged.Data) != 1 || merged.Data[0] != 0x03 {
		t.Errorf("merged = %+v, want data 03", merged)
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ems.ErrUnknownDevice, ErrCodeUnknownDevice},
		{ems.ErrInvalidAddress, ErrCodeUnknownDevice},
		{ems.ErrUnknownTelegramType, ErrCodeUnknownMessage},
		{ems.ErrUnknownField, ErrCodeUnknownField},
		{ems.ErrTypeMismatch, ErrCodeTypeMismatch},
		{ems.ErrInvalidEnumValue, ErrCodeInvalidEnumValue},
		{ems.ErrValueOutOfRange, ErrCodeValueOutOfRange},
		{ems.ErrWriteNotSupported, ErrCodeWriteNotSupported},
		{ErrReadOnlyMessage, ErrCodeReadOnly},
		{ErrFamilyMismatch, ErrCodeFamilyMismatch},
		{ErrCurrentValueUnknown, ErrCodeValueUnknown},
		{ErrUnsupportedValue, ErrCodeInvalidCommand},
		{errors.New("boom"), ErrCodeBridgeError},
	}
	for _, tt := range tests {
		if got := errorCode(tt.err); got != tt.want {
			t.Errorf("errorCode(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestClearStateCache(t *testing.T) {
	mqtt := NewMockMQTTClient()
	b := createTestBridge(t, mqtt)

	frame := rawFrame(t, "08 00 18 00 4B 01 F4")
	b.handleRawFrame("ems/raw/rx", frame)
	b.ClearStateCache()
	b.handleRawFrame("ems/raw/rx", frame)

	if n := len(mqtt.GetPublished("ems/state/0x08/UBAMonitorFast")); n != 2 {
		t.Errorf("published %d times after cache clear, want 2", n)
	}
}
