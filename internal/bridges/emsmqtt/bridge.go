package emsmqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrMelker/EMS-ESP/internal/ems"
	"github.com/MrMelker/EMS-ESP/internal/infrastructure/config"
	"github.com/MrMelker/EMS-ESP/internal/infrastructure/mqtt"
)

// versionReadLength is the number of bytes asked for in Version requests.
const versionReadLength = 0x20

// maxImageLength bounds the cached payload image of one message.
const maxImageLength = 64

// Bridge translates between the raw EMS frame feed and decoded MQTT topics.
// It handles:
//   - Learning devices from Version telegrams
//   - Decoding telegrams and publishing changed state
//   - Turning commands into write telegrams for the transport
//   - Health reporting and graceful shutdown
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	cfg     *config.Config
	mqtt    MQTTClient
	topics  mqtt.Topics
	qos     byte
	busAddr ems.Address
	health  *HealthReporter
	metrics *Metrics
	devices *DeviceTable

	// State cache for change detection, keyed by state topic.
	stateCache   map[string]map[string]ems.Value
	stateCacheMu sync.RWMutex

	// Last known payload bytes per message, for bit field writes.
	images   map[imageKey][]byte
	imagesMu sync.Mutex

	lastFrame   time.Time
	lastFrameMu sync.RWMutex

	// Shutdown coordination
	done     chan struct{}
	stopOnce sync.Once

	logger   Logger
	loggerMu sync.RWMutex
}

type imageKey struct {
	addr ems.Address
	typ  ems.TypeID
}

// MQTTClient is the interface for MQTT operations.
// The gateway adapts *mqtt.Client to it; tests use a mock.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error
	IsConnected() bool
}

// Logger is the structured logging interface used by the bridge.
// Satisfied by *logging.Logger and *slog.Logger.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// BridgeOptions holds configuration for creating a bridge.
type BridgeOptions struct {
	// Config is the loaded gateway configuration.
	Config *config.Config

	// MQTTClient is the MQTT client implementation.
	MQTTClient MQTTClient

	// Logger is optional structured logger.
	Logger Logger

	// Metrics is optional; a fresh set is created when nil.
	Metrics *Metrics

	// Version is reported in health messages.
	Version string
}

// NewBridge creates a new bridge instance. Call Start to begin operation.
func NewBridge(opts BridgeOptions) (*Bridge, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}

	topics := mqtt.NewTopics(opts.Config.MQTT.TopicPrefix)
	b := &Bridge{
		cfg:        opts.Config,
		mqtt:       opts.MQTTClient,
		topics:     topics,
		qos:        byte(opts.Config.MQTT.QoS), //nolint:gosec // validated to 0..2 by config
		busAddr:    opts.Config.GatewayAddress(),
		metrics:    metrics,
		devices:    NewDeviceTable(),
		stateCache: make(map[string]map[string]ems.Value),
		images:     make(map[imageKey][]byte),
		done:       make(chan struct{}),
		logger:     opts.Logger,
	}

	b.health = NewHealthReporter(HealthReporterConfig{
		BridgeID:  opts.Config.Gateway.ID,
		Version:   version,
		Topic:     topics.Health(),
		Interval:  opts.Config.GetHealthInterval(),
		Publisher: opts.MQTTClient,
		Source:    b,
	})
	if opts.Logger != nil {
		b.health.SetLogger(opts.Logger)
	}

	return b, nil
}

// Start subscribes to the raw feed and command topics, asks devices for
// their Version when configured to, and starts health reporting.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.health.PublishStarting(); err != nil {
		b.logError("failed to publish starting status", err)
	}

	rx := b.topics.RawRx()
	if err := b.mqtt.Subscribe(rx, b.qos, b.handleRawFrame); err != nil {
		return fmt.Errorf("subscribe to raw frames: %w", err)
	}
	b.logInfo("subscribed to raw frames", "topic", rx)

	commands := b.topics.AllCommands()
	if err := b.mqtt.Subscribe(commands, 1, b.handleCommandMessage); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.logInfo("subscribed to commands", "topic", commands)

	if b.cfg.Gateway.RequestVersions {
		b.requestVersions()
	}

	b.health.Start(ctx)

	b.logInfo("bridge started",
		"bridge_id", b.cfg.Gateway.ID,
		"bus_address", b.busAddr.String())
	return nil
}

// Stop gracefully shuts down the bridge. Safe to call multiple times.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)
		b.health.Stop()
		b.logInfo("bridge stopped")
	})
}

func (b *Bridge) stopped() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

// requestVersions sends a Version read request to every reserved address
// that can host a device.
func (b *Bridge) requestVersions() {
	for _, role := range ems.Roles() {
		if role.Type == ems.DeviceTypeNone || role.Type == ems.DeviceTypeServiceKey || role.Address == b.busAddr {
			continue
		}
		msg, ok := ems.ResolveMessage(role.Type, ems.TypeVersion)
		if !ok {
			continue
		}
		t := ems.ReadRequest(role.Address, msg, 0, versionReadLength)
		t.Source = b.busAddr
		if err := b.sendTelegram(t); err != nil {
			b.logError("failed to request version", fmt.Errorf("%s: %w", role.Address, err))
		}
	}
}

// sendTelegram hands a telegram to the transport.
func (b *Bridge) sendTelegram(t ems.Telegram) error {
	payload, err := json.Marshal(NewRawFrame(t))
	if err != nil {
		return err
	}
	return b.mqtt.Publish(b.topics.RawTx(), payload, 1, false)
}

// handleRawFrame processes one frame delivered by the transport.
func (b *Bridge) handleRawFrame(_ string, payload []byte) {
	if b.stopped() {
		return
	}
	b.metrics.frameReceived()
	b.markFrame(time.Now())

	var raw RawFrame
	if err := json.Unmarshal(payload, &raw); err != nil {
		b.metrics.frameInvalid()
		b.logDebug("ignoring malformed raw payload", "error", err)
		return
	}
	t, err := ems.ParseHex(raw.Frame)
	if err != nil {
		b.metrics.frameInvalid()
		b.logDebug("ignoring invalid frame", "frame", raw.Frame, "error", err)
		return
	}

	// Read requests carry no values and our own writes echo back.
	if t.Read || t.Source == b.busAddr {
		return
	}

	b.handleTelegram(t)
}

func (b *Bridge) handleTelegram(t ems.Telegram) {
	now := time.Now()

	if t.Type == ems.TypeVersion && t.Offset == 0 {
		b.learnDevice(t, now)
	}

	dev, ok := b.deviceFor(t.Source)
	if !ok {
		b.metrics.deviceUnknown()
		b.logDebug("telegram from unreserved address", "telegram", t.String())
		return
	}
	b.devices.Touch(t.Source, now)

	msg, ok := ems.ResolveMessage(dev.Type, t.Type)
	if !ok {
		b.metrics.typeUnknown()
		b.logDebug("no layout for telegram", "device", dev.Name, "type", t.Type.String())
		return
	}

	b.updateImage(t)

	decoded, err := ems.DecodeTelegram(t, msg)
	if err != nil {
		b.logError("decode failed", err)
		return
	}
	if len(decoded.Warnings) > 0 {
		b.metrics.fieldsTruncated(len(decoded.Warnings))
		b.logWarn("telegram shorter than layout",
			"device", dev.Name,
			"message", msg.Key(),
			"offset", t.Offset,
			"length", len(t.Data),
			"skipped", len(decoded.Warnings))
	}
	if len(decoded.Readings) == 0 {
		return
	}
	b.metrics.telegramDecoded(t.Source, decoded)

	b.publishState(t.Source, dev, decoded)
}

// learnDevice records the device behind a Version telegram and republishes
// discovery when the device table changed.
func (b *Bridge) learnDevice(t ems.Telegram, now time.Time) {
	role, ok := ems.RoleOf(t.Source)
	if !ok {
		return
	}
	msg, ok := ems.ResolveMessage(role.Type, ems.TypeVersion)
	if !ok {
		return
	}
	decoded, err := ems.DecodeTelegram(t, msg)
	if err != nil {
		return
	}
	pidValue, ok := decoded.Get("productId")
	if !ok {
		return
	}

	pid := ems.ProductID(pidValue.(ems.Integer)) //nolint:gosec // one-byte field
	learned, changed, err := b.devices.Learn(t.Source, pid, formatVersion(decoded), now)
	if err != nil {
		b.metrics.deviceUnknown()
		b.logDebug("cannot learn device", "error", err)
		return
	}
	if !changed {
		return
	}

	if learned.Descriptor.Generic {
		b.metrics.deviceUnknown()
		b.logWarn("unlisted product, using generic descriptor",
			"address", t.Source.String(),
			"product_id", int(pid),
			"type", learned.Descriptor.Type.String())
	} else {
		b.logInfo("device learned",
			"address", t.Source.String(),
			"device", learned.Descriptor.Name,
			"product_id", int(pid),
			"version", learned.Version)
	}
	b.metrics.setDevices(b.devices.Len())
	b.publishDiscovery()
}

// deviceFor returns the learned descriptor of addr, or the generic
// descriptor of its role before the device has announced itself.
func (b *Bridge) deviceFor(addr ems.Address) (ems.DeviceDescriptor, bool) {
	if d, ok := b.devices.Get(addr); ok {
		return d.Descriptor, true
	}
	return ems.GenericDescriptor(addr)
}

func (b *Bridge) publishDiscovery() {
	msg := DiscoveryMessage{
		Timestamp: time.Now().UTC(),
		Bridge:    b.cfg.Gateway.ID,
		Devices:   b.devices.List(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		b.logError("failed to marshal discovery", err)
		return
	}
	if err := b.mqtt.Publish(b.topics.Discovery(), payload, 1, true); err != nil {
		b.logError("failed to publish discovery", err)
	}
}

// publishState merges the readings into the cached state of the message and
// publishes the result when anything changed.
func (b *Bridge) publishState(addr ems.Address, dev ems.DeviceDescriptor, decoded ems.Decoded) {
	topic := b.topics.State(addr.String(), decoded.Message.Key())

	state, changed := b.mergeState(topic, decoded.Readings)
	if !changed {
		return
	}

	payload, err := json.Marshal(NewStateMessage(addr, dev, decoded.Message, state))
	if err != nil {
		b.logError("failed to marshal state", err)
		return
	}
	if err := b.mqtt.Publish(topic, payload, b.qos, true); err != nil {
		b.logError("failed to publish state", err)
		return
	}
	b.logDebug("state published", "topic", topic, "fields", len(state))
}

// mergeState applies readings to the cached state of a topic and returns a
// copy of the merged state and whether any value differs from the cache.
func (b *Bridge) mergeState(topic string, readings []ems.Reading) (map[string]ems.Value, bool) {
	b.stateCacheMu.Lock()
	defer b.stateCacheMu.Unlock()

	cached := b.stateCache[topic]
	if cached == nil {
		cached = make(map[string]ems.Value, len(readings))
		b.stateCache[topic] = cached
	}

	changed := false
	for _, r := range readings {
		if old, ok := cached[r.Field]; !ok || old != r.Value {
			cached[r.Field] = r.Value
			changed = true
		}
	}

	out := make(map[string]ems.Value, len(cached))
	for k, v := range cached {
		out[k] = v
	}
	return out, changed
}

// ClearStateCache forgets all published state, so the next telegram of
// every message is published again.
func (b *Bridge) ClearStateCache() {
	b.stateCacheMu.Lock()
	defer b.stateCacheMu.Unlock()
	b.stateCache = make(map[string]map[string]ems.Value)
}

// updateImage copies the telegram data into the cached payload image of its
// message at the telegram offset.
func (b *Bridge) updateImage(t ems.Telegram) {
	end := int(t.Offset) + len(t.Data)
	if end > maxImageLength {
		return
	}

	b.imagesMu.Lock()
	defer b.imagesMu.Unlock()

	key := imageKey{addr: t.Source, typ: t.Type}
	img := b.images[key]
	if len(img) < end {
		grown := make([]byte, end)
		copy(grown, img)
		img = grown
	}
	copy(img[t.Offset:], t.Data)
	b.images[key] = img
}

// currentBytes returns a copy of the cached image of a message when it
// covers [offset, offset+n).
func (b *Bridge) currentBytes(addr ems.Address, typ ems.TypeID, offset uint8, n int) ([]byte, bool) {
	b.imagesMu.Lock()
	defer b.imagesMu.Unlock()

	img, ok := b.images[imageKey{addr: addr, typ: typ}]
	if !ok || int(offset)+n > len(img) {
		return nil, false
	}
	out := make([]byte, len(img))
	copy(out, img)
	return out, true
}

func (b *Bridge) markFrame(now time.Time) {
	b.lastFrameMu.Lock()
	b.lastFrame = now
	b.lastFrameMu.Unlock()
}

// LastFrame returns when the transport last delivered a frame.
func (b *Bridge) LastFrame() time.Time {
	b.lastFrameMu.RLock()
	defer b.lastFrameMu.RUnlock()
	return b.lastFrame
}

// Statistics returns the counters reported in health messages.
func (b *Bridge) Statistics() BridgeStatistics {
	return b.metrics.Snapshot()
}

// DeviceCount returns the number of learned devices.
func (b *Bridge) DeviceCount() int {
	return b.devices.Len()
}

// Devices returns the learned devices ordered by address.
func (b *Bridge) Devices() []LearnedDevice {
	return b.devices.List()
}

// Metrics returns the bridge's collectors.
func (b *Bridge) Metrics() *Metrics {
	return b.metrics
}

// Connected reports whether the MQTT client is connected.
func (b *Bridge) Connected() bool {
	return b.mqtt.IsConnected()
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()

	if b.health != nil {
		b.health.SetLogger(logger)
	}
}

func (b *Bridge) getLogger() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

func (b *Bridge) logError(msg string, err error) {
	if logger := b.getLogger(); logger != nil {
		logger.Error(msg, "error", err)
	}
}

func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}

// errorCode maps a command failure to its acknowledgement code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCommand), errors.Is(err, ErrUnsupportedValue):
		return ErrCodeInvalidCommand
	case errors.Is(err, ems.ErrUnknownDevice), errors.Is(err, ems.ErrInvalidAddress):
		return ErrCodeUnknownDevice
	case errors.Is(err, ems.ErrUnknownTelegramType):
		return ErrCodeUnknownMessage
	case errors.Is(err, ems.ErrUnknownField):
		return ErrCodeUnknownField
	case errors.Is(err, ems.ErrTypeMismatch):
		return ErrCodeTypeMismatch
	case errors.Is(err, ems.ErrInvalidEnumValue):
		return ErrCodeInvalidEnumValue
	case errors.Is(err, ems.ErrValueOutOfRange):
		return ErrCodeValueOutOfRange
	case errors.Is(err, ems.ErrWriteNotSupported):
		return ErrCodeWriteNotSupported
	case errors.Is(err, ErrReadOnlyMessage):
		return ErrCodeReadOnly
	case errors.Is(err, ErrFamilyMismatch):
		return ErrCodeFamilyMismatch
	case errors.Is(err, ErrCurrentValueUnknown):
		return ErrCodeValueUnknown
	default:
		return ErrCodeBridgeError
	}
}
