package emsmqtt

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MrMelker/EMS-ESP/internal/ems"
)

// LearnedDevice is a device that announced itself with a Version telegram.
type LearnedDevice struct {
	Address    ems.Address          `json:"address"`
	ProductID  ems.ProductID        `json:"productId"`
	Version    string               `json:"version,omitempty"`
	Descriptor ems.DeviceDescriptor `json:"descriptor"`
	FirstSeen  time.Time            `json:"firstSeen"`
	LastSeen   time.Time            `json:"lastSeen"`
}

// DeviceTable holds the devices learned on the bus, keyed by address.
//
// Thread Safety: All methods are safe for concurrent use.
type DeviceTable struct {
	mu      sync.RWMutex
	devices map[ems.Address]*LearnedDevice
}

// NewDeviceTable creates an empty table.
func NewDeviceTable() *DeviceTable {
	return &DeviceTable{devices: make(map[ems.Address]*LearnedDevice)}
}

// Learn records the product reported by addr. Unlisted products are stored
// with the generic descriptor of the address. changed is true when the
// device is new or now reports another product or version.
func (t *DeviceTable) Learn(addr ems.Address, pid ems.ProductID, version string, now time.Time) (LearnedDevice, bool, error) {
	desc, ok := ems.Classify(addr, pid)
	if !ok {
		desc, ok = ems.GenericDescriptor(addr)
		if !ok {
			return LearnedDevice{}, false, fmt.Errorf("%w: address %s is not reserved", ems.ErrUnknownDevice, addr)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if cur, ok := t.devices[addr]; ok {
		changed := cur.ProductID != pid || cur.Version != version
		cur.ProductID = pid
		cur.Version = version
		cur.Descriptor = desc
		cur.LastSeen = now
		return *cur, changed, nil
	}

	d := &LearnedDevice{
		Address:    addr,
		ProductID:  pid,
		Version:    version,
		Descriptor: desc,
		FirstSeen:  now,
		LastSeen:   now,
	}
	t.devices[addr] = d
	return *d, true, nil
}

// Get returns the device learned at addr.
func (t *DeviceTable) Get(addr ems.Address) (LearnedDevice, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, ok := t.devices[addr]
	if !ok {
		return LearnedDevice{}, false
	}
	return *d, true
}

// Touch updates the last-seen time of a learned device.
func (t *DeviceTable) Touch(addr ems.Address, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if d, ok := t.devices[addr]; ok {
		d.LastSeen = now
	}
}

// List returns the learned devices ordered by address.
func (t *DeviceTable) List() []LearnedDevice {
	t.mu.RLock()
	out := make([]LearnedDevice, 0, len(t.devices))
	for _, d := range t.devices {
		out = append(out, *d)
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// Len returns the number of learned devices.
func (t *DeviceTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.devices)
}

// formatVersion renders the version bytes of a Version telegram as "4.02".
func formatVersion(d ems.Decoded) string {
	major, ok1 := d.Get("versionMajor")
	minor, ok2 := d.Get("versionMinor")
	if !ok1 || !ok2 {
		return ""
	}
	return fmt.Sprintf("%d.%02d", major.(ems.Integer), minor.(ems.Integer))
}
