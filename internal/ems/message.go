package ems

import (
	"fmt"
	"strings"
)

// TypeID identifies a telegram type. Classic EMS types fit in one byte,
// EMS+ types use two.
type TypeID uint16

func (t TypeID) String() string {
	if t > 0xFF {
		return fmt.Sprintf("0x%04X", uint16(t))
	}
	return fmt.Sprintf("0x%02X", uint16(t))
}

// MarshalText implements encoding.TextMarshaler.
func (t TypeID) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// MessageKind separates broadcasts from writable parameter blocks.
type MessageKind uint8

// Message kinds.
const (
	MessageMonitor MessageKind = iota + 1
	MessageSet
)

func (k MessageKind) String() string {
	switch k {
	case MessageMonitor:
		return "monitor"
	case MessageSet:
		return "set"
	default:
		return fmt.Sprintf("messagekind(%d)", uint8(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k MessageKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// MessageDescriptor describes one telegram type of one device type.
// Descriptors are built at package init and must not be modified.
type MessageDescriptor struct {
	Name   string      `json:"name"`
	TypeID TypeID      `json:"typeId"`
	Owner  DeviceType  `json:"owner"`
	Family Family      `json:"family"`
	Kind   MessageKind `json:"kind"`

	// Circuit is 1..4 for heating-circuit variants and 0 otherwise.
	Circuit uint8 `json:"circuit,omitempty"`

	// Extended messages travel in EMS+ framing even when the type id fits
	// in one byte.
	Extended bool `json:"extended,omitempty"`

	fields []FieldSpec
}

// Fields returns the field layout in declaration order.
func (m *MessageDescriptor) Fields() []FieldSpec {
	out := make([]FieldSpec, len(m.fields))
	copy(out, m.fields)
	return out
}

// Field returns the named field.
func (m *MessageDescriptor) Field(name string) (FieldSpec, bool) {
	for _, f := range m.fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// Key returns a stable identifier such as "RC35StatusMessage" or
// "RC35StatusMessage_hc2".
func (m *MessageDescriptor) Key() string {
	if m.Circuit == 0 {
		return m.Name
	}
	return fmt.Sprintf("%s_hc%d", m.Name, m.Circuit)
}

// Writable reports whether the message is a parameter block that accepts writes.
func (m *MessageDescriptor) Writable() bool {
	return m.Kind == MessageSet
}

// messageDef declares a message or a heating-circuit family. A family lists
// one type id per circuit in circuit order and shares one layout.
type messageDef struct {
	name     string
	owner    DeviceType
	family   Family
	kind     MessageKind
	ids      []TypeID
	extended bool
	fields   []FieldSpec
}

type messageKey struct {
	owner DeviceType
	id    TypeID
}

var (
	messages     []*MessageDescriptor
	messageIndex map[messageKey]*MessageDescriptor
)

func init() {
	var err error
	messages, messageIndex, err = buildMessages(messageDefs())
	if err != nil {
		panic(err)
	}
}

// buildMessages expands circuit families and checks the table.
func buildMessages(defs []messageDef) ([]*MessageDescriptor, map[messageKey]*MessageDescriptor, error) {
	list := make([]*MessageDescriptor, 0, len(defs))
	index := make(map[messageKey]*MessageDescriptor, len(defs))

	for _, def := range defs {
		if err := validateLayout(def.name, def.fields); err != nil {
			return nil, nil, err
		}
		if len(def.ids) == 0 {
			return nil, nil, fmt.Errorf("ems: message %s has no type id", def.name)
		}

		for i, id := range def.ids {
			m := &MessageDescriptor{
				Name:     def.name,
				TypeID:   id,
				Owner:    def.owner,
				Family:   def.family,
				Kind:     def.kind,
				Extended: def.extended || id > 0xFF,
				fields:   def.fields,
			}
			if len(def.ids) > 1 {
				m.Circuit = uint8(i + 1)
			}

			key := messageKey{owner: def.owner, id: id}
			if prev, dup := index[key]; dup {
				return nil, nil, fmt.Errorf("ems: type %s of %s declared by %s and %s",
					id, def.owner, prev.Key(), m.Key())
			}
			index[key] = m
			list = append(list, m)
		}
	}
	return list, index, nil
}

func validateLayout(name string, fields []FieldSpec) error {
	for i, f := range fields {
		if err := f.validate(); err != nil {
			return fmt.Errorf("ems: message %s: %w", name, err)
		}
		for _, o := range fields[:i] {
			if o.Name == f.Name {
				return fmt.Errorf("ems: message %s: duplicate field %s", name, f.Name)
			}
			if o.overlaps(f) {
				return fmt.Errorf("ems: message %s: field %s overlaps %s", name, f.Name, o.Name)
			}
		}
	}
	return nil
}

// ResolveMessage returns the descriptor for a telegram type sent by a device
// of the given type. A false result is the normal outcome for the many
// telegram types that are not modelled.
func ResolveMessage(owner DeviceType, id TypeID) (*MessageDescriptor, bool) {
	m, ok := messageIndex[messageKey{owner: owner, id: id}]
	return m, ok
}

// LookupMessage finds a descriptor by name. The name may carry a circuit
// suffix ("RC35Set_hc2"); otherwise circuit selects the variant, with 0
// meaning "the only variant" or HC1 for circuit families.
func LookupMessage(owner DeviceType, name string, circuit uint8) (*MessageDescriptor, bool) {
	if base, hc, ok := splitCircuit(name); ok {
		name, circuit = base, hc
	}
	var first *MessageDescriptor
	for _, m := range messages {
		if m.Owner != owner || !strings.EqualFold(m.Name, name) {
			continue
		}
		if m.Circuit == circuit {
			return m, true
		}
		if circuit == 0 && first == nil {
			first = m
		}
	}
	return first, first != nil
}

func splitCircuit(name string) (string, uint8, bool) {
	i := strings.LastIndex(strings.ToLower(name), "_hc")
	if i < 0 || i+4 != len(name) {
		return name, 0, false
	}
	d := name[i+3]
	if d < '1' || d > '4' {
		return name, 0, false
	}
	return name[:i], d - '0', true
}

// Messages returns every descriptor in declaration order, circuit variants
// expanded.
func Messages() []*MessageDescriptor {
	out := make([]*MessageDescriptor, len(messages))
	copy(out, messages)
	return out
}

// MessagesFor returns the descriptors owned by a device type.
func MessagesFor(owner DeviceType) []*MessageDescriptor {
	var out []*MessageDescriptor
	for _, m := range messages {
		if m.Owner == owner {
			out = append(out, m)
		}
	}
	return out
}
