package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/MrMelker/EMS-ESP/internal/ems"
)

var (
	devicesType  string
	messagesType string
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List the device catalog",
	Long: `Devices lists every catalog entry with its product id, type and
write capabilities. Use --type to show one device type.

Examples:
  emsctl devices --type thermostat`,

	RunE: runDevices,
}

var messagesCmd = &cobra.Command{
	Use:   "messages [name]",
	Short: "List messages or show one message layout",
	Long: `Messages lists the message catalog. With a name it prints the field
layout of that message; --type then selects the owning device type and
defaults to thermostat.

Examples:
  emsctl messages --type boiler
  emsctl messages --type thermostat RC35Set_hc2`,

	Args: cobra.MaximumNArgs(1),
	RunE: runMessages,
}

func init() {
	devicesCmd.Flags().StringVar(&devicesType, "type", "", "Device type filter")
	messagesCmd.Flags().StringVar(&messagesType, "type", "", "Owner device type filter")
}

func runDevices(cmd *cobra.Command, _ []string) error {
	filter, err := deviceTypeFlag(devicesType)
	if err != nil {
		return err
	}

	devices := make([]ems.DeviceDescriptor, 0)
	for _, d := range ems.Devices() {
		if filter == ems.DeviceTypeNone || d.Type == filter {
			devices = append(devices, d)
		}
	}

	out := formatter(cmd)
	if out.JSON() {
		return out.PrintJSON(devices)
	}
	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, []string{
			strconv.Itoa(int(d.ProductID)),
			d.Type.String(),
			d.Name,
			d.Capabilities.Family.String(),
			strconv.FormatBool(d.Capabilities.Writable),
		})
	}
	out.PrintTable([]string{"PRODUCT", "TYPE", "NAME", "FAMILY", "WRITABLE"}, rows)
	return nil
}

func runMessages(cmd *cobra.Command, args []string) error {
	owner, err := deviceTypeFlag(messagesType)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		if owner == ems.DeviceTypeNone {
			owner = ems.DeviceTypeThermostat
		}
		return showMessage(cmd, owner, args[0])
	}

	msgs := ems.Messages()
	if owner != ems.DeviceTypeNone {
		msgs = ems.MessagesFor(owner)
	}

	out := formatter(cmd)
	if out.JSON() {
		views := make([]messageView, 0, len(msgs))
		for _, m := range msgs {
			views = append(views, newMessageView(m, false))
		}
		return out.PrintJSON(views)
	}
	rows := make([][]string, 0, len(msgs))
	for _, m := range msgs {
		rows = append(rows, []string{
			m.TypeID.String(),
			m.Key(),
			m.Owner.String(),
			m.Family.String(),
			m.Kind.String(),
		})
	}
	out.PrintTable([]string{"TYPE", "MESSAGE", "OWNER", "FAMILY", "KIND"}, rows)
	return nil
}

func showMessage(cmd *cobra.Command, owner ems.DeviceType, name string) error {
	msg, ok := ems.LookupMessage(owner, name, 0)
	if !ok {
		return fmt.Errorf("%s has no message %q", owner, name)
	}

	out := formatter(cmd)
	if out.JSON() {
		return out.PrintJSON(newMessageView(msg, true))
	}
	out.PrintKeyValue(map[string]any{
		"Message":  msg.Key(),
		"Type":     msg.TypeID,
		"Owner":    msg.Owner,
		"Family":   msg.Family,
		"Writable": msg.Writable(),
	}, []string{"Message", "Type", "Owner", "Family", "Writable"})
	out.Printf("\n")

	rows := make([][]string, 0)
	for _, f := range msg.Fields() {
		detail := fieldUnit(f)
		if f.Kind() == ems.KindFlag {
			detail = "bit " + strconv.Itoa(int(f.Bit))
		}
		if len(f.Values) > 0 {
			detail = fmt.Sprint(f.Values.Names())
		}
		rows = append(rows, []string{
			strconv.Itoa(int(f.Offset)),
			f.Name,
			f.Encoding.String(),
			detail,
		})
	}
	out.PrintTable([]string{"OFFSET", "FIELD", "ENCODING", "DETAIL"}, rows)
	return nil
}

// messageView is the JSON form of a message descriptor.
type messageView struct {
	Key      string          `json:"key"`
	TypeID   ems.TypeID      `json:"typeId"`
	Owner    ems.DeviceType  `json:"owner"`
	Family   ems.Family      `json:"family"`
	Kind     ems.MessageKind `json:"kind"`
	Writable bool            `json:"writable"`
	Fields   []ems.FieldSpec `json:"fields,omitempty"`
}

func newMessageView(m *ems.MessageDescriptor, withFields bool) messageView {
	v := messageView{
		Key:      m.Key(),
		TypeID:   m.TypeID,
		Owner:    m.Owner,
		Family:   m.Family,
		Kind:     m.Kind,
		Writable: m.Writable(),
	}
	if withFields {
		v.Fields = m.Fields()
	}
	return v
}
