package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrMelker/EMS-ESP/internal/ems"
)

var decodeProduct uint8

var decodeCmd = &cobra.Command{
	Use:   "decode [frame]",
	Short: "Decode EMS frames",
	Long: `Decode parses a frame given as hex and decodes its payload against the
message catalog. Without arguments one frame per line is read from stdin.

The sender is identified by its address role. Pass --product to decode as
a specific catalog device.

Examples:
  emsctl decode 08 00 18 00 4B 01 F4
  emsctl decode --product 86 "10 00 3E 00 00 02 96 00 D2" -o json
  cat capture.txt | emsctl decode`,

	RunE: runDecode,
}

func init() {
	decodeCmd.Flags().Uint8Var(&decodeProduct, "product", 0, "Product id of the sending device")
}

// decodeResult is the JSON form of one decoded frame.
type decodeResult struct {
	Frame    string               `json:"frame"`
	Source   ems.Address          `json:"source"`
	Dest     ems.Address          `json:"destination"`
	Read     bool                 `json:"read,omitempty"`
	Type     ems.TypeID           `json:"type"`
	Offset   uint8                `json:"offset"`
	Device   string               `json:"device,omitempty"`
	Message  string               `json:"message,omitempty"`
	Readings map[string]ems.Value `json:"readings,omitempty"`
	Warnings []string             `json:"warnings,omitempty"`
	Error    string               `json:"error,omitempty"`
}

func runDecode(cmd *cobra.Command, args []string) error {
	var frames []string
	if len(args) > 0 {
		frames = []string{strings.Join(args, " ")}
	} else {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" && !strings.HasPrefix(line, "#") {
				frames = append(frames, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
	}
	if len(frames) == 0 {
		return fmt.Errorf("no frame given")
	}

	out := formatter(cmd)
	results := make([]decodeResult, 0, len(frames))
	failed := 0
	for _, frame := range frames {
		res, decoded := decodeFrame(frame)
		if res.Error != "" {
			failed++
			logger.Debug("frame not decoded", "frame", frame, "error", res.Error)
		}
		results = append(results, res)
		if !out.JSON() {
			printDecoded(out, res, decoded)
		}
	}

	if out.JSON() {
		var err error
		if len(results) == 1 {
			err = out.PrintJSON(results[0])
		} else {
			err = out.PrintJSON(results)
		}
		if err != nil {
			return err
		}
	}

	// A single bad frame is an error; in a batch it is reported inline.
	if len(frames) == 1 && failed == 1 {
		return fmt.Errorf("%s", results[0].Error)
	}
	return nil
}

// decodeFrame parses and decodes one frame. The Decoded value is only
// meaningful when res.Error is empty.
func decodeFrame(frame string) (decodeResult, ems.Decoded) {
	res := decodeResult{Frame: frame}

	t, err := ems.ParseHex(frame)
	if err != nil {
		res.Error = err.Error()
		return res, ems.Decoded{}
	}
	res.Source, res.Dest, res.Read = t.Source, t.Destination, t.Read
	res.Type, res.Offset = t.Type, t.Offset

	dev, err := senderDescriptor(t.Source, ems.ProductID(decodeProduct))
	if err != nil {
		res.Error = err.Error()
		return res, ems.Decoded{}
	}
	res.Device = dev.String()

	if t.Read {
		res.Error = "read request, no payload to decode"
		return res, ems.Decoded{}
	}

	msg, ok := ems.ResolveMessage(dev.Type, t.Type)
	if !ok {
		res.Error = fmt.Sprintf("no %s message with type %s", dev.Type, t.Type)
		return res, ems.Decoded{}
	}
	res.Message = msg.Key()

	decoded, err := ems.DecodeTelegram(t, msg)
	if err != nil {
		res.Error = err.Error()
		return res, ems.Decoded{}
	}
	res.Readings = decoded.Map()
	for _, w := range decoded.Warnings {
		res.Warnings = append(res.Warnings, w.Error())
	}
	return res, decoded
}

// senderDescriptor identifies the device at addr, by product id when one
// is given and by address role otherwise.
func senderDescriptor(addr ems.Address, pid ems.ProductID) (ems.DeviceDescriptor, error) {
	if pid != 0 {
		dev, ok := ems.Classify(addr, pid)
		if !ok {
			return ems.DeviceDescriptor{}, fmt.Errorf("product %d is not a known device at %s", pid, addr)
		}
		return dev, nil
	}
	dev, ok := ems.GenericDescriptor(addr)
	if !ok {
		return ems.DeviceDescriptor{}, fmt.Errorf("%w: %s", ems.ErrUnknownDevice, addr)
	}
	return dev, nil
}

func printDecoded(out *Formatter, res decodeResult, decoded ems.Decoded) {
	out.PrintKeyValue(map[string]any{
		"Frame":   res.Frame,
		"Source":  res.Source,
		"Dest":    res.Dest,
		"Type":    res.Type,
		"Offset":  res.Offset,
		"Device":  res.Device,
		"Message": res.Message,
		"Error":   res.Error,
	}, presentKeys(res))

	if res.Error == "" {
		rows := make([][]string, 0, len(decoded.Readings))
		for _, r := range decoded.Readings {
			unit := ""
			if f, ok := decoded.Message.Field(r.Field); ok {
				unit = fieldUnit(f)
			}
			rows = append(rows, []string{r.Field, r.Value.String(), unit})
		}
		out.Printf("\n")
		out.PrintTable([]string{"FIELD", "VALUE", "UNIT"}, rows)
		for _, w := range res.Warnings {
			out.Printf("warning: %s\n", w)
		}
	}
	out.Printf("\n")
}

func presentKeys(res decodeResult) []string {
	keys := []string{"Frame", "Source", "Dest", "Type", "Offset"}
	if res.Device != "" {
		keys = append(keys, "Device")
	}
	if res.Message != "" {
		keys = append(keys, "Message")
	}
	if res.Error != "" {
		keys = append(keys, "Error")
	}
	return keys
}

func fieldUnit(f ems.FieldSpec) string {
	if f.Unit == "" && f.Kind() == ems.KindTemperature {
		return "°C"
	}
	return f.Unit
}
