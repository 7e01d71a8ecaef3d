package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MrMelker/EMS-ESP/internal/ems"
)

var (
	encodeDest    string
	encodeProduct uint8
	encodeMessage string
	encodeCircuit uint8
	encodeField   string
	encodeValue   string
	encodeCurrent string
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Build a write telegram for one field",
	Long: `Encode builds the frame that sets one field of a settable message.

The target device is identified by its address and product id. Bit fields
share their byte with other settings, so their current byte must be given
with --current.

Examples:
  emsctl encode --dest 0x10 --product 86 --message RC35Set --field tempDay --value 21
  emsctl encode --dest 0x10 --product 86 --message RC35Set --circuit 2 --field mode --value auto`,

	RunE: runEncode,
}

func init() {
	encodeCmd.Flags().StringVar(&encodeDest, "dest", "", "Destination address (e.g. 0x10)")
	encodeCmd.Flags().Uint8Var(&encodeProduct, "product", 0, "Product id of the destination device")
	encodeCmd.Flags().StringVarP(&encodeMessage, "message", "m", "", "Message name, optionally with _hcN suffix")
	encodeCmd.Flags().Uint8Var(&encodeCircuit, "circuit", 0, "Heating circuit (1-4)")
	encodeCmd.Flags().StringVarP(&encodeField, "field", "f", "", "Field name")
	encodeCmd.Flags().StringVar(&encodeValue, "value", "", "Value to write")
	encodeCmd.Flags().StringVar(&encodeCurrent, "current", "", "Current byte of a bit field, as hex")

	for _, name := range []string{"dest", "product", "message", "field", "value"} {
		_ = encodeCmd.MarkFlagRequired(name)
	}
}

// encodeResult is the JSON form of a built telegram.
type encodeResult struct {
	Frame   string `json:"frame"`
	Device  string `json:"device"`
	Message string `json:"message"`
	Field   string `json:"field"`
	Value   string `json:"value"`
	Offset  uint8  `json:"offset"`
}

func runEncode(cmd *cobra.Command, _ []string) error {
	src, err := ems.ParseAddress(viper.GetString("source"))
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}
	dst, err := ems.ParseAddress(encodeDest)
	if err != nil {
		return fmt.Errorf("dest: %w", err)
	}
	dev, ok := ems.Classify(dst, ems.ProductID(encodeProduct))
	if !ok {
		return fmt.Errorf("%w: product %d at %s", ems.ErrUnknownDevice, encodeProduct, dst)
	}

	msg, ok := ems.LookupMessage(dev.Type, encodeMessage, encodeCircuit)
	if !ok {
		return fmt.Errorf("%s has no message %q", dev.Type, encodeMessage)
	}
	if !msg.Writable() {
		return fmt.Errorf("%s is not settable", msg.Key())
	}
	if msg.Family != ems.FamilyNone && msg.Family != dev.Capabilities.Family {
		return fmt.Errorf("%s belongs to %s, %s is %s", msg.Key(), msg.Family, dev.Name, dev.Capabilities.Family)
	}
	f, ok := msg.Field(encodeField)
	if !ok {
		return fmt.Errorf("%w: %s has no field %q", ems.ErrUnknownField, msg.Key(), encodeField)
	}

	v, err := parseValue(f, encodeValue)
	if err != nil {
		return err
	}
	patch, err := ems.Encode(dev, msg, f.Name, v)
	if err != nil {
		return err
	}
	if patch.Mask != 0xFF {
		if patch, err = mergeCurrent(patch, encodeCurrent); err != nil {
			return err
		}
	}

	t, err := patch.Telegram(src, dst)
	if err != nil {
		return err
	}
	logger.Debug("telegram built", "device", dev.Name, "message", msg.Key(), "field", f.Name)

	res := encodeResult{
		Frame:   fmt.Sprintf("% X", t.Bytes()),
		Device:  dev.Name,
		Message: msg.Key(),
		Field:   f.Name,
		Value:   v.String(),
		Offset:  patch.Offset,
	}
	out := formatter(cmd)
	if out.JSON() {
		return out.PrintJSON(res)
	}
	out.Printf("%s\n", res.Frame)
	return nil
}

// parseValue converts a command-line value to the kind field f expects.
func parseValue(f ems.FieldSpec, s string) (ems.Value, error) {
	switch f.Kind() {
	case ems.KindFlag:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects true or false", ems.ErrTypeMismatch, f.Name)
		}
		return ems.Flag(b), nil
	case ems.KindTemperature:
		c, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects a temperature", ems.ErrTypeMismatch, f.Name)
		}
		return ems.Celsius(c), nil
	case ems.KindMode:
		return ems.ModeNamed(s), nil
	default:
		n, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects an integer", ems.ErrTypeMismatch, f.Name)
		}
		return ems.Integer(n), nil
	}
}

// mergeCurrent turns a bit patch into a whole-byte patch using the
// current value of the byte.
func mergeCurrent(p ems.Patch, current string) (ems.Patch, error) {
	if current == "" {
		return p, fmt.Errorf("%w: pass --current", ems.ErrPartialWrite)
	}
	b, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(current), "0x"))
	if err != nil || len(b) != len(p.Data) {
		return p, fmt.Errorf("--current must be %d hex byte(s)", len(p.Data))
	}

	buf := make([]byte, int(p.Offset)+len(b))
	copy(buf[p.Offset:], b)
	if err := p.Apply(buf); err != nil {
		return p, err
	}
	p.Data = buf[p.Offset:]
	p.Mask = 0xFF
	return p, nil
}
