package ems

import (
	"bytes"
	"errors"
	"testing"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Telegram
		wantErr bool
	}{
		{
			name: "boiler broadcast",
			in:   "08 00 18 00 4B 02 1C",
			want: Telegram{Source: AddrBoiler, Destination: AddrNone, Type: 0x18, Data: []byte{0x4B, 0x02, 0x1C}},
		},
		{
			name: "EMS+ write with polled source",
			in:   "90 30 FF 06 00 01 50",
			want: Telegram{Source: AddrThermostat1, Destination: AddrSolar, Type: 0x0001, Offset: 6, Extended: true, Data: []byte{0x50}},
		},
		{
			name: "EMS+ status",
			in:   "10:00:FF:00:01:A5:00:D7",
			want: Telegram{Source: AddrThermostat1, Type: 0x01A5, Extended: true, Data: []byte{0x00, 0xD7}},
		},
		{
			name: "read request",
			in:   "0B880200 20",
			want: Telegram{Source: AddrServiceKey, Destination: AddrBoiler, Read: true, Type: TypeVersion, Data: []byte{0x20}},
		},
		{
			name: "header only",
			in:   "08 0B 02 00",
			want: Telegram{Source: AddrBoiler, Destination: AddrServiceKey, Type: TypeVersion, Data: []byte{}},
		},
		{name: "too short", in: "08 00 18", wantErr: true},
		{name: "EMS+ too short", in: "10 00 FF 00 01", wantErr: true},
		{name: "not hex", in: "zz 00 18 00", wantErr: true},
		{name: "odd digits", in: "08 00 18 0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHex(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTelegram) {
					t.Fatalf("ParseHex() error = %v, want ErrInvalidTelegram", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHex() error = %v", err)
			}
			if got.Source != tt.want.Source || got.Destination != tt.want.Destination ||
				got.Read != tt.want.Read || got.Type != tt.want.Type ||
				got.Offset != tt.want.Offset || got.Extended != tt.want.Extended {
				t.Errorf("ParseHex() = %+v, want %+v", got, tt.want)
			}
			if !bytes.Equal(got.Data, tt.want.Data) {
				t.Errorf("Data = % X, want % X", got.Data, tt.want.Data)
			}
		})
	}
}

func TestTelegramBytesRoundTrip(t *testing.T) {
	frames := [][]byte{
		{0x08, 0x00, 0x18, 0x00, 0x4B, 0x02, 0x1C},
		{0x0B, 0x88, 0x02, 0x00, 0x20},
		{0x10, 0x00, 0xFF, 0x00, 0x01, 0xA5, 0x00, 0xD7},
		{0x0B, 0x30, 0xFF, 0x06, 0x00, 0x01, 0x50},
	}
	for _, frame := range frames {
		tel, err := ParseTelegram(frame)
		if err != nil {
			t.Fatalf("ParseTelegram(% X) error = %v", frame, err)
		}
		if got := tel.Bytes(); !bytes.Equal(got, frame) {
			t.Errorf("Bytes() = % X, want % X", got, frame)
		}
	}
}

func TestParseTelegramCopiesData(t *testing.T) {
	frame := []byte{0x08, 0x00, 0x18, 0x00, 0x4B}
	tel, _ := ParseTelegram(frame)
	frame[4] = 0
	if tel.Data[0] != 0x4B {
		t.Error("telegram data aliases the input frame")
	}
}

func TestReadRequest(t *testing.T) {
	msg := mustResolve(t, DeviceTypeThermostat, TypeRCPLUSSet)
	got := ReadRequest(AddrThermostat1, msg, 0, 11).Bytes()
	want := []byte{0x0B, 0x90, 0xFF, 0x00, 0x01, 0xB9, 0x0B}
	if !bytes.Equal(got, want) {
		t.Errorf("ReadRequest() = % X, want % X", got, want)
	}
}

func TestTelegramString(t *testing.T) {
	tel := Telegram{Source: AddrBoiler, Destination: AddrNone, Type: 0x18, Data: []byte{0x4B, 0x02}}
	want := "0x08 -> 0x00 write type 0x18 offset 0 data 4B 02"
	if got := tel.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
