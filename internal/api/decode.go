package api

import (
	"encoding/json"
	"net/http"

	"github.com/MrMelker/EMS-ESP/internal/ems"
)

// decodeRequest is the body of POST /api/v1/decode.
type decodeRequest struct {
	Frame string `json:"frame"`
}

// decodeResponse describes a decoded frame.
type decodeResponse struct {
	Telegram telegramView         `json:"telegram"`
	Device   ems.DeviceDescriptor `json:"device"`
	Message  string               `json:"message"`
	Readings map[string]ems.Value `json:"readings"`
	Warnings []string             `json:"warnings,omitempty"`
}

type telegramView struct {
	Source      ems.Address `json:"source"`
	Destination ems.Address `json:"destination"`
	Read        bool        `json:"read"`
	Type        ems.TypeID  `json:"type"`
	Offset      uint8       `json:"offset"`
	Extended    bool        `json:"extended,omitempty"`
}

// handleDecode decodes a pasted frame against the catalog. The sender is
// classified from the devices learned on the bus, falling back to the
// generic descriptor of its address.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	var req decodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	t, err := ems.ParseHex(req.Frame)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidFrame, err.Error())
		return
	}

	dev, ok := s.descriptorFor(t.Source)
	if !ok {
		writeError(w, http.StatusNotFound, ErrCodeUnknownDevice, "no device role at "+t.Source.String())
		return
	}
	msg, ok := ems.ResolveMessage(dev.Type, t.Type)
	if !ok {
		writeError(w, http.StatusNotFound, ErrCodeUnknownType, "no layout for type "+t.Type.String()+" from "+dev.Type.String())
		return
	}

	decoded, err := ems.DecodeTelegram(t, msg)
	if err != nil {
		writeInternalError(w, err.Error())
		return
	}

	resp := decodeResponse{
		Telegram: telegramView{
			Source:      t.Source,
			Destination: t.Destination,
			Read:        t.Read,
			Type:        t.Type,
			Offset:      t.Offset,
			Extended:    t.Extended,
		},
		Device:   dev,
		Message:  msg.Key(),
		Readings: decoded.Map(),
	}
	for _, warn := range decoded.Warnings {
		resp.Warnings = append(resp.Warnings, warn.Error())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) descriptorFor(addr ems.Address) (ems.DeviceDescriptor, bool) {
	if s.bridge != nil {
		for _, d := range s.bridge.Devices() {
			if d.Address == addr {
				return d.Descriptor, true
			}
		}
	}
	return ems.GenericDescriptor(addr)
}
