package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrMelker/EMS-ESP/internal/ems"
)

// messageView is the JSON form of a message descriptor.
type messageView struct {
	Key      string          `json:"key"`
	Name     string          `json:"name"`
	TypeID   ems.TypeID      `json:"typeId"`
	Owner    ems.DeviceType  `json:"owner"`
	Family   ems.Family      `json:"family"`
	Kind     ems.MessageKind `json:"kind"`
	Circuit  uint8           `json:"circuit,omitempty"`
	Extended bool            `json:"extended,omitempty"`
	Writable bool            `json:"writable"`
	Fields   []ems.FieldSpec `json:"fields,omitempty"`
}

func newMessageView(m *ems.MessageDescriptor, withFields bool) messageView {
	v := messageView{
		Key:      m.Key(),
		Name:     m.Name,
		TypeID:   m.TypeID,
		Owner:    m.Owner,
		Family:   m.Family,
		Kind:     m.Kind,
		Circuit:  m.Circuit,
		Extended: m.Extended,
		Writable: m.Writable(),
	}
	if withFields {
		v.Fields = m.Fields()
	}
	return v
}

// deviceTypeParam parses the optional ?type= filter. ok is false when the
// value is present but unknown.
func deviceTypeParam(r *http.Request) (ems.DeviceType, bool, bool) {
	raw := r.URL.Query().Get("type")
	if raw == "" {
		return ems.DeviceTypeNone, false, true
	}
	t, ok := ems.ParseDeviceType(raw)
	return t, true, ok
}

// handleCatalogDevices lists the device catalog, optionally filtered by type.
func (s *Server) handleCatalogDevices(w http.ResponseWriter, r *http.Request) {
	filter, filtered, ok := deviceTypeParam(r)
	if !ok {
		writeBadRequest(w, "unknown device type")
		return
	}

	out := make([]ems.DeviceDescriptor, 0)
	for _, d := range ems.Devices() {
		if filtered && d.Type != filter {
			continue
		}
		out = append(out, d)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": out,
		"count":   len(out),
	})
}

// handleCatalogMessages lists message descriptors, optionally filtered by owner type.
func (s *Server) handleCatalogMessages(w http.ResponseWriter, r *http.Request) {
	filter, filtered, ok := deviceTypeParam(r)
	if !ok {
		writeBadRequest(w, "unknown device type")
		return
	}

	msgs := ems.Messages()
	if filtered {
		msgs = ems.MessagesFor(filter)
	}
	out := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, newMessageView(m, false))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"messages": out,
		"count":    len(out),
	})
}

// handleCatalogMessage returns one message with its field layout.
func (s *Server) handleCatalogMessage(w http.ResponseWriter, r *http.Request) {
	owner, ok := ems.ParseDeviceType(chi.URLParam(r, "owner"))
	if !ok {
		writeBadRequest(w, "unknown device type")
		return
	}
	msg, ok := ems.LookupMessage(owner, chi.URLParam(r, "name"), 0)
	if !ok {
		writeNotFound(w, "message not found")
		return
	}
	writeJSON(w, http.StatusOK, newMessageView(msg, true))
}
