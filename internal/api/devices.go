package api

import (
	"net/http"

	"github.com/MrMelker/EMS-ESP/internal/bridges/emsmqtt"
)

// handleListDevices returns the devices learned on the bus.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := []emsmqtt.LearnedDevice{}
	if s.bridge != nil {
		devices = s.bridge.Devices()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}
