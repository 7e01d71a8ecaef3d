// Package logging provides structured logging for the EMS gateway.
//
// It wraps log/slog and adds the service and version fields to every
// record. Output is JSON by default and text when logging.format is "text".
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, discard
//
// Never log MQTT credentials.
package logging
