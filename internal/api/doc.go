// Package api implements the gateway's HTTP status surface.
//
// This package provides:
//   - Health and Prometheus metrics endpoints
//   - Read-only views of the device and message catalogs
//   - The devices learned on the bus by the bridge
//   - A stateless decoder for pasted frames
//   - Middleware stack (request ID, logging, recovery, body limit)
//
// # Graceful Degradation
//
// The server runs without a bridge; bus views are then empty and the health
// endpoint reports MQTT as disconnected.
package api
