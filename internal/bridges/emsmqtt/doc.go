// Package emsmqtt bridges a raw EMS bus feed on MQTT to decoded device state.
//
// A transport process (serial adapter, Wi-Fi gateway) owns the bus itself and
// exchanges framed telegrams with this package over two MQTT topics. The
// bridge learns which devices are present, decodes their telegrams and turns
// JSON commands into write telegrams.
//
// # Architecture
//
//	┌──────────────┐  raw/rx   ┌──────────────┐  state/...   ┌─────────────┐
//	│  transport   │──────────►│    Bridge    │─────────────►│  consumers  │
//	│  (EMS bus)   │◄──────────│ (this pkg)   │◄─────────────│             │
//	└──────────────┘  raw/tx   └──────────────┘  command/... └─────────────┘
//
// # Topics
//
// All topics live below a configurable prefix (default "ems"):
//
//	ems/raw/rx                    {"frame":"08 00 18 00 ..."} from the bus
//	ems/raw/tx                    {"frame":"0B 10 3D 02 2C"} to the bus
//	ems/state/{addr}/{message}    decoded readings, retained
//	ems/command/{addr}            write requests
//	ems/ack/{id}                  command outcome
//	ems/discovery                 devices learned from Version telegrams, retained
//	ems/health                    periodic health, retained
//
// # Device learning
//
// A device is known once its Version (0x02) telegram has been seen. Its
// product id is classified against the catalog; an unlisted product falls
// back to the generic descriptor of its address, which decodes but never
// accepts writes.
//
// # Thread Safety
//
// All exported types are safe for concurrent use from multiple goroutines.
package emsmqtt
