// Package config loads and validates the EMS gateway configuration.
//
// Loading order: built-in defaults, then the YAML file, then environment
// variables prefixed EMSGW_. Validate reports every problem at once so a
// broken file can be fixed in one pass.
//
// Credentials (EMSGW_MQTT_PASSWORD) should come from the environment rather
// than the file.
//
//	cfg, err := config.Load("configs/emsgateway.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.MQTT.TopicPrefix)
package config
