// EMS Gateway - heating bus to MQTT bridge
//
// The gateway listens to raw EMS telegrams forwarded by a bus adapter over
// MQTT, identifies the devices on the bus, publishes their decoded readings
// as JSON and turns JSON commands back into write telegrams.
//
// Configuration is read from configs/config.yaml or the file named by
// EMSGW_CONFIG, with EMSGW_* environment overrides.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MrMelker/EMS-ESP/internal/api"
	"github.com/MrMelker/EMS-ESP/internal/bridges/emsmqtt"
	"github.com/MrMelker/EMS-ESP/internal/infrastructure/config"
	"github.com/MrMelker/EMS-ESP/internal/infrastructure/logging"
	"github.com/MrMelker/EMS-ESP/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting EMS gateway",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.Component("mqtt"))
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	bridge, err := startBridge(ctx, cfg, mqttClient, log)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("stopping EMS bridge")
		bridge.Stop()
	}()

	// Retained state may have been lost with the broker session, so the
	// next telegram of every message is published again.
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
		bridge.ClearStateCache()
	})

	if cfg.HTTP.Enabled {
		srv, srvErr := startAPI(ctx, cfg, bridge, log)
		if srvErr != nil {
			return srvErr
		}
		defer func() {
			if closeErr := srv.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("HTTP server disabled")
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: mqtt: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	// Deferred calls run in reverse order: API server, bridge, MQTT.
	return nil
}

// getConfigPath returns the configuration file path.
// EMSGW_CONFIG wins; otherwise the default path is used when it exists,
// and an empty path (defaults plus environment) when it does not.
func getConfigPath() string {
	if path := os.Getenv("EMSGW_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat(defaultConfigPath); errors.Is(err, os.ErrNotExist) {
		return ""
	}
	return defaultConfigPath
}

// startBridge creates and starts the EMS bridge.
func startBridge(ctx context.Context, cfg *config.Config, mqttClient *mqtt.Client, log *logging.Logger) (*emsmqtt.Bridge, error) {
	bridge, err := emsmqtt.NewBridge(emsmqtt.BridgeOptions{
		Config:     cfg,
		MQTTClient: &mqttBridgeAdapter{client: mqttClient},
		Logger:     log.Component("emsmqtt"),
		Version:    version,
	})
	if err != nil {
		return nil, fmt.Errorf("creating EMS bridge: %w", err)
	}

	if err := bridge.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting EMS bridge: %w", err)
	}
	log.Info("EMS bridge started",
		"bus_address", cfg.GatewayAddress(),
		"topic_prefix", cfg.MQTT.TopicPrefix,
	)
	return bridge, nil
}

// startAPI starts the status and metrics HTTP server.
func startAPI(ctx context.Context, cfg *config.Config, bridge *emsmqtt.Bridge, log *logging.Logger) (*api.Server, error) {
	srv, err := api.New(api.Deps{
		Config:   cfg.HTTP,
		Logger:   log.Component("api"),
		Bridge:   bridge,
		Gatherer: bridge.Metrics().Registry(),
		Version:  version,
	})
	if err != nil {
		return nil, fmt.Errorf("creating API server: %w", err)
	}
	if err := srv.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting API server: %w", err)
	}
	return srv, nil
}

// mqttBridgeAdapter adapts the infrastructure MQTT client to the bridge's
// MQTTClient interface. The infrastructure handlers return an error, the
// bridge's handlers do not.
type mqttBridgeAdapter struct {
	client *mqtt.Client
}

// Publish implements emsmqtt.MQTTClient.
func (a *mqttBridgeAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements emsmqtt.MQTTClient.
func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

// IsConnected implements emsmqtt.MQTTClient.
func (a *mqttBridgeAdapter) IsConnected() bool {
	return a.client.IsConnected()
}
