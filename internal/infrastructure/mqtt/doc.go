// Package mqtt provides MQTT client connectivity for Heatwarden.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Heatwarden talks to thermostats through zigbee2mqtt, which exposes every
// device as a pair of MQTT topics (state and command). The monitor's own
// query/reply protocol rides the same broker under a separate base topic.
//
//	Heatwarden ↔ MQTT Broker ↔ zigbee2mqtt ↔ Zigbee thermostats
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{Base: cfg.MQTT.BaseTopic, MonitorBase: cfg.Monitor.BaseTopic}
//
//	// Watch a thermostat's reported state
//	err = client.Subscribe(topics.DeviceState("Bad OG Thermostat"), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Push a configuration payload
//	client.Publish(topics.DeviceCommand("Bad OG Thermostat"), payload, 1, false)
package mqtt
