// Package mqtt connects the ulink sender to an MQTT broker.
//
// The broker is an optional control plane: remote tools publish start and
// stop commands and watch transmission events without talking HTTP.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS and payload size checks
//   - Subscriptions that survive reconnects
//   - Last Will and Testament (LWT) for offline detection
//
// # Topics
//
// Every topic lives under {prefix}/{site}:
//
//	ulink/ulink-001/command              start/stop requests (subscribed)
//	ulink/ulink-001/event/started        lifecycle events
//	ulink/ulink-001/event/stopped
//	ulink/ulink-001/state                retained running state
//	ulink/ulink-001/system/status        retained online/offline + LWT
//
// # Security Considerations
//
// Commands may carry Wi-Fi credentials. Use TLS and broker ACLs outside of
// a bench setup; payload bytes are never echoed back on event topics.
//
// # Usage
//
//	topics := mqtt.NewTopics(cfg.MQTT.TopicPrefix, cfg.Site.ID)
//	client, err := mqtt.Connect(cfg.MQTT, topics)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
package mqtt
