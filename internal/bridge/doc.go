// Package bridge connects a ulink controller to MQTT.
//
// Commands arrive on {prefix}/{site}/command as JSON:
//
//	{"action": "start", "text": "hello", "null_terminate": true}
//	{"action": "start", "hex": "de:ad:be:ef"}
//	{"action": "stop"}
//
// Every lifecycle event is published to {prefix}/{site}/event/{type}, and
// the controller status is kept as a retained message on
// {prefix}/{site}/state so new subscribers see whether a transmission is
// running.
package bridge
