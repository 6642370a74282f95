// Package influxdb records ulink transmission telemetry in InfluxDB v2.
//
// It wraps influxdb-client-go with connection management, non-blocking
// batched writes and health checks.
//
// # Measurements
//
//	ulink_transmission    one point per finished transmission
//	                      tags: site
//	                      fields: transmission_id, payload_length, cycles,
//	                              packets, send_failures
//	ulink_send_failure    one point per failed socket open or send
//	                      tags: site, group
//	                      fields: transmission_id, count
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	client.WriteSendFailure("bench-01", id, 0)
//
// Writes are batched according to batch_size and flush_interval. Async
// write errors are delivered to the SetOnError callback.
package influxdb
