// Package ingest bridges MQTT telemetry into the gateway write path.
//
// The bridge subscribes to a single configurable topic and treats each
// message as a JSON data point in the same shape the HTTP API accepts:
//
//	{"measurement": "temperature", "tags": {"sensor_id": "s1"}, "fields": {"value": 22.5}}
//
// Messages that fail to decode or validate are logged and dropped; there
// is no reply channel on a telemetry feed, so a bad sample must never
// stall the subscription.
//
// The bridge is optional and only started when ingest.enabled is set.
package ingest
