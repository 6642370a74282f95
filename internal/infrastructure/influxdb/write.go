package influxdb

import (
	"strconv"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementTransmission = "ulink_transmission"
	MeasurementSendFailure  = "ulink_send_failure"
)

// TransmissionStats summarises one finished transmission.
type TransmissionStats struct {
	TransmissionID string
	PayloadLength  int
	Cycles         uint64
	Packets        uint64
	SendFailures   uint64
}

// WriteTransmission records the summary of a finished transmission.
func (c *Client) WriteTransmission(site string, stats TransmissionStats) {
	if !c.IsConnected() {
		return
	}

	// #nosec G115 -- counters stay far below MaxInt64
	point := write.NewPoint(MeasurementTransmission,
		map[string]string{
			"site": site,
		},
		map[string]interface{}{
			"transmission_id": stats.TransmissionID,
			"payload_length":  stats.PayloadLength,
			"cycles":          int64(stats.Cycles),
			"packets":         int64(stats.Packets),
			"send_failures":   int64(stats.SendFailures),
		},
		c.now(),
	)
	c.writer.WritePoint(point)
}

// WriteSendFailure records one failed send. group is the second address
// octet: 0 for the header, the pair index for data.
//
// Transmission ids are fields, never tags, to keep series cardinality bounded.
func (c *Client) WriteSendFailure(site, transmissionID string, group int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(MeasurementSendFailure,
		map[string]string{
			"site":  site,
			"group": strconv.Itoa(group),
		},
		map[string]interface{}{
			"transmission_id": transmissionID,
			"count":           1,
		},
		c.now(),
	)
	c.writer.WritePoint(point)
}

// WritePoint writes a custom point with the current time.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}
	c.writer.WritePoint(write.NewPoint(measurement, tags, fields, c.now()))
}
