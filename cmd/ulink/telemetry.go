package main

import (
	"github.com/nerrad567/gray-logic-ulink/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-ulink/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-ulink/internal/ulink"
)

// failureWriter is the part of *influxdb.Client the observer uses.
type failureWriter interface {
	WriteSendFailure(site, transmissionID string, group int)
}

// failureObserver logs failed sends and records them in InfluxDB.
// It runs on the transmitter goroutine, so it must not block; the
// InfluxDB writer is non-blocking.
type failureObserver struct {
	site   string
	influx failureWriter
	log    *logging.Logger
}

// SendFailed implements ulink.Observer.
func (o *failureObserver) SendFailed(transmissionID string, dst ulink.Address, err error) {
	o.log.Debug("send failed",
		"transmission_id", transmissionID,
		"group", dst.Group(),
		"error", err,
	)
	if o.influx != nil {
		o.influx.WriteSendFailure(o.site, transmissionID, dst.Group())
	}
}

// statsWriter is the part of *influxdb.Client transmissionTelemetry uses.
type statsWriter interface {
	WriteTransmission(site string, stats influxdb.TransmissionStats)
}

// transmissionTelemetry returns a subscriber writing one point per
// completed transmission.
func transmissionTelemetry(w statsWriter, site string) ulink.Subscriber {
	return func(ev ulink.Event) {
		if ev.Type != ulink.EventStopped {
			return
		}
		w.WriteTransmission(site, influxdb.TransmissionStats{
			TransmissionID: ev.TransmissionID,
			PayloadLength:  ev.PayloadLength,
			Cycles:         ev.Stats.Cycles,
			Packets:        ev.Stats.Packets,
			SendFailures:   ev.Stats.SendFailures,
		})
	}
}
