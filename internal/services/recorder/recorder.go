package recorder

import (
	"context"
	"fmt"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/LeonardoBeccarini/garden_dashboard/internal/model/entities"
	"github.com/LeonardoBeccarini/garden_dashboard/pkg/dedup"
	"github.com/LeonardoBeccarini/garden_dashboard/pkg/logger"
)

const Measurement = "medicion"

// PointWriter is the blocking write API of the InfluxDB client.
type PointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Recorder archives every measurement shown on the cards once.
type Recorder struct {
	writer PointWriter
	seen   *dedup.Deduper
	log    logger.Logger
	now    func() time.Time
}

func New(w PointWriter, seen *dedup.Deduper, log logger.Logger) *Recorder {
	if seen == nil {
		seen = dedup.New(24*time.Hour, 10000)
	}
	return &Recorder{
		writer: w,
		seen:   seen,
		log:    log.With("component", "recorder"),
		now:    time.Now,
	}
}

// RecordSnapshots writes the measurements not written yet. Errors are logged;
// a failed batch is not marked as seen.
func (r *Recorder) RecordSnapshots(ctx context.Context, snapshots []entities.SensorSnapshot) {
	points := make([]*write.Point, 0, len(snapshots))
	keys := make([]string, 0, len(snapshots))
	for _, s := range snapshots {
		key := measurementKey(s)
		if !r.seen.ShouldProcess(key) {
			continue
		}
		points = append(points, SnapshotToPoint(s, r.now()))
		keys = append(keys, key)
	}
	if len(points) == 0 {
		return
	}
	if err := r.writer.WritePoint(ctx, points...); err != nil {
		r.seen.Forget(keys...)
		r.log.Errorw("influx write failed", "points", len(points), "error", err)
		return
	}
	r.log.Debugw("measurements recorded", "points", len(points))
}

func measurementKey(s entities.SensorSnapshot) string {
	return fmt.Sprintf("%d|%s", s.Sensor.ID, s.Measurement.Time)
}

// SnapshotToPoint maps a snapshot to a "medicion" point. A measurement time
// that cannot be parsed is replaced by fallback.
func SnapshotToPoint(s entities.SensorSnapshot, fallback time.Time) *write.Point {
	tags := map[string]string{
		"sensor":    s.Sensor.Name,
		"sensor_id": strconv.Itoa(s.Sensor.ID),
	}
	if s.Sensor.Location != "" {
		tags["ubicacion"] = s.Sensor.Location
	}
	if p, ok := s.Plant.Get(); ok && p.Name != "" {
		tags["planta"] = p.Name
	}

	m := s.Measurement
	fields := map[string]interface{}{
		"temperatura":    m.Temperature,
		"humedad":        m.Humidity,
		"alerta_temp":    m.AlertTemp,
		"alerta_humedad": m.AlertHumidity,
	}

	ts, ok := parseTime(m.Time)
	if !ok {
		ts = fallback
	}
	return influxdb2.NewPoint(Measurement, tags, fields, ts)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// parseTime accepts RFC 3339 and zone-less ISO timestamps, the latter as UTC.
func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
