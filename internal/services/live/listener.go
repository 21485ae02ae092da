package live

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"

	"github.com/LeonardoBeccarini/garden_dashboard/internal/model/messages"
	"github.com/LeonardoBeccarini/garden_dashboard/pkg/broker"
	"github.com/LeonardoBeccarini/garden_dashboard/pkg/dedup"
	"github.com/LeonardoBeccarini/garden_dashboard/pkg/logger"
)

const DefaultTopic = "garden/sensors/data"

var ErrUnknownSensor = errors.New("unknown sensor")

// Refresher is what a valid reading wakes up.
type Refresher interface {
	Trigger()
}

// Listener turns node readings into immediate dashboard refreshes.
type Listener struct {
	consumer broker.IConsumer
	refresh  Refresher
	dedup    *dedup.Deduper
	// name -> sensor id; empty accepts every name
	known map[string]int
	log   logger.Logger
	now   func() time.Time
}

func NewListener(consumer broker.IConsumer, refresh Refresher, d *dedup.Deduper, known map[string]int, log logger.Logger) *Listener {
	l := &Listener{
		consumer: consumer,
		refresh:  refresh,
		dedup:    d,
		known:    known,
		log:      log.With("component", "live"),
		now:      time.Now,
	}
	consumer.SetHandler(l.handle)
	return l
}

// Start blocks until ctx is done.
func (l *Listener) Start(ctx context.Context) error {
	return l.consumer.ConsumeMessage(ctx)
}

func (l *Listener) handle(_ string, message mqtt.Message) error {
	payload := message.Payload()
	if l.redelivered(message) {
		l.log.Debugw("duplicate reading dropped", "message_id", message.MessageID())
		return nil
	}

	reading, err := messages.ParseReading(payload, l.now())
	if err != nil {
		return errors.Wrapf(err, "payload %q", string(payload))
	}
	id, ok := l.sensorID(reading.SensorName)
	if !ok {
		return errors.Wrap(ErrUnknownSensor, reading.SensorName)
	}

	l.log.Infow("reading received",
		"sensor", reading.SensorName,
		"sensor_id", id,
		"temperatura", reading.Temperature,
		"humedad", reading.Humidity,
	)
	l.refresh.Trigger()
	return nil
}

// redelivered reports a QoS redelivery of a message already handled. A node
// repeating the same reading sends a new message and is never dropped.
func (l *Listener) redelivered(message mqtt.Message) bool {
	if l.dedup == nil {
		return false
	}
	key := fmt.Sprintf("%d|%s", message.MessageID(), dedup.Hash(message.Payload()))
	fresh := l.dedup.ShouldProcess(key)
	return !fresh && message.Duplicate()
}

func (l *Listener) sensorID(name string) (int, bool) {
	if len(l.known) == 0 {
		return 0, true
	}
	id, ok := l.known[name]
	return id, ok
}

// ParseSensorMap reads "name=id,name=id". Blank entries are skipped.
func ParseSensorMap(raw string) (map[string]int, error) {
	out := map[string]int{}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, idStr, ok := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, errors.Errorf("sensor map entry %q: expected name=id", entry)
		}
		id, err := strconv.Atoi(strings.TrimSpace(idStr))
		if err != nil {
			return nil, errors.Wrapf(err, "sensor map entry %q", entry)
		}
		out[name] = id
	}
	return out, nil
}
