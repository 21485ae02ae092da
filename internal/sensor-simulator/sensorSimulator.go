package sensor_simulator

import (
	"context"
	"time"

	"github.com/LeonardoBeccarini/garden_dashboard/pkg/broker"
	"github.com/LeonardoBeccarini/garden_dashboard/pkg/logger"
)

type SensorSimulator struct {
	generator *DataGenerator
	publisher broker.IPublisher
	log       logger.Logger
}

func NewSensorSimulator(publisher broker.IPublisher, gen *DataGenerator, log logger.Logger) *SensorSimulator {
	return &SensorSimulator{
		generator: gen,
		publisher: publisher,
		log:       log.With("component", "simulator", "sensor", gen.name),
	}
}

// Start publishes one reading per interval until ctx is done, then closes the
// publisher.
func (s *SensorSimulator) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer s.publisher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.publishOne()
		}
	}
}

func (s *SensorSimulator) publishOne() {
	r := s.generator.Next()
	if err := s.publisher.PublishMessage(r.Payload()); err != nil {
		s.log.Warnw("publish error", "error", err)
		return
	}
	s.log.Debugw("reading published", "temperatura", r.Temperature, "humedad", r.Humidity)
}
