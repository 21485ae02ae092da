package messages

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrIncompleteReading = errors.New("reading: expected name-temperature-humidity")
	ErrInvalidValue      = errors.New("reading: temperature or humidity is not a number")
)

// Reading is a raw sample published by a garden node on MQTT as
// "<name>-...-<temperature>-<humidity>". Only the first and the last two
// fields are meaningful.
type Reading struct {
	SensorName  string    `json:"sensor_name"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	ReceivedAt  time.Time `json:"received_at"`
}

// ParseReading decodes a node payload. Negative temperatures cannot be
// expressed in this format since '-' is the separator.
func ParseReading(payload []byte, at time.Time) (Reading, error) {
	parts := strings.Split(strings.TrimSpace(string(payload)), "-")
	if len(parts) < 3 || strings.TrimSpace(parts[0]) == "" {
		return Reading{}, ErrIncompleteReading
	}
	temp, err := strconv.ParseFloat(strings.TrimSpace(parts[len(parts)-2]), 64)
	if err != nil {
		return Reading{}, errors.Wrapf(ErrInvalidValue, "temperature %q", parts[len(parts)-2])
	}
	hum, err := strconv.ParseFloat(strings.TrimSpace(parts[len(parts)-1]), 64)
	if err != nil {
		return Reading{}, errors.Wrapf(ErrInvalidValue, "humidity %q", parts[len(parts)-1])
	}
	return Reading{
		SensorName:  parts[0],
		Temperature: temp,
		Humidity:    hum,
		ReceivedAt:  at,
	}, nil
}

// Payload encodes r the way the nodes do.
func (r Reading) Payload() string {
	return fmt.Sprintf("%s-%.1f-%.1f", r.SensorName, r.Temperature, r.Humidity)
}
