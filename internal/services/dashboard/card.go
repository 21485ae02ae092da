package dashboard

import (
	"fmt"
	"strconv"

	"github.com/LeonardoBeccarini/garden_dashboard/internal/model/entities"
)

const (
	NoPlantName = "Sin planta"
	AlertText   = "⚠️ FUERA DE RANGO"
	// printed for a range bound the backend has no value for
	missingBound = "n/a"
)

// RangeBlock is the comfort range of the plant, shown only when the sensor
// has a plant.
type RangeBlock struct {
	Temperature string `json:"temperature"`
	Humidity    string `json:"humidity"`
}

// Card is the display model of one sensor snapshot.
type Card struct {
	SensorID         int         `json:"sensor_id"`
	SensorName       string      `json:"sensor_name"`
	Location         string      `json:"location"`
	PlantName        string      `json:"plant_name"`
	Temperature      string      `json:"temperature"`
	Humidity         string      `json:"humidity"`
	TemperatureAlert bool        `json:"temperature_alert"`
	HumidityAlert    bool        `json:"humidity_alert"`
	Alerting         bool        `json:"alerting"`
	Ranges           *RangeBlock `json:"ranges,omitempty"`
	AlertText        string      `json:"alert_text,omitempty"`
	MeasuredAt       string      `json:"measured_at"`
}

// RenderCard maps a snapshot to its card. It trusts the alert flags computed
// by the backend and never checks ranges itself.
func RenderCard(s entities.SensorSnapshot) Card {
	m := s.Measurement
	card := Card{
		SensorID:         s.Sensor.ID,
		SensorName:       s.Sensor.Name,
		Location:         s.Sensor.Location,
		PlantName:        NoPlantName,
		Temperature:      fmt.Sprintf("%.1f°C", m.Temperature),
		Humidity:         fmt.Sprintf("%.1f%%", m.Humidity),
		TemperatureAlert: m.AlertTemp,
		HumidityAlert:    m.AlertHumidity,
		Alerting:         m.Alerting(),
		MeasuredAt:       m.Time,
	}
	if plant, ok := s.Plant.Get(); ok {
		if plant.Name != "" {
			card.PlantName = plant.Name
		}
		card.Ranges = &RangeBlock{
			Temperature: fmt.Sprintf("TEMP: %s°C - %s°C", bound(plant.TempMin), bound(plant.TempMax)),
			Humidity:    fmt.Sprintf("HUM: %s%% - %s%%", bound(plant.HumidityMin), bound(plant.HumidityMax)),
		}
	}
	if card.Alerting {
		card.AlertText = AlertText
	}
	return card
}

// RenderCards renders every snapshot, keeping the API order.
func RenderCards(snapshots []entities.SensorSnapshot) []Card {
	cards := make([]Card, 0, len(snapshots))
	for _, s := range snapshots {
		cards = append(cards, RenderCard(s))
	}
	return cards
}

func bound(v *float64) string {
	if v == nil {
		return missingBound
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
