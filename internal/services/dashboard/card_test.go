package dashboard

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/garden_dashboard/internal/model/entities"
)

func f64(v float64) *float64 { return &v }

func TestRenderCard_NoPlant(t *testing.T) {
	var s entities.SensorSnapshot
	require.NoError(t, json.Unmarshal([]byte(`{"sensor":{"nombre":"A","ubicacion":"X"},"planta":null,
		"medicion":{"temperatura":21.55,"humedad":44.4,"alerta_temp":false,"alerta_humedad":false}}`), &s))

	card := RenderCard(s)
	assert.Equal(t, "21.6°C", card.Temperature)
	assert.Equal(t, "44.4%", card.Humidity)
	assert.Equal(t, NoPlantName, card.PlantName)
	assert.Nil(t, card.Ranges)
	assert.False(t, card.Alerting)
	assert.Empty(t, card.AlertText)
}

func TestRenderCard_WithPlantAndAlert(t *testing.T) {
	s := entities.SensorSnapshot{
		Sensor: entities.Sensor{ID: 2, Name: "B", Location: "Huerto"},
		Plant: entities.SomePlant(entities.Plant{
			Name:        "Tomate",
			TempMin:     f64(18),
			TempMax:     f64(27.5),
			HumidityMin: f64(40),
			HumidityMax: f64(70),
		}),
		Measurement: entities.Measurement{Temperature: 30, Humidity: 50, AlertTemp: true},
	}

	card := RenderCard(s)
	assert.Equal(t, "Tomate", card.PlantName)
	require.NotNil(t, card.Ranges)
	assert.Equal(t, "TEMP: 18°C - 27.5°C", card.Ranges.Temperature)
	assert.Equal(t, "HUM: 40% - 70%", card.Ranges.Humidity)
	assert.True(t, card.TemperatureAlert)
	assert.False(t, card.HumidityAlert)
	assert.True(t, card.Alerting)
	assert.Equal(t, AlertText, card.AlertText)
}

func TestRenderCard_HumidityAlertOnly(t *testing.T) {
	card := RenderCard(entities.SensorSnapshot{
		Measurement: entities.Measurement{Temperature: 20, Humidity: 90, AlertHumidity: true},
	})
	assert.True(t, card.Alerting)
	assert.Equal(t, AlertText, card.AlertText)
}

func TestRenderCard_PlantWithMissingBoundsAndName(t *testing.T) {
	card := RenderCard(entities.SensorSnapshot{
		Plant: entities.SomePlant(entities.Plant{TempMin: f64(10)}),
	})
	assert.Equal(t, NoPlantName, card.PlantName)
	require.NotNil(t, card.Ranges)
	assert.Equal(t, "TEMP: 10°C - n/a°C", card.Ranges.Temperature)
	assert.Equal(t, "HUM: n/a% - n/a%", card.Ranges.Humidity)
}

func TestRenderCard_TrustsBackendFlags(t *testing.T) {
	// out of range values but no flag set: no alert is shown
	card := RenderCard(entities.SensorSnapshot{
		Plant:       entities.SomePlant(entities.Plant{Name: "Cactus", TempMax: f64(25)}),
		Measurement: entities.Measurement{Temperature: 40},
	})
	assert.False(t, card.Alerting)
}

func TestRenderCards_KeepsOrder(t *testing.T) {
	in := []entities.SensorSnapshot{
		{Sensor: entities.Sensor{ID: 3, Name: "C"}, Measurement: entities.Measurement{AlertTemp: true}},
		{Sensor: entities.Sensor{ID: 1, Name: "A"}},
		{Sensor: entities.Sensor{ID: 2, Name: "B"}, Measurement: entities.Measurement{AlertHumidity: true}},
	}
	cards := RenderCards(in)
	require.Len(t, cards, 3)
	assert.Equal(t, []string{"C", "A", "B"}, []string{cards[0].SensorName, cards[1].SensorName, cards[2].SensorName})

	assert.NotNil(t, RenderCards(nil))
	assert.Empty(t, RenderCards(nil))
}
