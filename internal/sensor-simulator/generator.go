package sensor_simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/LeonardoBeccarini/garden_dashboard/internal/model"
)

// ====== Tunables ======
const (
	// max change per reading
	tempStep = 0.3
	humStep  = 1.0

	// pull back toward the base value, fraction of the distance per reading
	meanReversion = 0.05

	// DHT11 limits
	minTemp, maxTemp = 0.0, 50.0
	minHum, maxHum   = 20.0, 90.0
)

// DataGenerator produces a random walk of temperature and humidity around a
// base value, like a DHT11 node sitting in a garden.
type DataGenerator struct {
	mu       sync.Mutex
	name     string
	baseTemp float64
	baseHum  float64
	temp     float64
	hum      float64
	rnd      *rand.Rand
	now      func() time.Time
}

func NewDataGenerator(name string, baseTemp, baseHum float64, seed int64) *DataGenerator {
	return &DataGenerator{
		name:     name,
		baseTemp: clamp(baseTemp, minTemp, maxTemp),
		baseHum:  clamp(baseHum, minHum, maxHum),
		temp:     clamp(baseTemp, minTemp, maxTemp),
		hum:      clamp(baseHum, minHum, maxHum),
		rnd:      rand.New(rand.NewSource(seed)),
		now:      time.Now,
	}
}

// Next advances the walk and returns the new reading.
func (g *DataGenerator) Next() model.Reading {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.temp = clamp(g.step(g.temp, g.baseTemp, tempStep), minTemp, maxTemp)
	g.hum = clamp(g.step(g.hum, g.baseHum, humStep), minHum, maxHum)

	return model.Reading{
		SensorName:  g.name,
		Temperature: round1(g.temp),
		Humidity:    round1(g.hum),
		ReceivedAt:  g.now().UTC(),
	}
}

func (g *DataGenerator) step(v, base, max float64) float64 {
	return v + (g.rnd.Float64()*2-1)*max + (base-v)*meanReversion
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
