package entities

// SensorSnapshot is one element of GET /mediciones/ultimas: what a card shows.
type SensorSnapshot struct {
	Sensor      Sensor        `json:"sensor"`
	Plant       OptionalPlant `json:"planta"`
	Measurement Measurement   `json:"medicion"`
}
