package entities

// Summary aggregates one quantity over all stored measurements.
type Summary struct {
	Mean float64 `json:"promedio"`
	Min  float64 `json:"minima"`
	Max  float64 `json:"maxima"`
}

// Statistics is GET /estadisticas.
type Statistics struct {
	ActiveSensors     int      `json:"sensores_activos"`
	Plants            int      `json:"plantas"`
	TotalMeasurements int      `json:"total_mediciones"`
	Temperature       *Summary `json:"temperatura,omitempty"`
	Humidity          *Summary `json:"humedad,omitempty"`
}

// SensorStatistics is GET /estadisticas/sensor/{id}. Plant is the plant name
// or "Sin planta".
type SensorStatistics struct {
	Sensor            Sensor  `json:"sensor"`
	Plant             string  `json:"planta"`
	TotalMeasurements int     `json:"total_mediciones"`
	Temperature       Summary `json:"temperatura"`
	Humidity          Summary `json:"humedad"`
}
