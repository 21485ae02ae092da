package entities

// HistoryLimit is how many samples per sensor a chart refresh asks for.
const HistoryLimit = 30

// Measurement is the latest reading of a sensor. The alert flags are computed
// by the backend against the plant ranges; clients only display them.
type Measurement struct {
	Temperature   float64 `json:"temperatura"`
	Humidity      float64 `json:"humedad"`
	Time          string  `json:"hora"`
	AlertTemp     bool    `json:"alerta_temp"`
	AlertHumidity bool    `json:"alerta_humedad"`
}

// Alerting reports whether either value is outside its range.
func (m Measurement) Alerting() bool {
	return m.AlertTemp || m.AlertHumidity
}

// HistoryPoint is one sample of GET /mediciones/sensor/{id}. Time is the
// label shown on the chart x axis (HH:MM:SS).
type HistoryPoint struct {
	Time        string  `json:"hora"`
	Temperature float64 `json:"temperatura"`
	Humidity    float64 `json:"humedad"`
}
