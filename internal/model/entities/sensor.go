package entities

// Sensor is a DHT11 node registered on the backend. Identity is ID.
type Sensor struct {
	ID       int    `json:"id"`
	Name     string `json:"nombre"`
	Location string `json:"ubicacion"`
	// only /sensores reports it
	Active *bool `json:"activo,omitempty"`
}
