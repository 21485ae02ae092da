package entities

import (
	"bytes"
	"encoding/json"
)

// Plant is the crop a sensor watches, with its configured comfort ranges.
// A nil bound means the range is not configured on the backend.
type Plant struct {
	Name        string   `json:"nombre"`
	TempMin     *float64 `json:"temp_min"`
	TempMax     *float64 `json:"temp_max"`
	HumidityMin *float64 `json:"humedad_min"`
	HumidityMax *float64 `json:"humedad_max"`
}

// OptionalPlant is a Plant that may be missing: a sensor is not required to
// have a plant attached. Use Get to read it.
type OptionalPlant struct {
	plant   Plant
	present bool
}

func SomePlant(p Plant) OptionalPlant { return OptionalPlant{plant: p, present: true} }

func NoPlant() OptionalPlant { return OptionalPlant{} }

func (o OptionalPlant) Present() bool { return o.present }

func (o OptionalPlant) Get() (Plant, bool) { return o.plant, o.present }

// UnmarshalJSON maps null to an absent plant. A missing key never reaches here
// and leaves the zero value, which is absent too.
func (o *OptionalPlant) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*o = NoPlant()
		return nil
	}
	var p Plant
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*o = SomePlant(p)
	return nil
}

func (o OptionalPlant) MarshalJSON() ([]byte, error) {
	if !o.present {
		return []byte("null"), nil
	}
	return json.Marshal(o.plant)
}

// PlantRanges is the "rangos" block of GET /plantas.
type PlantRanges struct {
	TempMin     *float64 `json:"temp_min"`
	TempMax     *float64 `json:"temp_max"`
	HumidityMin *float64 `json:"humedad_min"`
	HumidityMax *float64 `json:"humedad_max"`
}

// PlantInfo is one entry of GET /plantas.
type PlantInfo struct {
	ID     int         `json:"id"`
	Name   string      `json:"nombre"`
	Sensor *Sensor     `json:"sensor"`
	Ranges PlantRanges `json:"rangos"`
}
