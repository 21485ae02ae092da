package dashboard

import (
	"sync"
)

// DashboardData is the whole page: cards, both charts and the status panel.
type DashboardData struct {
	Cards       []Card    `json:"cards"`
	Temperature ChartData `json:"temperature"`
	Humidity    ChartData `json:"humidity"`
	Status      Status    `json:"status"`
}

// View holds what is currently on screen. Each dimension is replaced as a
// whole and only by a result at least as new as the one shown.
type View struct {
	mu       sync.RWMutex
	cards    []Card
	cardsGen uint64

	Charts *ChartPair
	Status *StatusReporter
}

func NewView(status *StatusReporter) *View {
	return &View{
		cards:  []Card{},
		Charts: NewChartPair("Temperatura (°C)", "Humedad (%)"),
		Status: status,
	}
}

// SetCards replaces the card list. It returns false when a newer generation
// is already shown.
func (v *View) SetCards(generation uint64, cards []Card) bool {
	if cards == nil {
		cards = []Card{}
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if generation < v.cardsGen {
		return false
	}
	v.cards = cards
	v.cardsGen = generation
	return true
}

func (v *View) Cards() []Card {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]Card{}, v.cards...)
}

// Chart returns the chart of the given kind.
func (v *View) Chart(kind string) (ChartData, bool) {
	switch kind {
	case ChartTemperature:
		return v.Charts.Temperature.Snapshot(), true
	case ChartHumidity:
		return v.Charts.Humidity.Snapshot(), true
	default:
		return ChartData{}, false
	}
}

func (v *View) Dashboard() DashboardData {
	temperature, humidity := v.Charts.Snapshot()
	return DashboardData{
		Cards:       v.Cards(),
		Temperature: temperature,
		Humidity:    humidity,
		Status:      v.Status.Current(),
	}
}
