package dashboard

import (
	"sync"
	"time"

	"github.com/LeonardoBeccarini/garden_dashboard/internal/model/entities"
)

// Connectivity is derived only from the statistics fetch. It is not an end to
// end health check: the other endpoints may be failing while it reads
// CONNECTED.
type Connectivity string

const (
	Connected Connectivity = "CONNECTED"
	ConnError Connectivity = "ERROR"

	colorConnected = "#00ff00"
	colorError     = "#ff0000"
)

// Color is the indicator colour of the state.
func (c Connectivity) Color() string {
	if c == Connected {
		return colorConnected
	}
	return colorError
}

// ConnectivityObserver is notified after every applied statistics result.
type ConnectivityObserver interface {
	ConnectivityChanged(Connectivity)
}

// Status is the summary panel.
type Status struct {
	ActiveSensors     int               `json:"sensores_activos"`
	Plants            int               `json:"plantas"`
	TotalMeasurements int               `json:"total_mediciones"`
	Temperature       *entities.Summary `json:"temperatura,omitempty"`
	Humidity          *entities.Summary `json:"humedad,omitempty"`
	Connectivity      Connectivity      `json:"connectivity"`
	Color             string            `json:"color"`
	LastError         string            `json:"last_error,omitempty"`
	UpdatedAt         time.Time         `json:"updated_at"`
	Generation        uint64            `json:"generation"`
}

// StatusReporter maps statistics fetch outcomes to the status panel.
type StatusReporter struct {
	mu        sync.RWMutex
	status    Status
	observers []ConnectivityObserver
	now       func() time.Time
}

func NewStatusReporter(observers ...ConnectivityObserver) *StatusReporter {
	return &StatusReporter{
		// nothing fetched yet
		status:    Status{Connectivity: ConnError, Color: colorError},
		observers: observers,
		now:       time.Now,
	}
}

// Apply records the outcome of the statistics fetch of the given generation.
// On success the counters are replaced and the state is CONNECTED. On error
// the previous counters stay and the state is ERROR. A result older than the
// last one applied is dropped and Apply returns false.
func (r *StatusReporter) Apply(generation uint64, stats entities.Statistics, err error) (Status, bool) {
	r.mu.Lock()
	if generation < r.status.Generation {
		cur := r.status
		r.mu.Unlock()
		return cur, false
	}

	next := r.status
	next.Generation = generation
	next.UpdatedAt = r.now()
	if err != nil {
		next.Connectivity = ConnError
		next.LastError = err.Error()
	} else {
		next.ActiveSensors = stats.ActiveSensors
		next.Plants = stats.Plants
		next.TotalMeasurements = stats.TotalMeasurements
		next.Temperature = stats.Temperature
		next.Humidity = stats.Humidity
		next.Connectivity = Connected
		next.LastError = ""
	}
	next.Color = next.Connectivity.Color()
	r.status = next
	observers := r.observers
	r.mu.Unlock()

	for _, o := range observers {
		o.ConnectivityChanged(next.Connectivity)
	}
	return next, true
}

// Current returns the last applied status.
func (r *StatusReporter) Current() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}
