package dashboard

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/LeonardoBeccarini/garden_dashboard/internal/model/entities"
	"github.com/LeonardoBeccarini/garden_dashboard/pkg/logger"
)

const (
	ChartTemperature = "temperature"
	ChartHumidity    = "humidity"

	// charts are redrawn without transition
	updateModeNone = "none"
)

// DefaultPalette is cycled by sensor position.
var DefaultPalette = []string{"#00ff00", "#00ffff", "#ffff00", "#ff00ff"}

// Dataset is one sensor's line, shaped like a Chart.js dataset.
type Dataset struct {
	Label                string    `json:"label"`
	Data                 []float64 `json:"data"`
	BorderColor          string    `json:"borderColor"`
	BackgroundColor      string    `json:"backgroundColor"`
	Tension              float64   `json:"tension"`
	BorderWidth          int       `json:"borderWidth"`
	PointRadius          int       `json:"pointRadius"`
	PointBackgroundColor string    `json:"pointBackgroundColor"`
	PointBorderColor     string    `json:"pointBorderColor"`
	PointBorderWidth     int       `json:"pointBorderWidth"`
}

func newDataset(label, color string, data []float64) Dataset {
	return Dataset{
		Label:                label,
		Data:                 data,
		BorderColor:          color,
		BackgroundColor:      "transparent",
		Tension:              0.1,
		BorderWidth:          2,
		PointRadius:          3,
		PointBackgroundColor: color,
		PointBorderColor:     "#000000",
		PointBorderWidth:     1,
	}
}

// ChartData is a copy of a chart's content.
type ChartData struct {
	Title      string    `json:"title"`
	Labels     []string  `json:"labels"`
	Datasets   []Dataset `json:"datasets"`
	UpdateMode string    `json:"updateMode"`
	Revision   uint64    `json:"revision"`
	Generation uint64    `json:"generation"`
}

// ChartState is a long-lived chart instance. Its labels and datasets are only
// ever replaced as a whole.
type ChartState struct {
	mu   sync.RWMutex
	data ChartData
}

func NewChartState(title string) *ChartState {
	return &ChartState{data: ChartData{
		Title:      title,
		Labels:     []string{},
		Datasets:   []Dataset{},
		UpdateMode: updateModeNone,
	}}
}

// Replace swaps labels and datasets in one step. A generation older than the
// one already shown is discarded and Replace returns false.
func (c *ChartState) Replace(generation uint64, labels []string, datasets []Dataset) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if generation < c.data.Generation {
		return false
	}
	c.data.Labels = labels
	c.data.Datasets = datasets
	c.data.Generation = generation
	c.data.Revision++
	return true
}

func (c *ChartState) generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Generation
}

// Snapshot returns a deep copy safe to hand to readers.
func (c *ChartState) Snapshot() ChartData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := c.data
	out.Labels = append([]string{}, c.data.Labels...)
	out.Datasets = make([]Dataset, len(c.data.Datasets))
	for i, ds := range c.data.Datasets {
		ds.Data = append([]float64{}, ds.Data...)
		out.Datasets[i] = ds
	}
	return out
}

// ChartPair holds the temperature and humidity charts. Both are replaced
// together and read together, so a reader never sees them at different
// generations.
type ChartPair struct {
	mu          sync.RWMutex
	Temperature *ChartState
	Humidity    *ChartState
}

func NewChartPair(temperatureTitle, humidityTitle string) *ChartPair {
	return &ChartPair{
		Temperature: NewChartState(temperatureTitle),
		Humidity:    NewChartState(humidityTitle),
	}
}

// Replace swaps both charts, or neither when either one already shows a newer
// generation.
func (p *ChartPair) Replace(generation uint64, labels []string, temperature, humidity []Dataset) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if generation < p.Temperature.generation() || generation < p.Humidity.generation() {
		return false
	}
	p.Temperature.Replace(generation, labels, temperature)
	p.Humidity.Replace(generation, labels, humidity)
	return true
}

// Snapshot copies both charts under one lock.
func (p *ChartPair) Snapshot() (temperature, humidity ChartData) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Temperature.Snapshot(), p.Humidity.Snapshot()
}

// HistoryResult is the outcome of one sensor's history fetch. Index is the
// sensor's position in the sensor list.
type HistoryResult struct {
	Index  int
	Sensor entities.Sensor
	Points []entities.HistoryPoint
	Err    error
}

// ChartSet is what one refresh computes for both charts.
type ChartSet struct {
	Labels      []string
	Temperature []Dataset
	Humidity    []Dataset
	Failed      []HistoryResult
}

// BuildDatasets turns per-sensor results (in sensor list order) into chart
// content. Failed sensors are skipped. Labels come from the first sensor with
// at least one point and are shared by all series, whatever their length.
// Colours follow the sensor's list index, so a skipped sensor does not shift
// the colours of the next ones.
func BuildDatasets(results []HistoryResult, palette []string) ChartSet {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	set := ChartSet{
		Labels:      []string{},
		Temperature: make([]Dataset, 0, len(results)),
		Humidity:    make([]Dataset, 0, len(results)),
	}
	labelsTaken := false
	for _, r := range results {
		if r.Err != nil {
			set.Failed = append(set.Failed, r)
			continue
		}
		if !labelsTaken && len(r.Points) > 0 {
			set.Labels = make([]string, len(r.Points))
			for i, p := range r.Points {
				set.Labels[i] = p.Time
			}
			labelsTaken = true
		}
		temps := make([]float64, len(r.Points))
		hums := make([]float64, len(r.Points))
		for i, p := range r.Points {
			temps[i] = p.Temperature
			hums[i] = p.Humidity
		}
		color := palette[r.Index%len(palette)]
		set.Temperature = append(set.Temperature, newDataset(r.Sensor.Name, color, temps))
		set.Humidity = append(set.Humidity, newDataset(r.Sensor.Name, color, hums))
	}
	return set
}

type historySource interface {
	FetchSensors(ctx context.Context) ([]entities.Sensor, error)
	FetchHistory(ctx context.Context, sensorID, limit int) ([]entities.HistoryPoint, error)
}

type SynchronizerConfig struct {
	Palette      []string
	HistoryLimit int
	// parallel history requests, <= 0 means one per sensor
	Concurrency int
}

// Synchronizer keeps the temperature and humidity charts in line with the
// sensors' recent history.
type Synchronizer struct {
	api         historySource
	charts      *ChartPair
	palette     []string
	limit       int
	concurrency int
	log         logger.Logger
	metrics     *Metrics
}

func NewSynchronizer(api historySource, charts *ChartPair, cfg SynchronizerConfig, log logger.Logger, m *Metrics) *Synchronizer {
	palette := cfg.Palette
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = entities.HistoryLimit
	}
	return &Synchronizer{
		api:         api,
		charts:      charts,
		palette:     palette,
		limit:       limit,
		concurrency: cfg.Concurrency,
		log:         log.With("component", "charts"),
		metrics:     m,
	}
}

// Sync runs one chart refresh tagged with generation. A failed sensor list
// leaves the charts untouched; a failed sensor history only drops that
// sensor's series.
func (s *Synchronizer) Sync(ctx context.Context, generation uint64) error {
	sensors, err := s.api.FetchSensors(ctx)
	if err != nil {
		return err
	}

	results := s.fetchHistories(ctx, sensors)
	if err := ctx.Err(); err != nil {
		return err
	}
	set := BuildDatasets(results, s.palette)
	for _, f := range set.Failed {
		s.log.Warnw("skipping sensor history", "sensor_id", f.Sensor.ID, "sensor", f.Sensor.Name, "error", f.Err)
	}

	if !s.charts.Replace(generation, set.Labels, set.Temperature, set.Humidity) {
		s.metrics.stale("charts")
		s.log.Debugw("discarded stale chart refresh", "generation", generation)
		return nil
	}
	s.metrics.datasetCount(ChartTemperature, len(set.Temperature))
	s.metrics.datasetCount(ChartHumidity, len(set.Humidity))
	return nil
}

// fetchHistories issues the per-sensor requests concurrently and returns the
// results in sensor list order.
func (s *Synchronizer) fetchHistories(ctx context.Context, sensors []entities.Sensor) []HistoryResult {
	results := make([]HistoryResult, len(sensors))
	var g errgroup.Group
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	for i, sensor := range sensors {
		i, sensor := i, sensor
		g.Go(func() error {
			points, err := s.api.FetchHistory(ctx, sensor.ID, s.limit)
			if err != nil {
				err = &PartialHistoryError{SensorID: sensor.ID, Err: err}
			}
			results[i] = HistoryResult{Index: i, Sensor: sensor, Points: points, Err: err}
			// a sensor failure must not cancel the others
			return nil
		})
	}
	_ = g.Wait()
	return results
}
