package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/LeonardoBeccarini/garden_dashboard/internal/model/entities"
)

// Endpoint families. Each one has its own circuit breaker and metric label.
const (
	EndpointLatest           = "latest"
	EndpointSensors          = "sensors"
	EndpointHistory          = "history"
	EndpointStatistics       = "statistics"
	EndpointPlants           = "plants"
	EndpointSensorStatistics = "sensor_statistics"
)

// maxBodyBytes caps a response body; a larger one fails to decode.
const maxBodyBytes = 8 << 20

var errTrailingData = errors.New("unexpected data after JSON value")

var endpoints = []string{
	EndpointLatest,
	EndpointSensors,
	EndpointHistory,
	EndpointStatistics,
	EndpointPlants,
	EndpointSensorStatistics,
}

// API is the read-only surface of the garden backend used by the dashboard.
type API interface {
	FetchLatestSnapshots(ctx context.Context) ([]entities.SensorSnapshot, error)
	FetchSensors(ctx context.Context) ([]entities.Sensor, error)
	FetchHistory(ctx context.Context, sensorID, limit int) ([]entities.HistoryPoint, error)
	FetchStatistics(ctx context.Context) (entities.Statistics, error)
}

type BreakerConfig struct {
	Failures int           // consecutive failures that open the breaker
	OpenFor  time.Duration // time spent open before a half-open probe
	Interval time.Duration // closed-state counter reset period
}

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Breaker BreakerConfig
	// optional, mainly for tests
	HTTPClient *http.Client
}

// Client is the HTTP client of the garden API. It never retries: a failed
// request is reported to the caller, which decides what to do.
type Client struct {
	base     string
	http     *http.Client
	breakers map[string]*gobreaker.CircuitBreaker
	metrics  *Metrics
}

var _ API = (*Client)(nil)

func NewClient(cfg ClientConfig, m *Metrics) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	c := &Client{
		base:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		http:     hc,
		breakers: make(map[string]*gobreaker.CircuitBreaker, len(endpoints)),
		metrics:  m,
	}
	for _, ep := range endpoints {
		c.breakers[ep] = mkCB(ep, cfg.Breaker, m)
	}
	return c
}

func mkCB(endpoint string, cfg BreakerConfig, m *Metrics) *gobreaker.CircuitBreaker {
	fails := cfg.Failures
	if fails < 1 {
		fails = 5
	}
	openFor := cfg.OpenFor
	if openFor <= 0 {
		openFor = 10 * time.Second
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     endpoint,
		Interval: cfg.Interval,
		Timeout:  openFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(fails)
		},
		OnStateChange: func(name string, _, to gobreaker.State) {
			m.breaker(name, to)
		},
	})
}

// FetchLatestSnapshots: GET /mediciones/ultimas
func (c *Client) FetchLatestSnapshots(ctx context.Context) ([]entities.SensorSnapshot, error) {
	var out []entities.SensorSnapshot
	if err := c.getJSON(ctx, EndpointLatest, "/mediciones/ultimas", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchSensors: GET /sensores
func (c *Client) FetchSensors(ctx context.Context) ([]entities.Sensor, error) {
	var out []entities.Sensor
	if err := c.getJSON(ctx, EndpointSensors, "/sensores", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchHistory: GET /mediciones/sensor/{id}?limit=N, oldest sample first.
// The backend answers 404 when the sensor has no measurements yet.
func (c *Client) FetchHistory(ctx context.Context, sensorID, limit int) ([]entities.HistoryPoint, error) {
	if limit <= 0 {
		limit = entities.HistoryLimit
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	var out []entities.HistoryPoint
	path := fmt.Sprintf("/mediciones/sensor/%d", sensorID)
	if err := c.getJSON(ctx, EndpointHistory, path, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchStatistics: GET /estadisticas
func (c *Client) FetchStatistics(ctx context.Context) (entities.Statistics, error) {
	var out entities.Statistics
	if err := c.getJSON(ctx, EndpointStatistics, "/estadisticas", nil, &out); err != nil {
		return entities.Statistics{}, err
	}
	return out, nil
}

// FetchPlants: GET /plantas
func (c *Client) FetchPlants(ctx context.Context) ([]entities.PlantInfo, error) {
	var out []entities.PlantInfo
	if err := c.getJSON(ctx, EndpointPlants, "/plantas", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchSensorStatistics: GET /estadisticas/sensor/{id}
func (c *Client) FetchSensorStatistics(ctx context.Context, sensorID int) (entities.SensorStatistics, error) {
	var out entities.SensorStatistics
	path := fmt.Sprintf("/estadisticas/sensor/%d", sensorID)
	if err := c.getJSON(ctx, EndpointSensorStatistics, path, nil, &out); err != nil {
		return entities.SensorStatistics{}, err
	}
	return out, nil
}

// getJSON runs the request through the endpoint's breaker and decodes into out.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, q url.Values, out any) error {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	start := time.Now()
	var reqErr error
	_, cbErr := c.breakers[endpoint].Execute(func() (interface{}, error) {
		reqErr = c.do(ctx, endpoint, u, out)
		if tripsBreaker(reqErr) {
			return nil, reqErr
		}
		return nil, nil
	})
	if reqErr == nil && cbErr != nil {
		// rejected by an open or saturated half-open breaker
		reqErr = &TransportError{Endpoint: endpoint, URL: u, Err: cbErr}
	}
	c.metrics.fetch(endpoint, time.Since(start), reqErr)
	return reqErr
}

func (c *Client) do(ctx context.Context, endpoint, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &TransportError{Endpoint: endpoint, URL: u, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Endpoint: endpoint, URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return &TransportError{Endpoint: endpoint, URL: u, StatusCode: resp.StatusCode}
	}

	dec := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil {
		return &DecodeError{Endpoint: endpoint, URL: u, Err: err}
	}
	// the body must hold exactly one JSON value
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errTrailingData
		}
		return &DecodeError{Endpoint: endpoint, URL: u, Err: err}
	}
	return nil
}
