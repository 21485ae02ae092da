package dashboard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler, breaker BreakerConfig) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{BaseURL: srv.URL + "/api/", Timeout: time.Second, Breaker: breaker}, nil)
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestClient_FetchLatestSnapshots(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/mediciones/ultimas", jsonHandler(`[
		{"sensor":{"id":1,"nombre":"A","ubicacion":"X"},"planta":null,
		 "medicion":{"temperatura":21.55,"humedad":44.4,"hora":"2024-05-01T10:00:00","alerta_temp":false,"alerta_humedad":true}},
		{"sensor":{"id":2,"nombre":"B","ubicacion":"Y"},
		 "planta":{"id":7,"nombre":"Tomate","temp_min":18,"temp_max":27,"humedad_min":40,"humedad_max":null},
		 "medicion":{"temperatura":20,"humedad":50,"hora":"2024-05-01T10:00:00","alerta_temp":false,"alerta_humedad":false}}
	]`))
	c := newTestClient(t, mux, BreakerConfig{})

	got, err := c.FetchLatestSnapshots(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "A", got[0].Sensor.Name)
	assert.False(t, got[0].Plant.Present())
	assert.True(t, got[0].Measurement.AlertHumidity)

	plant, ok := got[1].Plant.Get()
	require.True(t, ok)
	assert.Equal(t, "Tomate", plant.Name)
	require.NotNil(t, plant.TempMin)
	assert.Equal(t, 18.0, *plant.TempMin)
	assert.Nil(t, plant.HumidityMax)
}

func TestClient_FetchHistorySendsLimit(t *testing.T) {
	var gotPath, gotLimit string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLimit = r.URL.Query().Get("limit")
		jsonHandler(`[{"hora":"10:00:00","temperatura":20,"humedad":50},{"hora":"10:00:05","temperatura":20.5,"humedad":51}]`)(w, r)
	}), BreakerConfig{})

	points, err := c.FetchHistory(context.Background(), 3, 0)
	require.NoError(t, err)
	assert.Equal(t, "/api/mediciones/sensor/3", gotPath)
	assert.Equal(t, "30", gotLimit)
	require.Len(t, points, 2)
	assert.Equal(t, "10:00:00", points[0].Time)
	assert.Equal(t, 20.5, points[1].Temperature)
}

func TestClient_FetchSensorsAndStatistics(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sensores", jsonHandler(`[{"id":1,"nombre":"A","ubicacion":"X","activo":true}]`))
	mux.HandleFunc("/api/estadisticas", jsonHandler(`{"sensores_activos":3,"plantas":2,"total_mediciones":1200,
		"temperatura":{"promedio":22.1,"minima":15,"maxima":30}}`))
	c := newTestClient(t, mux, BreakerConfig{})

	sensors, err := c.FetchSensors(context.Background())
	require.NoError(t, err)
	require.Len(t, sensors, 1)
	require.NotNil(t, sensors[0].Active)
	assert.True(t, *sensors[0].Active)

	stats, err := c.FetchStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.ActiveSensors)
	assert.Equal(t, 2, stats.Plants)
	assert.Equal(t, 1200, stats.TotalMeasurements)
	require.NotNil(t, stats.Temperature)
	assert.Equal(t, 22.1, stats.Temperature.Mean)
	assert.Nil(t, stats.Humidity)
}

func TestClient_FetchPlantsAndSensorStatistics(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/plantas", jsonHandler(`[{"id":7,"nombre":"Tomate","sensor":{"id":1,"nombre":"A","ubicacion":"X"},
		"rangos":{"temp_min":18,"temp_max":27,"humedad_min":40,"humedad_max":null}}]`))
	mux.HandleFunc("/api/estadisticas/sensor/1", jsonHandler(`{"sensor":{"id":1,"nombre":"A","ubicacion":"X"},
		"planta":"Sin planta","total_mediciones":5,"temperatura":{"promedio":20,"minima":19,"maxima":21},
		"humedad":{"promedio":50,"minima":45,"maxima":55}}`))
	c := newTestClient(t, mux, BreakerConfig{})

	plants, err := c.FetchPlants(context.Background())
	require.NoError(t, err)
	require.Len(t, plants, 1)
	assert.Equal(t, "Tomate", plants[0].Name)
	require.NotNil(t, plants[0].Sensor)
	assert.Equal(t, 1, plants[0].Sensor.ID)
	require.NotNil(t, plants[0].Ranges.TempMax)
	assert.Equal(t, 27.0, *plants[0].Ranges.TempMax)
	assert.Nil(t, plants[0].Ranges.HumidityMax)

	st, err := c.FetchSensorStatistics(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, NoPlantName, st.Plant)
	assert.Equal(t, 5, st.TotalMeasurements)
	assert.Equal(t, 55.0, st.Humidity.Max)
}

func TestClient_NotFoundIsTransportError(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler(), BreakerConfig{})

	_, err := c.FetchHistory(context.Background(), 9, 30)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusNotFound, te.StatusCode)
	assert.Equal(t, EndpointHistory, te.Endpoint)
}

func TestClient_MalformedBodyIsDecodeError(t *testing.T) {
	c := newTestClient(t, jsonHandler(`{"sensores_activos": "three"`), BreakerConfig{})

	_, err := c.FetchStatistics(context.Background())
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, EndpointStatistics, de.Endpoint)
	assert.False(t, IsNotFound(err))
}

func TestClient_TrailingDataIsDecodeError(t *testing.T) {
	c := newTestClient(t, jsonHandler(`[{"id":1,"nombre":"A","ubicacion":"X"}]xyz`), BreakerConfig{})

	_, err := c.FetchSensors(context.Background())
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, EndpointSensors, de.Endpoint)

	c = newTestClient(t, jsonHandler(`[] []`), BreakerConfig{})
	_, err = c.FetchSensors(context.Background())
	assert.True(t, errors.As(err, &de))

	c = newTestClient(t, jsonHandler("[]\n"), BreakerConfig{})
	sensors, err := c.FetchSensors(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sensors)
}

func TestClient_OversizedBodyIsDecodeError(t *testing.T) {
	body := "[" + strings.Repeat("{},", maxBodyBytes/3+1) + "{}]"
	c := newTestClient(t, jsonHandler(body), BreakerConfig{})

	_, err := c.FetchHistory(context.Background(), 1, 30)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, EndpointHistory, de.Endpoint)
}

func TestClient_UnreachableIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: time.Second}, nil)

	_, err := c.FetchSensors(context.Background())
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Zero(t, te.StatusCode)
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}), BreakerConfig{Failures: 2, OpenFor: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := c.FetchStatistics(context.Background())
		require.Error(t, err)
	}
	_, err := c.FetchStatistics(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, int32(2), hits.Load(), "open breaker must not reach the backend")

	// other endpoints have their own breaker
	_, err = c.FetchSensors(context.Background())
	assert.False(t, errors.Is(err, gobreaker.ErrOpenState))
}

func TestClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}), BreakerConfig{Failures: 1, OpenFor: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := c.FetchHistory(context.Background(), 1, 30)
		assert.True(t, IsNotFound(err))
	}
	assert.Equal(t, int32(3), hits.Load())
}
