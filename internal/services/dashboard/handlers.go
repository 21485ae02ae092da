package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LeonardoBeccarini/garden_dashboard/internal/model/entities"
	"github.com/LeonardoBeccarini/garden_dashboard/pkg/logger"
)

const (
	defaultPNGWidth  = 800
	defaultPNGHeight = 400
	maxPNGSide       = 4000
)

// Catalog is the on-demand part of the backend, read per request rather than
// polled.
type Catalog interface {
	FetchPlants(ctx context.Context) ([]entities.PlantInfo, error)
	FetchSensorStatistics(ctx context.Context, sensorID int) (entities.SensorStatistics, error)
}

var _ Catalog = (*Client)(nil)

type handlers struct {
	view    *View
	catalog Catalog
	log     logger.Logger
}

// NewRouter exposes the view over HTTP. catalog and gatherer may be nil, in
// which case the plant and sensor statistics routes or /metrics are not
// served.
func NewRouter(view *View, catalog Catalog, gatherer prometheus.Gatherer, log logger.Logger) *mux.Router {
	h := &handlers{view: view, catalog: catalog, log: log.With("component", "http")}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", h.readyz).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/data", h.dashboard).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/cards", h.cards).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/status", h.status).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/charts/{kind:temperature|humidity}.png", h.chartPNG).Methods(http.MethodGet)
	r.HandleFunc("/dashboard/charts/{kind:temperature|humidity}", h.chart).Methods(http.MethodGet)
	if catalog != nil {
		r.HandleFunc("/dashboard/plants", h.plants).Methods(http.MethodGet)
		r.HandleFunc("/dashboard/sensors/{id:[0-9]+}/stats", h.sensorStats).Methods(http.MethodGet)
	}
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	return r
}

// NewServer wraps the router with the usual timeouts.
func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func (h *handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

// readyz is 200 only while the last statistics fetch succeeded.
func (h *handlers) readyz(w http.ResponseWriter, _ *http.Request) {
	st := h.view.Status.Current()
	code := http.StatusOK
	if st.Connectivity != Connected {
		code = http.StatusServiceUnavailable
	}
	h.writeJSON(w, code, map[string]any{
		"ready":        code == http.StatusOK,
		"connectivity": st.Connectivity,
	})
}

func (h *handlers) dashboard(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.view.Dashboard())
}

func (h *handlers) cards(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.view.Cards())
}

func (h *handlers) status(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.view.Status.Current())
}

func (h *handlers) chart(w http.ResponseWriter, r *http.Request) {
	data, ok := h.view.Chart(mux.Vars(r)["kind"])
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.writeJSON(w, http.StatusOK, data)
}

func (h *handlers) chartPNG(w http.ResponseWriter, r *http.Request) {
	data, ok := h.view.Chart(mux.Vars(r)["kind"])
	if !ok {
		http.NotFound(w, r)
		return
	}
	width, err := sizeParam(r, "w", defaultPNGWidth)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	height, err := sizeParam(r, "h", defaultPNGHeight)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := RenderChartPNG(&buf, data, width, height); err != nil {
		if errors.Is(err, ErrEmptyChart) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.log.Errorw("chart render failed", "chart", data.Title, "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (h *handlers) plants(w http.ResponseWriter, r *http.Request) {
	plants, err := h.catalog.FetchPlants(r.Context())
	if err != nil {
		h.backendError(w, err)
		return
	}
	if plants == nil {
		plants = []entities.PlantInfo{}
	}
	h.writeJSON(w, http.StatusOK, plants)
}

func (h *handlers) sensorStats(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid sensor id", http.StatusBadRequest)
		return
	}
	st, err := h.catalog.FetchSensorStatistics(r.Context(), id)
	if err != nil {
		h.backendError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, st)
}

// backendError passes a backend 404 through and reports anything else as a
// bad gateway.
func (h *handlers) backendError(w http.ResponseWriter, err error) {
	if IsNotFound(err) {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	h.log.Warnw("backend request failed", "error", err)
	h.writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
}

func sizeParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 16 || n > maxPNGSide {
		return 0, errors.Errorf("invalid %s=%q", name, raw)
	}
	return n, nil
}

func (h *handlers) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Warnw("write response", "error", err)
	}
}
