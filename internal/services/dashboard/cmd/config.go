package main

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/LeonardoBeccarini/garden_dashboard/internal/services/live"
)

type Config struct {
	AppID    string
	LogLevel string

	APIURL             string
	RefreshInterval    time.Duration
	HistoryLimit       int
	HistoryConcurrency int
	HTTPTimeout        time.Duration

	CBFails    int
	CBOpen     time.Duration
	CBInterval time.Duration

	Port     string
	GRPCPort string // empty = no gRPC health server

	MQTTHost    string // empty = no live refresh
	MQTTPort    int
	MQTTUser    string
	MQTTPass    string
	MQTTTopic   string
	MQTTSensors map[string]int

	InfluxURL    string // empty = no recorder
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string
}

func getenv(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func getenvMs(k string, d int) time.Duration {
	return time.Duration(getenvInt(k, d)) * time.Millisecond
}

func loadConfig() (Config, error) {
	sensors, err := live.ParseSensorMap(os.Getenv("MQTT_SENSORS"))
	if err != nil {
		return Config{}, errors.Wrap(err, "MQTT_SENSORS")
	}
	cfg := Config{
		AppID:    getenv("APP_ID", "garden-dashboard"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		APIURL:             getenv("API_URL", "http://localhost:8000/api"),
		RefreshInterval:    getenvMs("REFRESH_INTERVAL_MS", 3000),
		HistoryLimit:       getenvInt("HISTORY_LIMIT", 30),
		HistoryConcurrency: getenvInt("HISTORY_CONCURRENCY", 4),
		HTTPTimeout:        getenvMs("HTTP_TIMEOUT_MS", 5000),

		CBFails:    getenvInt("CB_FAILS", 5),
		CBOpen:     getenvMs("CB_OPEN_MS", 10000),
		CBInterval: getenvMs("CB_INTERVAL_MS", 60000),

		Port:     getenv("PORT", "8080"),
		GRPCPort: os.Getenv("GRPC_PORT"),

		MQTTHost:    os.Getenv("MQTT_HOST"),
		MQTTPort:    getenvInt("MQTT_PORT", 1883),
		MQTTUser:    os.Getenv("MQTT_USER"),
		MQTTPass:    os.Getenv("MQTT_PASS"),
		MQTTTopic:   getenv("MQTT_TOPIC", live.DefaultTopic),
		MQTTSensors: sensors,

		InfluxURL:    os.Getenv("INFLUX_URL"),
		InfluxToken:  os.Getenv("INFLUX_TOKEN"),
		InfluxOrg:    getenv("INFLUX_ORG", "garden"),
		InfluxBucket: getenv("INFLUX_BUCKET", "mediciones"),
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Errorf("API_URL %q is not an absolute URL", c.APIURL)
	}
	if c.RefreshInterval <= 0 {
		return errors.New("REFRESH_INTERVAL_MS must be positive")
	}
	if c.HistoryLimit <= 0 {
		return errors.New("HISTORY_LIMIT must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("HTTP_TIMEOUT_MS must be positive")
	}
	if c.CBFails <= 0 {
		return errors.New("CB_FAILS must be positive")
	}
	if c.Port == "" {
		return errors.New("PORT is missing")
	}
	if c.InfluxURL != "" && c.InfluxToken == "" {
		return errors.New("INFLUX_TOKEN is required when INFLUX_URL is set")
	}
	return nil
}
