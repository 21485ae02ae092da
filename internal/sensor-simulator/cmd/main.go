package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	sensorSimulator "github.com/LeonardoBeccarini/garden_dashboard/internal/sensor-simulator"
	"github.com/LeonardoBeccarini/garden_dashboard/internal/services/live"
	"github.com/LeonardoBeccarini/garden_dashboard/pkg/broker"
	"github.com/LeonardoBeccarini/garden_dashboard/pkg/logger"
)

func main() {
	name := flag.String("name", "IleanaTapiaCastillo", "sensor name as registered on the backend")
	host := flag.String("host", "localhost", "MQTT broker host")
	port := flag.Int("port", 1883, "MQTT broker port")
	user := flag.String("user", "", "MQTT user")
	pass := flag.String("pass", "", "MQTT password")
	topic := flag.String("topic", live.DefaultTopic, "topic to publish readings on")
	interval := flag.Duration("interval", 5*time.Second, "publish interval")
	baseTemp := flag.Float64("temp", 22, "base temperature (°C)")
	baseHum := flag.Float64("hum", 55, "base humidity (%)")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	log := logger.New("sensor-simulator", *logLevel)
	defer func() { _ = log.Flush() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := broker.NewConn(ctx, broker.Config{
		Host:     *host,
		Port:     *port,
		User:     *user,
		Password: *pass,
		ClientID: "sim-" + *name + "-" + uuid.NewString()[:8],
	}, log)
	if err != nil {
		log.Fatalf("%v", err)
	}

	publisher := broker.NewPublisher(client, *topic, log)
	generator := sensorSimulator.NewDataGenerator(*name, *baseTemp, *baseHum, *seed)
	sensorSimulator.NewSensorSimulator(publisher, generator, log).Start(ctx, *interval)
}
