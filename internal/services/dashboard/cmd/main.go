package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/LeonardoBeccarini/garden_dashboard/internal/services/dashboard"
	"github.com/LeonardoBeccarini/garden_dashboard/internal/services/live"
	"github.com/LeonardoBeccarini/garden_dashboard/internal/services/recorder"
	"github.com/LeonardoBeccarini/garden_dashboard/pkg/broker"
	"github.com/LeonardoBeccarini/garden_dashboard/pkg/dedup"
	"github.com/LeonardoBeccarini/garden_dashboard/pkg/logger"
)

const shutdownGrace = 5 * time.Second

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.AppID, cfg.LogLevel)
	defer func() { _ = log.Flush() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatalf("dashboard stopped: %v", err)
	}
	log.Infof("dashboard stopped")
}

func run(ctx context.Context, cfg Config, log logger.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := dashboard.NewMetrics(reg)

	health := dashboard.NewHealthPublisher()
	defer health.Shutdown()

	client := dashboard.NewClient(dashboard.ClientConfig{
		BaseURL: cfg.APIURL,
		Timeout: cfg.HTTPTimeout,
		Breaker: dashboard.BreakerConfig{
			Failures: cfg.CBFails,
			OpenFor:  cfg.CBOpen,
			Interval: cfg.CBInterval,
		},
	}, metrics)

	view := dashboard.NewView(dashboard.NewStatusReporter(metrics, health))

	var (
		sinks  []dashboard.SnapshotSink
		record *dashboard.AsyncSink
	)
	if cfg.InfluxURL != "" {
		influx := influxdb2.NewClient(cfg.InfluxURL, cfg.InfluxToken)
		defer influx.Close()
		rec := recorder.New(
			influx.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
			dedup.New(24*time.Hour, 10000),
			log,
		)
		record = dashboard.NewAsyncSink(rec, dashboard.DefaultSinkQueue, dashboard.DefaultSinkTimeout, log, metrics)
		sinks = append(sinks, record)
		log.Infow("recording measurements", "influx", cfg.InfluxURL, "bucket", cfg.InfluxBucket)
	}

	cycle := dashboard.NewDashboard(client, view, dashboard.SynchronizerConfig{
		HistoryLimit: cfg.HistoryLimit,
		Concurrency:  cfg.HistoryConcurrency,
	}, log, metrics, sinks...)
	poller := dashboard.NewPoller(cycle, cfg.RefreshInterval, log, metrics)

	var (
		gs  *grpc.Server
		lis net.Listener
	)
	if cfg.GRPCPort != "" {
		var err error
		if lis, err = net.Listen("tcp", ":"+cfg.GRPCPort); err != nil {
			return errors.Wrapf(err, "listen grpc :%s", cfg.GRPCPort)
		}
		gs = grpc.NewServer()
		health.Register(gs)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := poller.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if record != nil {
		g.Go(func() error { return record.Run(ctx) })
	}

	srv := dashboard.NewServer(":"+cfg.Port, dashboard.NewRouter(view, client, reg, log))
	g.Go(func() error {
		log.Infow("http listening", "addr", srv.Addr, "api", cfg.APIURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shCtx)
	})

	if gs != nil {
		g.Go(func() error {
			log.Infow("grpc health listening", "addr", lis.Addr().String())
			if err := gs.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return errors.Wrap(err, "grpc server")
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			gs.GracefulStop()
			return nil
		})
	}

	if cfg.MQTTHost != "" {
		mqttClient, err := broker.NewConn(ctx, broker.Config{
			Host:     cfg.MQTTHost,
			Port:     cfg.MQTTPort,
			User:     cfg.MQTTUser,
			Password: cfg.MQTTPass,
			ClientID: cfg.AppID + "-" + uuid.NewString(),
		}, log)
		if err != nil {
			// live refresh is optional, polling keeps working
			log.Errorw("live refresh disabled", "error", err)
		} else {
			listener := live.NewListener(
				broker.NewConsumer(mqttClient, cfg.MQTTTopic, 0, nil, log),
				poller,
				dedup.New(30*time.Second, 1000),
				cfg.MQTTSensors,
				log,
			)
			g.Go(func() error { return listener.Start(ctx) })
		}
	}

	return g.Wait()
}
