package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"

	"github.com/LeonardoBeccarini/garden_dashboard/pkg/logger"
)

// Config describes how to reach the MQTT broker the garden sensors publish to.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	ClientID string

	// connect attempts before giving up (>= 1)
	MaxRetries     int
	MaxElapsedTime time.Duration
}

func (c Config) addr() string {
	return fmt.Sprintf("tcp://%s:%d", c.Host, c.Port)
}

// NewConn connects to the broker retrying with exponential backoff, and
// disconnects the client when ctx is done.
func NewConn(ctx context.Context, cfg Config, log logger.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.addr())
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = cfg.MaxElapsedTime
	if bo.MaxElapsedTime <= 0 {
		bo.MaxElapsedTime = 10 * time.Second
	}
	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 5
	}

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.Warnw("mqtt connect failed", "broker", cfg.addr(), "error", token.Error())
			return token.Error()
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(retries-1)), ctx))
	if err != nil {
		return nil, errors.Wrapf(err, "could not connect to mqtt broker %s", cfg.addr())
	}

	log.Infow("connected to mqtt broker", "broker", cfg.addr(), "client_id", cfg.ClientID)

	go func() {
		<-ctx.Done()
		Close(client, log)
	}()

	return client, nil
}

// Close disconnects the client if it is still connected.
func Close(client mqtt.Client, log logger.Logger) {
	if client != nil && client.IsConnected() {
		client.Disconnect(250)
		log.Infof("mqtt connection closed")
	}
}
