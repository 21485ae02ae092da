package broker

import (
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"

	"github.com/LeonardoBeccarini/garden_dashboard/pkg/logger"
)

// IPublisher publishes plain-text payloads to a fixed topic.
type IPublisher interface {
	PublishMessage(payload string) error
	Close()
}

type Publisher struct {
	client mqtt.Client
	topic  string
	log    logger.Logger
}

func NewPublisher(client mqtt.Client, topic string, log logger.Logger) *Publisher {
	return &Publisher{client: client, topic: topic, log: log.With("topic", topic)}
}

// PublishMessage publishes with QoS 0 and waits for the token.
func (p *Publisher) PublishMessage(payload string) error {
	token := p.client.Publish(p.topic, 0, false, payload)
	token.Wait()
	if token.Error() != nil {
		return errors.Wrap(token.Error(), "failed to publish message")
	}
	p.log.Debugw("message published", "payload", payload)
	return nil
}

func (p *Publisher) Close() {
	Close(p.client, p.log)
}
