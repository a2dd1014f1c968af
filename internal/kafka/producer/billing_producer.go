package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dhoini/Billing-microservice/internal/domain"
	"github.com/Dhoini/Billing-microservice/internal/kafka"
	"github.com/Dhoini/Billing-microservice/pkg/logger"
	"github.com/IBM/sarama"
)

// BillingEvent представляет событие жизненного цикла клиента для Kafka
type BillingEvent struct {
	ClientID           string                 `json:"client_id"`
	Email              string                 `json:"email"`
	Status             domain.ClientStatus    `json:"status"`
	SubscriptionStatus string                 `json:"subscription_status,omitempty"`
	SuspendedReason    domain.SuspendedReason `json:"suspended_reason,omitempty"`
	Timestamp          time.Time              `json:"timestamp"`
}

// BillingProducer интерфейс для отправки событий жизненного цикла клиентов
type BillingProducer interface {
	PublishClientOnboarded(ctx context.Context, client domain.Client) error
	PublishClientSuspended(ctx context.Context, client domain.Client) error
	PublishClientReactivated(ctx context.Context, client domain.Client) error
	PublishClientCancelled(ctx context.Context, client domain.Client) error
	Close() error
}

type kafkaBillingProducer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
}

// NewKafkaBillingProducer создает новый продюсер событий биллинга
func NewKafkaBillingProducer(producer sarama.SyncProducer, log *logger.Logger) BillingProducer {
	return &kafkaBillingProducer{
		producer: producer,
		log:      log,
	}
}

// PublishClientOnboarded публикует событие о завершении онбординга
func (p *kafkaBillingProducer) PublishClientOnboarded(ctx context.Context, client domain.Client) error {
	return p.publishEvent(ctx, kafka.TopicClientOnboarded, client)
}

// PublishClientSuspended публикует событие о приостановке клиента
func (p *kafkaBillingProducer) PublishClientSuspended(ctx context.Context, client domain.Client) error {
	return p.publishEvent(ctx, kafka.TopicClientSuspended, client)
}

// PublishClientReactivated публикует событие о возобновлении клиента
func (p *kafkaBillingProducer) PublishClientReactivated(ctx context.Context, client domain.Client) error {
	return p.publishEvent(ctx, kafka.TopicClientReactivated, client)
}

// PublishClientCancelled публикует событие об отмене подписки клиента
func (p *kafkaBillingProducer) PublishClientCancelled(ctx context.Context, client domain.Client) error {
	return p.publishEvent(ctx, kafka.TopicClientCancelled, client)
}

// publishEvent публикует событие биллинга в Kafka
func (p *kafkaBillingProducer) publishEvent(_ context.Context, topic string, client domain.Client) error {
	event := BillingEvent{
		ClientID:           client.ID.String(),
		Email:              client.Email,
		Status:             client.Status,
		SubscriptionStatus: client.SubscriptionStatus,
		SuspendedReason:    client.SuspendedReason,
		Timestamp:          time.Now(),
	}

	messageValue, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal billing event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(client.ID.String()),
		Value: sarama.ByteEncoder(messageValue),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("event_type"),
				Value: []byte(topic),
			},
		},
		Timestamp: time.Now(),
	}

	partition, offset, err := p.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to publish billing event: %w", err)
	}

	p.log.Info("Published billing event to topic %s: partition=%d offset=%d",
		topic, partition, offset)

	return nil
}

// Close закрывает продюсер
func (p *kafkaBillingProducer) Close() error {
	return p.producer.Close()
}
