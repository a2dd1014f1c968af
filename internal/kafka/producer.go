package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/Billing-microservice/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// Топики сервиса биллинга
const (
	TopicClientOnboarded   = "billing.client.onboarded"
	TopicClientSuspended   = "billing.client.suspended"
	TopicClientReactivated = "billing.client.reactivated"
	TopicClientCancelled   = "billing.client.cancelled"
	TopicEmailJobs         = "notifications.email"
)

// EmailJob задание на отправку письма. Забирается отдельным воркером
// нотификаций, сам сервис биллинга письма не рендерит.
type EmailJob struct {
	Template  string            `json:"template"`
	Recipient string            `json:"recipient"`
	Params    map[string]string `json:"params"`
	CreatedAt time.Time         `json:"created_at"`
}

// JobProducer определяет интерфейс для публикации заданий в Kafka.
type JobProducer interface {
	// PublishEmailJob отправляет задание на письмо.
	// Ключ сообщения — email получателя, так письма одному адресату
	// попадают в одну партицию и сохраняют порядок.
	PublishEmailJob(ctx context.Context, job EmailJob) error
	// Close закрывает соединение продюсера Kafka.
	Close() error
}

// kafkaJobProducer реализует интерфейс JobProducer, используя segmentio/kafka-go.
type kafkaJobProducer struct {
	writer *kafka.Writer
	log    *logger.Logger
}

// NewKafkaJobProducer создает и настраивает новый продюсер заданий.
func NewKafkaJobProducer(brokers []string, log *logger.Logger) (JobProducer, error) {
	if len(brokers) == 0 {
		log.Errorw("Kafka brokers list is empty in config, cannot create producer")
		return nil, errors.New("kafka brokers are not configured")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	log.Infow("Kafka job producer initialized", "brokers", brokers)

	return &kafkaJobProducer{
		writer: writer,
		log:    log,
	}, nil
}

// PublishEmailJob преобразует задание в JSON и отправляет в топик нотификаций.
func (k *kafkaJobProducer) PublishEmailJob(ctx context.Context, job EmailJob) error {
	messageValue, err := json.Marshal(job)
	if err != nil {
		k.log.Errorw("Failed to marshal email job to JSON for Kafka", "error", err, "recipient", job.Recipient)
		return fmt.Errorf("kafka: failed to marshal message data: %w", err)
	}

	message := kafka.Message{
		Topic: TopicEmailJobs,
		Key:   []byte(job.Recipient),
		Value: messageValue,
		Time:  time.Now(),
	}

	writeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := k.writer.WriteMessages(writeCtx, message); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			k.log.Errorw("Kafka write timeout exceeded", "error", err, "topic", TopicEmailJobs, "recipient", job.Recipient)
			return fmt.Errorf("kafka: write timeout: %w", err)
		}
		k.log.Errorw("Failed to write message to Kafka", "error", err, "topic", TopicEmailJobs, "recipient", job.Recipient)
		return fmt.Errorf("kafka: failed to write message: %w", err)
	}

	k.log.Debugw("Published email job to Kafka", "topic", TopicEmailJobs, "template", job.Template, "recipient", job.Recipient)
	return nil
}

// Close закрывает соединение Kafka Writer.
func (k *kafkaJobProducer) Close() error {
	k.log.Infow("Closing Kafka producer writer...")
	if err := k.writer.Close(); err != nil {
		k.log.Errorw("Failed to close Kafka writer", "error", err)
		return fmt.Errorf("kafka: failed to close writer: %w", err)
	}
	k.log.Infow("Kafka producer writer closed successfully")
	return nil
}
