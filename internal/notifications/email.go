package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/Dhoini/Billing-microservice/internal/domain"
	"github.com/Dhoini/Billing-microservice/internal/kafka"
	"github.com/Dhoini/Billing-microservice/pkg/logger"
)

// Шаблоны писем, известные воркеру нотификаций
const (
	TemplatePaymentLink   = "client_payment_link"
	TemplatePasswordSetup = "client_password_setup"
	TemplatePasswordReset = "password_reset"
)

// EmailSender интерфейс отправки писем клиентам
type EmailSender interface {
	// SendPaymentLinkEmail отправляет клиенту ссылку для ввода платежных данных
	SendPaymentLinkEmail(ctx context.Context, recipient, token string, expiresAt time.Time) error

	// SendPasswordSetupEmail отправляет ссылку на установку пароля личного кабинета
	SendPasswordSetupEmail(ctx context.Context, recipient, token string, expiresAt time.Time) error

	// SendPasswordResetEmail отправляет ссылку на сброс пароля
	SendPasswordResetEmail(ctx context.Context, recipient, token string, expiresAt time.Time) error
}

// kafkaEmailSender отправляет письма через очередь заданий в Kafka.
// Сервис не ждет фактической доставки: задание принято брокером —
// письмо считается отправленным.
type kafkaEmailSender struct {
	producer kafka.JobProducer
	baseURL  string
	log      *logger.Logger
}

// NewKafkaEmailSender создает отправителя писем поверх очереди заданий
func NewKafkaEmailSender(producer kafka.JobProducer, baseURL string, log *logger.Logger) EmailSender {
	return &kafkaEmailSender{
		producer: producer,
		baseURL:  baseURL,
		log:      log,
	}
}

// SendPaymentLinkEmail отправляет клиенту ссылку для ввода платежных данных
func (s *kafkaEmailSender) SendPaymentLinkEmail(ctx context.Context, recipient, token string, expiresAt time.Time) error {
	return s.enqueue(ctx, TemplatePaymentLink, recipient, map[string]string{
		"link":       fmt.Sprintf("%s/onboarding?token=%s", s.baseURL, token),
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}

// SendPasswordSetupEmail отправляет ссылку на установку пароля личного кабинета
func (s *kafkaEmailSender) SendPasswordSetupEmail(ctx context.Context, recipient, token string, expiresAt time.Time) error {
	return s.enqueue(ctx, TemplatePasswordSetup, recipient, map[string]string{
		"link":       fmt.Sprintf("%s/account/password?token=%s", s.baseURL, token),
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}

// SendPasswordResetEmail отправляет ссылку на сброс пароля
func (s *kafkaEmailSender) SendPasswordResetEmail(ctx context.Context, recipient, token string, expiresAt time.Time) error {
	return s.enqueue(ctx, TemplatePasswordReset, recipient, map[string]string{
		"link":       fmt.Sprintf("%s/account/password/reset?token=%s", s.baseURL, token),
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}

func (s *kafkaEmailSender) enqueue(ctx context.Context, template, recipient string, params map[string]string) error {
	job := kafka.EmailJob{
		Template:  template,
		Recipient: recipient,
		Params:    params,
		CreatedAt: time.Now(),
	}

	if err := s.producer.PublishEmailJob(ctx, job); err != nil {
		s.log.Errorw("Failed to enqueue email job", "error", err, "template", template, "recipient", recipient)
		return fmt.Errorf("%w: %s", domain.ErrNotification, template)
	}

	s.log.Debugw("Email job enqueued", "template", template, "recipient", recipient)
	return nil
}
