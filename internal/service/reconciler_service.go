package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dhoini/Billing-microservice/internal/domain"
	"github.com/Dhoini/Billing-microservice/internal/gateway"
	"github.com/Dhoini/Billing-microservice/internal/kafka/producer"
	"github.com/Dhoini/Billing-microservice/internal/metrics"
	"github.com/Dhoini/Billing-microservice/internal/repository"
	"github.com/Dhoini/Billing-microservice/pkg/logger"
)

// ReconcilerService интерфейс сервиса сверки событий платежного провайдера
type ReconcilerService interface {
	// ProcessEvent применяет верифицированное событие провайдера к
	// состоянию клиента
	ProcessEvent(ctx context.Context, event domain.ProviderEvent) error
}

type reconcilerService struct {
	clients  repository.ClientRepository
	accounts repository.AccountRepository
	gw       gateway.PaymentGateway
	events   producer.BillingProducer
	metrics  metrics.BillingMetrics
	log      *logger.Logger
	now      func() time.Time
}

// NewReconcilerService создает новый сервис сверки
func NewReconcilerService(
	clients repository.ClientRepository,
	accounts repository.AccountRepository,
	gw gateway.PaymentGateway,
	events producer.BillingProducer,
	m metrics.BillingMetrics,
	log *logger.Logger,
) ReconcilerService {
	return &reconcilerService{
		clients:  clients,
		accounts: accounts,
		gw:       gw,
		events:   events,
		metrics:  m,
		log:      log,
		now:      time.Now,
	}
}

// ProcessEvent применяет событие провайдера к состоянию клиента.
// События доставляются at-least-once и без гарантии порядка: повтор
// уже примененного события вычисляет пустой переход и ничего не пишет.
func (s *reconcilerService) ProcessEvent(ctx context.Context, event domain.ProviderEvent) error {
	s.log.Debugw("Processing provider event",
		"eventID", event.ID, "type", event.Type, "customerID", event.CustomerID)

	if event.CustomerID == "" {
		// События без привязки к клиенту нас не касаются
		s.log.Debugw("Skipping event without customer reference", "eventID", event.ID, "type", event.Type)
		s.metrics.IncWebhookEvent(string(event.Type), "skipped")
		return nil
	}

	client, err := s.clients.FindByProviderCustomerID(ctx, event.CustomerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Платеж мог пройти до того, как наша запись получила
			// provider_customer_id, либо клиент создан вне сервиса.
			// Отвечаем провайдеру успехом, чтобы он не ретраил вечно.
			s.log.Warnw("Provider event for unknown customer, ignoring",
				"eventID", event.ID, "type", event.Type, "customerID", event.CustomerID)
			s.metrics.IncWebhookEvent(string(event.Type), "unknown_customer")
			return nil
		}
		s.metrics.IncWebhookEvent(string(event.Type), "error")
		return fmt.Errorf("%w: find client by provider customer: %v", domain.ErrStore, err)
	}

	result := transition(client, event, s.now())

	if len(result.fields) == 0 && len(result.effects) == 0 {
		s.log.Debugw("Event produced no state change", "eventID", event.ID, "type", event.Type, "clientID", client.ID)
		s.metrics.IncWebhookEvent(string(event.Type), "noop")
		return nil
	}

	if len(result.fields) > 0 {
		if err := s.clients.UpdateFields(ctx, client.ID, result.fields); err != nil {
			s.metrics.IncWebhookEvent(string(event.Type), "error")
			return fmt.Errorf("%w: apply transition fields: %v", domain.ErrStore, err)
		}
	}

	updated := applyFields(client, result.fields)
	s.runSideEffects(ctx, updated, result.effects)

	if event.Type == domain.EventInvoicePaymentFailed {
		s.metrics.IncPaymentFailure()
	}

	s.metrics.IncWebhookEvent(string(event.Type), "applied")
	s.log.Infow("Provider event applied",
		"eventID", event.ID, "type", event.Type, "clientID", client.ID, "status", updated.Status)
	return nil
}

// runSideEffects выполняет внешние действия перехода. Ошибки здесь не
// откатывают уже записанное состояние: управление списаниями и
// уведомления логируются и доезжают при следующем событии или вручную.
func (s *reconcilerService) runSideEffects(ctx context.Context, client domain.Client, effects []sideEffect) {
	for _, effect := range effects {
		switch effect {
		case effectPauseCollection:
			s.metrics.IncSuspension()
			if client.ProviderSubscriptionID == "" {
				continue
			}
			if err := s.gw.PauseCollection(ctx, client.ProviderSubscriptionID); err != nil {
				s.log.Errorw("Failed to pause collection",
					"error", err, "clientID", client.ID, "subscriptionID", client.ProviderSubscriptionID)
			}

		case effectResumeCollection:
			s.metrics.IncReactivation()
			if client.ProviderSubscriptionID == "" {
				continue
			}
			if err := s.gw.ResumeCollection(ctx, client.ProviderSubscriptionID); err != nil {
				s.log.Errorw("Failed to resume collection",
					"error", err, "clientID", client.ID, "subscriptionID", client.ProviderSubscriptionID)
			}

		case effectMirrorAccountStatus:
			s.mirrorAccountStatus(ctx, client)

		case effectNotifySuspended:
			if err := s.events.PublishClientSuspended(ctx, client); err != nil {
				s.log.Warnw("Failed to publish suspension event", "error", err, "clientID", client.ID)
			}

		case effectNotifyReactivated:
			if err := s.events.PublishClientReactivated(ctx, client); err != nil {
				s.log.Warnw("Failed to publish reactivation event", "error", err, "clientID", client.ID)
			}

		case effectNotifyCancelled:
			s.metrics.IncCancellation()
			if err := s.events.PublishClientCancelled(ctx, client); err != nil {
				s.log.Warnw("Failed to publish cancellation event", "error", err, "clientID", client.ID)
			}
		}
	}
}

// mirrorAccountStatus синхронизирует статус учетной записи портала со
// статусом клиента. Отсутствие учетной записи не ошибка: клиент мог не
// завершить установку пароля.
func (s *reconcilerService) mirrorAccountStatus(ctx context.Context, client domain.Client) {
	accountStatus, ok := accountStatusFor(client.Status)
	if !ok {
		return
	}

	if err := s.accounts.UpdateStatusByEmail(ctx, client.Email, accountStatus); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Debugw("No portal account to mirror", "email", client.Email)
			return
		}
		s.log.Errorw("Failed to mirror account status", "error", err, "email", client.Email)
	}
}

func accountStatusFor(status domain.ClientStatus) (domain.AccountStatus, bool) {
	switch status {
	case domain.ClientStatusActive:
		return domain.AccountStatusActive, true
	case domain.ClientStatusSuspended:
		return domain.AccountStatusSuspended, true
	case domain.ClientStatusCancelled:
		return domain.AccountStatusCancelled, true
	}
	return "", false
}

// applyFields накладывает набор полей перехода на снимок клиента,
// чтобы внешние действия видели уже новое состояние
func applyFields(client domain.Client, fields repository.FieldSet) domain.Client {
	for column, value := range fields {
		switch column {
		case "status":
			client.Status = value.(domain.ClientStatus)
		case "subscription_status":
			client.SubscriptionStatus = value.(string)
		case "provider_subscription_id":
			client.ProviderSubscriptionID = value.(string)
		case "payment_failure_count":
			client.PaymentFailureCount = value.(int)
		case "suspended_reason":
			client.SuspendedReason = value.(domain.SuspendedReason)
		case "suspended_at":
			t := value.(time.Time)
			client.SuspendedAt = &t
		case "reactivated_at":
			t := value.(time.Time)
			client.ReactivatedAt = &t
		case "cancelled_at":
			t := value.(time.Time)
			client.CancelledAt = &t
		}
	}
	return client
}
