package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Dhoini/Billing-microservice/internal/billing"
	"github.com/Dhoini/Billing-microservice/internal/domain"
	"github.com/Dhoini/Billing-microservice/internal/gateway"
	"github.com/Dhoini/Billing-microservice/internal/kafka/producer"
	"github.com/Dhoini/Billing-microservice/internal/metrics"
	"github.com/Dhoini/Billing-microservice/internal/notifications"
	"github.com/Dhoini/Billing-microservice/internal/repository"
	"github.com/Dhoini/Billing-microservice/pkg/logger"
	"github.com/google/uuid"
)

// TokenIssuer выпускает и проверяет токены действий
type TokenIssuer interface {
	Issue(subjectEmail string, purpose domain.TokenPurpose) (string, time.Time, error)
	Redeem(tokenString string, expectedPurpose domain.TokenPurpose) (string, error)
}

// PriceResolver находит или создает рекуррентную цену в каталоге провайдера
type PriceResolver interface {
	ResolvePrice(ctx context.Context, amountMinor int64, currency string) (string, error)
}

// OnboardingService интерфейс сервиса онбординга клиентов
type OnboardingService interface {
	// BeginOnboarding создает клиента и платежную ссылку для него
	BeginOnboarding(ctx context.Context, req domain.BeginOnboardingRequest) (domain.OnboardingLink, error)

	// CompleteOnboarding завершает онбординг по токену из платежной ссылки
	CompleteOnboarding(ctx context.Context, req domain.CompleteOnboardingRequest) (domain.OnboardingResult, error)

	// CancelClient отменяет подписку клиента по решению администратора
	CancelClient(ctx context.Context, clientID uuid.UUID) error
}

type onboardingService struct {
	clients         repository.ClientRepository
	accounts        repository.AccountRepository
	gw              gateway.PaymentGateway
	prices          PriceResolver
	tokens          TokenIssuer
	emails          notifications.EmailSender
	events          producer.BillingProducer
	metrics         metrics.BillingMetrics
	defaultCurrency string
	log             *logger.Logger
	now             func() time.Time
}

// NewOnboardingService создает новый сервис онбординга
func NewOnboardingService(
	clients repository.ClientRepository,
	accounts repository.AccountRepository,
	gw gateway.PaymentGateway,
	prices PriceResolver,
	tokens TokenIssuer,
	emails notifications.EmailSender,
	events producer.BillingProducer,
	m metrics.BillingMetrics,
	defaultCurrency string,
	log *logger.Logger,
) OnboardingService {
	return &onboardingService{
		clients:         clients,
		accounts:        accounts,
		gw:              gw,
		prices:          prices,
		tokens:          tokens,
		emails:          emails,
		events:          events,
		metrics:         m,
		defaultCurrency: defaultCurrency,
		log:             log,
		now:             time.Now,
	}
}

// BeginOnboarding создает запись клиента в статусе pending_payment,
// заводит клиента у провайдера и отправляет платежную ссылку.
// Недоставленное письмо не отменяет онбординг: ссылку можно выслать
// повторно, пока жив токен.
func (s *onboardingService) BeginOnboarding(ctx context.Context, req domain.BeginOnboardingRequest) (domain.OnboardingLink, error) {
	s.log.Debugw("Beginning client onboarding", "email", req.Email, "billingDay", req.BillingDay)

	if _, err := s.clients.FindByEmail(ctx, req.Email); err == nil {
		s.log.Warnw("Onboarding rejected, client already exists", "email", req.Email)
		return domain.OnboardingLink{}, domain.ErrDuplicateClient
	} else if !errors.Is(err, repository.ErrNotFound) {
		return domain.OnboardingLink{}, fmt.Errorf("%w: find client by email: %v", domain.ErrStore, err)
	}

	now := s.now()
	client := domain.Client{
		ID:           uuid.New(),
		Email:        req.Email,
		Name:         req.Name,
		Phone:        req.Phone,
		MonthlyPrice: req.MonthlyPrice,
		Currency:     s.defaultCurrency,
		BillingDay:   req.BillingDay,
		Status:       domain.ClientStatusPendingPayment,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	client, err := s.clients.Insert(ctx, client)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.OnboardingLink{}, domain.ErrDuplicateClient
		}
		return domain.OnboardingLink{}, fmt.Errorf("%w: insert client: %v", domain.ErrStore, err)
	}

	customer, err := s.gw.CreateCustomer(ctx, client.Email, client.Name, client.Phone, map[string]string{
		"client_id": client.ID.String(),
	})
	if err != nil {
		return domain.OnboardingLink{}, fmt.Errorf("create provider customer: %w", err)
	}

	if err := s.clients.UpdateFields(ctx, client.ID, repository.FieldSet{
		"provider_customer_id": customer.ID,
	}); err != nil {
		return domain.OnboardingLink{}, fmt.Errorf("%w: save provider customer id: %v", domain.ErrStore, err)
	}

	tokenString, expiresAt, err := s.tokens.Issue(client.Email, domain.TokenPurposeClientOnboarding)
	if err != nil {
		return domain.OnboardingLink{}, fmt.Errorf("issue onboarding token: %w", err)
	}

	if err := s.emails.SendPaymentLinkEmail(ctx, client.Email, tokenString, expiresAt); err != nil {
		// Письмо можно выслать повторно, онбординг уже начат
		s.log.Warnw("Payment link email not delivered", "error", err, "email", client.Email)
	}

	s.metrics.IncOnboardingStarted()
	s.log.Infow("Client onboarding started",
		"clientID", client.ID, "email", client.Email, "providerCustomerID", customer.ID)

	return domain.OnboardingLink{
		ClientID:  client.ID,
		Email:     client.Email,
		Token:     tokenString,
		ExpiresAt: expiresAt,
	}, nil
}

// CompleteOnboarding завершает онбординг: привязывает метод оплаты,
// разрешает цену в каталоге и создает подписку с якорем списаний на
// выбранный день месяца. Повторное погашение живого токена после
// успешного завершения возвращает ErrAlreadyOnboarded и второй
// подписки не создает.
func (s *onboardingService) CompleteOnboarding(ctx context.Context, req domain.CompleteOnboardingRequest) (domain.OnboardingResult, error) {
	email, err := s.tokens.Redeem(req.Token, domain.TokenPurposeClientOnboarding)
	if err != nil {
		return domain.OnboardingResult{}, err
	}

	client, err := s.clients.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.OnboardingResult{}, domain.ErrClientNotFound
		}
		return domain.OnboardingResult{}, fmt.Errorf("%w: find client by email: %v", domain.ErrStore, err)
	}

	if client.ProviderSubscriptionID != "" {
		s.log.Warnw("Onboarding already completed", "clientID", client.ID, "email", email)
		return domain.OnboardingResult{}, domain.ErrAlreadyOnboarded
	}

	if err := s.gw.AttachPaymentMethod(ctx, client.ProviderCustomerID, req.PaymentMethodID); err != nil {
		return domain.OnboardingResult{}, err
	}

	fields := detailFields(req.Details)
	if req.Details.Name != "" || req.Details.Phone != "" {
		if _, err := s.gw.UpdateCustomer(ctx, client.ProviderCustomerID, gateway.CustomerUpdate{
			Name:  req.Details.Name,
			Phone: req.Details.Phone,
		}); err != nil {
			// Анкетные данные у провайдера вторичны, подписку это не блокирует
			s.log.Warnw("Failed to update provider customer details", "error", err, "clientID", client.ID)
		}
	}

	amountMinor := int64(math.Round(client.MonthlyPrice * 100))
	priceID, err := s.prices.ResolvePrice(ctx, amountMinor, client.Currency)
	if err != nil {
		return domain.OnboardingResult{}, err
	}

	anchor := billing.NextAnchor(client.BillingDay, s.now())

	subscription, err := s.gw.CreateSubscription(ctx, gateway.CreateSubscriptionParams{
		CustomerID:         client.ProviderCustomerID,
		PriceID:            priceID,
		BillingCycleAnchor: anchor,
		Proration:          true,
		IdempotencyKey:     "sub_" + client.ID.String(),
	})
	if err != nil {
		return domain.OnboardingResult{}, fmt.Errorf("create subscription: %w", err)
	}

	fields["provider_subscription_id"] = subscription.ID
	fields["status"] = domain.ClientStatusActive
	fields["subscription_status"] = subscription.Status

	if err := s.clients.UpdateFields(ctx, client.ID, fields); err != nil {
		return domain.OnboardingResult{}, fmt.Errorf("%w: save onboarding result: %v", domain.ErrStore, err)
	}

	s.provisionAccount(ctx, client)

	client.ProviderSubscriptionID = subscription.ID
	client.Status = domain.ClientStatusActive
	client.SubscriptionStatus = subscription.Status
	if err := s.events.PublishClientOnboarded(ctx, client); err != nil {
		s.log.Warnw("Failed to publish onboarding event", "error", err, "clientID", client.ID)
	}

	s.metrics.IncOnboardingCompleted()
	s.log.Infow("Client onboarding completed",
		"clientID", client.ID, "subscriptionID", subscription.ID, "anchor", anchor)

	return domain.OnboardingResult{
		ClientID:               client.ID,
		ProviderSubscriptionID: subscription.ID,
		Status:                 domain.ClientStatusActive,
		SubscriptionStatus:     subscription.Status,
	}, nil
}

// CancelClient отменяет подписку клиента немедленно. Повторный вызов
// для уже отмененного клиента безвреден.
func (s *onboardingService) CancelClient(ctx context.Context, clientID uuid.UUID) error {
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrClientNotFound
		}
		return fmt.Errorf("%w: find client: %v", domain.ErrStore, err)
	}

	if client.Status == domain.ClientStatusCancelled {
		return nil
	}

	if client.ProviderSubscriptionID != "" {
		if err := s.gw.CancelSubscription(ctx, client.ProviderSubscriptionID); err != nil {
			return fmt.Errorf("cancel subscription: %w", err)
		}
	}

	if err := s.clients.UpdateFields(ctx, client.ID, repository.FieldSet{
		"status":       domain.ClientStatusCancelled,
		"cancelled_at": s.now(),
	}); err != nil {
		return fmt.Errorf("%w: save cancellation: %v", domain.ErrStore, err)
	}

	if err := s.accounts.UpdateStatusByEmail(ctx, client.Email, domain.AccountStatusCancelled); err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.log.Errorw("Failed to mirror account cancellation", "error", err, "email", client.Email)
	}

	client.Status = domain.ClientStatusCancelled
	if err := s.events.PublishClientCancelled(ctx, client); err != nil {
		s.log.Warnw("Failed to publish cancellation event", "error", err, "clientID", client.ID)
	}

	s.metrics.IncCancellation()
	s.log.Infow("Client cancelled by administrator", "clientID", client.ID)
	return nil
}

// provisionAccount заводит учетную запись портала и отправляет письмо
// с установкой пароля. Сбои здесь не откатывают завершенный онбординг.
func (s *onboardingService) provisionAccount(ctx context.Context, client domain.Client) {
	now := s.now()
	if _, err := s.accounts.Upsert(ctx, domain.ClientAccount{
		ID:        uuid.New(),
		Email:     client.Email,
		Status:    domain.AccountStatusPendingPassword,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		s.log.Errorw("Failed to provision portal account", "error", err, "email", client.Email)
		return
	}

	tokenString, expiresAt, err := s.tokens.Issue(client.Email, domain.TokenPurposeClientPasswordSetup)
	if err != nil {
		s.log.Errorw("Failed to issue password setup token", "error", err, "email", client.Email)
		return
	}

	if err := s.emails.SendPasswordSetupEmail(ctx, client.Email, tokenString, expiresAt); err != nil {
		s.log.Warnw("Password setup email not delivered", "error", err, "email", client.Email)
	}
}

// detailFields собирает непустые анкетные поля для частичного
// обновления. Позднее введенные клиентом данные перекрывают введенные
// администратором, пустые поля ничего не затирают.
func detailFields(details domain.PersonalDetails) repository.FieldSet {
	fields := repository.FieldSet{}
	if details.Name != "" {
		fields["name"] = details.Name
	}
	if details.Phone != "" {
		fields["phone"] = details.Phone
	}
	if details.Address != "" {
		fields["address"] = details.Address
	}
	if details.EmergencyContact != "" {
		fields["emergency_contact"] = details.EmergencyContact
	}
	if details.DateOfBirth != "" {
		fields["date_of_birth"] = details.DateOfBirth
	}
	return fields
}
