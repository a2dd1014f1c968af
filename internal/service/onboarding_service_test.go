package service

import (
	"context"
	"testing"
	"time"

	"github.com/Dhoini/Billing-microservice/internal/domain"
	"github.com/Dhoini/Billing-microservice/internal/metrics"
	"github.com/Dhoini/Billing-microservice/internal/token"
	"github.com/Dhoini/Billing-microservice/pkg/logger"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type onboardingDeps struct {
	clients  *fakeClientRepo
	accounts *fakeAccountRepo
	gw       *fakeGateway
	prices   *fakePriceResolver
	tokens   *token.Issuer
	emails   *fakeEmailSender
	events   *fakeBillingProducer
}

func newTestOnboarding(t *testing.T) (OnboardingService, *onboardingDeps) {
	t.Helper()

	log := logger.New(logger.ERROR)
	deps := &onboardingDeps{
		clients:  newFakeClientRepo(),
		accounts: newFakeAccountRepo(),
		gw:       newFakeGateway(),
		prices:   &fakePriceResolver{},
		tokens:   token.NewIssuer("test-secret", "billing-service", log),
		emails:   &fakeEmailSender{},
		events:   &fakeBillingProducer{},
	}
	m := metrics.NewBillingMetrics(prometheus.NewRegistry(), log)

	svc := NewOnboardingService(
		deps.clients, deps.accounts, deps.gw, deps.prices, deps.tokens,
		deps.emails, deps.events, m, "gbp", log,
	)
	return svc, deps
}

func beginRequest() domain.BeginOnboardingRequest {
	return domain.BeginOnboardingRequest{
		Email:        "jane@example.com",
		Name:         "Jane Smith",
		BillingDay:   1,
		MonthlyPrice: 125.00,
	}
}

func TestBeginOnboarding(t *testing.T) {
	svc, deps := newTestOnboarding(t)

	link, err := svc.BeginOnboarding(context.Background(), beginRequest())
	require.NoError(t, err)

	assert.Equal(t, "jane@example.com", link.Email)
	assert.NotEmpty(t, link.Token)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), link.ExpiresAt, time.Minute)

	client := deps.clients.get(link.ClientID)
	assert.Equal(t, domain.ClientStatusPendingPayment, client.Status)
	assert.Equal(t, "cus_jane@example.com", client.ProviderCustomerID)
	assert.Equal(t, "gbp", client.Currency)
	assert.Empty(t, client.ProviderSubscriptionID)

	require.Len(t, deps.emails.sent, 1)
	assert.Equal(t, "payment_link", deps.emails.sent[0].template)
	assert.Equal(t, link.Token, deps.emails.sent[0].token)
}

func TestBeginOnboardingDuplicateEmail(t *testing.T) {
	svc, _ := newTestOnboarding(t)
	ctx := context.Background()

	_, err := svc.BeginOnboarding(ctx, beginRequest())
	require.NoError(t, err)

	_, err = svc.BeginOnboarding(ctx, beginRequest())
	assert.ErrorIs(t, err, domain.ErrDuplicateClient)
}

func TestBeginOnboardingSurvivesEmailFailure(t *testing.T) {
	svc, deps := newTestOnboarding(t)
	deps.emails.sendErr = domain.ErrNotification

	link, err := svc.BeginOnboarding(context.Background(), beginRequest())

	// Недоставленное письмо не отменяет онбординг, ссылка возвращается вызывающему
	require.NoError(t, err)
	assert.NotEmpty(t, link.Token)
}

func TestCompleteOnboarding(t *testing.T) {
	svc, deps := newTestOnboarding(t)
	ctx := context.Background()

	link, err := svc.BeginOnboarding(ctx, beginRequest())
	require.NoError(t, err)

	result, err := svc.CompleteOnboarding(ctx, domain.CompleteOnboardingRequest{
		Token:           link.Token,
		PaymentMethodID: "pm_card_visa",
		Details: domain.PersonalDetails{
			Phone:   "+441234567890",
			Address: "1 High Street",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, link.ClientID, result.ClientID)
	assert.Equal(t, "sub_test_1", result.ProviderSubscriptionID)
	assert.Equal(t, domain.ClientStatusActive, result.Status)

	client := deps.clients.get(link.ClientID)
	assert.Equal(t, domain.ClientStatusActive, client.Status)
	assert.Equal(t, "sub_test_1", client.ProviderSubscriptionID)
	assert.Equal(t, "+441234567890", client.Phone)
	assert.Equal(t, "1 High Street", client.Address)
	// Имя, введенное администратором, не затерто пустым полем анкеты
	assert.Equal(t, "Jane Smith", client.Name)

	// Цена разрешена в минимальных единицах
	assert.Equal(t, []int64{12500}, deps.prices.resolved)

	// Подписка заякорена на день списания в будущем
	require.Len(t, deps.gw.subsCreated, 1)
	params := deps.gw.subsCreated[0]
	assert.Equal(t, "price_test", params.PriceID)
	assert.True(t, params.Proration)
	assert.True(t, params.BillingCycleAnchor.After(time.Now()))
	assert.Equal(t, 1, params.BillingCycleAnchor.Day())

	// Учетная запись портала заведена, письмо на установку пароля ушло
	account, err := deps.accounts.FindByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusPendingPassword, account.Status)

	require.Len(t, deps.emails.sent, 2)
	assert.Equal(t, "password_setup", deps.emails.sent[1].template)

	assert.Contains(t, deps.events.published, "onboarded")
}

func TestCompleteOnboardingInvalidToken(t *testing.T) {
	svc, _ := newTestOnboarding(t)

	_, err := svc.CompleteOnboarding(context.Background(), domain.CompleteOnboardingRequest{
		Token:           "not-a-token",
		PaymentMethodID: "pm_card_visa",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestCompleteOnboardingWrongPurposeToken(t *testing.T) {
	svc, deps := newTestOnboarding(t)
	ctx := context.Background()

	_, err := svc.BeginOnboarding(ctx, beginRequest())
	require.NoError(t, err)

	resetToken, _, err := deps.tokens.Issue("jane@example.com", domain.TokenPurposeClientPasswordReset)
	require.NoError(t, err)

	_, err = svc.CompleteOnboarding(ctx, domain.CompleteOnboardingRequest{
		Token:           resetToken,
		PaymentMethodID: "pm_card_visa",
	})

	assert.ErrorIs(t, err, domain.ErrWrongPurpose)
}

func TestCompleteOnboardingUnknownClient(t *testing.T) {
	svc, deps := newTestOnboarding(t)

	orphanToken, _, err := deps.tokens.Issue("ghost@example.com", domain.TokenPurposeClientOnboarding)
	require.NoError(t, err)

	_, err = svc.CompleteOnboarding(context.Background(), domain.CompleteOnboardingRequest{
		Token:           orphanToken,
		PaymentMethodID: "pm_card_visa",
	})

	assert.ErrorIs(t, err, domain.ErrClientNotFound)
}

func TestCompleteOnboardingTwiceReturnsAlreadyOnboarded(t *testing.T) {
	svc, deps := newTestOnboarding(t)
	ctx := context.Background()

	link, err := svc.BeginOnboarding(ctx, beginRequest())
	require.NoError(t, err)

	req := domain.CompleteOnboardingRequest{Token: link.Token, PaymentMethodID: "pm_card_visa"}
	_, err = svc.CompleteOnboarding(ctx, req)
	require.NoError(t, err)

	// Токен еще жив, но вторая подписка не создается
	_, err = svc.CompleteOnboarding(ctx, req)
	assert.ErrorIs(t, err, domain.ErrAlreadyOnboarded)
	assert.Len(t, deps.gw.subsCreated, 1)
}

func TestCompleteOnboardingPaymentMethodRejected(t *testing.T) {
	svc, deps := newTestOnboarding(t)
	ctx := context.Background()

	link, err := svc.BeginOnboarding(ctx, beginRequest())
	require.NoError(t, err)

	deps.gw.attachErr = domain.ErrPaymentMethodRejected

	_, err = svc.CompleteOnboarding(ctx, domain.CompleteOnboardingRequest{
		Token:           link.Token,
		PaymentMethodID: "pm_card_declined",
	})
	assert.ErrorIs(t, err, domain.ErrPaymentMethodRejected)

	// Клиент остался в ожидании оплаты, можно повторить с другой картой
	client := deps.clients.get(link.ClientID)
	assert.Equal(t, domain.ClientStatusPendingPayment, client.Status)
	assert.Empty(t, client.ProviderSubscriptionID)
}

func TestCancelClient(t *testing.T) {
	svc, deps := newTestOnboarding(t)
	ctx := context.Background()

	link, err := svc.BeginOnboarding(ctx, beginRequest())
	require.NoError(t, err)
	_, err = svc.CompleteOnboarding(ctx, domain.CompleteOnboardingRequest{
		Token:           link.Token,
		PaymentMethodID: "pm_card_visa",
	})
	require.NoError(t, err)

	require.NoError(t, svc.CancelClient(ctx, link.ClientID))

	client := deps.clients.get(link.ClientID)
	assert.Equal(t, domain.ClientStatusCancelled, client.Status)
	assert.NotNil(t, client.CancelledAt)
	assert.Equal(t, []string{"sub_test_1"}, deps.gw.cancelCalls)
	assert.Contains(t, deps.events.published, "cancelled")

	// Повторная отмена безвредна
	require.NoError(t, svc.CancelClient(ctx, link.ClientID))
	assert.Len(t, deps.gw.cancelCalls, 1)
}

func TestCancelClientNotFound(t *testing.T) {
	svc, _ := newTestOnboarding(t)

	err := svc.CancelClient(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrClientNotFound)
}
