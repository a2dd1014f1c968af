package service

import (
	"context"
	"testing"

	"github.com/Dhoini/Billing-microservice/internal/domain"
	"github.com/Dhoini/Billing-microservice/internal/metrics"
	"github.com/Dhoini/Billing-microservice/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReconciler(t *testing.T) (ReconcilerService, *fakeClientRepo, *fakeAccountRepo, *fakeGateway, *fakeBillingProducer) {
	t.Helper()

	log := logger.New(logger.ERROR)
	clients := newFakeClientRepo()
	accounts := newFakeAccountRepo()
	gw := newFakeGateway()
	events := &fakeBillingProducer{}
	m := metrics.NewBillingMetrics(prometheus.NewRegistry(), log)

	return NewReconcilerService(clients, accounts, gw, events, m, log), clients, accounts, gw, events
}

func failedEvent(customerID string) domain.ProviderEvent {
	return domain.ProviderEvent{
		ID:         "evt_failed",
		Type:       domain.EventInvoicePaymentFailed,
		CustomerID: customerID,
	}
}

func succeededEvent(customerID string) domain.ProviderEvent {
	return domain.ProviderEvent{
		ID:         "evt_succeeded",
		Type:       domain.EventInvoicePaymentSucceeded,
		CustomerID: customerID,
	}
}

func TestProcessEventUnknownCustomerIgnored(t *testing.T) {
	svc, _, _, _, _ := newTestReconciler(t)

	err := svc.ProcessEvent(context.Background(), succeededEvent("cus_nobody"))

	assert.NoError(t, err)
}

func TestProcessEventWithoutCustomerIgnored(t *testing.T) {
	svc, _, _, _, _ := newTestReconciler(t)

	err := svc.ProcessEvent(context.Background(), domain.ProviderEvent{
		ID:   "evt_x",
		Type: domain.EventInvoicePaymentSucceeded,
	})

	assert.NoError(t, err)
}

func TestProcessEventThreeStrikesSuspends(t *testing.T) {
	svc, clients, accounts, gw, events := newTestReconciler(t)

	client := activeClient()
	clients.put(client)
	accounts.accounts[client.Email] = domain.ClientAccount{Email: client.Email, Status: domain.AccountStatusActive}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.ProcessEvent(ctx, failedEvent(client.ProviderCustomerID)))
	}

	updated := clients.get(client.ID)
	assert.Equal(t, domain.ClientStatusSuspended, updated.Status)
	assert.Equal(t, domain.SuspendedReasonPaymentFailure, updated.SuspendedReason)
	assert.Equal(t, 3, updated.PaymentFailureCount)
	assert.NotNil(t, updated.SuspendedAt)

	// Списания приостановлены ровно один раз
	assert.Equal(t, []string{"sub_1"}, gw.pauseCalls)
	assert.Contains(t, events.published, "suspended")

	// Учетная запись портала отражает приостановку
	assert.Equal(t, domain.AccountStatusSuspended, accounts.accounts[client.Email].Status)
}

func TestProcessEventFourthFailureKeepsSingleSuspension(t *testing.T) {
	svc, clients, _, gw, _ := newTestReconciler(t)

	client := activeClient()
	clients.put(client)

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, svc.ProcessEvent(ctx, failedEvent(client.ProviderCustomerID)))
	}

	updated := clients.get(client.ID)
	assert.Equal(t, domain.ClientStatusSuspended, updated.Status)
	assert.Equal(t, 4, updated.PaymentFailureCount)
	assert.Len(t, gw.pauseCalls, 1)
}

func TestProcessEventSuccessResetsStrikes(t *testing.T) {
	svc, clients, _, gw, _ := newTestReconciler(t)

	client := activeClient()
	clients.put(client)

	ctx := context.Background()
	require.NoError(t, svc.ProcessEvent(ctx, failedEvent(client.ProviderCustomerID)))
	require.NoError(t, svc.ProcessEvent(ctx, failedEvent(client.ProviderCustomerID)))
	require.NoError(t, svc.ProcessEvent(ctx, succeededEvent(client.ProviderCustomerID)))

	// Счетчик сброшен, две новые неудачи не дотягивают до порога
	require.NoError(t, svc.ProcessEvent(ctx, failedEvent(client.ProviderCustomerID)))
	require.NoError(t, svc.ProcessEvent(ctx, failedEvent(client.ProviderCustomerID)))

	updated := clients.get(client.ID)
	assert.Equal(t, domain.ClientStatusActive, updated.Status)
	assert.Equal(t, 2, updated.PaymentFailureCount)
	assert.Empty(t, gw.pauseCalls)
}

func TestProcessEventSuccessReactivatesSuspendedClient(t *testing.T) {
	svc, clients, accounts, gw, events := newTestReconciler(t)

	client := activeClient()
	clients.put(client)
	accounts.accounts[client.Email] = domain.ClientAccount{Email: client.Email, Status: domain.AccountStatusActive}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.ProcessEvent(ctx, failedEvent(client.ProviderCustomerID)))
	}
	require.NoError(t, svc.ProcessEvent(ctx, succeededEvent(client.ProviderCustomerID)))

	updated := clients.get(client.ID)
	assert.Equal(t, domain.ClientStatusActive, updated.Status)
	assert.Equal(t, domain.SuspendedReason(""), updated.SuspendedReason)
	assert.Equal(t, 0, updated.PaymentFailureCount)
	assert.NotNil(t, updated.ReactivatedAt)

	assert.Equal(t, []string{"sub_1"}, gw.resumeCalls)
	assert.Contains(t, events.published, "reactivated")
	assert.Equal(t, domain.AccountStatusActive, accounts.accounts[client.Email].Status)
}

func TestProcessEventDeletedCancelsEvenWhenSuspended(t *testing.T) {
	svc, clients, accounts, _, events := newTestReconciler(t)

	client := activeClient()
	client.Status = domain.ClientStatusSuspended
	client.SuspendedReason = domain.SuspendedReasonPaymentFailure
	client.PaymentFailureCount = 3
	clients.put(client)
	accounts.accounts[client.Email] = domain.ClientAccount{Email: client.Email, Status: domain.AccountStatusSuspended}

	err := svc.ProcessEvent(context.Background(), domain.ProviderEvent{
		ID:                 "evt_deleted",
		Type:               domain.EventSubscriptionDeleted,
		CustomerID:         client.ProviderCustomerID,
		SubscriptionID:     client.ProviderSubscriptionID,
		SubscriptionStatus: "canceled",
	})
	require.NoError(t, err)

	updated := clients.get(client.ID)
	assert.Equal(t, domain.ClientStatusCancelled, updated.Status)
	assert.NotNil(t, updated.CancelledAt)
	assert.Contains(t, events.published, "cancelled")
	assert.Equal(t, domain.AccountStatusCancelled, accounts.accounts[client.Email].Status)
}

func TestProcessEventPausedDoesNotSuspendClient(t *testing.T) {
	svc, clients, _, _, _ := newTestReconciler(t)

	client := activeClient()
	clients.put(client)

	err := svc.ProcessEvent(context.Background(), domain.ProviderEvent{
		ID:                 "evt_paused",
		Type:               domain.EventSubscriptionPaused,
		CustomerID:         client.ProviderCustomerID,
		SubscriptionStatus: "paused",
	})
	require.NoError(t, err)

	updated := clients.get(client.ID)
	assert.Equal(t, domain.ClientStatusActive, updated.Status)
	assert.Equal(t, "paused", updated.SubscriptionStatus)
}

func TestProcessEventRedeliveryIsNoop(t *testing.T) {
	svc, clients, _, _, _ := newTestReconciler(t)

	client := activeClient()
	clients.put(client)

	event := domain.ProviderEvent{
		ID:                 "evt_updated",
		Type:               domain.EventSubscriptionUpdated,
		CustomerID:         client.ProviderCustomerID,
		SubscriptionStatus: "past_due",
	}

	ctx := context.Background()
	require.NoError(t, svc.ProcessEvent(ctx, event))
	require.NoError(t, svc.ProcessEvent(ctx, event))

	updated := clients.get(client.ID)
	assert.Equal(t, "past_due", updated.SubscriptionStatus)
}

func TestProcessEventFullLifecycle(t *testing.T) {
	svc, clients, accounts, gw, events := newTestReconciler(t)

	client := activeClient()
	client.Email = "jane@example.com"
	clients.put(client)
	accounts.accounts[client.Email] = domain.ClientAccount{Email: client.Email, Status: domain.AccountStatusActive}

	ctx := context.Background()

	// Две неудачи, успех, три неудачи подряд до приостановки
	require.NoError(t, svc.ProcessEvent(ctx, failedEvent(client.ProviderCustomerID)))
	require.NoError(t, svc.ProcessEvent(ctx, failedEvent(client.ProviderCustomerID)))
	require.NoError(t, svc.ProcessEvent(ctx, succeededEvent(client.ProviderCustomerID)))
	require.NoError(t, svc.ProcessEvent(ctx, failedEvent(client.ProviderCustomerID)))
	require.NoError(t, svc.ProcessEvent(ctx, failedEvent(client.ProviderCustomerID)))
	require.NoError(t, svc.ProcessEvent(ctx, failedEvent(client.ProviderCustomerID)))

	assert.Equal(t, domain.ClientStatusSuspended, clients.get(client.ID).Status)

	// Долг погашен, клиент вернулся
	require.NoError(t, svc.ProcessEvent(ctx, succeededEvent(client.ProviderCustomerID)))
	assert.Equal(t, domain.ClientStatusActive, clients.get(client.ID).Status)

	// Подписка удалена на стороне провайдера
	require.NoError(t, svc.ProcessEvent(ctx, domain.ProviderEvent{
		ID:                 "evt_final",
		Type:               domain.EventSubscriptionDeleted,
		CustomerID:         client.ProviderCustomerID,
		SubscriptionStatus: "canceled",
	}))

	final := clients.get(client.ID)
	assert.Equal(t, domain.ClientStatusCancelled, final.Status)
	assert.Equal(t, []string{"sub_1"}, gw.pauseCalls)
	assert.Equal(t, []string{"sub_1"}, gw.resumeCalls)
	assert.Equal(t, []string{"suspended", "reactivated", "cancelled"}, events.published)
}
