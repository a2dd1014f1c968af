package service

import (
	"testing"
	"time"

	"github.com/Dhoini/Billing-microservice/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)

func activeClient() domain.Client {
	return domain.Client{
		ID:                     uuid.New(),
		Email:                  "jane@example.com",
		ProviderCustomerID:     "cus_1",
		ProviderSubscriptionID: "sub_1",
		Status:                 domain.ClientStatusActive,
		SubscriptionStatus:     "active",
	}
}

func TestTransitionPaymentFailedBelowThreshold(t *testing.T) {
	client := activeClient()
	client.PaymentFailureCount = 1

	result := transition(client, domain.ProviderEvent{Type: domain.EventInvoicePaymentFailed}, testNow)

	assert.Equal(t, 2, result.fields["payment_failure_count"])
	assert.NotContains(t, result.fields, "status")
	assert.Empty(t, result.effects)
}

func TestTransitionThirdFailureSuspends(t *testing.T) {
	client := activeClient()
	client.PaymentFailureCount = 2

	result := transition(client, domain.ProviderEvent{Type: domain.EventInvoicePaymentFailed}, testNow)

	assert.Equal(t, 3, result.fields["payment_failure_count"])
	assert.Equal(t, domain.ClientStatusSuspended, result.fields["status"])
	assert.Equal(t, domain.SuspendedReasonPaymentFailure, result.fields["suspended_reason"])
	assert.Equal(t, testNow, result.fields["suspended_at"])
	assert.Contains(t, result.effects, effectPauseCollection)
	assert.Contains(t, result.effects, effectNotifySuspended)
}

func TestTransitionFourthFailureDoesNotResuspend(t *testing.T) {
	client := activeClient()
	client.Status = domain.ClientStatusSuspended
	client.SuspendedReason = domain.SuspendedReasonPaymentFailure
	client.PaymentFailureCount = 3

	result := transition(client, domain.ProviderEvent{Type: domain.EventInvoicePaymentFailed}, testNow)

	assert.Equal(t, 4, result.fields["payment_failure_count"])
	assert.NotContains(t, result.fields, "status")
	assert.Empty(t, result.effects)
}

func TestTransitionSuccessResetsCounter(t *testing.T) {
	client := activeClient()
	client.PaymentFailureCount = 2

	result := transition(client, domain.ProviderEvent{Type: domain.EventInvoicePaymentSucceeded}, testNow)

	assert.Equal(t, 0, result.fields["payment_failure_count"])
	assert.NotContains(t, result.fields, "status")
	assert.Empty(t, result.effects)
}

func TestTransitionSuccessReactivatesSuspended(t *testing.T) {
	client := activeClient()
	client.Status = domain.ClientStatusSuspended
	client.SuspendedReason = domain.SuspendedReasonPaymentFailure
	client.PaymentFailureCount = 3

	result := transition(client, domain.ProviderEvent{Type: domain.EventInvoicePaymentSucceeded}, testNow)

	assert.Equal(t, 0, result.fields["payment_failure_count"])
	assert.Equal(t, domain.ClientStatusActive, result.fields["status"])
	assert.Equal(t, domain.SuspendedReason(""), result.fields["suspended_reason"])
	assert.Equal(t, testNow, result.fields["reactivated_at"])
	assert.Contains(t, result.effects, effectResumeCollection)
	assert.Contains(t, result.effects, effectNotifyReactivated)
}

func TestTransitionSuccessDoesNotLiftAdminSuspension(t *testing.T) {
	client := activeClient()
	client.Status = domain.ClientStatusSuspended
	client.SuspendedReason = domain.SuspendedReasonAdminAction
	client.PaymentFailureCount = 1

	result := transition(client, domain.ProviderEvent{Type: domain.EventInvoicePaymentSucceeded}, testNow)

	assert.Equal(t, 0, result.fields["payment_failure_count"])
	assert.NotContains(t, result.fields, "status")
	assert.Empty(t, result.effects)
}

func TestTransitionSubscriptionDeletedCancels(t *testing.T) {
	client := activeClient()
	client.PaymentFailureCount = 2

	result := transition(client, domain.ProviderEvent{
		Type:               domain.EventSubscriptionDeleted,
		SubscriptionStatus: "canceled",
	}, testNow)

	assert.Equal(t, domain.ClientStatusCancelled, result.fields["status"])
	assert.Equal(t, testNow, result.fields["cancelled_at"])
	assert.Equal(t, "canceled", result.fields["subscription_status"])
	assert.Contains(t, result.effects, effectNotifyCancelled)
}

func TestTransitionDeletedIsIdempotent(t *testing.T) {
	client := activeClient()
	client.Status = domain.ClientStatusCancelled
	client.SubscriptionStatus = "canceled"

	result := transition(client, domain.ProviderEvent{
		Type:               domain.EventSubscriptionDeleted,
		SubscriptionStatus: "canceled",
	}, testNow)

	assert.Empty(t, result.fields)
	assert.Empty(t, result.effects)
}

func TestTransitionFailureAfterCancellationIgnored(t *testing.T) {
	client := activeClient()
	client.Status = domain.ClientStatusCancelled

	result := transition(client, domain.ProviderEvent{Type: domain.EventInvoicePaymentFailed}, testNow)

	assert.Empty(t, result.fields)
	assert.Empty(t, result.effects)
}

func TestTransitionPausedMirrorsStatusOnly(t *testing.T) {
	client := activeClient()
	client.PaymentFailureCount = 2

	result := transition(client, domain.ProviderEvent{
		Type:               domain.EventSubscriptionPaused,
		SubscriptionStatus: "paused",
	}, testNow)

	require.Len(t, result.fields, 1)
	assert.Equal(t, "paused", result.fields["subscription_status"])
	assert.Empty(t, result.effects)
}

func TestTransitionCreatedBackfillsSubscriptionID(t *testing.T) {
	client := activeClient()
	client.ProviderSubscriptionID = ""
	client.SubscriptionStatus = ""

	result := transition(client, domain.ProviderEvent{
		Type:               domain.EventSubscriptionCreated,
		SubscriptionID:     "sub_new",
		SubscriptionStatus: "active",
	}, testNow)

	assert.Equal(t, "sub_new", result.fields["provider_subscription_id"])
	assert.Equal(t, "active", result.fields["subscription_status"])
}

func TestTransitionCreatedKeepsExistingSubscriptionID(t *testing.T) {
	client := activeClient()

	result := transition(client, domain.ProviderEvent{
		Type:               domain.EventSubscriptionCreated,
		SubscriptionID:     "sub_other",
		SubscriptionStatus: "active",
	}, testNow)

	assert.NotContains(t, result.fields, "provider_subscription_id")
}

func TestTransitionUpdatedMirrorsStatusOnly(t *testing.T) {
	client := activeClient()

	result := transition(client, domain.ProviderEvent{
		Type:               domain.EventSubscriptionUpdated,
		SubscriptionStatus: "past_due",
	}, testNow)

	require.Len(t, result.fields, 1)
	assert.Equal(t, "past_due", result.fields["subscription_status"])
	assert.Empty(t, result.effects)
}
