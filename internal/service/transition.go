package service

import (
	"time"

	"github.com/Dhoini/Billing-microservice/internal/domain"
	"github.com/Dhoini/Billing-microservice/internal/repository"
)

// sideEffect внешнее действие, которое должно выполниться после
// применения перехода состояния
type sideEffect int

const (
	effectPauseCollection sideEffect = iota
	effectResumeCollection
	effectNotifySuspended
	effectNotifyReactivated
	effectNotifyCancelled
	effectMirrorAccountStatus
)

// transitionResult результат вычисления перехода состояния клиента
type transitionResult struct {
	fields  repository.FieldSet
	effects []sideEffect
}

// transition вычисляет переход состояния клиента для события провайдера.
// Функция чистая: не трогает ни хранилище, ни провайдера, только
// возвращает набор полей для слияния и список внешних действий.
// Так логика трех страйков и реактивации тестируется без единого мока.
func transition(client domain.Client, event domain.ProviderEvent, now time.Time) transitionResult {
	switch event.Type {
	case domain.EventSubscriptionCreated:
		return onSubscriptionCreated(client, event)
	case domain.EventSubscriptionUpdated:
		return onSubscriptionUpdated(client, event)
	case domain.EventSubscriptionDeleted:
		return onSubscriptionDeleted(client, event, now)
	case domain.EventSubscriptionPaused, domain.EventSubscriptionResumed:
		return mirrorSubscriptionStatus(client, event)
	case domain.EventInvoicePaymentSucceeded:
		return onPaymentSucceeded(client, now)
	case domain.EventInvoicePaymentFailed:
		return onPaymentFailed(client, now)
	}
	return transitionResult{}
}

// onSubscriptionCreated фиксирует ID подписки, если завершение
// онбординга еще не успело его записать, и зеркалит статус
func onSubscriptionCreated(client domain.Client, event domain.ProviderEvent) transitionResult {
	fields := repository.FieldSet{}
	if client.ProviderSubscriptionID == "" && event.SubscriptionID != "" {
		fields["provider_subscription_id"] = event.SubscriptionID
	}
	if event.SubscriptionStatus != "" && event.SubscriptionStatus != client.SubscriptionStatus {
		fields["subscription_status"] = event.SubscriptionStatus
	}
	return transitionResult{fields: fields}
}

// onSubscriptionUpdated зеркалит статус подписки провайдера.
// Статус клиента не меняется: он управляется только событиями
// платежей, удалением подписки и явной отменой.
func onSubscriptionUpdated(client domain.Client, event domain.ProviderEvent) transitionResult {
	return mirrorSubscriptionStatus(client, event)
}

// onSubscriptionDeleted переводит клиента в cancelled. Это один из двух
// легальных путей в cancelled, второй — явная отмена администратором.
func onSubscriptionDeleted(client domain.Client, event domain.ProviderEvent, now time.Time) transitionResult {
	if client.Status == domain.ClientStatusCancelled {
		// Повторная доставка события, менять нечего
		return mirrorSubscriptionStatus(client, event)
	}

	fields := repository.FieldSet{
		"status":       domain.ClientStatusCancelled,
		"cancelled_at": now,
	}
	if event.SubscriptionStatus != "" && event.SubscriptionStatus != client.SubscriptionStatus {
		fields["subscription_status"] = event.SubscriptionStatus
	}
	return transitionResult{
		fields:  fields,
		effects: []sideEffect{effectMirrorAccountStatus, effectNotifyCancelled},
	}
}

// onPaymentSucceeded сбрасывает счетчик неудач и возвращает клиента из
// приостановки, если она была вызвана неплатежами. Приостановка по
// решению администратора успешным платежом не снимается.
func onPaymentSucceeded(client domain.Client, now time.Time) transitionResult {
	fields := repository.FieldSet{}
	var effects []sideEffect

	if client.PaymentFailureCount != 0 {
		fields["payment_failure_count"] = 0
	}

	if client.Status == domain.ClientStatusSuspended && client.SuspendedReason == domain.SuspendedReasonPaymentFailure {
		fields["status"] = domain.ClientStatusActive
		fields["suspended_reason"] = domain.SuspendedReason("")
		fields["reactivated_at"] = now
		effects = append(effects, effectResumeCollection, effectMirrorAccountStatus, effectNotifyReactivated)
	}

	return transitionResult{fields: fields, effects: effects}
}

// onPaymentFailed увеличивает счетчик неудач и на пороге приостанавливает
// клиента. Дальнейшие неудачи уже приостановленного клиента считаются,
// но повторной приостановки не вызывают.
func onPaymentFailed(client domain.Client, now time.Time) transitionResult {
	if client.Status == domain.ClientStatusCancelled {
		// Хвост событий по уже отмененной подписке
		return transitionResult{}
	}

	count := client.PaymentFailureCount + 1
	fields := repository.FieldSet{"payment_failure_count": count}
	var effects []sideEffect

	if count >= domain.PaymentFailureThreshold && client.Status != domain.ClientStatusSuspended {
		fields["status"] = domain.ClientStatusSuspended
		fields["suspended_reason"] = domain.SuspendedReasonPaymentFailure
		fields["suspended_at"] = now
		effects = append(effects, effectPauseCollection, effectMirrorAccountStatus, effectNotifySuspended)
	}

	return transitionResult{fields: fields, effects: effects}
}

func mirrorSubscriptionStatus(client domain.Client, event domain.ProviderEvent) transitionResult {
	if event.SubscriptionStatus == "" || event.SubscriptionStatus == client.SubscriptionStatus {
		return transitionResult{}
	}
	return transitionResult{fields: repository.FieldSet{"subscription_status": event.SubscriptionStatus}}
}
