package metrics

import (
	"github.com/Dhoini/Billing-microservice/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BillingMetrics интерфейс для метрик биллинга
type BillingMetrics interface {
	IncOnboardingStarted()
	IncOnboardingCompleted()
	IncWebhookEvent(eventType string, outcome string)
	IncPaymentFailure()
	IncSuspension()
	IncReactivation()
	IncCancellation()
}

type billingMetrics struct {
	log                  *logger.Logger
	onboardings          *prometheus.CounterVec
	webhookEvents        *prometheus.CounterVec
	paymentFailures      prometheus.Counter
	lifecycleTransitions *prometheus.CounterVec
}

// NewBillingMetrics создает новые метрики биллинга
func NewBillingMetrics(registry *prometheus.Registry, log *logger.Logger) BillingMetrics {
	onboardings := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_onboardings_total",
			Help: "The total number of client onboardings by stage",
		},
		[]string{"stage"},
	)

	webhookEvents := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_webhook_events_total",
			Help: "The total number of processed provider webhook events",
		},
		[]string{"type", "outcome"},
	)

	paymentFailures := promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "client_payment_failures_total",
			Help: "The total number of failed recurring payments",
		},
	)

	lifecycleTransitions := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "client_lifecycle_transitions_total",
			Help: "The total number of client lifecycle transitions",
		},
		[]string{"transition"},
	)

	return &billingMetrics{
		log:                  log,
		onboardings:          onboardings,
		webhookEvents:        webhookEvents,
		paymentFailures:      paymentFailures,
		lifecycleTransitions: lifecycleTransitions,
	}
}

// IncOnboardingStarted увеличивает счетчик начатых онбордингов
func (m *billingMetrics) IncOnboardingStarted() {
	m.onboardings.WithLabelValues("started").Inc()
}

// IncOnboardingCompleted увеличивает счетчик завершенных онбордингов
func (m *billingMetrics) IncOnboardingCompleted() {
	m.onboardings.WithLabelValues("completed").Inc()
}

// IncWebhookEvent увеличивает счетчик обработанных событий вебхука
func (m *billingMetrics) IncWebhookEvent(eventType string, outcome string) {
	m.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// IncPaymentFailure увеличивает счетчик неудачных списаний
func (m *billingMetrics) IncPaymentFailure() {
	m.paymentFailures.Inc()
}

// IncSuspension увеличивает счетчик приостановок
func (m *billingMetrics) IncSuspension() {
	m.lifecycleTransitions.WithLabelValues("suspended").Inc()
}

// IncReactivation увеличивает счетчик возобновлений
func (m *billingMetrics) IncReactivation() {
	m.lifecycleTransitions.WithLabelValues("reactivated").Inc()
}

// IncCancellation увеличивает счетчик отмен
func (m *billingMetrics) IncCancellation() {
	m.lifecycleTransitions.WithLabelValues("cancelled").Inc()
}
