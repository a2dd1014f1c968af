package domain

import (
	"time"

	"github.com/google/uuid"
)

// ClientStatus статус жизненного цикла клиента
type ClientStatus string

const (
	ClientStatusPendingPayment ClientStatus = "pending_payment"
	ClientStatusActive         ClientStatus = "active"
	ClientStatusSuspended      ClientStatus = "suspended"
	ClientStatusCancelled      ClientStatus = "cancelled"
)

// SuspendedReason причина приостановки обслуживания
type SuspendedReason string

const (
	SuspendedReasonPaymentFailure SuspendedReason = "payment_failure"
	SuspendedReasonAdminAction    SuspendedReason = "admin_action"
)

// PaymentFailureThreshold количество подряд неудачных платежей,
// после которого клиент приостанавливается
const PaymentFailureThreshold = 3

// Client представляет собой модель клиента
type Client struct {
	ID                     uuid.UUID       `json:"id"`
	Email                  string          `json:"email"`
	Name                   string          `json:"name,omitempty"`
	Phone                  string          `json:"phone,omitempty"`
	ProviderCustomerID     string          `json:"provider_customer_id,omitempty"`     // ID клиента в Stripe
	ProviderSubscriptionID string          `json:"provider_subscription_id,omitempty"` // ID подписки в Stripe
	MonthlyPrice           float64         `json:"monthly_price"`
	Currency               string          `json:"currency"`
	BillingDay             int             `json:"billing_day"` // День месяца списания, 1-28
	Status                 ClientStatus    `json:"status"`
	SubscriptionStatus     string          `json:"subscription_status,omitempty"` // Статус подписки на стороне провайдера
	PaymentFailureCount    int             `json:"payment_failure_count"`
	SuspendedReason        SuspendedReason `json:"suspended_reason,omitempty"`
	Address                string          `json:"address,omitempty"`
	EmergencyContact       string          `json:"emergency_contact,omitempty"`
	DateOfBirth            string          `json:"date_of_birth,omitempty"`
	SuspendedAt            *time.Time      `json:"suspended_at,omitempty"`
	ReactivatedAt          *time.Time      `json:"reactivated_at,omitempty"`
	CancelledAt            *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// PersonalDetails анкетные данные, которые клиент сообщает сам при
// завершении онбординга. Позднее введенные данные имеют приоритет над
// теми, что ввел администратор при создании ссылки.
type PersonalDetails struct {
	Name             string `json:"name,omitempty"`
	Phone            string `json:"phone,omitempty"`
	Address          string `json:"address,omitempty"`
	EmergencyContact string `json:"emergency_contact,omitempty"`
	DateOfBirth      string `json:"date_of_birth,omitempty"`
}

// BeginOnboardingRequest запрос администратора на создание платежной ссылки
type BeginOnboardingRequest struct {
	Email        string  `json:"email" validate:"required,email"`
	Name         string  `json:"name" validate:"required"`
	Phone        string  `json:"phone,omitempty"`
	BillingDay   int     `json:"billing_day" validate:"required,min=1,max=28"`
	MonthlyPrice float64 `json:"monthly_price" validate:"required,gt=0"`
}

// CompleteOnboardingRequest запрос клиента на завершение онбординга
type CompleteOnboardingRequest struct {
	Token           string          `json:"token" validate:"required"`
	PaymentMethodID string          `json:"payment_method_id" validate:"required"`
	Details         PersonalDetails `json:"details"`
}

// OnboardingLink результат создания платежной ссылки
type OnboardingLink struct {
	ClientID  uuid.UUID `json:"client_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// OnboardingResult результат завершения онбординга
type OnboardingResult struct {
	ClientID               uuid.UUID    `json:"client_id"`
	ProviderSubscriptionID string       `json:"provider_subscription_id"`
	Status                 ClientStatus `json:"status"`
	SubscriptionStatus     string       `json:"subscription_status"`
}
