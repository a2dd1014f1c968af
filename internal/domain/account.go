package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountStatus статус учетной записи клиентского портала
type AccountStatus string

const (
	AccountStatusPendingPassword AccountStatus = "pending_password"
	AccountStatusActive          AccountStatus = "active"
	AccountStatusSuspended       AccountStatus = "suspended"
	AccountStatusCancelled       AccountStatus = "cancelled"
)

// ClientAccount учетная запись клиента для входа в портал.
// Хэш пароля и механика сессий живут за пределами этого сервиса.
type ClientAccount struct {
	ID        uuid.UUID     `json:"id"`
	Email     string        `json:"email"`
	Status    AccountStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// PasswordSetupRequest запрос на активацию учетной записи по токену
type PasswordSetupRequest struct {
	Token string `json:"token" validate:"required"`
}

// PasswordResetRequest запрос на выпуск токена сброса пароля
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}
