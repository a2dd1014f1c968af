package domain

import "time"

// TokenPurpose назначение токена действия. Токен валиден только для
// того назначения, с которым был выпущен.
type TokenPurpose string

const (
	TokenPurposeClientOnboarding    TokenPurpose = "client_onboarding"
	TokenPurposeClientPasswordSetup TokenPurpose = "client_password_setup"
	TokenPurposeClientPasswordReset TokenPurpose = "client_password_reset"
	TokenPurposeAdminPasswordReset  TokenPurpose = "admin_password_reset"
)

// TTL возвращает фиксированное время жизни токена для данного назначения
func (p TokenPurpose) TTL() time.Duration {
	switch p {
	case TokenPurposeClientOnboarding, TokenPurposeClientPasswordSetup:
		return 7 * 24 * time.Hour
	case TokenPurposeClientPasswordReset, TokenPurposeAdminPasswordReset:
		return time.Hour
	default:
		return time.Hour
	}
}

// Valid проверяет, что назначение токена известно
func (p TokenPurpose) Valid() bool {
	switch p {
	case TokenPurposeClientOnboarding, TokenPurposeClientPasswordSetup,
		TokenPurposeClientPasswordReset, TokenPurposeAdminPasswordReset:
		return true
	}
	return false
}
