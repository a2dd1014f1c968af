package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dhoini/Billing-microservice/internal/domain"
	"github.com/Dhoini/Billing-microservice/internal/notifications"
	"github.com/Dhoini/Billing-microservice/internal/repository"
	"github.com/Dhoini/Billing-microservice/pkg/logger"
)

// AccountService интерфейс сервиса учетных записей портала
type AccountService interface {
	// CompletePasswordSetup активирует учетную запись по токену установки пароля
	CompletePasswordSetup(ctx context.Context, tokenString string) (string, error)

	// RequestPasswordReset выпускает токен сброса пароля и отправляет письмо
	RequestPasswordReset(ctx context.Context, email string) error

	// VerifyPasswordReset проверяет токен сброса и возвращает email владельца
	VerifyPasswordReset(ctx context.Context, tokenString string) (string, error)
}

type accountService struct {
	accounts repository.AccountRepository
	tokens   TokenIssuer
	emails   notifications.EmailSender
	log      *logger.Logger
}

// NewAccountService создает новый сервис учетных записей
func NewAccountService(
	accounts repository.AccountRepository,
	tokens TokenIssuer,
	emails notifications.EmailSender,
	log *logger.Logger,
) AccountService {
	return &accountService{
		accounts: accounts,
		tokens:   tokens,
		emails:   emails,
		log:      log,
	}
}

// CompletePasswordSetup активирует учетную запись по токену установки
// пароля. Сам пароль хранит сервис идентификации, здесь только статус.
func (s *accountService) CompletePasswordSetup(ctx context.Context, tokenString string) (string, error) {
	email, err := s.tokens.Redeem(tokenString, domain.TokenPurposeClientPasswordSetup)
	if err != nil {
		return "", err
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", domain.ErrClientNotFound
		}
		return "", fmt.Errorf("%w: find account: %v", domain.ErrStore, err)
	}

	if account.Status == domain.AccountStatusPendingPassword {
		if err := s.accounts.UpdateStatusByEmail(ctx, email, domain.AccountStatusActive); err != nil {
			return "", fmt.Errorf("%w: activate account: %v", domain.ErrStore, err)
		}
	}

	s.log.Infow("Portal account password setup completed", "email", email)
	return email, nil
}

// RequestPasswordReset выпускает часовой токен сброса и отправляет
// письмо. Для неизвестного email отвечаем так же, как для известного,
// чтобы не раскрывать, какие адреса у нас заведены.
func (s *accountService) RequestPasswordReset(ctx context.Context, email string) error {
	if _, err := s.accounts.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Debugw("Password reset requested for unknown email", "email", email)
			return nil
		}
		return fmt.Errorf("%w: find account: %v", domain.ErrStore, err)
	}

	tokenString, expiresAt, err := s.tokens.Issue(email, domain.TokenPurposeClientPasswordReset)
	if err != nil {
		return fmt.Errorf("issue password reset token: %w", err)
	}

	if err := s.emails.SendPasswordResetEmail(ctx, email, tokenString, expiresAt); err != nil {
		s.log.Warnw("Password reset email not delivered", "error", err, "email", email)
		return err
	}

	s.log.Infow("Password reset requested", "email", email)
	return nil
}

// VerifyPasswordReset проверяет токен сброса и возвращает email владельца
func (s *accountService) VerifyPasswordReset(ctx context.Context, tokenString string) (string, error) {
	email, err := s.tokens.Redeem(tokenString, domain.TokenPurposeClientPasswordReset)
	if err != nil {
		return "", err
	}

	if _, err := s.accounts.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", domain.ErrClientNotFound
		}
		return "", fmt.Errorf("%w: find account: %v", domain.ErrStore, err)
	}

	return email, nil
}
