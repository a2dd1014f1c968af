package token

import (
	"errors"
	"time"

	"github.com/Dhoini/Billing-microservice/internal/domain"
	"github.com/Dhoini/Billing-microservice/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

// Claims полезная нагрузка токена действия
type Claims struct {
	Purpose domain.TokenPurpose `json:"purpose"`
	jwt.RegisteredClaims
}

// Issuer выпускает и проверяет короткоживущие токены действий.
// Токены подписаны HS256, состояние нигде не хранится: повторное
// погашение возможно до истечения срока, поэтому операции, которые
// токен открывает, сами обязаны перепроверять свои предусловия.
type Issuer struct {
	secret []byte
	issuer string
	log    *logger.Logger
	now    func() time.Time
}

// NewIssuer создает новый Issuer
func NewIssuer(secret, issuer string, log *logger.Logger) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		issuer: issuer,
		log:    log,
		now:    time.Now,
	}
}

// Issue выпускает токен для указанного email и назначения.
// TTL фиксирован для каждого назначения.
func (i *Issuer) Issue(subjectEmail string, purpose domain.TokenPurpose) (string, time.Time, error) {
	if !purpose.Valid() {
		return "", time.Time{}, domain.ErrWrongPurpose
	}

	now := i.now()
	expiresAt := now.Add(purpose.TTL())

	claims := Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectEmail,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		i.log.Errorw("Failed to sign action token", "error", err, "purpose", purpose)
		return "", time.Time{}, err
	}

	i.log.Debugw("Issued action token", "email", subjectEmail, "purpose", purpose, "expiresAt", expiresAt)
	return signed, expiresAt, nil
}

// Redeem проверяет токен и возвращает email субъекта.
// Возвращает ErrInvalidToken при невалидной подписи или истекшем сроке
// и ErrWrongPurpose при несовпадении назначения. Состояние не меняет.
func (i *Issuer) Redeem(tokenString string, expectedPurpose domain.TokenPurpose) (string, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))

	if err != nil || !parsed.Valid {
		i.log.Warnw("Action token rejected", "error", err)
		return "", domain.ErrInvalidToken
	}

	if claims.Purpose != expectedPurpose {
		i.log.Warnw("Action token purpose mismatch",
			"expected", expectedPurpose, "actual", claims.Purpose, "email", claims.Subject)
		return "", domain.ErrWrongPurpose
	}

	return claims.Subject, nil
}
