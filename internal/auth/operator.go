package auth

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/shenikar/surakshita/internal/config"
	"github.com/shenikar/surakshita/pkg/e"
)

//go:generate mockgen -source=operator.go -destination=mocks/mock_operator.go -package=mocks

// OperatorVerifier проверяет учётные данные портала операторов.
// Источник учётных данных отделён от таблицы пользователей.
type OperatorVerifier interface {
	Verify(ctx context.Context, username, password string) (Identity, error)
}

// ConfigOperatorVerifier сверяет с учётной записью из конфигурации:
// bcrypt-хэш, если задан, иначе секрет с постоянным временем сравнения.
type ConfigOperatorVerifier struct {
	username     string
	passwordHash string
	password     string
}

// NewConfigOperatorVerifier создает ConfigOperatorVerifier
func NewConfigOperatorVerifier(cfg *config.Config) *ConfigOperatorVerifier {
	return &ConfigOperatorVerifier{
		username:     cfg.OperatorUsername,
		passwordHash: cfg.OperatorPasswordHash,
		password:     cfg.OperatorPassword,
	}
}

func (v *ConfigOperatorVerifier) Verify(_ context.Context, username, password string) (Identity, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(v.username)) == 1

	var passOK bool
	if v.passwordHash != "" {
		passOK = CheckPassword(v.passwordHash, password)
	} else {
		passOK = v.password != "" && subtle.ConstantTimeCompare([]byte(password), []byte(v.password)) == 1
	}

	if !userOK || !passOK {
		return Anonymous(), fmt.Errorf("operator credentials rejected: %w", e.ErrUnauthenticated)
	}
	return OperatorIdentity(v.username), nil
}
