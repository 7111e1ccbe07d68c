// Package ratelimit ограничивает частоту запросов по классам маршрутов.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/shenikar/surakshita/internal/config"
)

// Class - класс маршрутов с общей квотой
type Class string

const (
	ClassRegister      Class = "register"
	ClassLogin         Class = "login"
	ClassOperatorLogin Class = "operator_login"
	ClassSOS           Class = "sos"
)

// Decision - результат проверки квоты
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Counter атомарно увеличивает счётчик фиксированного окна.
// Окно начинается с первого инкремента ключа; возвращается новое значение и остаток окна.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Limiter применяет квоты к паре (класс, клиент)
type Limiter struct {
	counter Counter
	quotas  map[Class]config.Quota
}

// NewLimiter создает Limiter
func NewLimiter(counter Counter, quotas map[Class]config.Quota) *Limiter {
	return &Limiter{counter: counter, quotas: quotas}
}

// QuotasFromConfig собирает квоты классов из конфигурации
func QuotasFromConfig(cfg *config.Config) map[Class]config.Quota {
	return map[Class]config.Quota{
		ClassRegister:      cfg.RegisterQuota,
		ClassLogin:         cfg.LoginQuota,
		ClassOperatorLogin: cfg.OperatorLoginQuota,
		ClassSOS:           cfg.SOSQuota,
	}
}

// Allow учитывает запрос и решает, пропустить ли его.
// Ошибка счётчика возвращается как есть: вызывающий обязан отказать.
func (l *Limiter) Allow(ctx context.Context, class Class, client string) (Decision, error) {
	quota, ok := l.quotas[class]
	if !ok {
		return Decision{}, fmt.Errorf("ratelimit: no quota configured for class %q", class)
	}
	count, ttl, err := l.counter.Incr(ctx, key(class, client), quota.Window)
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: incr %s: %w", class, err)
	}
	d := Decision{
		Allowed: count <= int64(quota.Limit),
		Limit:   quota.Limit,
	}
	if remaining := int64(quota.Limit) - count; remaining > 0 {
		d.Remaining = int(remaining)
	}
	if !d.Allowed {
		d.RetryAfter = ttl
		if d.RetryAfter <= 0 {
			d.RetryAfter = quota.Window
		}
	}
	return d, nil
}

func key(class Class, client string) string {
	return "ratelimit:" + string(class) + ":" + client
}
