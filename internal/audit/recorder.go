// Package audit ведёт журнал действий операторского домена: записи уходят
// в очередь Redis, воркер сохраняет их в БД и пересылает на внешний вебхук.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shenikar/surakshita/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	auditQueueKey = "audit_events"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDenied  = "denied"
)

//go:generate mockgen -source=recorder.go -destination=mocks/mock_recorder.go -package=mocks

// Recorder - интерфейс для записи событий аудита
type Recorder interface {
	Record(ctx context.Context, entry models.AuditEntry) error
}

// Store - постоянное хранилище записей аудита
type Store interface {
	Save(ctx context.Context, entry *models.AuditEntry) error
}

// RedisRecorder - реализация Recorder, публикующая записи в очередь Redis.
// Каждая запись дублируется в лог, даже если публикация не удалась.
type RedisRecorder struct {
	redisClient *redis.Client
	logger      *logrus.Logger
	now         func() time.Time
}

// NewRedisRecorder создает новый RedisRecorder
func NewRedisRecorder(client *redis.Client, logger *logrus.Logger) *RedisRecorder {
	return &RedisRecorder{
		redisClient: client,
		logger:      logger,
		now:         time.Now,
	}
}

// Record публикует запись аудита в очередь Redis
func (r *RedisRecorder) Record(ctx context.Context, entry models.AuditEntry) error {
	entry = r.complete(entry)

	log := r.logger.WithFields(logrus.Fields{
		"service":  "audit",
		"audit_id": entry.ID.String(),
		"actor":    entry.Actor,
		"action":   entry.Action,
		"target":   entry.Target,
		"outcome":  entry.Outcome,
	})

	payload, err := json.Marshal(entry)
	if err != nil {
		log.WithError(err).Error("Failed to marshal audit entry")
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	if err := r.redisClient.LPush(ctx, auditQueueKey, payload).Err(); err != nil {
		log.WithError(err).Warn("Audit entry not queued, kept in log only")
		return fmt.Errorf("failed to publish audit entry to Redis: %w", err)
	}
	log.Info("Audit entry recorded")
	return nil
}

func (r *RedisRecorder) complete(entry models.AuditEntry) models.AuditEntry {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = r.now().UTC()
	}
	return entry
}
