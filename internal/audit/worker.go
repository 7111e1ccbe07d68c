package audit

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shenikar/surakshita/internal/config"
	"github.com/shenikar/surakshita/internal/models"
	"github.com/sirupsen/logrus"
)

const signatureHeader = "X-Audit-Signature"

// Worker - обработчик очереди аудита: сохраняет записи и пересылает их на вебхук
type Worker struct {
	redisClient *redis.Client
	store       Store
	logger      *logrus.Logger
	httpClient  *http.Client

	webhookURL    string
	webhookSecret string
	maxRetries    int
	baseDelay     time.Duration
}

// NewWorker создает новый Worker
func NewWorker(redisClient *redis.Client, store Store, logger *logrus.Logger, cfg *config.Config) *Worker {
	return &Worker{
		redisClient: redisClient,
		store:       store,
		logger:      logger,
		httpClient: &http.Client{
			Timeout: cfg.AuditWebhookTimeout,
		},
		webhookURL:    cfg.AuditWebhookURL,
		webhookSecret: cfg.AuditWebhookSecret,
		maxRetries:    cfg.AuditWebhookMaxRetries,
		baseDelay:     cfg.AuditWebhookBaseDelay,
	}
}

// Start запускает горутину для обработки очереди аудита
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("Starting audit worker...")
	go func() {
		for {
			select {
			case <-ctx.Done():
				w.logger.Info("Stopping audit worker.")
				return
			default:
				result, err := w.redisClient.BRPop(ctx, 0, auditQueueKey).Result()
				if err != nil {
					if errors.Is(err, context.Canceled) {
						continue
					}
					w.logger.WithError(err).Error("Failed to pop audit entry from Redis")
					w.sleep(ctx, time.Second)
					continue
				}

				// result[0] - ключ, result[1] - значение
				w.process(ctx, result[1])
			}
		}
	}()
}

func (w *Worker) process(ctx context.Context, rawPayload string) {
	var entry models.AuditEntry
	if err := json.Unmarshal([]byte(rawPayload), &entry); err != nil {
		w.logger.WithError(err).Error("Failed to unmarshal audit entry from Redis")
		return
	}

	log := w.logger.WithField("audit_id", entry.ID.String()).WithField("action", entry.Action)

	if err := w.store.Save(ctx, &entry); err != nil {
		log.WithError(err).Error("Failed to persist audit entry")
	}

	if w.webhookURL == "" {
		log.Debug("Audit webhook URL is not configured. Skipping delivery.")
		return
	}
	w.deliver(ctx, log, rawPayload)
}

func (w *Worker) deliver(ctx context.Context, log *logrus.Entry, rawPayload string) {
	delay := w.baseDelay

	for i := 0; i < w.maxRetries; i++ {
		left := w.maxRetries - 1 - i
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewBufferString(rawPayload))
		if err != nil {
			log.WithError(err).Errorf("Failed to create audit webhook request. Retries left: %d", left)
			continue
		}

		req.Header.Set("Content-Type", "application/json")
		if w.webhookSecret != "" {
			req.Header.Set(signatureHeader, Sign(rawPayload, w.webhookSecret))
		}

		resp, err := w.httpClient.Do(req)
		if err != nil {
			log.WithError(err).Warnf("Failed to send audit webhook. Retrying in %v. Retries left: %d", delay, left)
		} else {
			_ = resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				log.Info("Audit webhook delivered successfully.")
				return
			}
			log.Warnf("Audit webhook delivery failed with status code %d. Retrying in %v. Retries left: %d", resp.StatusCode, delay, left)
		}

		if left > 0 && !w.sleep(ctx, delay) {
			return
		}
		delay *= 2
	}

	log.Errorf("Failed to deliver audit webhook after %d retries.", w.maxRetries)
}

// sleep ждёт d или отмены контекста; false - контекст отменён
func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Sign генерирует HMAC-SHA256 подпись для данных
func Sign(data, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
