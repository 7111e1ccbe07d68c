package v1

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/surakshita/internal/audit"
	"github.com/shenikar/surakshita/internal/models"
	"github.com/shenikar/surakshita/internal/ratelimit"
)

const (
	auditTargetKey = "audit_target"
	deniedKey      = "access_denied"
)

// RateLimiter - квоты фиксированного окна по классу маршрута
type RateLimiter interface {
	Allow(ctx context.Context, class ratelimit.Class, client string) (ratelimit.Decision, error)
}

// ReadThrottle - token bucket для маршрутов чтения
type ReadThrottle interface {
	Allow(client string) bool
}

// RateLimit ограничивает класс маршрутов. Ошибка счётчика отклоняет запрос.
func (h *Handler) RateLimit(class ratelimit.Class) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := clientKey(c)
		log := h.logger.WithField("method", "RateLimit").WithField("class", string(class)).WithField("client", client)

		decision, err := h.limiter.Allow(c.Request.Context(), class, client)
		if err != nil {
			log.WithError(err).Error("Rate limiter unavailable, rejecting request")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			log.Warn("Rate limit exceeded")
			c.Header("Retry-After", retryAfterSeconds(decision.RetryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "Too many requests. Please try again later."})
			return
		}
		c.Next()
	}
}

// Throttle ограничивает частоту чтений и опросов одного клиента
func (h *Handler) Throttle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.throttle.Allow(clientKey(c)) {
			h.logger.WithField("method", "Throttle").WithField("path", c.FullPath()).Warn("Read throttle exceeded")
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "Too many requests. Please try again later."})
			return
		}
		c.Next()
	}
}

func retryAfterSeconds(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// Audit записывает каждое обращение к операторскому домену независимо от исхода
func (h *Handler) Audit(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		target := c.GetString(auditTargetKey)
		if target == "" {
			if id := c.Param("id"); id != "" {
				target = "incident:" + id
			}
		}

		entry := models.AuditEntry{
			Actor:    identityFrom(c).Actor(),
			Action:   action,
			Target:   target,
			Outcome:  outcomeOf(c),
			ClientIP: c.ClientIP(),
		}
		// отмена запроса клиентом не отменяет запись
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 2*time.Second)
		defer cancel()
		if err := h.audit.Record(ctx, entry); err != nil {
			h.logger.WithField("method", "Audit").WithField("action", action).WithError(err).Warn("Audit entry not queued")
		}
	}
}

func outcomeOf(c *gin.Context) string {
	status := c.Writer.Status()
	switch {
	case c.GetBool(deniedKey), status == http.StatusUnauthorized, status == http.StatusForbidden, status == http.StatusTooManyRequests:
		return audit.OutcomeDenied
	case status >= http.StatusBadRequest:
		return audit.OutcomeFailure
	default:
		return audit.OutcomeSuccess
	}
}
