package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shenikar/surakshita/internal/audit"
	"github.com/shenikar/surakshita/internal/auth"
	"github.com/shenikar/surakshita/internal/config"
	"github.com/shenikar/surakshita/internal/service"
	"github.com/shenikar/surakshita/internal/validation"
	"github.com/sirupsen/logrus"
)

// Deps - зависимости HTTP-слоя
type Deps struct {
	Incidents service.IncidentService
	Accounts  service.AccountService
	Dispatch  service.DispatchService
	Sessions  auth.SessionStore
	Operators auth.OperatorVerifier
	Limiter   RateLimiter
	Throttle  ReadThrottle
	Audit     audit.Recorder
}

type Handler struct {
	incidents service.IncidentService
	accounts  service.AccountService
	dispatch  service.DispatchService
	sessions  auth.SessionStore
	operators auth.OperatorVerifier
	limiter   RateLimiter
	throttle  ReadThrottle
	audit     audit.Recorder
	logger    *logrus.Logger
	validate  *validator.Validate
	cfg       *config.Config
}

func NewHandler(deps Deps, logger *logrus.Logger, cfg *config.Config) *Handler {
	return &Handler{
		incidents: deps.Incidents,
		accounts:  deps.Accounts,
		dispatch:  deps.Dispatch,
		sessions:  deps.Sessions,
		operators: deps.Operators,
		limiter:   deps.Limiter,
		throttle:  deps.Throttle,
		audit:     deps.Audit,
		logger:    logger,
		validate:  validation.NewValidator(),
		cfg:       cfg,
	}
}

// bind разбирает тело запроса (JSON или форма) и проверяет форму DTO
func (h *Handler) bind(c *gin.Context, log *logrus.Entry, input any) bool {
	if err := c.ShouldBind(input); err != nil {
		log.WithError(err).Warn("Failed to bind request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return false
	}
	if err := h.validate.Struct(input); err != nil {
		respondError(c, log, validation.Explain(err))
		return false
	}
	return true
}

// incidentID разбирает :id; некорректный идентификатор сразу даёт 400
func incidentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid incident ID"})
		return 0, false
	}
	return id, true
}

// cursor разбирает last_id; некорректное или отрицательное значение считается 0
func cursor(c *gin.Context) int64 {
	lastID, err := strconv.ParseInt(c.DefaultQuery("last_id", "0"), 10, 64)
	if err != nil || lastID < 0 {
		return 0
	}
	return lastID
}

// @Summary Health check
// @Description Check if the service is running
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /api/system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}
