package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/shenikar/surakshita/internal/ratelimit"
)

// RegisterRoutes регистрирует все маршруты пользовательского и операторского доменов
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(h.identify())

	// Публичные маршруты
	router.POST("/register", h.RateLimit(ratelimit.ClassRegister), h.register)
	router.POST("/login", h.RateLimit(ratelimit.ClassLogin), h.login)
	router.POST("/admin", h.Audit("operator_login"), h.RateLimit(ratelimit.ClassOperatorLogin), h.operatorLogin)
	router.GET("/api/system/health", h.healthCheck)

	// Пользовательский домен
	user := router.Group("", h.RequireUser())
	{
		user.POST("/logout", h.logout)
		user.GET("/incidents", h.listIncidents)
		user.POST("/incidents", h.createIncident)
		user.POST("/incidents/:id/status", h.updateStatus)
		user.DELETE("/incidents/:id", h.deleteIncident)

		user.POST("/api/report", h.RateLimit(ratelimit.ClassSOS), h.sos)
		user.GET("/api/incidents", h.Throttle(), h.apiIncidents)
		user.GET("/api/analytics", h.Throttle(), h.analytics)
		user.GET("/api/poll/incidents", h.Throttle(), h.pollIncidents)
	}

	// Операторский домен: Audit стоит перед RequireOperator и фиксирует отказы
	router.POST("/admin/logout", h.Audit("operator_logout"), h.RequireOperator(), h.operatorLogout)
	router.GET("/admin/dashboard", h.Audit("view_dashboard"), h.RequireOperator(), h.dashboard)
	router.POST("/api/dispatch/:id", h.Audit("dispatch"), h.RequireOperator(), h.dispatchUnit)
	router.POST("/api/admin/incidents/:id/resolve", h.Audit("resolve"), h.RequireOperator(), h.resolve)
	router.GET("/api/admin/incidents", h.Audit("list_incidents"), h.RequireOperator(), h.Throttle(), h.listAll)
	router.GET("/api/admin/poll/alerts", h.Audit("poll_alerts"), h.RequireOperator(), h.Throttle(), h.pollAlerts)
}
