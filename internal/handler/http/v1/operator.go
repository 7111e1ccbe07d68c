package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/surakshita/internal/models"
)

// @Summary Operator dashboard
// @Description Global view of active and resolved alerts with SOS statistics
// @Tags Operator
// @Produce json
// @Success 200 {object} DashboardResponse
// @Failure 401 {object} ErrorResponse "Operator login required"
// @Failure 403 {object} ErrorResponse "Operator session required"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /admin/dashboard [get]
func (h *Handler) dashboard(c *gin.Context) {
	log := h.logger.WithField("method", "dashboard")
	c.Set(auditTargetKey, "dashboard")

	result, err := h.dispatch.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToDashboardResponse(result))
}

// @Summary Dispatch a unit
// @Description Assign a response unit to an incident. A repeated dispatch replaces the unit.
// @Tags Operator
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param id path int true "Incident ID"
// @Param unit body DispatchRequest true "Unit: police, ambulance, fire, swat"
// @Success 200 {object} DispatchResponse
// @Failure 400 {object} ErrorResponse "Invalid unit or transition"
// @Failure 401 {object} ErrorResponse "Operator login required"
// @Failure 403 {object} ErrorResponse "Operator session required"
// @Failure 404 {object} ErrorResponse "Incident not found"
// @Failure 409 {object} ErrorResponse "Incident changed concurrently"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /api/dispatch/{id} [post]
func (h *Handler) dispatchUnit(c *gin.Context) {
	id, ok := incidentID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "dispatchUnit").WithField("id", id)

	var input DispatchRequest
	if !h.bind(c, log, &input) {
		return
	}

	incident, err := h.dispatch.Dispatch(c.Request.Context(), id, input.Unit)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, DispatchResponse{
		Success:    true,
		IncidentID: incident.ID,
		Status:     incident.Status.String(),
		Unit:       string(incident.Status.Unit),
		Note:       incident.Status.Note,
	})
}

// @Summary Resolve an incident
// @Description Operator resolution of a pending, high alert or dispatched incident
// @Tags Operator
// @Produce json
// @Param id path int true "Incident ID"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} ErrorResponse "Invalid incident ID or transition"
// @Failure 401 {object} ErrorResponse "Operator login required"
// @Failure 403 {object} ErrorResponse "Operator session required"
// @Failure 404 {object} ErrorResponse "Incident not found"
// @Failure 409 {object} ErrorResponse "Incident changed concurrently"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /api/admin/incidents/{id}/resolve [post]
func (h *Handler) resolve(c *gin.Context) {
	id, ok := incidentID(c)
	if !ok {
		return
	}
	log := h.logger.WithField("method", "resolve").WithField("id", id)

	incident, err := h.dispatch.Resolve(c.Request.Context(), id)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary List all incidents
// @Description Global incident listing with reporter data and an optional status filter
// @Tags Operator
// @Produce json
// @Param status query string false "all, pending, resolved, high_alert, dispatched" default(all)
// @Success 200 {object} AlertPollResponse
// @Failure 400 {object} ErrorResponse "Invalid status filter"
// @Failure 401 {object} ErrorResponse "Operator login required"
// @Failure 403 {object} ErrorResponse "Operator session required"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /api/admin/incidents [get]
func (h *Handler) listAll(c *gin.Context) {
	log := h.logger.WithField("method", "listAll")
	c.Set(auditTargetKey, "incidents")

	incidents, err := h.dispatch.ListAll(c.Request.Context(), c.DefaultQuery("status", "all"))
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, alertList(incidents))
}

// @Summary Poll alerts
// @Description High alert and dispatched incidents with id greater than last_id
// @Tags Operator
// @Produce json
// @Param last_id query int false "Cursor" default(0)
// @Success 200 {object} AlertPollResponse
// @Failure 401 {object} ErrorResponse "Operator login required"
// @Failure 403 {object} ErrorResponse "Operator session required"
// @Failure 429 {object} ErrorResponse "Too many requests"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /api/admin/poll/alerts [get]
func (h *Handler) pollAlerts(c *gin.Context) {
	lastID := cursor(c)
	log := h.logger.WithField("method", "pollAlerts").WithField("last_id", lastID)
	c.Set(auditTargetKey, "alerts")

	alerts, err := h.dispatch.PollAlerts(c.Request.Context(), lastID)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, alertList(alerts))
}

func alertList(alerts []*models.AlertIncident) *AlertPollResponse {
	responses := ModelsToAlertResponses(alerts)
	return &AlertPollResponse{Alerts: responses, Count: len(responses)}
}
