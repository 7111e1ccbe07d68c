package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary List own incidents
// @Description List incidents of the current user, newest first, with an optional status filter
// @Tags Incidents
// @Produce json
// @Param status query string false "all, pending, resolved, high_alert, dispatched" default(all)
// @Success 200 {object} IncidentListResponse
// @Failure 400 {object} ErrorResponse "Invalid status filter"
// @Failure 401 {object} ErrorResponse "Login required"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /incidents [get]
func (h *Handler) listIncidents(c *gin.Context) {
	owner := identityFrom(c)
	log := h.logger.WithField("method", "listIncidents").WithField("user_id", owner.UserID)

	incidents, err := h.incidents.List(c.Request.Context(), owner.UserID, c.DefaultQuery("status", "all"))
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelsToIncidentList(incidents))
}

// @Summary Create a new incident
// @Description Report an incident at a location inside the service region
// @Tags Incidents
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param incident body CreateIncidentRequest true "Incident creation request"
// @Success 201 {object} IncidentResponse
// @Failure 400 {object} ErrorResponse "Invalid request body or validation error"
// @Failure 401 {object} ErrorResponse "Login required"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /incidents [post]
func (h *Handler) createIncident(c *gin.Context) {
	var input CreateIncidentRequest
	owner := identityFrom(c)
	log := h.logger.WithField("method", "createIncident").WithField("user_id", owner.UserID)
	if !h.bind(c, log, &input) {
		return
	}

	incident, err := h.incidents.Report(c.Request.Context(), owner.UserID, DTOToReportInput(input))
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusCreated, ModelToIncidentResponse(incident))
}

// @Summary Toggle incident status
// @Description Owner-only toggle between Pending and Resolved. SOS incidents cannot be reopened.
// @Tags Incidents
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param id path int true "Incident ID"
// @Param status body UpdateStatusRequest true "Target status"
// @Success 200 {object} IncidentResponse
// @Failure 400 {object} ErrorResponse "Invalid incident ID, status or transition"
// @Failure 401 {object} ErrorResponse "Login required"
// @Failure 404 {object} ErrorResponse "Incident not found"
// @Failure 409 {object} ErrorResponse "Incident changed concurrently"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /incidents/{id}/status [post]
func (h *Handler) updateStatus(c *gin.Context) {
	id, ok := incidentID(c)
	if !ok {
		return
	}
	owner := identityFrom(c)
	log := h.logger.WithField("method", "updateStatus").WithField("user_id", owner.UserID).WithField("id", id)

	var input UpdateStatusRequest
	if !h.bind(c, log, &input) {
		return
	}

	incident, err := h.incidents.UpdateStatus(c.Request.Context(), owner.UserID, id, input.Status)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToIncidentResponse(incident))
}

// @Summary Delete an incident
// @Description Owner-only delete
// @Tags Incidents
// @Param id path int true "Incident ID"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse "Invalid incident ID"
// @Failure 401 {object} ErrorResponse "Login required"
// @Failure 404 {object} ErrorResponse "Incident not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /incidents/{id} [delete]
func (h *Handler) deleteIncident(c *gin.Context) {
	id, ok := incidentID(c)
	if !ok {
		return
	}
	owner := identityFrom(c)
	log := h.logger.WithField("method", "deleteIncident").WithField("user_id", owner.UserID).WithField("id", id)

	if err := h.incidents.Delete(c.Request.Context(), owner.UserID, id); err != nil {
		respondError(c, log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary List own incidents (API)
// @Description JSON listing of all incidents of the current user
// @Tags API
// @Produce json
// @Success 200 {object} IncidentListResponse
// @Failure 401 {object} ErrorResponse "Login required"
// @Failure 429 {object} ErrorResponse "Too many requests"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /api/incidents [get]
func (h *Handler) apiIncidents(c *gin.Context) {
	owner := identityFrom(c)
	log := h.logger.WithField("method", "apiIncidents").WithField("user_id", owner.UserID)

	incidents, err := h.incidents.List(c.Request.Context(), owner.UserID, "all")
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelsToIncidentList(incidents))
}

// @Summary Incident analytics
// @Description Counts of own incidents by type, by day over the analytics window, and by status
// @Tags API
// @Produce json
// @Success 200 {object} AnalyticsResponse
// @Failure 401 {object} ErrorResponse "Login required"
// @Failure 429 {object} ErrorResponse "Too many requests"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /api/analytics [get]
func (h *Handler) analytics(c *gin.Context) {
	owner := identityFrom(c)
	log := h.logger.WithField("method", "analytics").WithField("user_id", owner.UserID)

	result, err := h.incidents.Analytics(c.Request.Context(), owner.UserID)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelToAnalyticsResponse(result))
}

// @Summary Emergency SOS
// @Description Raise a critical high alert at the given location. Rate limited per user.
// @Tags API
// @Accept json
// @Produce json
// @Param sos body SOSRequest true "SOS request"
// @Success 201 {object} SOSResponse
// @Failure 400 {object} ErrorResponse "Validation error"
// @Failure 401 {object} ErrorResponse "Login required"
// @Failure 429 {object} ErrorResponse "Too many requests"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /api/report [post]
func (h *Handler) sos(c *gin.Context) {
	var input SOSRequest
	owner := identityFrom(c)
	log := h.logger.WithField("method", "sos").WithField("user_id", owner.UserID)
	if !h.bind(c, log, &input) {
		return
	}

	incident, err := h.incidents.ReportSOS(c.Request.Context(), owner.UserID, DTOToReportInput(input))
	if err != nil {
		respondError(c, log, err)
		return
	}
	log.WithField("id", incident.ID).Info("SOS alert raised")
	c.JSON(http.StatusCreated, SOSResponse{
		Success:    true,
		Message:    "SOS alert sent. Help is on the way.",
		IncidentID: incident.ID,
	})
}

// @Summary Poll own incidents
// @Description Incidents of the current user with id greater than last_id, newest first
// @Tags API
// @Produce json
// @Param last_id query int false "Cursor" default(0)
// @Success 200 {object} IncidentListResponse
// @Failure 401 {object} ErrorResponse "Login required"
// @Failure 429 {object} ErrorResponse "Too many requests"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /api/poll/incidents [get]
func (h *Handler) pollIncidents(c *gin.Context) {
	owner := identityFrom(c)
	lastID := cursor(c)
	log := h.logger.WithField("method", "pollIncidents").WithField("user_id", owner.UserID).WithField("last_id", lastID)

	incidents, err := h.incidents.Poll(c.Request.Context(), owner.UserID, lastID)
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, ModelsToIncidentList(incidents))
}
