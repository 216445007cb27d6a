package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-flood-alerts/internal/events"
	"github.com/mr1hm/go-flood-alerts/internal/models"
	"github.com/mr1hm/go-flood-alerts/internal/repository"
	"github.com/mr1hm/go-flood-alerts/internal/stream"
)

// alertRequest is the full alert body. Every descriptive field is required
// on create and on update.
type alertRequest struct {
	AlertType             models.AlertType        `json:"alert_type" binding:"required"`
	Severity              models.AlertSeverity    `json:"severity" binding:"required"`
	Location              string                  `json:"location" binding:"required"`
	WaterLevels           *models.WaterLevels     `json:"water_levels" binding:"required"`
	EvacuationRoutes      []string                `json:"evacuation_routes" binding:"required,min=1"`
	EmergencyContacts     []string                `json:"emergency_contacts" binding:"required,min=1"`
	PrecautionaryMeasures []string                `json:"precautionary_measures" binding:"required,min=1"`
	WeatherForecast       *models.WeatherForecast `json:"weather_forecast" binding:"required"`
	Status                models.AlertStatus      `json:"status"`
}

func (r *alertRequest) validate() error {
	if !r.AlertType.Valid() {
		return fmt.Errorf("invalid alert_type %q", r.AlertType)
	}
	if !r.Severity.Valid() {
		return fmt.Errorf("invalid severity %q", r.Severity)
	}
	r.Location = strings.TrimSpace(r.Location)
	if r.Location == "" {
		return fmt.Errorf("location is required")
	}
	return nil
}

func (r *alertRequest) apply(a *models.Alert) {
	a.AlertType = r.AlertType
	a.Severity = r.Severity
	a.Location = r.Location
	a.WaterLevels = *r.WaterLevels
	a.EvacuationRoutes = r.EvacuationRoutes
	a.EmergencyContacts = r.EmergencyContacts
	a.PrecautionaryMeasures = r.PrecautionaryMeasures
	a.WeatherForecast = *r.WeatherForecast
}

func bindAlert(c *gin.Context) (*alertRequest, bool) {
	var req alertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	if err := req.validate(); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	return &req, true
}

func (h *Handler) listAlerts(c *gin.Context) {
	var filter repository.AlertFilter
	filter.Limit, filter.Offset = pagination(c)
	filter.Query = c.Query("q")

	if t := c.Query("type"); t != "" {
		at := models.AlertType(t)
		if !at.Valid() {
			badRequest(c, "invalid type")
			return
		}
		filter.Type = &at
	}
	if s := c.Query("severity"); s != "" {
		sev := models.AlertSeverity(s)
		if !sev.Valid() {
			badRequest(c, "invalid severity")
			return
		}
		filter.Severity = &sev
	}
	if s := c.Query("status"); s != "" {
		st := models.AlertStatus(s)
		if st != models.AlertStatusActive && st != models.AlertStatusResolved && st != models.AlertStatusArchived {
			badRequest(c, "invalid status")
			return
		}
		filter.Status = &st
	}
	if from := c.Query("from"); from != "" {
		t, err := parseDate(from)
		if err != nil {
			badRequest(c, "invalid from date")
			return
		}
		filter.From = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := parseDate(to)
		if err != nil {
			badRequest(c, "invalid to date")
			return
		}
		// a bare date includes the whole day
		if len(to) == len("2006-01-02") {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		filter.To = &t
	}

	alerts, err := h.alerts.ListAlerts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "failed to fetch alerts")
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (h *Handler) getAlert(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	a, err := h.alerts.GetAlert(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to fetch alert")
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) alertLocales(c *gin.Context) {
	locales, err := h.alerts.AlertLocales(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch locales")
		return
	}
	c.JSON(http.StatusOK, locales)
}

func (h *Handler) createAlert(c *gin.Context) {
	req, ok := bindAlert(c)
	if !ok {
		return
	}

	a := &models.Alert{Status: models.AlertStatusActive}
	req.apply(a)

	if err := h.alerts.CreateAlert(c.Request.Context(), a); err != nil {
		respondError(c, err, "failed to create alert")
		return
	}

	h.broadcaster.Publish(stream.AlertCreated, a)
	h.publish(c.Request.Context(), events.AlertCreated, a)
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) updateAlert(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	req, ok := bindAlert(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	a, err := h.alerts.GetAlert(ctx, id)
	if err != nil {
		respondError(c, err, "failed to fetch alert")
		return
	}

	req.apply(a)
	if req.Status != "" {
		if err := a.SetStatus(req.Status); err != nil {
			respondError(c, err, "failed to update alert")
			return
		}
	}

	if err := h.alerts.UpdateAlert(ctx, a); err != nil {
		respondError(c, err, "failed to update alert")
		return
	}

	h.broadcaster.Publish(stream.AlertUpdated, a)
	h.publish(ctx, events.AlertUpdated, a)
	c.JSON(http.StatusOK, a)
}

func (h *Handler) archiveAlert(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	a, err := h.alerts.ArchiveAlert(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to archive alert")
		return
	}

	h.broadcaster.Publish(stream.AlertArchived, a)
	h.publish(c.Request.Context(), events.AlertArchived, a)
	c.JSON(http.StatusOK, a)
}

func (h *Handler) unarchiveAlert(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	a, err := h.alerts.UnarchiveAlert(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to unarchive alert")
		return
	}

	h.broadcaster.Publish(stream.AlertUnarchived, a)
	h.publish(c.Request.Context(), events.AlertUnarchived, a)
	c.JSON(http.StatusOK, a)
}

func (h *Handler) deleteAlert(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.alerts.DeleteAlert(c.Request.Context(), id); err != nil {
		respondError(c, err, "failed to delete alert")
		return
	}
	h.publish(c.Request.Context(), events.AlertDeleted, gin.H{"alert_id": id})
	c.Status(http.StatusNoContent)
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
