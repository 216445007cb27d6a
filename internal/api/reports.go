package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-flood-alerts/internal/auth"
	"github.com/mr1hm/go-flood-alerts/internal/events"
	"github.com/mr1hm/go-flood-alerts/internal/models"
	"github.com/mr1hm/go-flood-alerts/internal/repository"
)

type reportRequest struct {
	ReportType  string `json:"report_type" form:"report_type" binding:"required"`
	Location    string `json:"location" form:"location" binding:"required"`
	Description string `json:"description" form:"description" binding:"required"`
	ImageURL    string `json:"image_url" form:"image_url"`
}

// reportPatch carries admin edits; omitted fields are left alone.
type reportPatch struct {
	ReportType  *string              `json:"report_type"`
	Location    *string              `json:"location"`
	Description *string              `json:"description"`
	ImageURL    *string              `json:"image_url"`
	Status      *models.ReportStatus `json:"status"`
}

func (h *Handler) listReports(c *gin.Context) {
	var filter repository.ReportFilter
	filter.Limit, filter.Offset = pagination(c)
	filter.Type = c.Query("type")
	filter.Location = c.Query("location")
	if s := c.Query("status"); s != "" {
		status := models.ReportStatus(s)
		if !status.Valid() {
			badRequest(c, "invalid status")
			return
		}
		filter.Status = &status
	}

	reports, err := h.reports.ListReports(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "failed to fetch reports")
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (h *Handler) getReport(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	r, err := h.reports.GetReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to fetch report")
		return
	}
	c.JSON(http.StatusOK, r)
}

// createReport accepts either a multipart form with an "image" file or JSON
// with an image_url. A report without an image is rejected.
func (h *Handler) createReport(c *gin.Context, p *auth.Principal) {
	var req reportRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if isMultipart(c) {
		url, err := h.saveImage(c, "image", "reports")
		switch {
		case err == nil:
			req.ImageURL = url
		case !errors.Is(err, errNoFile):
			badRequest(c, err.Error())
			return
		}
	}
	req.ImageURL = strings.TrimSpace(req.ImageURL)
	if req.ImageURL == "" {
		badRequest(c, "image is required")
		return
	}

	userID := p.UserID
	r := &models.CommunityReport{
		UserID:      &userID,
		ReportType:  strings.TrimSpace(req.ReportType),
		Location:    strings.TrimSpace(req.Location),
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Status:      models.ReportPending,
	}
	if err := h.reports.CreateReport(c.Request.Context(), r); err != nil {
		respondError(c, err, "failed to create report")
		return
	}

	h.publish(c.Request.Context(), events.ReportSubmitted, r)
	c.JSON(http.StatusCreated, r)
}

func (h *Handler) updateReport(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var patch reportPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err.Error())
		return
	}
	if patch.Status != nil && !patch.Status.Valid() {
		badRequest(c, "invalid status")
		return
	}

	ctx := c.Request.Context()
	r, err := h.reports.GetReport(ctx, id)
	if err != nil {
		respondError(c, err, "failed to fetch report")
		return
	}

	if patch.ReportType != nil {
		r.ReportType = *patch.ReportType
	}
	if patch.Location != nil {
		r.Location = *patch.Location
	}
	if patch.Description != nil {
		r.Description = *patch.Description
	}
	if patch.ImageURL != nil {
		r.ImageURL = *patch.ImageURL
	}
	if patch.Status != nil {
		r.Status = *patch.Status
	}

	if err := h.reports.UpdateReport(ctx, r); err != nil {
		respondError(c, err, "failed to update report")
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) deleteReport(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.reports.DeleteReport(c.Request.Context(), id); err != nil {
		respondError(c, err, "failed to delete report")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) reportsInMonth(c *gin.Context) {
	month, err := time.Parse("2006-01", c.Query("month"))
	if err != nil {
		badRequest(c, "month must be YYYY-MM")
		return
	}
	reports, err := h.reports.ReportsInMonth(c.Request.Context(), month)
	if err != nil {
		respondError(c, err, "failed to fetch reports")
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (h *Handler) reportsByMonth(c *gin.Context) {
	counts, err := h.reports.ReportsByMonth(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to count reports")
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *Handler) frequentReportTypes(c *gin.Context) {
	counts, err := h.reports.FrequentReportTypes(c.Request.Context(), queryLimit(c))
	if err != nil {
		respondError(c, err, "failed to count reports")
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *Handler) frequentLocations(c *gin.Context) {
	counts, err := h.reports.FrequentLocations(c.Request.Context(), queryLimit(c))
	if err != nil {
		respondError(c, err, "failed to count reports")
		return
	}
	c.JSON(http.StatusOK, counts)
}

// queryLimit returns 0, meaning the store default, when limit is absent or bad.
func queryLimit(c *gin.Context) int {
	l, _ := strconv.Atoi(c.Query("limit"))
	return l
}
