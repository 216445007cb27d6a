package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-flood-alerts/internal/models"
	"github.com/mr1hm/go-flood-alerts/internal/repository"
)

func (h *Handler) listAlertLogs(c *gin.Context) {
	var filter repository.AlertLogFilter
	filter.Limit, filter.Offset = pagination(c)
	filter.Location = c.Query("location")

	if m := c.Query("method"); m != "" {
		method := models.SubscriptionMethod(m)
		if !method.Valid() {
			badRequest(c, "invalid method")
			return
		}
		filter.Method = &method
	}
	if s := c.Query("status"); s != "" {
		status := models.DispatchStatus(s)
		if status != models.DispatchSuccess && status != models.DispatchFailed {
			badRequest(c, "invalid status")
			return
		}
		filter.Status = &status
	}

	logs, err := h.alertLogs.ListAlertLogs(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "failed to fetch alert logs")
		return
	}
	c.JSON(http.StatusOK, logs)
}
