package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-flood-alerts/internal/auth"
	"github.com/mr1hm/go-flood-alerts/internal/models"
	"github.com/mr1hm/go-flood-alerts/internal/notify"
	"github.com/mr1hm/go-flood-alerts/internal/repository"
)

// respondError maps domain errors to status codes. Anything unrecognised is
// logged and reported as fallback.
func respondError(c *gin.Context, err error, fallback string) {
	status, msg := http.StatusInternalServerError, fallback

	switch {
	case errors.Is(err, repository.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, notify.ErrNoActiveAlert):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, repository.ErrInvalid):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, repository.ErrAlreadySubscribed),
		errors.Is(err, repository.ErrEmailTaken),
		errors.Is(err, models.ErrAlreadyArchived),
		errors.Is(err, models.ErrNotArchived),
		errors.Is(err, models.ErrInvalidTransition):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		status, msg = http.StatusUnauthorized, err.Error()
	}

	if status == http.StatusInternalServerError {
		slog.Error(fallback, "path", c.FullPath(), "request_id", c.GetString(requestIDKey), "error", err)
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
