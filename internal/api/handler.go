package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-flood-alerts/internal/auth"
	"github.com/mr1hm/go-flood-alerts/internal/events"
	"github.com/mr1hm/go-flood-alerts/internal/models"
	"github.com/mr1hm/go-flood-alerts/internal/notify"
	"github.com/mr1hm/go-flood-alerts/internal/repository"
	"github.com/mr1hm/go-flood-alerts/internal/stream"
)

// Deps are the collaborators the HTTP layer is wired to.
type Deps struct {
	Alerts        repository.AlertRepository
	Subscriptions repository.SubscriptionRepository
	AlertLogs     repository.AlertLogRepository
	Users         repository.UserRepository
	Reports       repository.ReportRepository
	Floods        *repository.Table[models.Flood]
	Resources     []ResourceRoutes
	Sessions      *auth.Sessions
	Dispatcher    *notify.Dispatcher
	Broadcaster   *stream.Broadcaster
	Publisher     events.Publisher
	Uploads       UploadConfig
}

type Handler struct {
	alerts      repository.AlertRepository
	subs        repository.SubscriptionRepository
	alertLogs   repository.AlertLogRepository
	users       repository.UserRepository
	reports     repository.ReportRepository
	floods      *repository.Table[models.Flood]
	resources   []ResourceRoutes
	sessions    *auth.Sessions
	dispatcher  *notify.Dispatcher
	broadcaster *stream.Broadcaster
	publisher   events.Publisher
	uploads     UploadConfig
}

func NewHandler(d Deps) *Handler {
	publisher := d.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Handler{
		alerts:      d.Alerts,
		subs:        d.Subscriptions,
		alertLogs:   d.AlertLogs,
		users:       d.Users,
		reports:     d.Reports,
		floods:      d.Floods,
		resources:   d.Resources,
		sessions:    d.Sessions,
		dispatcher:  d.Dispatcher,
		broadcaster: d.Broadcaster,
		publisher:   publisher,
		uploads:     d.Uploads,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	if h.uploads.Dir != "" {
		r.Static("/uploads", h.uploads.Dir)
	}

	public := r.Group("/api")
	authed := public.Group("", h.sessions.RequireAuth(), h.currentAccount())
	admin := authed.Group("", auth.RequireRole(models.RoleAdmin))

	public.POST("/auth/register", h.register)
	public.POST("/auth/login", h.login)
	authed.POST("/auth/logout", h.logout)
	authed.GET("/auth/me", h.withPrincipal(h.me))
	authed.POST("/auth/me/photo", h.withPrincipal(h.uploadPhoto))

	admin.GET("/users", h.listUsers)
	admin.GET("/users/:id", h.getUser)
	admin.PUT("/users/:id", h.updateUser)
	admin.DELETE("/users/:id", h.withPrincipal(h.deleteUser))

	public.GET("/alerts", h.listAlerts)
	public.GET("/alerts/locales", h.alertLocales)
	public.GET("/alerts/stream", h.streamAlerts)
	public.GET("/alerts/:id", h.getAlert)
	admin.POST("/alerts", h.createAlert)
	admin.PUT("/alerts/:id", h.updateAlert)
	admin.PUT("/alerts/:id/archive", h.archiveAlert)
	admin.PUT("/alerts/:id/unarchive", h.unarchiveAlert)
	// POST aliases for clients written against earlier releases
	admin.POST("/alerts/:id/archive", h.archiveAlert)
	admin.POST("/alerts/:id/unarchive", h.unarchiveAlert)
	admin.DELETE("/alerts/:id", h.deleteAlert)

	public.POST("/subscriptions", h.subscribe)
	public.POST("/subscriptions/unsubscribe", h.unsubscribe)
	admin.GET("/subscriptions", h.listSubscriptions)
	admin.GET("/subscriptions/by-location", h.subscriptionsByLocation)
	admin.GET("/subscriptions/analytics/by-location", h.subscriptionLocationCounts)
	admin.GET("/subscriptions/analytics/methods", h.subscriptionMethodCounts)
	admin.GET("/subscriptions/:id", h.getSubscription)
	admin.PUT("/subscriptions/:id", h.updateSubscription)
	admin.DELETE("/subscriptions/:id", h.deleteSubscription)
	admin.POST("/subscriptions/send-email", h.sendEmailAlerts)
	admin.POST("/send-sms", h.sendSMSAlerts)

	admin.GET("/alert-logs", h.listAlertLogs)

	public.GET("/community-reports", h.listReports)
	public.GET("/community-reports/filter/month", h.reportsInMonth)
	public.GET("/community-reports/analytics/by-month", h.reportsByMonth)
	public.GET("/community-reports/analytics/frequent-types", h.frequentReportTypes)
	public.GET("/community-reports/analytics/frequent-locations", h.frequentLocations)
	public.GET("/community-reports/:id", h.getReport)
	authed.POST("/community-reports", h.withPrincipal(h.createReport))
	admin.PUT("/community-reports/:id", h.updateReport)
	admin.DELETE("/community-reports/:id", h.deleteReport)

	if h.floods != nil {
		public.GET("/floods/geojson", h.floodsGeoJSON)
	}
	for _, res := range h.resources {
		res.register(public, admin)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// withPrincipal hands the authenticated caller to fn. Routes using it must
// sit behind RequireAuth.
func (h *Handler) withPrincipal(fn func(c *gin.Context, p *auth.Principal)) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := auth.PrincipalFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		fn(c, p)
	}
}

// currentAccount reloads the caller's account so role changes and deletions
// take effect before the token expires.
func (h *Handler) currentAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := auth.PrincipalFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		u, err := h.users.GetUser(c.Request.Context(), p.UserID)
		if errors.Is(err, repository.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "account no longer exists"})
			return
		}
		if err != nil {
			slog.Error("error loading account", "user_id", p.UserID, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load account"})
			return
		}

		p.Email = u.Email
		p.Role = u.Role
		c.Next()
	}
}

func (h *Handler) publish(ctx context.Context, eventType string, payload any) {
	if err := h.publisher.Publish(ctx, events.New(eventType, payload)); err != nil {
		slog.Warn("error publishing event", "type", eventType, "error", err)
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// pagination reads limit and offset; bad values fall back to the defaults.
func pagination(c *gin.Context) (limit, offset int) {
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		limit = l
	}
	if o, err := strconv.Atoi(c.Query("offset")); err == nil && o > 0 {
		offset = o
	}
	return limit, offset
}
