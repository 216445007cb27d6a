package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-flood-alerts/internal/events"
	"github.com/mr1hm/go-flood-alerts/internal/models"
)

type subscriptionRequest struct {
	Method    models.SubscriptionMethod `json:"method" binding:"required"`
	Contact   string                    `json:"contact" binding:"required"`
	Locations []string                  `json:"locations" binding:"required,min=1"`
}

type unsubscribeRequest struct {
	Method  models.SubscriptionMethod `json:"method" binding:"required"`
	Contact string                    `json:"contact" binding:"required"`
}

type dispatchRequest struct {
	Location string `json:"location" binding:"required"`
}

func (h *Handler) subscribe(c *gin.Context) {
	var req subscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	sub, err := h.subs.Subscribe(c.Request.Context(), req.Method, req.Contact, req.Locations)
	if err != nil {
		respondError(c, err, "failed to subscribe")
		return
	}

	h.publish(c.Request.Context(), events.SubscriptionCreated, sub)
	c.JSON(http.StatusCreated, sub)
}

func (h *Handler) unsubscribe(c *gin.Context) {
	var req unsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.subs.Unsubscribe(c.Request.Context(), req.Method, req.Contact); err != nil {
		respondError(c, err, "failed to unsubscribe")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unsubscribed"})
}

func (h *Handler) listSubscriptions(c *gin.Context) {
	subs, err := h.subs.ListSubscriptions(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch subscriptions")
		return
	}
	c.JSON(http.StatusOK, subs)
}

func (h *Handler) subscriptionsByLocation(c *gin.Context) {
	grouped, err := h.subs.ListByLocation(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to fetch subscriptions")
		return
	}
	c.JSON(http.StatusOK, grouped)
}

func (h *Handler) getSubscription(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	sub, err := h.subs.GetSubscription(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to fetch subscription")
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *Handler) updateSubscription(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req subscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	sub, err := h.subs.UpdateSubscription(c.Request.Context(), id, req.Method, req.Contact, req.Locations)
	if err != nil {
		respondError(c, err, "failed to update subscription")
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *Handler) deleteSubscription(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.subs.DeleteSubscription(c.Request.Context(), id); err != nil {
		respondError(c, err, "failed to delete subscription")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) subscriptionLocationCounts(c *gin.Context) {
	counts, err := h.subs.SubscriptionsByLocation(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to count subscriptions")
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *Handler) subscriptionMethodCounts(c *gin.Context) {
	counts, err := h.subs.SubscriptionMethodCounts(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to count subscriptions")
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *Handler) sendEmailAlerts(c *gin.Context) {
	h.dispatch(c, models.MethodEmail)
}

func (h *Handler) sendSMSAlerts(c *gin.Context) {
	h.dispatch(c, models.MethodSMS)
}

func (h *Handler) dispatch(c *gin.Context, method models.SubscriptionMethod) {
	var req dispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	location := strings.TrimSpace(req.Location)
	if location == "" {
		badRequest(c, "location is required")
		return
	}

	report, err := h.dispatcher.Dispatch(c.Request.Context(), location, method)
	if err != nil {
		respondError(c, err, "failed to send alerts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "alerts sent",
		"report":  report,
	})
}
