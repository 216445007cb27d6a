package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mr1hm/go-flood-alerts/internal/events"
	"github.com/mr1hm/go-flood-alerts/internal/models"
	"github.com/mr1hm/go-flood-alerts/internal/repository"
)

var ErrNoActiveAlert = errors.New("no active alert")

type alertSource interface {
	LatestActiveAlert(ctx context.Context, location string) (*models.Alert, error)
}

type recipientSource interface {
	ListForDispatch(ctx context.Context, location string, method models.SubscriptionMethod) ([]models.Subscription, error)
}

type alertLedger interface {
	AppendAlertLog(ctx context.Context, entry *models.AlertLog) error
}

type RecipientResult struct {
	SubscriptionID uint                  `json:"subscription_id"`
	Contact        string                `json:"contact"`
	Status         models.DispatchStatus `json:"status"`
	Error          string                `json:"error,omitempty"`
}

type DispatchReport struct {
	AlertID  uint                      `json:"alert_id"`
	Location string                    `json:"location"`
	Method   models.SubscriptionMethod `json:"method"`
	Sent     int                       `json:"sent"`
	Failed   int                       `json:"failed"`
	Results  []RecipientResult         `json:"results"`
}

// Dispatcher sends the latest active alert for a location to its
// subscribers, one at a time, and records every attempt.
type Dispatcher struct {
	alerts    alertSource
	subs      recipientSource
	logs      alertLedger
	mailer    Mailer
	sms       SMSSender
	publisher events.Publisher
	now       func() time.Time
}

func NewDispatcher(alerts alertSource, subs recipientSource, logs alertLedger, mailer Mailer, sms SMSSender, publisher events.Publisher) *Dispatcher {
	if mailer == nil {
		mailer = LogMailer{}
	}
	if sms == nil {
		sms = LogSMS{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Dispatcher{
		alerts:    alerts,
		subs:      subs,
		logs:      logs,
		mailer:    mailer,
		sms:       sms,
		publisher: publisher,
		now:       time.Now,
	}
}

// Dispatch is at-most-once per recipient. A failed send or ledger write is
// recorded in the report and never stops the batch. The send loop ignores
// cancellation of ctx so a dropped client cannot cut a fanout short.
func (d *Dispatcher) Dispatch(ctx context.Context, location string, method models.SubscriptionMethod) (*DispatchReport, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: unknown method %q", repository.ErrInvalid, method)
	}

	alert, err := d.alerts.LatestActiveAlert(ctx, location)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoActiveAlert
	}
	if err != nil {
		return nil, fmt.Errorf("error loading alert for %s: %w", location, err)
	}

	recipients, err := d.subs.ListForDispatch(ctx, location, method)
	if err != nil {
		return nil, fmt.Errorf("error loading subscribers for %s: %w", location, err)
	}

	ctx = context.WithoutCancel(ctx)
	text := render(alert)
	report := &DispatchReport{
		AlertID:  alert.ID,
		Location: location,
		Method:   method,
		Results:  make([]RecipientResult, 0, len(recipients)),
	}

	for i := range recipients {
		sub := &recipients[i]
		sendErr := d.send(ctx, alert, sub, text)

		entry := models.NewAlertLog(alert, sub, text, d.now(), sendErr)
		if err := d.logs.AppendAlertLog(ctx, entry); err != nil {
			slog.Error("error recording alert log", "alert_id", alert.ID, "subscription_id", sub.ID, "error", err)
		}

		result := RecipientResult{SubscriptionID: sub.ID, Contact: sub.Contact, Status: entry.Status, Error: entry.Error}
		if sendErr != nil {
			report.Failed++
			slog.Warn("alert delivery failed", "alert_id", alert.ID, "method", method, "contact", sub.Contact, "error", sendErr)
		} else {
			report.Sent++
		}
		report.Results = append(report.Results, result)
	}

	slog.Info("dispatch complete", "alert_id", alert.ID, "location", location, "method", method,
		"sent", report.Sent, "failed", report.Failed)

	if err := d.publisher.Publish(ctx, events.New(events.DispatchCompleted, report)); err != nil {
		slog.Warn("error publishing dispatch event", "alert_id", alert.ID, "error", err)
	}
	return report, nil
}

func (d *Dispatcher) send(ctx context.Context, a *models.Alert, sub *models.Subscription, text string) error {
	switch sub.Method {
	case models.MethodEmail:
		return d.mailer.Send(ctx, Mail{To: sub.Contact, Subject: subject(a), Text: text})
	case models.MethodSMS:
		return d.sms.Send(ctx, SMS{To: sub.Contact, Message: text})
	default:
		return fmt.Errorf("unsupported method %q", sub.Method)
	}
}
