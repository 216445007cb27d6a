package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/mr1hm/go-flood-alerts/internal/events"
	"github.com/mr1hm/go-flood-alerts/internal/models"
	"github.com/mr1hm/go-flood-alerts/internal/repository"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeAlerts struct {
	alert *models.Alert
}

func (f *fakeAlerts) LatestActiveAlert(ctx context.Context, location string) (*models.Alert, error) {
	if f.alert == nil || f.alert.Location != location {
		return nil, repository.ErrNotFound
	}
	return f.alert, nil
}

type fakeSubs struct {
	subs []models.Subscription
}

func (f *fakeSubs) ListForDispatch(ctx context.Context, location string, method models.SubscriptionMethod) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, s := range f.subs {
		if s.Method == method && s.Covers(location) {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeLedger struct {
	mu      sync.Mutex
	entries []*models.AlertLog
	fail    bool
}

func (f *fakeLedger) AppendAlertLog(ctx context.Context, entry *models.AlertLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("disk full")
	}
	f.entries = append(f.entries, entry)
	return nil
}

type fakeMailer struct {
	sent    []Mail
	failFor string
}

func (f *fakeMailer) Send(ctx context.Context, m Mail) error {
	if m.To == f.failFor {
		return errors.New("mailbox unavailable")
	}
	f.sent = append(f.sent, m)
	return nil
}

type fakeSMS struct {
	sent   []SMS
	ctxErr error
}

func (f *fakeSMS) Send(ctx context.Context, m SMS) error {
	f.ctxErr = ctx.Err()
	f.sent = append(f.sent, m)
	return nil
}

type countingPublisher struct {
	events []events.Event
}

func (p *countingPublisher) Publish(ctx context.Context, ev events.Event) error {
	p.events = append(p.events, ev)
	return nil
}

func (p *countingPublisher) Close() error { return nil }

func bumadeyaAlert() *models.Alert {
	return &models.Alert{
		ID:                    3,
		AlertType:             models.AlertTypeRiverFlood,
		Severity:              models.AlertSeverityHigh,
		Location:              "Bumadeya",
		WaterLevels:           models.WaterLevels{Current: "3.2m", Predicted: "4.1m"},
		EvacuationRoutes:      []string{"Busia road"},
		EmergencyContacts:     []string{"+254711000111"},
		PrecautionaryMeasures: []string{"Move to higher ground"},
		WeatherForecast:       models.WeatherForecast{Next24Hours: "Heavy rain", Next48Hours: "Showers"},
		Status:                models.AlertStatusActive,
	}
}

func TestDispatch_NoActiveAlert(t *testing.T) {
	mailer := &fakeMailer{}
	ledger := &fakeLedger{}
	subs := &fakeSubs{subs: []models.Subscription{
		{ID: 1, Method: models.MethodEmail, Contact: "a@example.org", Locations: []string{"Bumadeya"}},
	}}
	d := NewDispatcher(&fakeAlerts{}, subs, ledger, mailer, nil, nil)

	_, err := d.Dispatch(context.Background(), "Bumadeya", models.MethodEmail)
	if !errors.Is(err, ErrNoActiveAlert) {
		t.Fatalf("expected ErrNoActiveAlert, got %v", err)
	}
	if len(mailer.sent) != 0 || len(ledger.entries) != 0 {
		t.Errorf("expected nothing sent or logged, got %d sent %d logs", len(mailer.sent), len(ledger.entries))
	}
}

func TestDispatch_PartialFailure(t *testing.T) {
	mailer := &fakeMailer{failFor: "b@example.org"}
	ledger := &fakeLedger{}
	pub := &countingPublisher{}
	subs := &fakeSubs{subs: []models.Subscription{
		{ID: 1, Method: models.MethodEmail, Contact: "a@example.org", Locations: []string{"Bumadeya"}},
		{ID: 2, Method: models.MethodEmail, Contact: "b@example.org", Locations: []string{"Musoma", "Bumadeya"}},
		{ID: 3, Method: models.MethodEmail, Contact: "c@example.org", Locations: []string{"Bumadeya"}},
		{ID: 4, Method: models.MethodEmail, Contact: "d@example.org", Locations: []string{"Musoma"}},
		{ID: 5, Method: models.MethodSMS, Contact: "+254700000000", Locations: []string{"Bumadeya"}},
	}}
	d := NewDispatcher(&fakeAlerts{alert: bumadeyaAlert()}, subs, ledger, mailer, nil, pub)

	report, err := d.Dispatch(context.Background(), "Bumadeya", models.MethodEmail)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if report.Sent != 2 || report.Failed != 1 || len(report.Results) != 3 {
		t.Errorf("unexpected report %+v", report)
	}
	if len(ledger.entries) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(ledger.entries))
	}

	statuses := map[string]models.DispatchStatus{}
	for _, e := range ledger.entries {
		statuses[e.Contact] = e.Status
		if e.AlertID != 3 || e.Location != "Bumadeya" {
			t.Errorf("log entry not tied to alert: %+v", e)
		}
	}
	if statuses["a@example.org"] != models.DispatchSuccess ||
		statuses["b@example.org"] != models.DispatchFailed ||
		statuses["c@example.org"] != models.DispatchSuccess {
		t.Errorf("unexpected statuses %v", statuses)
	}
	if report.Results[1].Error == "" {
		t.Error("expected failed recipient to carry an error")
	}

	if len(mailer.sent) != 2 || !strings.Contains(mailer.sent[0].Subject, "Bumadeya") {
		t.Errorf("unexpected mails %+v", mailer.sent)
	}
	if len(pub.events) != 1 || pub.events[0].Type != events.DispatchCompleted {
		t.Errorf("expected one dispatch.completed event, got %+v", pub.events)
	}
}

func TestDispatch_LedgerFailureDoesNotAbort(t *testing.T) {
	mailer := &fakeMailer{}
	subs := &fakeSubs{subs: []models.Subscription{
		{ID: 1, Method: models.MethodEmail, Contact: "a@example.org", Locations: []string{"Bumadeya"}},
		{ID: 2, Method: models.MethodEmail, Contact: "b@example.org", Locations: []string{"Bumadeya"}},
	}}
	d := NewDispatcher(&fakeAlerts{alert: bumadeyaAlert()}, subs, &fakeLedger{fail: true}, mailer, nil, nil)

	report, err := d.Dispatch(context.Background(), "Bumadeya", models.MethodEmail)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if report.Sent != 2 || len(mailer.sent) != 2 {
		t.Errorf("expected both recipients served, got %+v", report)
	}
}

func TestDispatch_SMSIgnoresCancellation(t *testing.T) {
	sms := &fakeSMS{}
	ledger := &fakeLedger{}
	subs := &fakeSubs{subs: []models.Subscription{
		{ID: 5, Method: models.MethodSMS, Contact: "+254700000000", Locations: []string{"Bumadeya"}},
	}}
	d := NewDispatcher(&fakeAlerts{alert: bumadeyaAlert()}, subs, ledger, nil, sms, nil)

	ctx, cancel := context.WithCancel(context.Background())
	report, err := d.Dispatch(ctx, "Bumadeya", models.MethodSMS)
	cancel()
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if report.Sent != 1 || len(sms.sent) != 1 {
		t.Fatalf("expected one sms, got %+v", report)
	}
	if !strings.Contains(sms.sent[0].Message, "predicted 4.1m") {
		t.Errorf("message missing alert fields: %q", sms.sent[0].Message)
	}
	if sms.ctxErr != nil {
		t.Errorf("send context should not be cancellable, got %v", sms.ctxErr)
	}
}

func TestDispatch_InvalidMethod(t *testing.T) {
	d := NewDispatcher(&fakeAlerts{alert: bumadeyaAlert()}, &fakeSubs{}, &fakeLedger{}, nil, nil, nil)
	if _, err := d.Dispatch(context.Background(), "Bumadeya", "fax"); !errors.Is(err, repository.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestRender(t *testing.T) {
	text := render(bumadeyaAlert())
	for _, want := range []string{"Bumadeya", "RiverFlood", "High", "3.2m", "4.1m", "Busia road", "+254711000111", "Move to higher ground", "Heavy rain", "Showers"} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered message missing %q:\n%s", want, text)
		}
	}
}
