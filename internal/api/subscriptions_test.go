package api

import (
	"net/http"
	"testing"

	"github.com/mr1hm/go-flood-alerts/internal/models"
	"github.com/mr1hm/go-flood-alerts/internal/notify"
	"github.com/mr1hm/go-flood-alerts/internal/repository"
)

func TestSubscribe_EndToEnd(t *testing.T) {
	env := setupTestEnv(t)

	body := map[string]any{
		"method":    "sms",
		"contact":   "+254700000000",
		"locations": []string{"Bumadeya"},
	}
	w := env.do("POST", "/api/subscriptions", body, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var sub models.Subscription
	decode(t, w, &sub)
	if sub.ID == 0 || sub.Method != models.MethodSMS {
		t.Errorf("unexpected subscription %+v", sub)
	}

	if w := env.do("POST", "/api/subscriptions", body, ""); w.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate, got %d", w.Code)
	}

	bad := map[string]any{"method": "fax", "contact": "x", "locations": []string{"Bumadeya"}}
	if w := env.do("POST", "/api/subscriptions", bad, ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown method, got %d", w.Code)
	}

	if w := env.do("GET", "/api/subscriptions/by-location", nil, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}
	if w := env.do("GET", "/api/subscriptions/by-location", nil, env.reporterToken); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for reporter, got %d", w.Code)
	}

	var grouped map[string][]models.Subscription
	decode(t, env.do("GET", "/api/subscriptions/by-location", nil, env.adminToken), &grouped)
	if len(grouped["Bumadeya"]) != 1 || grouped["Bumadeya"][0].Contact != "+254700000000" {
		t.Errorf("expected subscriber under Bumadeya, got %+v", grouped)
	}

	var methods []repository.LabelCount
	decode(t, env.do("GET", "/api/subscriptions/analytics/methods", nil, env.adminToken), &methods)
	if len(methods) != 1 || methods[0].Label != "sms" || methods[0].Count != 1 {
		t.Errorf("unexpected method counts %+v", methods)
	}

	unsub := map[string]any{"method": "sms", "contact": "+254700000000"}
	if w := env.do("POST", "/api/subscriptions/unsubscribe", unsub, ""); w.Code != http.StatusOK {
		t.Errorf("expected 200 unsubscribing, got %d", w.Code)
	}
	if w := env.do("POST", "/api/subscriptions/unsubscribe", unsub, ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 unsubscribing twice, got %d", w.Code)
	}
}

func TestSubscriptionAdminCRUD(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do("POST", "/api/subscriptions", map[string]any{
		"method": "email", "contact": "amina@example.org", "locations": []string{"Musoma"},
	}, "")
	var sub models.Subscription
	decode(t, w, &sub)
	path := "/api/subscriptions/" + itoa(sub.ID)

	w = env.do("PUT", path, map[string]any{
		"method": "email", "contact": "amina@example.org", "locations": []string{"Musoma", "Budalangi"},
	}, env.adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated models.Subscription
	decode(t, w, &updated)
	if len(updated.Locations) != 2 {
		t.Errorf("expected 2 locations, got %v", updated.Locations)
	}

	if w := env.do("DELETE", path, nil, env.adminToken); w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	if w := env.do("GET", path, nil, env.adminToken); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
}

func TestSendEmailAlerts(t *testing.T) {
	env := setupTestEnv(t)
	req := map[string]string{"location": "Bumadeya"}

	w := env.do("POST", "/api/subscriptions/send-email", req, env.adminToken)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without an active alert, got %d", w.Code)
	}
	var errResp map[string]string
	decode(t, w, &errResp)
	if errResp["error"] != notify.ErrNoActiveAlert.Error() {
		t.Errorf("unexpected error %q", errResp["error"])
	}

	for _, contact := range []string{"a@example.org", "b@example.org"} {
		env.do("POST", "/api/subscriptions", map[string]any{
			"method": "email", "contact": contact, "locations": []string{"Bumadeya"},
		}, "")
	}
	env.do("POST", "/api/subscriptions", map[string]any{
		"method": "email", "contact": "c@example.org", "locations": []string{"Musoma"},
	}, "")
	a := env.createAlert(t, "Bumadeya")

	if w := env.do("POST", "/api/subscriptions/send-email", req, env.reporterToken); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for reporter, got %d", w.Code)
	}

	w = env.do("POST", "/api/subscriptions/send-email", req, env.adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Message string                `json:"message"`
		Report  notify.DispatchReport `json:"report"`
	}
	decode(t, w, &resp)
	if resp.Message != "alerts sent" {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if resp.Report.AlertID != a.ID || resp.Report.Sent != 2 || resp.Report.Failed != 0 {
		t.Errorf("unexpected report %+v", resp.Report)
	}
	if env.mailer.count() != 2 {
		t.Errorf("expected 2 mails, got %d", env.mailer.count())
	}

	var logs []models.AlertLog
	decode(t, env.do("GET", "/api/alert-logs?location=Bumadeya", nil, env.adminToken), &logs)
	if len(logs) != 2 {
		t.Fatalf("expected 2 alert logs, got %d", len(logs))
	}
	if logs[0].AlertID != a.ID || logs[0].Status != models.DispatchSuccess {
		t.Errorf("unexpected log %+v", logs[0])
	}

	// no sms subscribers: the send succeeds with an empty report
	w = env.do("POST", "/api/send-sms", req, env.adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for sms, got %d", w.Code)
	}
	decode(t, w, &resp)
	if resp.Report.Sent != 0 || len(resp.Report.Results) != 0 {
		t.Errorf("expected empty sms report, got %+v", resp.Report)
	}

	if w := env.do("POST", "/api/send-sms", map[string]string{"location": " "}, env.adminToken); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank location, got %d", w.Code)
	}
}
