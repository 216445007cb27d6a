package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-flood-alerts/internal/auth"
	"github.com/mr1hm/go-flood-alerts/internal/config"
	"github.com/mr1hm/go-flood-alerts/internal/models"
	"github.com/mr1hm/go-flood-alerts/internal/notify"
	"github.com/mr1hm/go-flood-alerts/internal/repository"
	"github.com/mr1hm/go-flood-alerts/internal/stream"
)

// recordingMailer captures outgoing mail instead of sending it
type recordingMailer struct {
	mu   sync.Mutex
	sent []notify.Mail
}

func (m *recordingMailer) Send(ctx context.Context, mail notify.Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, mail)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type testEnv struct {
	router        *gin.Engine
	store         *repository.Store
	floods        *repository.Table[models.Flood]
	mailer        *recordingMailer
	uploadDir     string
	adminToken    string
	reporterToken string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	store, err := repository.Open(config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(dir, "floodwatch.db")})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	sessions := auth.NewSessions("test-secret-that-is-long-enough-for-hs256", time.Hour, nil)
	mailer := &recordingMailer{}
	broadcaster := stream.NewBroadcaster()
	t.Cleanup(broadcaster.Close)

	floods := repository.NewFloodTable(store)
	env := &testEnv{
		store:     store,
		floods:    floods,
		mailer:    mailer,
		uploadDir: filepath.Join(dir, "uploads"),
	}

	handler := NewHandler(Deps{
		Alerts:        store,
		Subscriptions: store,
		AlertLogs:     store,
		Users:         store,
		Reports:       store,
		Floods:        floods,
		Resources: []ResourceRoutes{
			TableRoutes("locations", repository.NewTable[models.Location](store, "locations")),
		},
		Sessions:    sessions,
		Dispatcher:  notify.NewDispatcher(store, store, store, mailer, nil, nil),
		Broadcaster: broadcaster,
		Uploads:     UploadConfig{Dir: env.uploadDir, MaxBytes: 1 << 20},
	})

	router := gin.New()
	handler.RegisterRoutes(router)
	env.router = router

	env.adminToken = env.createUser(t, sessions, "admin@example.org", models.RoleAdmin)
	env.reporterToken = env.createUser(t, sessions, "reporter@example.org", models.RoleReporter)
	return env
}

func (e *testEnv) createUser(t *testing.T, sessions *auth.Sessions, email string, role models.Role) string {
	t.Helper()
	hash, err := auth.HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	u := &models.User{Name: string(role), Email: email, PasswordHash: hash, Role: role}
	if err := e.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	token, _, err := sessions.Issue(u)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	return token
}

// do sends body as JSON with an optional bearer token.
func (e *testEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response %q: %v", w.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do("GET", "/health", nil, "")
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	decode(t, w, &resp)
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %s", resp["status"])
	}
}

func TestFloodsGeoJSON(t *testing.T) {
	env := setupTestEnv(t)

	err := env.floods.Create(context.Background(), &models.Flood{
		Title:     "Flood in Kenya",
		Location:  "Kenya",
		Severity:  "orange",
		Latitude:  0.43,
		Longitude: 34.2,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	w := env.do("GET", "/api/floods/geojson", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("expected content-type application/geo+json, got %s", ct)
	}

	var fc FeatureCollection
	decode(t, w, &fc)
	if fc.Type != "FeatureCollection" {
		t.Errorf("expected type FeatureCollection, got %s", fc.Type)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(fc.Features))
	}
	coords := fc.Features[0].Geometry.Coordinates
	if coords[0] != 34.2 || coords[1] != 0.43 {
		t.Errorf("expected [lon, lat] = [34.2, 0.43], got %v", coords)
	}
	if fc.Features[0].Properties["source"] != "manual" {
		t.Errorf("expected manual source, got %v", fc.Features[0].Properties["source"])
	}
}

func TestResourceRoutes(t *testing.T) {
	env := setupTestEnv(t)

	loc := map[string]any{"id": 42, "name": "Bumadeya", "latitude": 0.1, "longitude": 34.0, "risk_level": "High"}

	if w := env.do("POST", "/api/locations", loc, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}
	if w := env.do("POST", "/api/locations", loc, env.reporterToken); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for reporter, got %d", w.Code)
	}

	w := env.do("POST", "/api/locations", loc, env.adminToken)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created models.Location
	decode(t, w, &created)
	if created.ID == 0 || created.ID == 42 {
		t.Errorf("expected a database-assigned id, got %d", created.ID)
	}

	bad := map[string]any{"name": "Nowhere", "risk_level": "Extreme"}
	if w := env.do("POST", "/api/locations", bad, env.adminToken); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid risk level, got %d", w.Code)
	}

	w = env.do("GET", "/api/locations", nil, "")
	var list []models.Location
	decode(t, w, &list)
	if len(list) != 1 {
		t.Errorf("expected 1 location, got %d", len(list))
	}

	path := "/api/locations/" + itoa(created.ID)
	loc["name"] = "Bumadeya Village"
	w = env.do("PUT", path, loc, env.adminToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated models.Location
	decode(t, w, &updated)
	if updated.Name != "Bumadeya Village" || updated.ID != created.ID {
		t.Errorf("update not applied: %+v", updated)
	}

	if w := env.do("DELETE", path, nil, env.adminToken); w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	if w := env.do("GET", path, nil, ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
	if w := env.do("GET", "/api/locations/abc", nil, ""); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad id, got %d", w.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimitMiddleware(2))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	send := func(addr string) int {
		req := httptest.NewRequest("GET", "/ping", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}
	if code := send("10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Errorf("expected 429 once burst is spent, got %d", code)
	}
	// other clients have their own budget
	if code := send("10.0.0.2:1234"); code != http.StatusOK {
		t.Errorf("expected 200 for another client, got %d", code)
	}
}

func TestRequestLogger_RequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestLogger())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(requestIDKey))
	})

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get(requestIDHeader); got != "abc-123" {
		t.Errorf("expected caller request id to be echoed, got %q", got)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
	if got := w.Header().Get(requestIDHeader); len(got) != 36 || w.Body.String() != got {
		t.Errorf("expected generated uuid request id, got %q", got)
	}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
