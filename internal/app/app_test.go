package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		ServiceName:       "pillars-test",
		Environment:       "test",
		DBDriver:          DriverSQLite,
		SQLitePath:        filepath.Join(t.TempDir(), "pillars.db"),
		AutoMigrate:       true,
		GenerationTimeout: 5 * time.Second,
		MaxMessageChars:   4000,
		MemoryHistoryCap:  20,
		StreakLocation:    time.UTC,
		InitialFreezes:    2,
		MetricsEnabled:    true,
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	a, err := NewWithConfig(context.Background(), logger.Nop(), testConfig(t))
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func call(t *testing.T, a *App, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	out := map[string]any{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return rec.Code, out
}

func TestChatEndpointDebtMessageCreatesFinanceItems(t *testing.T) {
	a := newTestApp(t)

	status, body := call(t, a, http.MethodPost, "/chat", map[string]any{
		"userId":  "u1",
		"message": "I'm drowning in $28k credit card debt",
	})
	if status != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%v", status, body)
	}
	if body["ok"] != true || body["isCrisis"] != false {
		t.Fatalf("flags: ok=%v isCrisis=%v", body["ok"], body["isCrisis"])
	}
	if reply, _ := body["reply"].(string); strings.TrimSpace(reply) == "" {
		t.Fatalf("reply: want non-empty")
	}
	routing := body["routing"].(map[string]any)
	if routing["pillar"] != "finances" {
		t.Fatalf("routing pillar: want=finances got=%v", routing["pillar"])
	}
	items := body["itemsCreated"].([]any)
	if len(items) == 0 {
		t.Fatalf("itemsCreated: want at least one")
	}
	for _, raw := range items {
		if p := raw.(map[string]any)["pillar"]; p != "finances" {
			t.Fatalf("item pillar: want=finances got=%v", p)
		}
	}
}

func TestChatEndpointCrisisShortCircuits(t *testing.T) {
	a := newTestApp(t)

	status, body := call(t, a, http.MethodPost, "/api/chat", map[string]any{
		"userId":  "u1",
		"message": "I want to hurt myself",
	})
	if status != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", status)
	}
	if body["isCrisis"] != true {
		t.Fatalf("isCrisis: want=true got=%v", body["isCrisis"])
	}
	if sev := body["severity"]; sev != "high" && sev != "critical" {
		t.Fatalf("severity: want high|critical got=%v", sev)
	}
	if res, _ := body["resources"].([]any); len(res) == 0 {
		t.Fatalf("resources: want non-empty")
	}
	if items := body["itemsCreated"].([]any); len(items) != 0 {
		t.Fatalf("itemsCreated: want none got=%d", len(items))
	}
	var n int64
	if err := a.DB.Table("item").Count(&n).Error; err != nil || n != 0 {
		t.Fatalf("item rows: want=0 got=%d err=%v", n, err)
	}
}

func TestChatEndpointValidation(t *testing.T) {
	a := newTestApp(t)

	cases := []struct {
		body   map[string]any
		reason string
	}{
		{map[string]any{"message": "hello"}, "missing_userId"},
		{map[string]any{"userId": "u1", "message": "   "}, "missing_message"},
	}
	for _, tc := range cases {
		status, body := call(t, a, http.MethodPost, "/chat", tc.body)
		if status != http.StatusBadRequest {
			t.Fatalf("status: want=400 got=%d", status)
		}
		if body["ok"] != false || body["error"] != true || body["reason"] != tc.reason {
			t.Fatalf("envelope: want reason=%s got=%v", tc.reason, body)
		}
	}
}

func TestGamificationEndpointsAfterTurn(t *testing.T) {
	a := newTestApp(t)

	if status, _ := call(t, a, http.MethodPost, "/chat", map[string]any{
		"userId": "u2", "message": "I can't fall asleep at night",
	}); status != http.StatusOK {
		t.Fatalf("chat status: want=200 got=%d", status)
	}

	status, body := call(t, a, http.MethodGet, "/api/users/u2/gamification", nil)
	if status != http.StatusOK {
		t.Fatalf("summary status: want=200 got=%d", status)
	}
	sum := body["gamification"].(map[string]any)
	if sum["currentStreak"].(float64) != 1 {
		t.Fatalf("currentStreak: want=1 got=%v", sum["currentStreak"])
	}
	if sum["points"].(float64) <= 0 {
		t.Fatalf("points: want > 0 got=%v", sum["points"])
	}

	status, body = call(t, a, http.MethodGet, "/api/users/u2/quests/today", nil)
	if status != http.StatusOK || len(body["quests"].([]any)) != 3 {
		t.Fatalf("quests: status=%d body=%v", status, body)
	}

	status, body = call(t, a, http.MethodGet, "/api/users/u2/memory", nil)
	if status != http.StatusOK {
		t.Fatalf("memory status: want=200 got=%d", status)
	}
	mem := body["memory"].(map[string]any)
	if mem["activePillar"] != "sleep" {
		t.Fatalf("activePillar: want=sleep got=%v", mem["activePillar"])
	}

	status, body = call(t, a, http.MethodDelete, "/api/users/u2/memory/sleep", nil)
	if status != http.StatusOK || body["deleted"] != true {
		t.Fatalf("reset: status=%d body=%v", status, body)
	}
}

func TestMetricsAndHealth(t *testing.T) {
	a := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthcheck: want=200 got=%d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec = httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "pillars_http_inflight_requests") {
		t.Fatalf("metrics: status=%d", rec.Code)
	}
}
