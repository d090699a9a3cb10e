package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/pillars-backend/internal/domain"
	"github.com/yungbote/pillars-backend/internal/modules/coach/personas"
	"github.com/yungbote/pillars-backend/internal/modules/coach/pillars"
	"github.com/yungbote/pillars-backend/internal/platform/apierr"
	"github.com/yungbote/pillars-backend/internal/services"
)

type fakeChat struct {
	calls int
	last  services.ChatRequest
	resp  *services.ChatResponse
	err   error
}

func (f *fakeChat) Chat(ctx context.Context, req services.ChatRequest) (*services.ChatResponse, error) {
	f.calls++
	f.last = req
	return f.resp, f.err
}

type fakeMemory struct {
	resetUser   string
	resetPillar string
}

func (f *fakeMemory) View(ctx context.Context, userID string) (*services.MemoryView, error) {
	return &services.MemoryView{UserID: userID, Pillars: []services.MemorySummary{}}, nil
}

func (f *fakeMemory) Reset(ctx context.Context, userID, pillar string) (bool, error) {
	if _, ok := pillars.Parse(pillar); !ok {
		return false, apierr.BadRequest(services.ReasonInvalidPillar, fmt.Errorf("%w: %s", services.ErrValidation, pillar))
	}
	f.resetUser, f.resetPillar = userID, pillar
	return true, nil
}

func do(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	out := map[string]any{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode body: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, out
}

func TestChatHandlerErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantReason string
		wantCalls  int
	}{
		{
			name:       "missing user",
			body:       `{"message":"hi"}`,
			err:        apierr.BadRequest(services.ReasonMissingUserID, services.ErrValidation),
			wantStatus: http.StatusBadRequest,
			wantReason: services.ReasonMissingUserID,
			wantCalls:  1,
		},
		{
			name:       "locked pillar",
			body:       `{"userId":"u1","message":"hi","context":{"pillar":"finances"}}`,
			err:        apierr.Forbidden(services.ReasonLockedPillar, services.ErrEntitlement),
			wantStatus: http.StatusForbidden,
			wantReason: services.ReasonLockedPillar,
			wantCalls:  1,
		},
		{
			name:       "unexpected",
			body:       `{"userId":"u1","message":"hi"}`,
			err:        errors.New("db exploded"),
			wantStatus: http.StatusInternalServerError,
			wantReason: "internal",
			wantCalls:  1,
		},
		{
			name:       "malformed json",
			body:       `{"userId":`,
			wantStatus: http.StatusBadRequest,
			wantReason: "invalid_json",
			wantCalls:  0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fc := &fakeChat{err: tc.err}
			r := gin.New()
			r.POST("/chat", NewChatHandler(fc).Chat)

			rec, body := do(t, r, http.MethodPost, "/chat", tc.body)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status: want=%d got=%d", tc.wantStatus, rec.Code)
			}
			if body["ok"] != false || body["error"] != true {
				t.Fatalf("envelope flags: got ok=%v error=%v", body["ok"], body["error"])
			}
			if body["reason"] != tc.wantReason {
				t.Fatalf("reason: want=%s got=%v", tc.wantReason, body["reason"])
			}
			if fc.calls != tc.wantCalls {
				t.Fatalf("service calls: want=%d got=%d", tc.wantCalls, fc.calls)
			}
			if tc.wantStatus == http.StatusInternalServerError && strings.Contains(rec.Body.String(), "exploded") {
				t.Fatalf("internal error text leaked: %s", rec.Body.String())
			}
		})
	}
}

func TestChatHandlerSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fc := &fakeChat{resp: &services.ChatResponse{
		OK:           true,
		Reply:        "Penny here.",
		ItemsCreated: []*types.Item{},
		Routing:      &services.RoutingView{Pillar: pillars.Finances},
	}}
	r := gin.New()
	r.POST("/chat", NewChatHandler(fc).Chat)

	rec, body := do(t, r, http.MethodPost, "/chat", `{"userId":"u1","message":"debt help","context":{"skipCrisisCheck":true}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", rec.Code)
	}
	if fc.last.UserID != "u1" || fc.last.Context == nil || !fc.last.Context.SkipCrisisCheck {
		t.Fatalf("request not decoded: %+v", fc.last)
	}
	if body["ok"] != true || body["isCrisis"] != false {
		t.Fatalf("flags: got ok=%v isCrisis=%v", body["ok"], body["isCrisis"])
	}
	items, ok := body["itemsCreated"].([]any)
	if !ok || len(items) != 0 {
		t.Fatalf("itemsCreated: want empty array got=%v", body["itemsCreated"])
	}
	routing := body["routing"].(map[string]any)
	if routing["pillar"] != "finances" || routing["redirected"] != false {
		t.Fatalf("routing: got=%v", routing)
	}
}

func TestMemoryHandlerReset(t *testing.T) {
	gin.SetMode(gin.TestMode)
	fm := &fakeMemory{}
	h := NewMemoryHandler(fm)
	r := gin.New()
	r.DELETE("/api/users/:id/memory/:pillar", h.Reset)
	r.GET("/api/users/:id/memory", h.Get)

	rec, body := do(t, r, http.MethodDelete, "/api/users/u1/memory/sleep", "")
	if rec.Code != http.StatusOK || body["deleted"] != true {
		t.Fatalf("reset: status=%d body=%v", rec.Code, body)
	}
	if fm.resetUser != "u1" || fm.resetPillar != "sleep" {
		t.Fatalf("reset args: got user=%s pillar=%s", fm.resetUser, fm.resetPillar)
	}

	rec, body = do(t, r, http.MethodDelete, "/api/users/u1/memory/astrology", "")
	if rec.Code != http.StatusBadRequest || body["reason"] != services.ReasonInvalidPillar {
		t.Fatalf("bad pillar: status=%d body=%v", rec.Code, body)
	}

	rec, body = do(t, r, http.MethodGet, "/api/users/u1/memory", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("view: status=%d", rec.Code)
	}
	if mem := body["memory"].(map[string]any); mem["userId"] != "u1" {
		t.Fatalf("view userId: got=%v", mem["userId"])
	}
}

func TestPersonaHandlerListsRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := personas.MustDefault()
	r := gin.New()
	r.GET("/api/personas", NewPersonaHandler(reg).List)

	rec, body := do(t, r, http.MethodGet, "/api/personas", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", rec.Code)
	}
	list := body["personas"].([]any)
	if len(list) != len(reg.All()) {
		t.Fatalf("personas: want=%d got=%d", len(reg.All()), len(list))
	}
	seen := map[string]bool{}
	for _, raw := range list {
		p := raw.(map[string]any)
		if pl, ok := p["pillar"].(string); ok {
			seen[pl] = true
		}
	}
	for _, p := range pillars.All {
		if !seen[string(p)] {
			t.Fatalf("pillar %s has no persona in listing", p)
		}
	}
}

func TestHealthAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/healthcheck", NewHealthHandler().HealthCheck)
	r.GET("/metrics", NewMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pillars_up 1\n"))
	})).Serve)

	rec, _ := do(t, r, http.MethodGet, "/healthcheck", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: status=%d body=%q", rec.Code, rec.Body.String())
	}
	rec, _ = do(t, r, http.MethodGet, "/metrics", "")
	if !strings.Contains(rec.Body.String(), "pillars_up 1") {
		t.Fatalf("metrics body: got=%q", rec.Body.String())
	}
}
