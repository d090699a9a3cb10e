package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

func TestGenerateTextExtractsAssistantOutput(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/v1/responses" {
			t.Errorf("path: want=/v1/responses got=%s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer header")
		}
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		var req responsesRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if len(req.Input) != 2 || req.Input[0].Role != "system" {
			t.Errorf("unexpected input: %+v", req.Input)
		}
		_, _ = w.Write([]byte(`{"output":[{"type":"message","role":"assistant","content":[{"type":"output_text","text":"hello "},{"type":"output_text","text":"there"}]}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(logger.Nop(), Options{APIKey: "test-key", BaseURL: srv.URL, MaxRetries: 1})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	got, err := c.GenerateText(context.Background(), "sys", "user")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if got != "hello there" {
		t.Fatalf("GenerateText: want=%q got=%q", "hello there", got)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("calls: want=2 got=%d", calls)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(logger.Nop(), Options{}); err == nil {
		t.Fatalf("NewClient: expected error without api key")
	}
}

func TestGenerateTextNonRetryableFailsFast(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c, _ := NewClient(logger.Nop(), Options{APIKey: "k", BaseURL: srv.URL, MaxRetries: 3})
	if _, err := c.GenerateText(context.Background(), "s", "u"); err == nil {
		t.Fatalf("GenerateText: expected error")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("calls: want=1 got=%d", calls)
	}
}
