package services

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/pillars-backend/internal/data/repos"
	types "github.com/yungbote/pillars-backend/internal/domain"
	"github.com/yungbote/pillars-backend/internal/modules/coach/crisis"
	"github.com/yungbote/pillars-backend/internal/modules/coach/pillars"
	"github.com/yungbote/pillars-backend/internal/platform/dbctx"
)

var errStoreDown = errors.New("store down")

type failingProfiles struct {
	ProfileService
}

func (failingProfiles) Get(dbctx.Context, string) (*Profile, error) { return nil, errStoreDown }

type failingClassifier struct{}

func (failingClassifier) Classify(context.Context, string) (crisis.Classification, error) {
	return crisis.Classification{}, errStoreDown
}

// contendedMemoryRepo loses every compare-and-set, as if another writer
// always got there first.
type contendedMemoryRepo struct {
	repos.ConversationMemoryRepo
	listErr error
}

func (r contendedMemoryRepo) ListByUser(dbc dbctx.Context, userID string) ([]*types.ConversationMemory, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.ConversationMemoryRepo.ListByUser(dbc, userID)
}

func (contendedMemoryRepo) Insert(dbctx.Context, *types.ConversationMemory) (bool, error) {
	return false, nil
}

func (contendedMemoryRepo) UpdateVersioned(dbctx.Context, *types.ConversationMemory, int64) (bool, error) {
	return false, nil
}

func TestChatProfileFailureStillTriages(t *testing.T) {
	cases := []struct {
		name       string
		message    string
		pillar     string
		wantCrisis bool
	}{
		{"crisis_no_pillar", "I want to kill myself", "", true},
		{"crisis_explicit_pillar", "I want to kill myself", "sleep", true},
		{"plain_no_pillar", "help me budget", "", false},
		{"plain_explicit_pillar", "help me budget", "finances", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, harnessOpts{
				wrapProfiles: func(p ProfileService) ProfileService { return failingProfiles{p} },
			})
			req := ChatRequest{UserID: "u1", Message: tc.message}
			if tc.pillar != "" {
				req.Context = &ChatContext{Pillar: tc.pillar}
			}
			resp, err := h.chat.Chat(context.Background(), req)
			if err != nil {
				t.Fatalf("Chat: want response got err=%v", err)
			}
			if h.classifier.Calls() != 1 {
				t.Fatalf("classifier calls: want=1 got=%d", h.classifier.Calls())
			}
			if resp.IsCrisis != tc.wantCrisis {
				t.Fatalf("isCrisis: want=%v got=%v", tc.wantCrisis, resp.IsCrisis)
			}
			if tc.wantCrisis {
				if len(resp.Resources) == 0 {
					t.Fatalf("resources: want some")
				}
				return
			}
			if !resp.Unavailable || resp.Reply != UnavailableReply {
				t.Fatalf("want unavailable reply got=%+v", resp)
			}
			if tc.pillar == "" && resp.Routing != nil {
				t.Fatalf("routing: want none got=%+v", resp.Routing)
			}
			if tc.pillar != "" && (resp.Routing == nil || resp.Routing.Pillar != pillars.Finances) {
				t.Fatalf("routing: want=finances got=%+v", resp.Routing)
			}
			for _, table := range []string{"item", "chat_turn", "conversation_memory", "points_ledger"} {
				if n := h.count(t, table); n != 0 {
					t.Fatalf("%s rows: want=0 got=%d", table, n)
				}
			}
		})
	}
}

func TestChatPreloadFailureIsUnavailable(t *testing.T) {
	h := newHarness(t, harnessOpts{
		wrapMemoryRepo: func(r repos.ConversationMemoryRepo) repos.ConversationMemoryRepo {
			return contendedMemoryRepo{ConversationMemoryRepo: r, listErr: errStoreDown}
		},
	})
	resp, err := h.chat.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "help me budget"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if !resp.Unavailable || resp.IsCrisis {
		t.Fatalf("want unavailable got=%+v", resp)
	}
	if n := h.count(t, "chat_turn"); n != 0 {
		t.Fatalf("turn rows: want=0 got=%d", n)
	}
}

func TestChatClassifierFailureProceedsAtModerate(t *testing.T) {
	h := newHarness(t, harnessOpts{classifier: failingClassifier{}})
	resp, err := h.chat.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "I'm drowning in $28k credit card debt"})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.IsCrisis || resp.Unavailable {
		t.Fatalf("want normal reply got crisis=%v unavailable=%v", resp.IsCrisis, resp.Unavailable)
	}
	if resp.Severity != crisis.SeverityModerate {
		t.Fatalf("severity: want=moderate got=%q", resp.Severity)
	}
	if resp.Notice == "" || len(resp.Resources) == 0 {
		t.Fatalf("notice/resources missing: notice=%q resources=%d", resp.Notice, len(resp.Resources))
	}
	if len(resp.ItemsCreated) == 0 {
		t.Fatalf("items: want at least one")
	}
	var audits int64
	h.db.Table("crisis_audit").Where("classifier_failed = ?", true).Count(&audits)
	if audits != 1 {
		t.Fatalf("classifier failure audits: want=1 got=%d", audits)
	}
}

func TestChatMemoryConflictBecomesWarning(t *testing.T) {
	h := newHarness(t, harnessOpts{
		wrapMemoryRepo: func(r repos.ConversationMemoryRepo) repos.ConversationMemoryRepo {
			return contendedMemoryRepo{ConversationMemoryRepo: r}
		},
	})
	resp, err := h.chat.Chat(context.Background(), ChatRequest{UserID: "u1", Message: "help me budget", Context: &ChatContext{Pillar: "finances"}})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Reply == "" || resp.Unavailable {
		t.Fatalf("want a reply got=%+v", resp)
	}
	found := false
	for _, w := range resp.Warnings {
		if w == WarningMemoryStale {
			found = true
		}
	}
	if !found {
		t.Fatalf("warnings: want %q got=%v", WarningMemoryStale, resp.Warnings)
	}
	if n := h.count(t, "chat_turn"); n != 1 {
		t.Fatalf("turn rows: want=1 got=%d", n)
	}
	if n := h.count(t, "conversation_memory"); n != 0 {
		t.Fatalf("memory rows: want=0 got=%d", n)
	}
}
