package executor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yungbote/pillars-backend/internal/modules/coach/memory"
	"github.com/yungbote/pillars-backend/internal/modules/coach/personas"
	"github.com/yungbote/pillars-backend/internal/modules/coach/pillars"
	"github.com/yungbote/pillars-backend/internal/modules/coach/routing"
)

type recordingGenerator struct {
	reply  string
	err    error
	prompt Prompt
	cons   Constraints
	calls  int
}

func (g *recordingGenerator) Generate(ctx context.Context, prompt Prompt, c Constraints) (string, error) {
	g.calls++
	g.prompt = prompt
	g.cons = c
	return g.reply, g.err
}

func contract(t *testing.T, p pillars.ID) personas.Contract {
	t.Helper()
	c, ok := personas.MustDefault().ForPillar(p)
	if !ok {
		t.Fatalf("no persona for %s", p)
	}
	return c
}

func TestExecuteFreshMemoryTeachesAndCreatesItems(t *testing.T) {
	ex := New(TemplateGenerator{}, 0, nil)
	sleep := contract(t, pillars.Sleep)
	res, err := ex.Execute(context.Background(), Input{
		Contract: sleep,
		Decision: routing.Decision{TargetPersonaID: sleep.ID, Pillar: pillars.Sleep, Source: routing.SourceInferred},
		Message:  "I have trouble sleeping and feel tired all day",
		Memory:   memory.ConversationMemory{Pillar: pillars.Sleep},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.HasPrefix(res.Reply, "Luna here.") {
		t.Fatalf("reply prefix: got=%q", res.Reply)
	}
	if strings.Contains(res.Reply, topicsMarkerOpen) {
		t.Fatalf("marker leaked into reply: %q", res.Reply)
	}
	if got := strings.Join(res.TopicsTaught, ","); got != "sleep_hygiene,consistent_schedule" {
		t.Fatalf("topics: want=sleep_hygiene,consistent_schedule got=%s", got)
	}
	keys := []string{}
	for _, it := range res.Items {
		if it.Pillar != pillars.Sleep {
			t.Fatalf("item %q pillar: want=sleep got=%s", it.Title, it.Pillar)
		}
		keys = append(keys, it.TemplateKey)
	}
	if got := strings.Join(keys, ","); got != "sleep_wind_down,sleep_fixed_wake" {
		t.Fatalf("items: want=sleep_wind_down,sleep_fixed_wake got=%s", got)
	}
}

func TestExecuteDoesNotReteachOrRecreate(t *testing.T) {
	gen := &recordingGenerator{reply: "Dim the screens early and try a short wind-down routine.\n[[topics: sleep_hygiene, wind_down]]"}
	ex := New(gen, 0, nil)
	sleep := contract(t, pillars.Sleep)
	mem := memory.ConversationMemory{
		Pillar:       pillars.Sleep,
		TopicsTaught: []string{"sleep_hygiene", "consistent_schedule"},
		ItemKeys:     []string{"sleep_wind_down"},
	}
	res, err := ex.Execute(context.Background(), Input{
		Contract:       sleep,
		Decision:       routing.Decision{TargetPersonaID: sleep.ID, Pillar: pillars.Sleep},
		Message:        "still tired, I cant sleep",
		Memory:         mem,
		ExistingTitles: []string{"fixed wake-up time for 14 days"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := strings.Join(gen.cons.AvoidTopics, ","); got != "sleep_hygiene,consistent_schedule" {
		t.Fatalf("avoid: got=%s", got)
	}
	for _, o := range gen.cons.Offer {
		if mem.HasTaught(o.Tag) {
			t.Fatalf("offered already taught topic %s", o.Tag)
		}
	}
	if !strings.Contains(gen.prompt.System, "do not teach again: sleep_hygiene, consistent_schedule") {
		t.Fatalf("prompt missing avoid list:\n%s", gen.prompt.System)
	}
	if got := strings.Join(res.TopicsTaught, ","); got != "wind_down" {
		t.Fatalf("topics: want=wind_down got=%s", got)
	}
	if len(res.Items) != 0 {
		t.Fatalf("items: want none got=%+v", res.Items)
	}
}

func TestExecuteHandoffSentences(t *testing.T) {
	tests := []struct {
		name     string
		pillar   pillars.ID
		decision routing.Decision
		prefix   string
		contains string
	}{
		{
			name:   "redirect",
			pillar: pillars.MentalHealth,
			decision: routing.Decision{
				Pillar:         pillars.MentalHealth,
				RedirectFrom:   pillars.Sleep,
				RedirectReason: "adhd sits outside sleep coaching",
			},
			prefix:   "I'm handing this over to your Mental Health coach: adhd sits outside sleep coaching.",
			contains: "coach-name",
		},
		{
			name:   "locked target",
			pillar: pillars.Sleep,
			decision: routing.Decision{
				Pillar:         pillars.Sleep,
				RedirectFrom:   pillars.Sleep,
				RedirectReason: "adhd sits outside sleep coaching",
				TargetLocked:   true,
				LockedTarget:   pillars.MentalHealth,
			},
			prefix:   "This part sounds like a job for a Mental Health coach",
			contains: "isn't included in your current plan",
		},
		{
			name:   "referral",
			pillar: pillars.Finances,
			decision: routing.Decision{
				Pillar:         pillars.Finances,
				RedirectReason: "taxes need a professional",
				Referral:       "a licensed tax professional or attorney",
			},
			prefix: "Before we go on, please talk to a licensed tax professional or attorney",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := contract(t, tt.pillar)
			if tt.contains == "coach-name" {
				tt.contains = c.Name + " here."
			}
			res, err := New(TemplateGenerator{}, 0, nil).Execute(context.Background(), Input{
				Contract: c,
				Decision: tt.decision,
				Message:  "hello",
			})
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if !strings.HasPrefix(res.Reply, tt.prefix) {
				t.Fatalf("prefix: want=%q got=%q", tt.prefix, res.Reply)
			}
			if tt.contains != "" && !strings.Contains(res.Reply, tt.contains) {
				t.Fatalf("reply missing %q: %q", tt.contains, res.Reply)
			}
		})
	}
}

func TestExecuteNoHandoffWithoutRedirect(t *testing.T) {
	if h := Handoff(routing.Decision{Pillar: pillars.Sleep}, pillars.Sleep); h != "" {
		t.Fatalf("handoff: want empty got=%q", h)
	}
}

func TestExecuteErrors(t *testing.T) {
	sleep := contract(t, pillars.Sleep)

	gen := &recordingGenerator{err: context.DeadlineExceeded}
	_, err := New(gen, 0, nil).Execute(context.Background(), Input{Contract: sleep, Message: "hi"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("generator error: want=%v got=%v", context.DeadlineExceeded, err)
	}

	gen = &recordingGenerator{reply: "  [[topics: ]]  "}
	_, err = New(gen, 0, nil).Execute(context.Background(), Input{Contract: sleep, Message: "hi"})
	if !errors.Is(err, ErrEmptyReply) {
		t.Fatalf("empty reply: want=%v got=%v", ErrEmptyReply, err)
	}

	planner, _ := personas.MustDefault().Get(personas.AdaptivePlannerID)
	gen = &recordingGenerator{reply: "ok"}
	_, err = New(gen, 0, nil).Execute(context.Background(), Input{Contract: planner, Message: "hi"})
	if !errors.Is(err, ErrNotPillar) {
		t.Fatalf("cross-cutting: want=%v got=%v", ErrNotPillar, err)
	}
	if gen.calls != 0 {
		t.Fatalf("generator calls: want=0 got=%d", gen.calls)
	}
}

func TestValidateItems(t *testing.T) {
	tests := []struct {
		name  string
		items []ItemDraft
		ok    bool
	}{
		{"empty", nil, true},
		{"tagged", []ItemDraft{{Pillar: pillars.Sleep, Kind: personas.ItemHabit, Title: "a"}}, true},
		{"untagged", []ItemDraft{{Kind: personas.ItemHabit, Title: "a"}}, false},
		{"other pillar", []ItemDraft{{Pillar: pillars.Diet, Kind: personas.ItemHabit, Title: "a"}}, false},
		{"bad kind", []ItemDraft{{Pillar: pillars.Sleep, Kind: "task", Title: "a"}}, false},
	}
	for _, tt := range tests {
		err := ValidateItems(pillars.Sleep, tt.items)
		if (err == nil) != tt.ok {
			t.Fatalf("%s: want ok=%v got=%v", tt.name, tt.ok, err)
		}
		if err != nil && !errors.Is(err, ErrUntaggedItem) {
			t.Fatalf("%s: want ErrUntaggedItem got=%v", tt.name, err)
		}
	}
}

func TestSplitTopicsMarker(t *testing.T) {
	tests := []struct {
		raw   string
		reply string
		tags  string
	}{
		{"plain reply", "plain reply", ""},
		{"text\n[[topics: a, b ]]", "text", "a,b"},
		{"text [[topics:]]", "text", ""},
		{"text [[topics: a", "text", ""},
	}
	for _, tt := range tests {
		reply, tags := splitTopicsMarker(tt.raw)
		if reply != tt.reply || strings.Join(tags, ",") != tt.tags {
			t.Fatalf("%q: want=(%q,%q) got=(%q,%q)", tt.raw, tt.reply, tt.tags, reply, strings.Join(tags, ","))
		}
	}
}

func TestProfileSummaryString(t *testing.T) {
	if got := (ProfileSummary{}).String(); got != "new user" {
		t.Fatalf("empty: got=%q", got)
	}
	got := ProfileSummary{Tier: "free", PillarScores: map[pillars.ID]int{pillars.Sleep: 60, pillars.Diet: 40}, CurrentStreak: 3}.String()
	want := "plan free; scores: diet 40, sleep 60; streak 3 days"
	if got != want {
		t.Fatalf("summary: want=%q got=%q", want, got)
	}
}
