// Package executor runs one persona contract against a message: it builds the
// prompt, calls the generator, and turns the result into a reply, item
// drafts and newly taught topics.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/pillars-backend/internal/modules/coach/memory"
	"github.com/yungbote/pillars-backend/internal/modules/coach/personas"
	"github.com/yungbote/pillars-backend/internal/modules/coach/pillars"
	"github.com/yungbote/pillars-backend/internal/modules/coach/routing"
	"github.com/yungbote/pillars-backend/internal/modules/coach/textmatch"
	"github.com/yungbote/pillars-backend/internal/observability"
	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

var (
	ErrUntaggedItem = errors.New("item is not tagged with the owning pillar")
	ErrEmptyReply   = errors.New("generator returned an empty reply")
	ErrNotPillar    = errors.New("persona does not own a pillar")
)

const (
	defaultMaxWords     = 180
	defaultHistoryTurns = 6
	maxOffer            = 2
	maxItemsPerTurn     = 3
)

type Input struct {
	Contract personas.Contract
	Assists  []personas.Contract
	Decision routing.Decision
	Message  string
	Memory   memory.ConversationMemory
	Profile  ProfileSummary
	// ExistingTitles are titles of the user's active items in this pillar.
	ExistingTitles []string
}

type ItemDraft struct {
	Pillar      pillars.ID        `json:"pillar"`
	Kind        personas.ItemKind `json:"kind"`
	Title       string            `json:"title"`
	Details     string            `json:"details,omitempty"`
	TemplateKey string            `json:"templateKey,omitempty"`
	PersonaID   string            `json:"personaId"`
}

type Result struct {
	PersonaID    string      `json:"personaId"`
	Pillar       pillars.ID  `json:"pillar"`
	Reply        string      `json:"reply"`
	Items        []ItemDraft `json:"items"`
	TopicsTaught []string    `json:"topicsTaught"`
}

type Executor struct {
	gen          Generator
	historyTurns int
	log          *logger.Logger
}

func New(gen Generator, historyTurns int, baseLog *logger.Logger) *Executor {
	if gen == nil {
		gen = TemplateGenerator{}
	}
	if historyTurns <= 0 {
		historyTurns = defaultHistoryTurns
	}
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &Executor{gen: gen, historyTurns: historyTurns, log: baseLog.With("component", "PersonaExecutor")}
}

func (e *Executor) Execute(ctx context.Context, in Input) (Result, error) {
	c := in.Contract
	if !c.IsPillar() {
		return Result{}, fmt.Errorf("%w: %s", ErrNotPillar, c.ID)
	}
	text := textmatch.Normalize(in.Message)
	cons := Constraints{
		Persona:     c,
		AvoidTopics: append([]string(nil), in.Memory.TopicsTaught...),
		Offer:       offerTopics(c, in.Memory, text),
		MaxWords:    c.MaxWords,
	}
	if cons.MaxWords <= 0 {
		cons.MaxWords = defaultMaxWords
	}

	raw, err := e.gen.Generate(ctx, BuildPrompt(in, cons, e.historyTurns), cons)
	if err != nil {
		e.log.Warn("generation failed", "persona", c.ID, "error", err)
		observability.Current().ObserveGeneration(c.ID, "error")
		return Result{}, err
	}
	body, marked := splitTopicsMarker(raw)
	if body == "" {
		observability.Current().ObserveGeneration(c.ID, "empty")
		return Result{}, ErrEmptyReply
	}

	items := draftItems(in, text)
	if err := ValidateItems(c.Pillar, items); err != nil {
		return Result{}, err
	}

	reply := body
	if h := Handoff(in.Decision, c.Pillar); h != "" {
		reply = h + "\n\n" + body
	}
	observability.Current().ObserveGeneration(c.ID, "ok")
	return Result{
		PersonaID:    c.ID,
		Pillar:       c.Pillar,
		Reply:        reply,
		Items:        items,
		TopicsTaught: taughtTopics(c, in.Memory, marked, textmatch.Normalize(body)),
	}, nil
}

// ValidateItems rejects any draft not tagged with the owning pillar.
func ValidateItems(owner pillars.ID, items []ItemDraft) error {
	for _, it := range items {
		if it.Pillar == "" || it.Pillar != owner {
			return fmt.Errorf("%w: %q tagged %q, want %q", ErrUntaggedItem, it.Title, it.Pillar, owner)
		}
		if !it.Kind.Valid() {
			return fmt.Errorf("%w: %q has kind %q", ErrUntaggedItem, it.Title, it.Kind)
		}
	}
	return nil
}

// Handoff is the sentence shown before persona content when the router
// attached a redirect. Empty when there is nothing to echo.
func Handoff(d routing.Decision, current pillars.ID) string {
	switch {
	case d.Redirected():
		return fmt.Sprintf("I'm handing this over to your %s coach: %s.", d.Pillar.DisplayName(), strings.TrimSuffix(d.RedirectReason, "."))
	case d.TargetLocked:
		return fmt.Sprintf("This part sounds like a job for a %s coach, which isn't included in your current plan, so I'll stick to the %s side: %s.",
			d.LockedTarget.DisplayName(), current.DisplayName(), strings.TrimSuffix(d.RedirectReason, "."))
	case d.Referral != "":
		return fmt.Sprintf("Before we go on, please talk to %s: %s.", d.Referral, strings.TrimSuffix(d.RedirectReason, "."))
	}
	return ""
}

// offerTopics lists untaught topics, the ones the message touches first.
func offerTopics(c personas.Contract, mem memory.ConversationMemory, text textmatch.Text) []personas.Topic {
	var hit, rest []personas.Topic
	for _, t := range c.Topics {
		if mem.HasTaught(t.Tag) {
			continue
		}
		if text.FirstMatch(t.Keywords) != "" {
			hit = append(hit, t)
		} else {
			rest = append(rest, t)
		}
	}
	out := append(hit, rest...)
	if len(out) > maxOffer {
		out = out[:maxOffer]
	}
	return out
}

func taughtTopics(c personas.Contract, mem memory.ConversationMemory, marked []string, reply textmatch.Text) []string {
	markedSet := make(map[string]bool, len(marked))
	for _, m := range marked {
		markedSet[strings.ToLower(m)] = true
	}
	out := []string{}
	for _, t := range c.Topics {
		if mem.HasTaught(t.Tag) {
			continue
		}
		if markedSet[t.Tag] || reply.FirstMatch(t.Keywords) != "" {
			out = append(out, t.Tag)
		}
	}
	return out
}

func draftItems(in Input, text textmatch.Text) []ItemDraft {
	seen := make(map[string]bool, len(in.ExistingTitles))
	for _, t := range in.ExistingTitles {
		seen[strings.ToLower(strings.TrimSpace(t))] = true
	}
	out := []ItemDraft{}
	add := func(owner personas.Contract, tpl personas.ItemTemplate) {
		if len(out) >= maxItemsPerTurn || in.Memory.HasItemKey(tpl.Key) {
			return
		}
		key := strings.ToLower(strings.TrimSpace(tpl.Title))
		if seen[key] || text.FirstMatch(tpl.Triggers) == "" {
			return
		}
		seen[key] = true
		out = append(out, ItemDraft{
			Pillar:      in.Contract.Pillar,
			Kind:        tpl.Kind,
			Title:       tpl.Title,
			Details:     tpl.Details,
			TemplateKey: tpl.Key,
			PersonaID:   owner.ID,
		})
	}
	for _, tpl := range in.Contract.Items {
		add(in.Contract, tpl)
	}
	for _, a := range in.Assists {
		for _, tpl := range a.Items {
			add(a, tpl)
		}
	}
	return out
}
