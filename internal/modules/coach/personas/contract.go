package personas

import (
	"fmt"
	"strings"

	"github.com/yungbote/pillars-backend/internal/modules/coach/pillars"
)

type Kind string

const (
	KindPillar       Kind = "pillar"
	KindCrossCutting Kind = "crosscutting"
)

// Well known cross-cutting persona ids.
const (
	CrisisHandlerID     = "crisis_handler"
	CorrelationEngineID = "correlation_engine"
	JournalingAgentID   = "journaling_agent"
	AdaptivePlannerID   = "adaptive_planner"
	MicroActionsID      = "micro_actions"
)

type ItemKind string

const (
	ItemLifePlan  ItemKind = "life_plan"
	ItemSmartGoal ItemKind = "smart_goal"
	ItemHabit     ItemKind = "habit"
	ItemEntry     ItemKind = "entry"
	ItemMilestone ItemKind = "milestone"
)

func (k ItemKind) Valid() bool {
	switch k {
	case ItemLifePlan, ItemSmartGoal, ItemHabit, ItemEntry, ItemMilestone:
		return true
	}
	return false
}

// Contract is the behavioral record for one persona. It is data: adding a
// persona means adding a document, not code.
type Contract struct {
	ID        string         `yaml:"id" json:"id"`
	Name      string         `yaml:"name" json:"name"`
	Kind      Kind           `yaml:"kind" json:"kind"`
	Pillar    pillars.ID     `yaml:"pillar,omitempty" json:"pillar,omitempty"`
	Intro     string         `yaml:"intro" json:"intro"`
	Tone      string         `yaml:"tone" json:"tone"`
	Rules     []string       `yaml:"rules,omitempty" json:"rules,omitempty"`
	Keywords  []string       `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	Topics    []Topic        `yaml:"topics,omitempty" json:"topics,omitempty"`
	Redirects []Redirect     `yaml:"redirects,omitempty" json:"redirects,omitempty"`
	Items     []ItemTemplate `yaml:"items,omitempty" json:"items,omitempty"`
	MaxWords  int            `yaml:"max_words,omitempty" json:"maxWords,omitempty"`
}

// Topic is a teachable concept. Tip is the offline teaching line.
type Topic struct {
	Tag      string   `yaml:"tag" json:"tag"`
	Keywords []string `yaml:"keywords" json:"keywords"`
	Tip      string   `yaml:"tip,omitempty" json:"tip,omitempty"`
}

// Redirect hands a message to another pillar, or to an outside professional
// when Referral is set (Target is then empty).
type Redirect struct {
	Target   pillars.ID `yaml:"target,omitempty" json:"target,omitempty"`
	Referral string     `yaml:"referral,omitempty" json:"referral,omitempty"`
	Triggers []string   `yaml:"triggers" json:"triggers"`
	Reason   string     `yaml:"reason" json:"reason"`
}

type ItemTemplate struct {
	Key      string   `yaml:"key" json:"key"`
	Kind     ItemKind `yaml:"kind" json:"kind"`
	Title    string   `yaml:"title" json:"title"`
	Details  string   `yaml:"details,omitempty" json:"details,omitempty"`
	Triggers []string `yaml:"triggers" json:"triggers"`
}

func (c Contract) IsPillar() bool { return c.Kind == KindPillar }

// ReasonText fills {from}, {to} and {trigger} in a redirect reason.
func (r Redirect) ReasonText(from pillars.ID, trigger string) string {
	to := r.Referral
	if r.Target != "" {
		to = r.Target.DisplayName()
	}
	return strings.NewReplacer(
		"{from}", from.DisplayName(),
		"{to}", to,
		"{trigger}", strings.TrimSuffix(trigger, "*"),
	).Replace(r.Reason)
}

func (c Contract) validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("persona missing id")
	}
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Intro) == "" {
		return fmt.Errorf("persona %s: name and intro are required", c.ID)
	}
	switch c.Kind {
	case KindPillar:
		if !c.Pillar.Valid() {
			return fmt.Errorf("persona %s: unknown pillar %q", c.ID, c.Pillar)
		}
	case KindCrossCutting:
		if c.Pillar != "" {
			return fmt.Errorf("persona %s: cross-cutting persona cannot own pillar %q", c.ID, c.Pillar)
		}
	default:
		return fmt.Errorf("persona %s: unknown kind %q", c.ID, c.Kind)
	}
	seenTopic := map[string]bool{}
	for _, t := range c.Topics {
		if t.Tag == "" || len(t.Keywords) == 0 {
			return fmt.Errorf("persona %s: topic needs tag and keywords", c.ID)
		}
		if seenTopic[t.Tag] {
			return fmt.Errorf("persona %s: duplicate topic %q", c.ID, t.Tag)
		}
		seenTopic[t.Tag] = true
	}
	for i, r := range c.Redirects {
		if r.Target == "" && r.Referral == "" {
			return fmt.Errorf("persona %s: redirect %d needs target or referral", c.ID, i)
		}
		if r.Target != "" && !r.Target.Valid() {
			return fmt.Errorf("persona %s: redirect %d targets unknown pillar %q", c.ID, i, r.Target)
		}
		if r.Target != "" && r.Target == c.Pillar {
			return fmt.Errorf("persona %s: redirect %d targets its own pillar", c.ID, i)
		}
		if len(r.Triggers) == 0 || strings.TrimSpace(r.Reason) == "" {
			return fmt.Errorf("persona %s: redirect %d needs triggers and reason", c.ID, i)
		}
	}
	seenItem := map[string]bool{}
	for _, it := range c.Items {
		if it.Key == "" || it.Title == "" || len(it.Triggers) == 0 {
			return fmt.Errorf("persona %s: item template needs key, title and triggers", c.ID)
		}
		if !it.Kind.Valid() {
			return fmt.Errorf("persona %s: item %s has unknown kind %q", c.ID, it.Key, it.Kind)
		}
		if seenItem[it.Key] {
			return fmt.Errorf("persona %s: duplicate item key %q", c.ID, it.Key)
		}
		seenItem[it.Key] = true
	}
	return nil
}
