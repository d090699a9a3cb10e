// Package pillars defines the eight life domains a coach can own.
package pillars

import (
	"strings"
)

type ID string

const (
	Sleep          ID = "sleep"
	Diet           ID = "diet"
	Exercise       ID = "exercise"
	PhysicalHealth ID = "physical_health"
	MentalHealth   ID = "mental_health"
	Finances       ID = "finances"
	Social         ID = "social"
	Spirituality   ID = "spirituality"
)

// All lists the pillars in display order.
var All = []ID{Sleep, Diet, Exercise, PhysicalHealth, MentalHealth, Finances, Social, Spirituality}

var displayNames = map[ID]string{
	Sleep:          "Sleep",
	Diet:           "Nutrition",
	Exercise:       "Fitness",
	PhysicalHealth: "Physical Health",
	MentalHealth:   "Mental Health",
	Finances:       "Finances",
	Social:         "Social",
	Spirituality:   "Spirituality",
}

var aliases = map[string]ID{
	"nutrition":       Diet,
	"food":            Diet,
	"fitness":         Exercise,
	"physical-health": PhysicalHealth,
	"physicalhealth":  PhysicalHealth,
	"physical":        PhysicalHealth,
	"mental-health":   MentalHealth,
	"mentalhealth":    MentalHealth,
	"mental":          MentalHealth,
	"finance":         Finances,
	"money":           Finances,
	"spiritual":       Spirituality,
}

// Parse normalizes user or client supplied pillar names. ok is false for
// anything that is not one of the eight pillars.
func Parse(raw string) (ID, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", false
	}
	id := ID(strings.ReplaceAll(s, " ", "_"))
	if id.Valid() {
		return id, true
	}
	if a, ok := aliases[s]; ok {
		return a, true
	}
	return "", false
}

func (p ID) Valid() bool {
	_, ok := displayNames[p]
	return ok
}

func (p ID) String() string { return string(p) }

// DisplayName is the human label used in hand-off sentences.
func (p ID) DisplayName() string {
	if n, ok := displayNames[p]; ok {
		return n
	}
	return string(p)
}

// Set is a small membership helper for entitlement checks.
type Set map[ID]struct{}

func NewSet(ids ...ID) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		if id.Valid() {
			s[id] = struct{}{}
		}
	}
	return s
}

// ParseSet parses raw names, silently dropping unknown ones.
func ParseSet(raw []string) Set {
	s := make(Set, len(raw))
	for _, r := range raw {
		if id, ok := Parse(r); ok {
			s[id] = struct{}{}
		}
	}
	return s
}

func (s Set) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

// Entitled lets a Set stand in for a user's plan when routing.
func (s Set) Entitled(id ID) bool { return s.Has(id) }

// Sorted returns members in All order.
func (s Set) Sorted() []ID {
	out := make([]ID, 0, len(s))
	for _, id := range All {
		if s.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

func (s Set) Strings() []string {
	ids := s.Sorted()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
