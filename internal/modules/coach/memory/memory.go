// Package memory keeps per (user, pillar) conversation memory so personas
// never re-teach a topic or re-create an item.
package memory

import (
	"sort"
	"strings"
	"time"

	"github.com/yungbote/pillars-backend/internal/modules/coach/pillars"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	PersonaID string    `json:"personaId,omitempty"`
	At        time.Time `json:"at"`
}

type ConversationMemory struct {
	Pillar            pillars.ID `json:"pillar"`
	TopicsTaught      []string   `json:"topicsTaught"`
	ItemIDs           []string   `json:"itemIds"`
	ItemKeys          []string   `json:"itemKeys"`
	History           []Turn     `json:"history"`
	LastInteractionAt time.Time  `json:"lastInteractionAt"`
	Version           int64      `json:"version"`
}

func (m ConversationMemory) HasTaught(tag string) bool { return contains(m.TopicsTaught, tag) }

func (m ConversationMemory) HasItemKey(key string) bool { return contains(m.ItemKeys, key) }

// Recent returns at most n of the newest history turns, oldest first.
func (m ConversationMemory) Recent(n int) []Turn {
	if n <= 0 || len(m.History) <= n {
		return m.History
	}
	return m.History[len(m.History)-n:]
}

// Patch is a field-level change for one pillar. Lists are unioned, turns are
// appended, the timestamp only moves forward.
type Patch struct {
	Pillar       pillars.ID
	TopicsTaught []string
	ItemIDs      []string
	ItemKeys     []string
	Turns        []Turn
	At           time.Time
}

func (p Patch) empty() bool {
	return len(p.TopicsTaught) == 0 && len(p.ItemIDs) == 0 && len(p.ItemKeys) == 0 && len(p.Turns) == 0 && p.At.IsZero()
}

// Merge applies p on top of m. History is bounded to historyCap entries,
// evicting the oldest first.
func (m ConversationMemory) Merge(p Patch, historyCap int) ConversationMemory {
	out := m
	out.Pillar = p.Pillar
	out.TopicsTaught = union(m.TopicsTaught, p.TopicsTaught)
	out.ItemIDs = union(m.ItemIDs, p.ItemIDs)
	out.ItemKeys = union(m.ItemKeys, p.ItemKeys)
	hist := make([]Turn, 0, len(m.History)+len(p.Turns))
	hist = append(hist, m.History...)
	hist = append(hist, p.Turns...)
	if historyCap > 0 && len(hist) > historyCap {
		hist = hist[len(hist)-historyCap:]
	}
	out.History = hist
	if p.At.After(m.LastInteractionAt) {
		out.LastInteractionAt = p.At
	}
	return out
}

// UserMemory is the result of Load: every pillar the user has talked to.
type UserMemory struct {
	UserID  string                            `json:"userId"`
	Pillars map[pillars.ID]ConversationMemory `json:"pillars"`
}

// For returns the pillar's memory, or an empty one.
func (u UserMemory) For(p pillars.ID) ConversationMemory {
	if m, ok := u.Pillars[p]; ok {
		return m
	}
	return ConversationMemory{Pillar: p}
}

// ActivePillar is the pillar with the most recent interaction.
func (u UserMemory) ActivePillar() pillars.ID {
	var best pillars.ID
	var at time.Time
	for _, p := range u.sortedPillars() {
		m := u.Pillars[p]
		if best == "" || m.LastInteractionAt.After(at) {
			best, at = p, m.LastInteractionAt
		}
	}
	return best
}

func (u UserMemory) sortedPillars() []pillars.ID {
	out := make([]pillars.ID, 0, len(u.Pillars))
	for p := range u.Pillars {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func union(base, add []string) []string {
	out := make([]string, 0, len(base)+len(add))
	seen := make(map[string]bool, len(base)+len(add))
	for _, list := range [][]string{base, add} {
		for _, v := range list {
			v = strings.TrimSpace(v)
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
