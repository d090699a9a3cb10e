package gamification

import (
	"fmt"

	"github.com/yungbote/pillars-backend/internal/modules/coach/personas"
	"github.com/yungbote/pillars-backend/internal/modules/coach/pillars"
)

// Point values per named reason.
const (
	PointsChatTurn    = 2
	PointsItemCreated = 5
	PointsStreakDay   = 10
	PointsCheckin     = 3
)

const (
	ReasonChatTurn    = "chat_turn"
	ReasonItemCreated = "item_created"
	ReasonStreakDay   = "streak_day"
	ReasonCheckin     = "checkin"
)

func BadgeReason(id string) string { return "badge:" + id }
func QuestReason(key string) string { return "quest:" + key }

// Outcome describes one committed interaction.
type Outcome struct {
	Day           string
	Pillar        pillars.ID
	ChatTurn      bool
	Checkin       bool
	ItemKinds     []personas.ItemKind
	TopicsLearned int
}

// Qualifying reports whether the outcome counts as a log for streaks.
func (o Outcome) Qualifying() bool { return o.ChatTurn || o.Checkin }

func (o Outcome) countKind(k personas.ItemKind) int {
	n := 0
	for _, ik := range o.ItemKinds {
		if ik == k {
			n++
		}
	}
	return n
}

func (o Outcome) delta(m Metric) int {
	switch m {
	case MetricChatTurns:
		if o.ChatTurn {
			return 1
		}
	case MetricItemsCreated:
		return len(o.ItemKinds)
	case MetricGoalsCreated:
		return o.countKind(personas.ItemSmartGoal)
	case MetricHabitsCreated:
		return o.countKind(personas.ItemHabit)
	case MetricEntriesCreated:
		return o.countKind(personas.ItemEntry)
	case MetricCheckins:
		if o.Checkin {
			return 1
		}
	case MetricTopicsLearned:
		return o.TopicsLearned
	}
	return 0
}

// State is what the engine needs to know before the turn.
type State struct {
	Points   int
	Streak   Streak
	Unlocked map[string]bool
	Quests   []QuestState
}

type Award struct {
	Reason string `json:"reason"`
	Points int    `json:"points"`
}

type Effects struct {
	Awards          []Award      `json:"awards"`
	PointsBefore    int          `json:"pointsBefore"`
	PointsAfter     int          `json:"pointsAfter"`
	Streak          Streak       `json:"streak"`
	StreakChange    StreakChange `json:"streakChange"`
	Unlocked        []Badge      `json:"unlocked"`
	Quests          []QuestState `json:"quests"`
	QuestsCompleted []string     `json:"questsCompleted"`
	LevelUp         *LevelChange `json:"levelUp,omitempty"`
}

func (e Effects) TotalAwarded() int {
	n := 0
	for _, a := range e.Awards {
		n += a.Points
	}
	return n
}

// Evaluate computes the effects of an outcome. Badge predicates read stats
// with the post-turn streak folded in; already unlocked badges are skipped.
func Evaluate(st State, o Outcome, stats Stats) (Effects, error) {
	eff := Effects{PointsBefore: st.Points, Streak: st.Streak, Awards: []Award{}, Unlocked: []Badge{}, QuestsCompleted: []string{}}
	award := func(reason string, pts int) {
		if pts > 0 {
			eff.Awards = append(eff.Awards, Award{Reason: reason, Points: pts})
		}
	}

	if o.ChatTurn {
		award(ReasonChatTurn, PointsChatTurn)
	}
	for range o.ItemKinds {
		award(ReasonItemCreated, PointsItemCreated)
	}
	if o.Checkin {
		award(ReasonCheckin, PointsCheckin)
	}

	if o.Qualifying() {
		next, ch, err := st.Streak.RecordLog(o.Day)
		if err != nil {
			return Effects{}, fmt.Errorf("record log: %w", err)
		}
		eff.Streak, eff.StreakChange = next, ch
		if ch.Advanced {
			award(ReasonStreakDay, PointsStreakDay)
		}
	}

	snap := stats
	snap.CurrentStreak = eff.Streak.Current
	if eff.Streak.Longest > snap.LongestStreak {
		snap.LongestStreak = eff.Streak.Longest
	}
	for _, b := range catalog {
		if st.Unlocked[b.ID] || !b.Unlocked(snap) {
			continue
		}
		eff.Unlocked = append(eff.Unlocked, b)
		award(BadgeReason(b.ID), b.Points)
	}

	eff.Quests = make([]QuestState, 0, len(st.Quests))
	for _, q := range st.Quests {
		next, done := q.advance(o)
		eff.Quests = append(eff.Quests, next)
		if done {
			eff.QuestsCompleted = append(eff.QuestsCompleted, next.Key)
			award(QuestReason(next.Key), next.Points)
		}
	}

	eff.recount()
	return eff, nil
}

// Drop removes awards by reason, along with any badge whose award was
// dropped, and recomputes the totals and level change.
func (e *Effects) Drop(reasons ...string) {
	if len(reasons) == 0 {
		return
	}
	gone := make(map[string]bool, len(reasons))
	for _, r := range reasons {
		gone[r] = true
	}
	awards := e.Awards[:0]
	for _, a := range e.Awards {
		if !gone[a.Reason] {
			awards = append(awards, a)
		}
	}
	e.Awards = awards
	badges := e.Unlocked[:0]
	for _, b := range e.Unlocked {
		if !gone[BadgeReason(b.ID)] {
			badges = append(badges, b)
		}
	}
	e.Unlocked = badges
	e.recount()
}

func (e *Effects) recount() {
	e.PointsAfter = e.PointsBefore + e.TotalAwarded()
	e.LevelUp = nil
	if from, to := LevelFor(e.PointsBefore), LevelFor(e.PointsAfter); to.Number > from.Number {
		e.LevelUp = &LevelChange{From: from, To: to}
	}
}
