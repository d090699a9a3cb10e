package gamification

import (
	"hash/fnv"
	"math/rand"
)

type Metric string

const (
	MetricChatTurns       Metric = "chat_turns"
	MetricItemsCreated    Metric = "items_created"
	MetricGoalsCreated    Metric = "goals_created"
	MetricHabitsCreated   Metric = "habits_created"
	MetricEntriesCreated  Metric = "entries_created"
	MetricCheckins        Metric = "checkins"
	MetricTopicsLearned   Metric = "topics_learned"
	MetricDistinctPillars Metric = "distinct_pillars"
)

type QuestDef struct {
	Key    string `json:"key"`
	Title  string `json:"title"`
	Metric Metric `json:"metric"`
	Target int    `json:"target"`
	Points int    `json:"points"`
}

const QuestsPerDay = 3

var questPool = []QuestDef{
	{"chat_1", "Check in with any coach", MetricChatTurns, 1, 10},
	{"chat_3", "Have 3 coaching conversations", MetricChatTurns, 3, 20},
	{"items_2", "Create 2 new items", MetricItemsCreated, 2, 20},
	{"goal_1", "Set a SMART goal", MetricGoalsCreated, 1, 15},
	{"habit_1", "Start a new habit", MetricHabitsCreated, 1, 15},
	{"entry_1", "Write a log or journal entry", MetricEntriesCreated, 1, 10},
	{"checkin_1", "Log a pillar check-in", MetricCheckins, 1, 10},
	{"checkin_2", "Log 2 pillar check-ins", MetricCheckins, 2, 15},
	{"learn_2", "Learn 2 new things from your coaches", MetricTopicsLearned, 2, 20},
	{"pillars_2", "Talk to coaches in 2 different pillars", MetricDistinctPillars, 2, 25},
}

func QuestPool() []QuestDef {
	out := make([]QuestDef, len(questPool))
	copy(out, questPool)
	return out
}

// SelectQuests picks the day's quests. The choice depends only on user and
// day, so regenerating returns the same set.
func SelectQuests(userID, day string) []QuestDef {
	h := fnv.New64a()
	_, _ = h.Write([]byte(userID + "|" + day))
	r := rand.New(rand.NewSource(int64(h.Sum64())))
	perm := r.Perm(len(questPool))
	out := make([]QuestDef, 0, QuestsPerDay)
	for _, i := range perm[:QuestsPerDay] {
		out = append(out, questPool[i])
	}
	return out
}

// QuestState is one quest's progress for a day.
type QuestState struct {
	Key         string   `json:"key"`
	Title       string   `json:"title"`
	Metric      Metric   `json:"metric"`
	Target      int      `json:"target"`
	Progress    int      `json:"progress"`
	Points      int      `json:"points"`
	SeenPillars []string `json:"seenPillars,omitempty"`
	Completed   bool     `json:"completed"`
}

func NewQuestState(d QuestDef) QuestState {
	return QuestState{Key: d.Key, Title: d.Title, Metric: d.Metric, Target: d.Target, Points: d.Points}
}

// advance applies an outcome and reports whether the quest just completed.
func (q QuestState) advance(o Outcome) (QuestState, bool) {
	if q.Completed {
		return q, false
	}
	switch q.Metric {
	case MetricDistinctPillars:
		if o.ChatTurn && o.Pillar.Valid() && !containsString(q.SeenPillars, string(o.Pillar)) {
			q.SeenPillars = append(append([]string(nil), q.SeenPillars...), string(o.Pillar))
		}
		q.Progress = len(q.SeenPillars)
	default:
		q.Progress += o.delta(q.Metric)
	}
	if q.Progress >= q.Target {
		q.Progress = q.Target
		q.Completed = true
		return q, true
	}
	return q, false
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
