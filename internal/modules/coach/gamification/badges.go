package gamification

import (
	"fmt"

	"github.com/yungbote/pillars-backend/internal/modules/coach/pillars"
)

type Category string

const (
	CategoryStreak    Category = "streak"
	CategoryMastery   Category = "mastery"
	CategoryScore     Category = "score"
	CategoryMilestone Category = "milestone"
	CategorySocial    Category = "social"
)

// Stats is the snapshot every badge predicate reads. It is built once per
// turn so all predicates see the same numbers.
type Stats struct {
	CurrentStreak   int                `json:"currentStreak"`
	LongestStreak   int                `json:"longestStreak"`
	TotalTurns      int                `json:"totalTurns"`
	EntriesByPillar map[pillars.ID]int `json:"entriesByPillar"`
	PillarScores    map[pillars.ID]int `json:"pillarScores"`
	GoalsCreated    int                `json:"goalsCreated"`
	GoalsCompleted  int                `json:"goalsCompleted"`
	HabitsCreated   int                `json:"habitsCreated"`
	EntriesCreated  int                `json:"entriesCreated"`
	FriendCount     int                `json:"friendCount"`
}

func (s Stats) MaxPillarScore() int {
	best := 0
	for _, v := range s.PillarScores {
		if v > best {
			best = v
		}
	}
	return best
}

// PillarsEngaged counts pillars with at least one entry.
func (s Stats) PillarsEngaged() int {
	n := 0
	for _, p := range pillars.All {
		if s.EntriesByPillar[p] > 0 {
			n++
		}
	}
	return n
}

func (s Stats) allScoresAtLeast(v int) bool {
	for _, p := range pillars.All {
		if s.PillarScores[p] < v {
			return false
		}
	}
	return true
}

type Badge struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Points      int      `json:"points"`
	Description string   `json:"description"`

	unlock func(Stats) bool
}

func (b Badge) Unlocked(s Stats) bool { return b.unlock != nil && b.unlock(s) }

var catalog = buildCatalog()

// Catalog returns the static badge list.
func Catalog() []Badge {
	out := make([]Badge, len(catalog))
	copy(out, catalog)
	return out
}

func BadgeByID(id string) (Badge, bool) {
	for _, b := range catalog {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

const masteryEntries = 10

func buildCatalog() []Badge {
	streak := func(days, pts int, name string) Badge {
		return Badge{
			ID: fmt.Sprintf("streak_%d", days), Name: name, Category: CategoryStreak, Points: pts,
			Description: fmt.Sprintf("Log %d days in a row", days),
			unlock:      func(s Stats) bool { return s.LongestStreak >= days },
		}
	}
	milestone := func(id, name, desc string, pts int, f func(Stats) bool) Badge {
		return Badge{ID: id, Name: name, Category: CategoryMilestone, Points: pts, Description: desc, unlock: f}
	}
	friends := func(n, pts int, name string) Badge {
		return Badge{
			ID: fmt.Sprintf("friends_%d", n), Name: name, Category: CategorySocial, Points: pts,
			Description: fmt.Sprintf("Connect with %d friends", n),
			unlock:      func(s Stats) bool { return s.FriendCount >= n },
		}
	}

	out := []Badge{
		streak(3, 20, "Warming Up"),
		streak(7, 50, "Week Strong"),
		streak(14, 100, "Fortnight Focus"),
		streak(30, 250, "Monthly Momentum"),
		streak(100, 1000, "Centurion"),
	}
	for _, p := range pillars.All {
		out = append(out, Badge{
			ID: "mastery_" + string(p), Name: p.DisplayName() + " Regular", Category: CategoryMastery, Points: 75,
			Description: fmt.Sprintf("Log %d entries in %s", masteryEntries, p.DisplayName()),
			unlock:      func(s Stats) bool { return s.EntriesByPillar[p] >= masteryEntries },
		})
	}
	out = append(out,
		Badge{ID: "score_70", Name: "On the Rise", Category: CategoryScore, Points: 40,
			Description: "Reach 70 in any pillar", unlock: func(s Stats) bool { return s.MaxPillarScore() >= 70 }},
		Badge{ID: "score_90", Name: "Peak Form", Category: CategoryScore, Points: 100,
			Description: "Reach 90 in any pillar", unlock: func(s Stats) bool { return s.MaxPillarScore() >= 90 }},
		Badge{ID: "balanced", Name: "Balanced Life", Category: CategoryScore, Points: 200,
			Description: "Score 60 or more in all eight pillars", unlock: func(s Stats) bool { return s.allScoresAtLeast(60) }},

		milestone("first_chat", "Hello Coach", "Finish your first coaching conversation", 10, func(s Stats) bool { return s.TotalTurns >= 1 }),
		milestone("chats_50", "Regular", "Finish 50 coaching conversations", 60, func(s Stats) bool { return s.TotalTurns >= 50 }),
		milestone("chats_250", "Devoted", "Finish 250 coaching conversations", 150, func(s Stats) bool { return s.TotalTurns >= 250 }),
		milestone("first_goal", "Goal Setter", "Create your first SMART goal", 15, func(s Stats) bool { return s.GoalsCreated >= 1 }),
		milestone("goals_10", "Planner", "Create 10 SMART goals", 60, func(s Stats) bool { return s.GoalsCreated >= 10 }),
		milestone("goal_completed", "Finisher", "Complete a goal", 25, func(s Stats) bool { return s.GoalsCompleted >= 1 }),
		milestone("goals_completed_10", "Closer", "Complete 10 goals", 100, func(s Stats) bool { return s.GoalsCompleted >= 10 }),
		milestone("first_habit", "Habit Builder", "Start your first habit", 15, func(s Stats) bool { return s.HabitsCreated >= 1 }),
		milestone("habits_10", "Creature of Habit", "Start 10 habits", 60, func(s Stats) bool { return s.HabitsCreated >= 10 }),
		milestone("first_entry", "Dear Diary", "Write your first entry", 10, func(s Stats) bool { return s.EntriesCreated >= 1 }),
		milestone("entries_25", "Chronicler", "Write 25 entries", 60, func(s Stats) bool { return s.EntriesCreated >= 25 }),
		milestone("explorer", "Explorer", "Engage with 4 pillars", 50, func(s Stats) bool { return s.PillarsEngaged() >= 4 }),
		milestone("all_pillars", "Whole Self", "Engage with all eight pillars", 150, func(s Stats) bool { return s.PillarsEngaged() >= len(pillars.All) }),

		friends(1, 15, "First Friend"),
		friends(5, 40, "Circle"),
		friends(10, 80, "Community"),
	)
	return out
}
