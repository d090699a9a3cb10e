package gamification

import (
	"errors"
	"testing"

	"github.com/yungbote/pillars-backend/internal/modules/coach/personas"
	"github.com/yungbote/pillars-backend/internal/modules/coach/pillars"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		points int
		number int
		tier   Tier
	}{
		{0, 1, TierBronze},
		{99, 1, TierBronze},
		{100, 2, TierBronze},
		{499, 3, TierSilver},
		{1000, 5, TierGold},
		{3500, 7, TierPlatinum},
		{9999, 9, TierDiamond},
		{50000, 10, TierDiamond},
	}
	for _, tt := range tests {
		got := LevelFor(tt.points)
		if got.Number != tt.number || got.Tier != tt.tier {
			t.Fatalf("LevelFor(%d): want=%d/%s got=%d/%s", tt.points, tt.number, tt.tier, got.Number, got.Tier)
		}
	}
	if next, ok := NextLevel(120); !ok || next.Number != 3 {
		t.Fatalf("NextLevel(120): want=3 got=%v ok=%v", next.Number, ok)
	}
	if _, ok := NextLevel(10000); ok {
		t.Fatalf("NextLevel at top: want ok=false")
	}
}

func TestCatalog(t *testing.T) {
	cat := Catalog()
	if len(cat) < 30 {
		t.Fatalf("catalog size: want>=30 got=%d", len(cat))
	}
	seen := map[string]bool{}
	cats := map[Category]int{}
	for _, b := range cat {
		if seen[b.ID] {
			t.Fatalf("duplicate badge %s", b.ID)
		}
		seen[b.ID] = true
		cats[b.Category]++
		if b.Points <= 0 {
			t.Fatalf("badge %s: points must be positive", b.ID)
		}
		if b.Unlocked(Stats{}) {
			t.Fatalf("badge %s unlocked on empty stats", b.ID)
		}
	}
	for _, c := range []Category{CategoryStreak, CategoryMastery, CategoryScore, CategoryMilestone, CategorySocial} {
		if cats[c] == 0 {
			t.Fatalf("category %s empty", c)
		}
	}
	if cats[CategoryMastery] != len(pillars.All) {
		t.Fatalf("mastery badges: want=%d got=%d", len(pillars.All), cats[CategoryMastery])
	}
}

func TestBadgePredicates(t *testing.T) {
	tests := []struct {
		id    string
		stats Stats
		want  bool
	}{
		{"streak_7", Stats{LongestStreak: 7}, true},
		{"streak_7", Stats{CurrentStreak: 7, LongestStreak: 6}, false},
		{"mastery_sleep", Stats{EntriesByPillar: map[pillars.ID]int{pillars.Sleep: 10}}, true},
		{"mastery_sleep", Stats{EntriesByPillar: map[pillars.ID]int{pillars.Diet: 10}}, false},
		{"score_90", Stats{PillarScores: map[pillars.ID]int{pillars.Finances: 91}}, true},
		{"balanced", Stats{PillarScores: map[pillars.ID]int{pillars.Sleep: 90}}, false},
		{"explorer", Stats{EntriesByPillar: map[pillars.ID]int{pillars.Sleep: 1, pillars.Diet: 1, pillars.Social: 1, pillars.Finances: 2}}, true},
		{"friends_5", Stats{FriendCount: 4}, false},
		{"goal_completed", Stats{GoalsCompleted: 1}, true},
	}
	for _, tt := range tests {
		b, ok := BadgeByID(tt.id)
		if !ok {
			t.Fatalf("missing badge %s", tt.id)
		}
		if got := b.Unlocked(tt.stats); got != tt.want {
			t.Fatalf("%s(%+v): want=%v got=%v", tt.id, tt.stats, tt.want, got)
		}
	}
	all := map[pillars.ID]int{}
	for _, p := range pillars.All {
		all[p] = 60
	}
	if b, _ := BadgeByID("balanced"); !b.Unlocked(Stats{PillarScores: all}) {
		t.Fatalf("balanced: want unlocked at 60 everywhere")
	}
}

func TestStreakConsecutiveDaysThenGap(t *testing.T) {
	var s Streak
	steps := []struct {
		day     string
		current int
		longest int
	}{
		{"2026-03-01", 1, 1},
		{"2026-03-01", 1, 1},
		{"2026-03-02", 2, 2},
		// 03-03 skipped, no freeze
		{"2026-03-04", 0, 2},
		{"2026-03-05", 1, 2},
	}
	for _, st := range steps {
		next, _, err := s.RecordLog(st.day)
		if err != nil {
			t.Fatalf("RecordLog(%s): %v", st.day, err)
		}
		if next.Current != st.current || next.Longest != st.longest {
			t.Fatalf("%s: want=%d/%d got=%d/%d", st.day, st.current, st.longest, next.Current, next.Longest)
		}
		if next.Longest < s.Longest {
			t.Fatalf("%s: longest decreased %d -> %d", st.day, s.Longest, next.Longest)
		}
		s = next
	}
}

func TestStreakFreezeBridgesOneGap(t *testing.T) {
	s := Streak{Current: 4, Longest: 4, LastLogged: "2026-03-10", FreezesRemaining: 2}
	s, err := s.ActivateFreeze("2026-03-10")
	if err != nil {
		t.Fatalf("ActivateFreeze: %v", err)
	}
	if s.FreezeActiveDate != "2026-03-11" {
		t.Fatalf("freeze date: want=2026-03-11 got=%s", s.FreezeActiveDate)
	}
	if got := s.Effective("2026-03-12"); got != 4 {
		t.Fatalf("effective with freeze: want=4 got=%d", got)
	}
	next, ch, err := s.RecordLog("2026-03-12")
	if err != nil {
		t.Fatalf("RecordLog: %v", err)
	}
	if next.Current != 5 || !ch.FreezeUsed || next.FreezesRemaining != 1 || next.FreezeActiveDate != "" {
		t.Fatalf("after freeze: got=%+v change=%+v", next, ch)
	}

	// A freeze for the wrong day does not help and is not consumed.
	s = Streak{Current: 4, Longest: 4, LastLogged: "2026-03-10", FreezesRemaining: 1, FreezeActiveDate: "2026-03-20"}
	next, ch, _ = s.RecordLog("2026-03-12")
	if next.Current != 0 || !ch.Reset || next.FreezesRemaining != 1 {
		t.Fatalf("unrelated freeze: got=%+v change=%+v", next, ch)
	}

	if _, err := (Streak{}).ActivateFreeze("2026-03-10"); !errors.Is(err, ErrNoFreezes) {
		t.Fatalf("no credits: want=%v got=%v", ErrNoFreezes, err)
	}
	if _, _, err := (Streak{}).RecordLog("yesterday"); !errors.Is(err, ErrBadDay) {
		t.Fatalf("bad day: want=%v got=%v", ErrBadDay, err)
	}
}

func TestStreakEffective(t *testing.T) {
	s := Streak{Current: 3, Longest: 5, LastLogged: "2026-03-10"}
	for day, want := range map[string]int{"2026-03-10": 3, "2026-03-11": 3, "2026-03-12": 0} {
		if got := s.Effective(day); got != want {
			t.Fatalf("Effective(%s): want=%d got=%d", day, want, got)
		}
	}
}

func TestSelectQuestsDeterministic(t *testing.T) {
	a := SelectQuests("u1", "2026-03-01")
	b := SelectQuests("u1", "2026-03-01")
	if len(a) != QuestsPerDay {
		t.Fatalf("quests: want=%d got=%d", QuestsPerDay, len(a))
	}
	seen := map[string]bool{}
	for i := range a {
		if a[i].Key != b[i].Key {
			t.Fatalf("slot %d: %s != %s", i, a[i].Key, b[i].Key)
		}
		if seen[a[i].Key] {
			t.Fatalf("duplicate quest %s", a[i].Key)
		}
		seen[a[i].Key] = true
	}
}

func TestEvaluateAwardsAndIdempotentBadges(t *testing.T) {
	st := State{Unlocked: map[string]bool{}}
	o := Outcome{
		Day:       "2026-03-01",
		Pillar:    pillars.Finances,
		ChatTurn:  true,
		ItemKinds: []personas.ItemKind{personas.ItemSmartGoal},
	}
	stats := Stats{TotalTurns: 1, GoalsCreated: 1, EntriesByPillar: map[pillars.ID]int{pillars.Finances: 1}}
	eff, err := Evaluate(st, o, stats)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	reasons := map[string]int{}
	for _, a := range eff.Awards {
		reasons[a.Reason] += a.Points
	}
	want := map[string]int{
		ReasonChatTurn:            PointsChatTurn,
		ReasonItemCreated:         PointsItemCreated,
		ReasonStreakDay:           PointsStreakDay,
		BadgeReason("first_chat"): 10,
		BadgeReason("first_goal"): 15,
	}
	for r, p := range want {
		if reasons[r] != p {
			t.Fatalf("award %s: want=%d got=%d (all=%v)", r, p, reasons[r], reasons)
		}
	}
	if eff.PointsAfter != eff.TotalAwarded() || eff.Streak.Current != 1 {
		t.Fatalf("effects: points=%d total=%d streak=%d", eff.PointsAfter, eff.TotalAwarded(), eff.Streak.Current)
	}

	// Same badges already unlocked: no second award, same day: no streak award.
	st2 := State{Points: eff.PointsAfter, Streak: eff.Streak, Unlocked: map[string]bool{}}
	for _, b := range eff.Unlocked {
		st2.Unlocked[b.ID] = true
	}
	eff2, err := Evaluate(st2, o, stats)
	if err != nil {
		t.Fatalf("Evaluate again: %v", err)
	}
	if len(eff2.Unlocked) != 0 {
		t.Fatalf("re-unlocked: %+v", eff2.Unlocked)
	}
	for _, a := range eff2.Awards {
		if a.Reason == ReasonStreakDay {
			t.Fatalf("streak awarded twice on one day")
		}
	}
}

func TestEvaluateQuestsAndLevelUp(t *testing.T) {
	quests := []QuestState{
		NewQuestState(QuestDef{"chat_1", "Check in", MetricChatTurns, 1, 10}),
		NewQuestState(QuestDef{"pillars_2", "Two pillars", MetricDistinctPillars, 2, 25}),
		NewQuestState(QuestDef{"checkin_1", "Check-in", MetricCheckins, 1, 10}),
	}
	st := State{Points: 95, Streak: Streak{Current: 1, Longest: 1, LastLogged: "2026-03-01"}, Unlocked: map[string]bool{"first_chat": true}, Quests: quests}
	o := Outcome{Day: "2026-03-01", Pillar: pillars.Sleep, ChatTurn: true}
	eff, err := Evaluate(st, o, Stats{TotalTurns: 2})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(eff.QuestsCompleted) != 1 || eff.QuestsCompleted[0] != "chat_1" {
		t.Fatalf("completed: got=%v", eff.QuestsCompleted)
	}
	if eff.Quests[1].Progress != 1 || eff.Quests[1].Completed {
		t.Fatalf("pillars quest: got=%+v", eff.Quests[1])
	}
	if eff.LevelUp == nil || eff.LevelUp.From.Number != 1 || eff.LevelUp.To.Number != 2 {
		t.Fatalf("level up: got=%+v (points %d)", eff.LevelUp, eff.PointsAfter)
	}

	o.Pillar = pillars.Diet
	eff2, _ := Evaluate(State{Points: eff.PointsAfter, Streak: eff.Streak, Unlocked: st.Unlocked, Quests: eff.Quests}, o, Stats{TotalTurns: 3})
	if !eff2.Quests[1].Completed || len(eff2.QuestsCompleted) != 1 || eff2.QuestsCompleted[0] != "pillars_2" {
		t.Fatalf("second pillar: got=%+v completed=%v", eff2.Quests[1], eff2.QuestsCompleted)
	}
	if eff2.Quests[0].Progress != 1 {
		t.Fatalf("completed quest progressed past target: %+v", eff2.Quests[0])
	}
}

func TestDropRecomputesLevelChange(t *testing.T) {
	eff := Effects{
		PointsBefore: 95,
		Awards: []Award{
			{Reason: ReasonChatTurn, Points: PointsChatTurn},
			{Reason: BadgeReason("first_chat"), Points: 10},
		},
		Unlocked: []Badge{{ID: "first_chat", Points: 10}},
	}
	eff.recount()
	if eff.LevelUp == nil {
		t.Fatalf("level up: want set before drop")
	}

	eff.Drop(BadgeReason("first_chat"))
	if want := 95 + PointsChatTurn; eff.PointsAfter != want {
		t.Fatalf("pointsAfter: want=%d got=%d", want, eff.PointsAfter)
	}
	if eff.LevelUp != nil {
		t.Fatalf("level up: want nil after drop got=%+v", eff.LevelUp)
	}
	if len(eff.Unlocked) != 0 || len(eff.Awards) != 1 {
		t.Fatalf("after drop: unlocked=%d awards=%d", len(eff.Unlocked), len(eff.Awards))
	}

	eff.Drop()
	if len(eff.Awards) != 1 {
		t.Fatalf("empty drop changed awards: %v", eff.Awards)
	}
}
