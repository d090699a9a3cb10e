// Package gamification turns the outcome of a committed turn into points,
// streak updates, badge unlocks and quest progress. Everything here is pure;
// persistence lives in the services layer.
package gamification

type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
	TierDiamond  Tier = "diamond"
)

type Level struct {
	Number    int    `json:"number"`
	Name      string `json:"name"`
	MinPoints int    `json:"minPoints"`
	Tier      Tier   `json:"tier"`
}

// Levels is ordered by MinPoints.
var Levels = []Level{
	{1, "Seedling", 0, TierBronze},
	{2, "Sprout", 100, TierBronze},
	{3, "Grower", 250, TierSilver},
	{4, "Achiever", 500, TierSilver},
	{5, "Pathfinder", 1000, TierGold},
	{6, "Trailblazer", 2000, TierGold},
	{7, "Luminary", 3500, TierPlatinum},
	{8, "Sage", 5000, TierPlatinum},
	{9, "Legend", 7500, TierDiamond},
	{10, "Paragon", 10000, TierDiamond},
}

func LevelFor(points int) Level {
	lvl := Levels[0]
	for _, l := range Levels {
		if points >= l.MinPoints {
			lvl = l
		}
	}
	return lvl
}

// NextLevel returns the band after the one points falls in; ok is false at
// the top band.
func NextLevel(points int) (Level, bool) {
	cur := LevelFor(points)
	if cur.Number >= len(Levels) {
		return Level{}, false
	}
	return Levels[cur.Number], true
}

type LevelChange struct {
	From Level `json:"from"`
	To   Level `json:"to"`
}
