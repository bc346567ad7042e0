package engine

// Level is one rung of the static progression ladder.
type Level struct {
	Level      int    `json:"level"`
	Title      string `json:"title"`
	XPRequired int    `json:"xpRequired"`
	Icon       string `json:"icon"`
}

// Ladder is ordered by level number and (monotonically) by XP threshold.
// Level 1 at threshold 0 is always the floor.
var Ladder = []Level{
	{Level: 1, Title: "Spark", XPRequired: 0, Icon: "✨"},
	{Level: 2, Title: "Flicker", XPRequired: 50, Icon: "🕯️"},
	{Level: 3, Title: "Glow", XPRequired: 150, Icon: "💡"},
	{Level: 4, Title: "Blaze", XPRequired: 350, Icon: "🔥"},
	{Level: 5, Title: "Beam", XPRequired: 700, Icon: "☀️"},
	{Level: 6, Title: "Radiant", XPRequired: 1200, Icon: "🌟"},
	{Level: 7, Title: "Brilliant", XPRequired: 2000, Icon: "💫"},
	{Level: 8, Title: "Luminous", XPRequired: 3200, Icon: "🌈"},
	{Level: 9, Title: "Supernova", XPRequired: 5000, Icon: "💥"},
	{Level: 10, Title: "Transcendent", XPRequired: 8000, Icon: "🏆"},
}

// LevelForXP returns the highest level whose threshold is <= totalXP.
func LevelForXP(totalXP int) Level {
	result := Ladder[0]
	for _, l := range Ladder {
		if totalXP >= l.XPRequired {
			result = l
		}
	}
	return result
}

// NextLevelAfter returns the ladder entry following l, if any.
func NextLevelAfter(l Level) (Level, bool) {
	for _, next := range Ladder {
		if next.Level == l.Level+1 {
			return next, true
		}
	}
	return Level{}, false
}
