package engine

// XP rewards for the core gameplay loop.
const (
	XPTaskComplete = 10
	XPQuickWin     = 5
	XPAllTasksDone = 50
	XPMVDComplete  = 30
)

// Quick-win rules: a task estimated at QuickWinMaxMinutes or less is a quick
// win, and its reward is capped at QuickWinMaxXP.
const (
	QuickWinMaxMinutes = 2
	QuickWinMaxXP      = 5
)

// StreakMilestones maps consecutive-day streak lengths to their bonus XP.
var StreakMilestones = map[int]int{
	3:  25,
	7:  75,
	14: 150,
	30: 500,
}

// IsQuickWin reports whether a task of the given duration counts as a quick win.
func IsQuickWin(estimatedMinutes int) bool {
	return estimatedMinutes <= QuickWinMaxMinutes
}

// ClampReward applies the reward default and the quick-win cap. A zero or
// negative reward means "use the default".
func ClampReward(reward int, quickWin bool) int {
	if reward <= 0 {
		reward = XPTaskComplete
		if quickWin {
			reward = XPQuickWin
		}
	}
	if quickWin && reward > QuickWinMaxXP {
		return QuickWinMaxXP
	}
	return reward
}
