package engine

// StarterTasks are seeded on first run so a new user has something to check
// off immediately.
var StarterTasks = []AddTaskInput{
	{
		Text:             "Check this box for instant dopamine",
		Category:         CategoryRoutine,
		Energy:           EnergyLow,
		EstimatedMinutes: 1,
		XPReward:         5,
	},
	{
		Text:             "Drink a glass of water",
		Category:         CategoryHealth,
		Energy:           EnergyLow,
		EstimatedMinutes: 1,
		Essential:        true,
		XPReward:         5,
		Recurring:        true,
	},
	{
		Text:             "Do one thing on your to-do list",
		Category:         CategoryWork,
		Energy:           EnergyMedium,
		EstimatedMinutes: 10,
		Essential:        true,
		XPReward:         15,
		Recurring:        true,
	},
	{
		Text:             "Take a 5-minute walk",
		Category:         CategoryHealth,
		Energy:           EnergyLow,
		EstimatedMinutes: 5,
		XPReward:         10,
		Recurring:        true,
	},
	{
		Text:             "Work on main project for 25 minutes",
		Category:         CategoryWork,
		Energy:           EnergyHigh,
		EstimatedMinutes: 25,
		XPReward:         25,
		Recurring:        true,
	},
}
