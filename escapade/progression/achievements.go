package progression

// AchievementDef describes one unlockable achievement and the condition that
// earns it.
type AchievementDef struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Check       func(s Snapshot) bool `json:"-"`
}

// Snapshot is everything achievement checks can see.
type Snapshot struct {
	TruthOrDarePlayed    int
	NeverHaveIEverPlayed int
	EscapesCompleted     int
	TotalScore           int
	FavoriteCount        int
	AdventureCount       int
}

func (s Snapshot) gamesPlayed() int {
	return s.TruthOrDarePlayed + s.NeverHaveIEverPlayed
}

// Achievements is the fixed achievement catalog, in display order.
var Achievements = []AchievementDef{
	{
		ID:          "first_game",
		Name:        "Breaking the Ice",
		Description: "Play your first game together",
		Check:       func(s Snapshot) bool { return s.gamesPlayed() >= 1 },
	},
	{
		ID:          "truth_master",
		Name:        "Truth Master",
		Description: "Play 10 rounds of Truth or Dare",
		Check:       func(s Snapshot) bool { return s.TruthOrDarePlayed >= 10 },
	},
	{
		ID:          "dare_devil",
		Name:        "Dare Devil",
		Description: "Play 25 rounds of Truth or Dare",
		Check:       func(s Snapshot) bool { return s.TruthOrDarePlayed >= 25 },
	},
	{
		ID:          "never_novice",
		Name:        "Never Novice",
		Description: "Play 10 rounds of Never Have I Ever",
		Check:       func(s Snapshot) bool { return s.NeverHaveIEverPlayed >= 10 },
	},
	{
		ID:          "never_expert",
		Name:        "Never Expert",
		Description: "Play 25 rounds of Never Have I Ever",
		Check:       func(s Snapshot) bool { return s.NeverHaveIEverPlayed >= 25 },
	},
	{
		ID:          "explorer",
		Name:        "Explorer",
		Description: "Complete your first escape adventure",
		Check:       func(s Snapshot) bool { return s.EscapesCompleted >= 1 },
	},
	{
		ID:          "adventurer",
		Name:        "Adventurer",
		Description: "Complete 4 escape adventures",
		Check:       func(s Snapshot) bool { return s.EscapesCompleted >= 4 },
	},
	{
		ID:          "escape_master",
		Name:        "Escape Master",
		Description: "Complete every escape adventure",
		Check: func(s Snapshot) bool {
			return s.AdventureCount > 0 && s.EscapesCompleted >= s.AdventureCount
		},
	},
	{
		ID:          "collector",
		Name:        "Collector",
		Description: "Save 10 favorite cards",
		Check:       func(s Snapshot) bool { return s.FavoriteCount >= 10 },
	},
	{
		ID:          "high_scorer",
		Name:        "High Scorer",
		Description: "Reach a total score of 100",
		Check:       func(s Snapshot) bool { return s.TotalScore >= 100 },
	},
}

// Evaluate returns the IDs of all achievements the snapshot satisfies.
func Evaluate(s Snapshot) []string {
	var earned []string
	for _, def := range Achievements {
		if def.Check(s) {
			earned = append(earned, def.ID)
		}
	}
	return earned
}
