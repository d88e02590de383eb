package model

// RankingRow is one team's line in a simulated seeding table.
type RankingRow struct {
	Position     int     `json:"position"`
	Team         int     `json:"team"`
	Name         string  `json:"name"`
	RankingScore float64 `json:"ranking_score"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	TieBreak     float64 `json:"tbp1"`
	Rating       float64 `json:"opr"`
	AutoPoints   float64 `json:"auto_opr"`
}

// Distribution counts trials that finished at or above each threshold.
type Distribution struct {
	Top10 int `json:"top_10"`
	Top20 int `json:"top_20"`
	Top50 int `json:"top_50"`
}

// SimulationSummary aggregates repeated seeding trials for one team.
type SimulationSummary struct {
	Team         int          `json:"team"`
	Trials       int          `json:"simulations"`
	Completed    int          `json:"completed"`
	AvgPosition  float64      `json:"avg_position"`
	MinPosition  int          `json:"min_position"`
	MaxPosition  int          `json:"max_position"`
	AvgWins      float64      `json:"avg_wins"`
	Distribution Distribution `json:"position_distribution"`
}

// Comparison reports two independent simulation runs side by side.
// Better holds the team with the lower average position, 0 on a tie.
type Comparison struct {
	Team1  SimulationSummary `json:"team1"`
	Team2  SimulationSummary `json:"team2"`
	Better int               `json:"better"`
}
